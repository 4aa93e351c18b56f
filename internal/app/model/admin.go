package model

import "time"

// RoleAdmin is the only role the authenticator ever grants.
const RoleAdmin = "admin"

// AdminIdentity is the claim set carried by an admin token.
type AdminIdentity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	// Exp is the absolute expiry in seconds since the Unix epoch.
	Exp int64 `json:"exp"`
}

// ExpiresAt returns Exp as a time.
func (a *AdminIdentity) ExpiresAt() time.Time {
	return time.Unix(a.Exp, 0)
}

// LoginAttempt is the audit entry emitted for every admin login, successful or not.
// It goes to the operational log, never to the visit store.
type LoginAttempt struct {
	Timestamp time.Time
	Email     string
	IP        string
	UserAgent string
	Success   bool
}
