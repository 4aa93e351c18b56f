package model

import (
	"slices"
	"time"
)

// VisitRecord describes one visit to the unsubscribe page. Client fields come from the
// collector payload; network fields are owned by the ingestion boundary.
type VisitRecord struct {
	ID string `json:"id" gorm:"primaryKey;size:36"`

	// URL parameters
	Email  string `json:"email,omitempty" gorm:"size:255;index"`
	Token  string `json:"token,omitempty" gorm:"size:255"`
	Source string `json:"source,omitempty" gorm:"size:100"`

	Timestamp       time.Time `json:"timestamp"`
	ServerTimestamp time.Time `json:"serverTimestamp" gorm:"index"`

	// Browser
	UserAgent     string   `json:"userAgent" gorm:"type:text"`
	Language      string   `json:"language" gorm:"size:35"`
	Languages     []string `json:"languages" gorm:"serializer:json"`
	Platform      string   `json:"platform" gorm:"size:50"`
	CookieEnabled bool     `json:"cookieEnabled"`
	OnLine        bool     `json:"onLine"`

	// Screen
	ScreenWidth      int `json:"screenWidth"`
	ScreenHeight     int `json:"screenHeight"`
	ScreenColorDepth int `json:"screenColorDepth"`
	ScreenPixelDepth int `json:"screenPixelDepth"`
	WindowWidth      int `json:"windowWidth"`
	WindowHeight     int `json:"windowHeight"`

	Timezone          string `json:"timezone" gorm:"size:64"`
	EstimatedLocation string `json:"estimatedLocation,omitempty" gorm:"size:64"`

	// Geolocation, only present when the visitor granted a position fix.
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Accuracy         *float64 `json:"accuracy,omitempty"`
	Altitude         *float64 `json:"altitude,omitempty"`
	AltitudeAccuracy *float64 `json:"altitudeAccuracy,omitempty"`
	Heading          *float64 `json:"heading,omitempty"`
	Speed            *float64 `json:"speed,omitempty"`

	// Navigation
	URL      string `json:"url" gorm:"type:text"`
	Referrer string `json:"referrer" gorm:"type:text"`

	NetworkInfo `gorm:"embedded"`
}

// NetworkInfo holds request-derived metadata. It is never taken from the client payload.
type NetworkInfo struct {
	IPAddress      string `json:"ipAddress" gorm:"size:64;index"`
	AcceptLanguage string `json:"acceptLanguage,omitempty" gorm:"type:text"`
	AcceptEncoding string `json:"acceptEncoding,omitempty" gorm:"size:255"`
	Connection     string `json:"connection,omitempty" gorm:"size:64"`
	Host           string `json:"host,omitempty" gorm:"size:255"`
	Origin         string `json:"origin,omitempty" gorm:"size:255"`
	Referer        string `json:"referer,omitempty" gorm:"type:text"`

	// Edge provider hints
	Country     string `json:"country,omitempty" gorm:"size:100"`
	Region      string `json:"region,omitempty" gorm:"size:100"`
	City        string `json:"city,omitempty" gorm:"size:100"`
	EdgeTraceID string `json:"edgeTraceId,omitempty" gorm:"size:64"`
}

// HasCoordinates reports whether a position fix was attached.
func (v *VisitRecord) HasCoordinates() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// Clone returns a copy that shares no slices or pointers with v.
func (v *VisitRecord) Clone() VisitRecord {
	out := *v
	out.Languages = slices.Clone(v.Languages)
	out.Latitude = cloneFloat(v.Latitude)
	out.Longitude = cloneFloat(v.Longitude)
	out.Accuracy = cloneFloat(v.Accuracy)
	out.Altitude = cloneFloat(v.Altitude)
	out.AltitudeAccuracy = cloneFloat(v.AltitudeAccuracy)
	out.Heading = cloneFloat(v.Heading)
	out.Speed = cloneFloat(v.Speed)
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

// SeenAt is the instant used for ordering and grouping: the server stamp when present,
// otherwise the client timestamp.
func (v *VisitRecord) SeenAt() time.Time {
	if !v.ServerTimestamp.IsZero() {
		return v.ServerTimestamp
	}
	return v.Timestamp
}

// Enrich replaces every server-owned field with the values observed at the request boundary
// and stamps the record. Client-sent values for those fields are discarded, even when the
// boundary value is empty.
func (v *VisitRecord) Enrich(userAgent string, network NetworkInfo, id string, now time.Time) {
	v.ID = id
	v.ServerTimestamp = now
	v.UserAgent = userAgent
	v.NetworkInfo = network
}

const (
	VisitStreamName     = "VISITS"
	VisitStreamSubject  = "visits.ingested"
	VisitConsumerName   = "visit-audit-log"
	VisitStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
