package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/VisitAudit/internal/app/model"
)

const adminKey = "admin_identity"

// TokenVerifier resolves a bearer token to an admin identity, or nil.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) *model.AdminIdentity
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// RequireAdmin rejects requests without a valid admin token before any handler runs.
func RequireAdmin(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthorized(c)
		}

		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}

		identity := verifier.Verify(ctx, token)
		if identity == nil {
			return unauthorized(c)
		}

		c.Locals(adminKey, identity)
		return c.Next()
	}
}

// AdminIdentity returns the identity stored by RequireAdmin.
func AdminIdentity(c *fiber.Ctx) *model.AdminIdentity {
	identity, _ := c.Locals(adminKey).(*model.AdminIdentity)
	return identity
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   "Unauthorized",
	})
}
