package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/eduassign/eduassign-gateway/internal/models"
	"github.com/eduassign/eduassign-gateway/internal/session"
)

// SessionResolver answers "who holds this token". Implemented by
// session.Manager; abstracted so handler tests can stub identity.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (models.User, session.Claims, error)
}

// Authenticate extracts the bearer token, resolves it to a user, and stores
// the identity in request locals. Requests without a valid token continue as
// anonymous; the route guard decides what that means per route.
func Authenticate(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get("Authorization"))
		if token == "" {
			return c.Next()
		}

		user, claims, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			// Invalid or revoked tokens are treated as no user at all.
			return c.Next()
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		c.Locals("user_name", user.Name)
		c.Locals("token_claims", claims)

		return c.Next()
	}
}

func bearerToken(authorization string) string {
	const bearer = "bearer "
	if len(authorization) <= len(bearer) {
		return ""
	}
	if !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(authorization[len(bearer):])
}

// CurrentUser rebuilds the authenticated user from request locals; the bool
// reports whether a user is present at all.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	id, _ := c.Locals("user_id").(string)
	if id == "" {
		return models.User{}, false
	}
	role, _ := c.Locals("user_role").(string)
	name, _ := c.Locals("user_name").(string)
	return models.User{ID: id, Role: role, Name: name}, true
}

// CurrentClaims returns the token claims for the active session.
func CurrentClaims(c *fiber.Ctx) (session.Claims, bool) {
	claims, ok := c.Locals("token_claims").(session.Claims)
	return claims, ok
}
