package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/eduassign/eduassign-gateway/internal/models"
	"github.com/eduassign/eduassign-gateway/internal/utils"
)

// Decision is the route guard's verdict for one request.
type Decision int

const (
	// Allow renders the protected content.
	Allow Decision = iota
	// Unauthenticated sends the caller to sign-in.
	Unauthenticated
	// Forbidden sends the caller to their own role's landing page.
	Forbidden
)

// GuardInput is the state the decision depends on. It is re-evaluated on
// every request; nothing is cached between evaluations.
type GuardInput struct {
	UserPresent bool
	Role        string
}

// Decide is the pure gate decision over {user-present, role, allowed roles}.
// A present user with an unknown or empty role is unauthorized for any
// role-gated route, which is exactly the state after a failed profile lookup.
func Decide(in GuardInput, allowed []string) Decision {
	if !in.UserPresent {
		return Unauthenticated
	}

	role := strings.ToLower(strings.TrimSpace(in.Role))
	for _, candidate := range allowed {
		if role == strings.ToLower(strings.TrimSpace(candidate)) && role != "" {
			return Allow
		}
	}

	return Forbidden
}

// LandingPath maps a role to its dashboard so a forbidden caller can be
// redirected somewhere it is allowed to be.
func LandingPath(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case models.RoleTeacher:
		return "/teacher/dashboard"
	case models.RoleStudent:
		return "/student/dashboard"
	default:
		return "/login"
	}
}

// RequireRole guards a route group to the given roles. Unauthenticated
// callers get 401 with the sign-in path; authenticated callers outside the
// allowed set get 403 with their own landing path.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, present := CurrentUser(c)

		switch Decide(GuardInput{UserPresent: present, Role: user.Role}, roles) {
		case Allow:
			return c.Next()
		case Unauthenticated:
			c.Set("X-Redirect-To", "/login")
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		default:
			c.Set("X-Redirect-To", LandingPath(user.Role))
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
	}
}
