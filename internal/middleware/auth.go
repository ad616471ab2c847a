package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"siteulation/internal/models"
	"siteulation/internal/supabase"
)

// TokenVerifier resolves an Authorization header to a session user.
// (user, nil) valid; (nil, nil) no session; errors are upstream failures.
type TokenVerifier interface {
	Verify(ctx context.Context, authHeader string) (*models.User, error)
}

// Middleware bundles the auth checks used by the route table.
type Middleware struct {
	verifier TokenVerifier
}

// New creates the middleware set.
func New(verifier TokenVerifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// RequireUser verifies the bearer token and stores the enriched user in
// c.Locals("user"). Rate limiting from the identity service propagates as
// 429, never as a generic auth failure.
func (m *Middleware) RequireUser(c *fiber.Ctx) error {
	user, err := m.verifier.Verify(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		if errors.Is(err, supabase.ErrRateLimited) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, slow down"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Auth verification failed", "details": err.Error()})
	}
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user", user)
	return c.Next()
}

// RequireAdmin must run after RequireUser.
func RequireAdmin(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}
	if !user.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
	}
	return c.Next()
}

// CurrentUser pulls the session user set by RequireUser.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}
