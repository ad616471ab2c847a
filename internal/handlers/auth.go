package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"siteulation/internal/middleware"
)

type signupPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Signup creates a pre-confirmed user through the admin API and signs it
// straight in so the client gets a token in one round trip.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var payload signupPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if payload.Email == "" || payload.Password == "" || payload.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email, password and username are required"})
	}

	body, status, err := h.db.AdminCreateUser(c.UserContext(), payload.Email, payload.Password, payload.Username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Signup failed", "details": err.Error()})
	}
	if status >= 400 {
		return c.Status(status).JSON(fiber.Map{"error": authErrorMessage(body)})
	}

	// Auto sign-in so the frontend immediately holds a session.
	body, status, err = h.db.PasswordGrant(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "User created but auto-login failed"})
	}
	return sendJSON(c, status, body)
}

type signinPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signin proxies the password grant; the GoTrue response passes through
// untouched.
func (h *Handler) Signin(c *fiber.Ctx) error {
	var payload signinPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if payload.Email == "" || payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	body, status, err := h.db.PasswordGrant(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Signin failed", "details": err.Error()})
	}
	return sendJSON(c, status, body)
}

// Me returns the verified, enriched session user.
func (h *Handler) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// authErrorMessage digs a human-readable message out of a GoTrue error body.
func authErrorMessage(body []byte) string {
	var parsed struct {
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Msg != "" {
			return parsed.Msg
		}
		if parsed.ErrorDescription != "" {
			return parsed.ErrorDescription
		}
	}
	return string(body)
}

func sendJSON(c *fiber.Ctx, status int, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(body)
}
