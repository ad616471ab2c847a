package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"siteulation/internal/credits"
	"siteulation/internal/generate"
	"siteulation/internal/middleware"
	"siteulation/internal/supabase"
)

type generatePayload struct {
	Prompt      string `json:"prompt"`
	Name        string `json:"name"`
	Model       string `json:"model"`
	Provider    string `json:"provider"`
	RemixID     string `json:"remix_id"`
	Multiplayer bool   `json:"multiplayer"`
	Mobile      bool   `json:"mobile"`
}

// Generate runs the full generation flow for the session user. Banned
// users are rejected before any debit or provider call.
func (h *Handler) Generate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user.IsBanned {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You have been banned from generating projects"})
	}

	var payload generatePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if payload.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Prompt required"})
	}

	req := generate.Request{
		Prompt:      payload.Prompt,
		Name:        payload.Name,
		Model:       payload.Model,
		Provider:    payload.Provider,
		Multiplayer: payload.Multiplayer,
		Mobile:      payload.Mobile,
	}

	if payload.RemixID != "" {
		prior, err := h.db.GetCart(c.UserContext(), payload.RemixID)
		if err != nil {
			if errors.Is(err, supabase.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Remix source not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load remix source", "details": err.Error()})
		}
		req.RemixCode = prior.Code
	}

	cart, err := h.generator.Generate(c.UserContext(), user, req)
	switch {
	case err == nil:
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "cart": cart})
	case errors.Is(err, credits.ErrInsufficientCredits):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Insufficient credits"})
	case errors.Is(err, generate.ErrUnknownProvider):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("generation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Generation failed", "details": err.Error()})
	}
}
