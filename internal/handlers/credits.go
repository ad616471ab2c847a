package handlers

import (
	"github.com/gofiber/fiber/v2"

	"siteulation/internal/middleware"
)

// Credit requests above this are rejected outright instead of wasting an
// admin's time.
const maxCreditRequest = 100

type creditRequestPayload struct {
	Amount int `json:"amount"`
}

// RequestCredits files a pending top-up request for admin review.
func (h *Handler) RequestCredits(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var payload creditRequestPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if payload.Amount <= 0 || payload.Amount > maxCreditRequest {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be between 1 and 100"})
	}

	req, err := h.ledger.RequestCredits(c.UserContext(), user, payload.Amount)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create request", "details": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}
