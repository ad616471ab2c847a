package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"siteulation/internal/credits"
	"siteulation/internal/middleware"
	"siteulation/internal/supabase"
)

type banPayload struct {
	UserID string `json:"user_id"`
}

// BanUser flags a profile as banned. Admin only; self-ban is rejected.
func (h *Handler) BanUser(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)

	var payload banPayload
	if err := c.BodyParser(&payload); err != nil || payload.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Target user ID required"})
	}
	if payload.UserID == admin.ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot ban yourself"})
	}

	err := h.db.UpdateProfile(c.UserContext(), payload.UserID, map[string]any{"is_banned": true})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to ban user", "details": err.Error()})
	}

	h.log.Info().Str("admin", admin.ID).Str("target", payload.UserID).Msg("user banned")
	return c.JSON(fiber.Map{"success": true})
}

// ListCreditRequests returns requests awaiting a decision. Admin only.
func (h *Handler) ListCreditRequests(c *fiber.Ctx) error {
	reqs, err := h.ledger.PendingRequests(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list requests", "details": err.Error()})
	}
	return c.JSON(reqs)
}

// ApproveCreditRequest grants the requested amount and closes the request.
func (h *Handler) ApproveCreditRequest(c *fiber.Ctx) error {
	return h.decideCreditRequest(c, h.ledger.Approve)
}

// DenyCreditRequest closes the request without granting anything.
func (h *Handler) DenyCreditRequest(c *fiber.Ctx) error {
	return h.decideCreditRequest(c, h.ledger.Deny)
}

func (h *Handler) decideCreditRequest(c *fiber.Ctx, decide func(ctx context.Context, id int64) error) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	switch err := decide(c.UserContext(), id); {
	case err == nil:
		return c.JSON(fiber.Map{"success": true})
	case errors.Is(err, supabase.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Credit request not found"})
	case errors.Is(err, credits.ErrRequestProcessed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Request already processed"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process request", "details": err.Error()})
	}
}
