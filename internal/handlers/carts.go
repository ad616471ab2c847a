package handlers

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"math/rand"

	"github.com/gofiber/fiber/v2"

	"siteulation/internal/middleware"
	"siteulation/internal/models"
	"siteulation/internal/supabase"
)

// ListCarts lists carts. Without a user_id filter only publicly listed
// carts come back; with one, all carts of that user.
func (h *Handler) ListCarts(c *fiber.Ctx) error {
	carts, err := h.db.ListCarts(c.UserContext(), c.Query("sort", "recent"), c.Query("user_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list carts", "details": err.Error()})
	}
	if carts == nil {
		carts = []models.Cart{}
	}
	return c.JSON(carts)
}

// RandomCart returns one random publicly listed cart.
func (h *Handler) RandomCart(c *fiber.Ctx) error {
	carts, err := h.db.ListedCarts(c.UserContext(), 100)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load carts", "details": err.Error()})
	}
	if len(carts) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No carts available"})
	}
	return c.JSON(carts[rand.Intn(len(carts))])
}

// GetCart fetches one cart by id.
func (h *Handler) GetCart(c *fiber.Ctx) error {
	cart, err := h.db.GetCart(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Cart not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load cart", "details": err.Error()})
	}
	return c.JSON(cart)
}

type patchCartPayload struct {
	Name     *string `json:"name"`
	IsListed *bool   `json:"is_listed"`
}

// PatchCart lets the owner rename a cart or toggle its listing state.
func (h *Handler) PatchCart(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	cart, err := h.db.GetCart(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Cart not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load cart", "details": err.Error()})
	}
	if cart.UserID != user.ID && !user.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your cart"})
	}

	var payload patchCartPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	fields := map[string]any{}
	if payload.Name != nil && *payload.Name != "" {
		fields["name"] = *payload.Name
	}
	if payload.IsListed != nil {
		fields["is_listed"] = *payload.IsListed
	}
	if len(fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to update"})
	}

	if err := h.db.UpdateCart(c.UserContext(), c.Params("id"), fields); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Update failed", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}

// DeleteCart removes a cart. Admin only.
func (h *Handler) DeleteCart(c *fiber.Ctx) error {
	if err := h.db.DeleteCart(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Delete failed", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}

// IncrementViews bumps the view counter. The count is best effort: a
// failed increment is logged and the response still reports success so a
// flaky counter never breaks viewing.
func (h *Handler) IncrementViews(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.db.IncrementViews(c.UserContext(), id); err != nil {
		h.log.Warn().Err(err).Str("cart_id", id).Msg("view increment failed")
		return c.JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true})
}

// DownloadCart packages the cart's files into a zip archive.
func (h *Handler) DownloadCart(c *fiber.Ctx) error {
	cart, err := h.db.GetCart(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Cart not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load cart", "details": err.Error()})
	}

	files, err := models.DecodeFiles(cart.Code)
	if err != nil {
		// Stored code is guaranteed parseable; this means corruption.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Stored project is corrupted", "details": err.Error()})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files.Files {
		w, err := zw.Create(f.Name)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Zip failed", "details": err.Error()})
		}
		if _, err := w.Write([]byte(f.Content)); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Zip failed", "details": err.Error()})
		}
	}
	if err := zw.Close(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Zip failed", "details": err.Error()})
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="cart-%d.zip"`, cart.ID))
	return c.Send(buf.Bytes())
}
