package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"siteulation/internal/models"
)

// ErrNotFound means the query matched no rows.
var ErrNotFound = errors.New("not found")

// PageSize is the fixed page size for cart listings.
const PageSize = 20

// ListCarts applies the read filtering policy: without a user filter only
// publicly listed carts come back; with a user filter the owner sees all of
// their carts regardless of listing state. Sort is "popular" (views desc)
// or anything else for recent (created_at desc).
func (c *Client) ListCarts(ctx context.Context, sort, userID string) ([]models.Cart, error) {
	order := "created_at.desc"
	if sort == "popular" {
		order = "views.desc"
	}

	query := fmt.Sprintf("select=*&order=%s&limit=%d", order, PageSize)
	if userID != "" {
		query += "&user_id=eq." + url.QueryEscape(userID)
	} else {
		query += "&is_listed=eq.true"
	}

	data, err := c.Select(ctx, "carts", query)
	if err != nil {
		return nil, err
	}
	var carts []models.Cart
	if err := json.Unmarshal(data, &carts); err != nil {
		return nil, fmt.Errorf("decode carts: %w", err)
	}
	return carts, nil
}

// ListedCarts returns up to limit publicly listed carts (used for random pick).
func (c *Client) ListedCarts(ctx context.Context, limit int) ([]models.Cart, error) {
	data, err := c.Select(ctx, "carts",
		fmt.Sprintf("select=*&is_listed=eq.true&order=created_at.desc&limit=%d", limit))
	if err != nil {
		return nil, err
	}
	var carts []models.Cart
	if err := json.Unmarshal(data, &carts); err != nil {
		return nil, fmt.Errorf("decode carts: %w", err)
	}
	return carts, nil
}

// GetCart fetches a single cart by id.
func (c *Client) GetCart(ctx context.Context, id string) (*models.Cart, error) {
	data, err := c.Select(ctx, "carts", "select=*&id=eq."+url.QueryEscape(id))
	if err != nil {
		return nil, err
	}
	var carts []models.Cart
	if err := json.Unmarshal(data, &carts); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if len(carts) == 0 {
		return nil, ErrNotFound
	}
	return &carts[0], nil
}

// InsertCart persists a new cart and returns the stored row.
func (c *Client) InsertCart(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	payload := map[string]any{
		"user_id":   cart.UserID,
		"username":  cart.Username,
		"name":      cart.Name,
		"prompt":    cart.Prompt,
		"model":     cart.Model,
		"code":      cart.Code,
		"views":     0,
		"is_listed": cart.IsListed,
	}
	data, err := c.Insert(ctx, "carts", payload)
	if err != nil {
		return nil, err
	}
	var carts []models.Cart
	if err := json.Unmarshal(data, &carts); err != nil {
		return nil, fmt.Errorf("decode created cart: %w", err)
	}
	if len(carts) == 0 {
		return nil, ErrNotFound
	}
	return &carts[0], nil
}

// UpdateCart patches the given fields on a cart row.
func (c *Client) UpdateCart(ctx context.Context, id string, fields map[string]any) error {
	_, err := c.Update(ctx, "carts", "id=eq."+url.QueryEscape(id), fields)
	return err
}

// DeleteCart removes a cart row.
func (c *Client) DeleteCart(ctx context.Context, id string) error {
	return c.Delete(ctx, "carts", "id=eq."+url.QueryEscape(id))
}

// IncrementViews bumps the view counter via the stored procedure.
func (c *Client) IncrementViews(ctx context.Context, id string) error {
	return c.RPC(ctx, "increment_cart_views", map[string]string{"row_id": id})
}
