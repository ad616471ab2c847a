package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"siteulation/internal/models"
)

// InsertCreditRequest creates a pending request and returns the stored row.
func (c *Client) InsertCreditRequest(ctx context.Context, userID, username string, amount int) (*models.CreditRequest, error) {
	payload := map[string]any{
		"user_id":  userID,
		"username": username,
		"amount":   amount,
		"status":   models.RequestPending,
	}
	data, err := c.Insert(ctx, "credit_requests", payload)
	if err != nil {
		return nil, err
	}
	var reqs []models.CreditRequest
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("decode credit request: %w", err)
	}
	if len(reqs) == 0 {
		return nil, ErrNotFound
	}
	return &reqs[0], nil
}

// PendingCreditRequests lists requests still awaiting an admin decision.
func (c *Client) PendingCreditRequests(ctx context.Context) ([]models.CreditRequest, error) {
	data, err := c.Select(ctx, "credit_requests",
		"select=*&status=eq."+models.RequestPending+"&order=created_at.desc")
	if err != nil {
		return nil, err
	}
	var reqs []models.CreditRequest
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("decode credit requests: %w", err)
	}
	return reqs, nil
}

// GetCreditRequest fetches one request by id.
func (c *Client) GetCreditRequest(ctx context.Context, id int64) (*models.CreditRequest, error) {
	data, err := c.Select(ctx, "credit_requests", "select=*&id=eq."+strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	var reqs []models.CreditRequest
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("decode credit request: %w", err)
	}
	if len(reqs) == 0 {
		return nil, ErrNotFound
	}
	return &reqs[0], nil
}

// SetCreditRequestStatus moves a request into a terminal state.
func (c *Client) SetCreditRequestStatus(ctx context.Context, id int64, status string) error {
	_, err := c.Update(ctx, "credit_requests",
		"id=eq."+strconv.FormatInt(id, 10), map[string]any{"status": status})
	return err
}
