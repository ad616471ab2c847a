package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"siteulation/internal/models"
)

// GetProfile fetches the profile row for a user, or ErrNotFound.
func (c *Client) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	data, err := c.Select(ctx, "profiles", "select=*&id=eq."+url.QueryEscape(userID))
	if err != nil {
		return nil, err
	}
	var profiles []models.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrNotFound
	}
	return &profiles[0], nil
}

// InsertProfile creates a profile row.
func (c *Client) InsertProfile(ctx context.Context, p *models.Profile) error {
	_, err := c.Insert(ctx, "profiles", p)
	return err
}

// UpdateProfile patches fields on a profile row. Balance mutations are
// plain full-field writes; last write wins.
func (c *Client) UpdateProfile(ctx context.Context, userID string, fields map[string]any) error {
	_, err := c.Update(ctx, "profiles", "id=eq."+url.QueryEscape(userID), fields)
	return err
}
