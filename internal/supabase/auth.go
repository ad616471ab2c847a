package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Identity is the GoTrue view of a user, before profile enrichment.
type Identity struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// Username digs the signup username out of the metadata.
func (id *Identity) Username() string {
	if v, ok := id.UserMetadata["username"].(string); ok && v != "" {
		return v
	}
	if at := strings.IndexByte(id.Email, '@'); at > 0 {
		return id.Email[:at]
	}
	return "Anonymous"
}

// GetUser resolves a bearer token against the identity endpoint.
// 401/403 mean no valid session (ErrInvalidToken); 429 is surfaced as
// ErrRateLimited so callers can propagate it distinctly.
func (c *Client) GetUser(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.authClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	return &id, nil
}

// PasswordGrant exchanges email/password for a session. The GoTrue response
// body and status are passed through untouched so the frontend sees the
// same contract it would get talking to Supabase directly.
func (c *Client) PasswordGrant(ctx context.Context, email, password string) ([]byte, int, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authPassthrough(ctx, c.url+"/auth/v1/token?grant_type=password", body, map[string]string{
		"apikey":       c.anonKey,
		"Content-Type": "application/json",
	})
}

// AdminCreateUser creates a pre-confirmed user via the admin API, storing
// the username in user metadata. Requires the service key.
func (c *Client) AdminCreateUser(ctx context.Context, email, password, username string) ([]byte, int, error) {
	body := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": map[string]string{"username": username},
	}
	return c.authPassthrough(ctx, c.url+"/auth/v1/admin/users", body, map[string]string{
		"apikey":        c.serviceKey,
		"Authorization": "Bearer " + c.serviceKey,
		"Content-Type":  "application/json",
	})
}

func (c *Client) authPassthrough(ctx context.Context, u string, body any, headers map[string]string) ([]byte, int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(string(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.authClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
