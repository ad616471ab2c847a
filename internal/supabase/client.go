// Package supabase is the gateway to the hosted Supabase project: the
// PostgREST data API and the GoTrue auth API. All persistence in this
// service goes through the REST contract; there is no local database.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrInvalidToken means the credential is absent or expired. It is the
	// "no session" outcome, not an upstream failure.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRateLimited is the identity service telling us to back off. It must
	// reach the caller as 429, never be folded into "invalid token".
	ErrRateLimited = errors.New("identity service rate limited")
)

// APIError carries the upstream status and body so handlers can echo details.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase API error %d: %s", e.Status, e.Body)
}

const maxErrorBodyBytes = 32 << 10

// Client wraps the Supabase REST API with the two-tier keys: the service
// key for data access, the anon key for auth calls made on behalf of users.
type Client struct {
	url        string
	serviceKey string
	anonKey    string
	httpClient *http.Client
	// Identity calls sit on the request path of every authenticated route,
	// so they get a much shorter timeout than data calls.
	authClient *http.Client
}

// New creates a client for the given project URL and keys.
func New(projectURL, serviceKey, anonKey string) *Client {
	return &Client{
		url:        strings.TrimRight(projectURL, "/"),
		serviceKey: serviceKey,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		authClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Select performs a GET on a table with an already-encoded query string.
func (c *Client) Select(ctx context.Context, table, query string) ([]byte, error) {
	return c.rest(ctx, http.MethodGet, table, query, nil)
}

// Insert performs a POST insert and returns the created representation.
func (c *Client) Insert(ctx context.Context, table string, body any) ([]byte, error) {
	return c.rest(ctx, http.MethodPost, table, "", body)
}

// Update performs a PATCH on the rows matched by query.
func (c *Client) Update(ctx context.Context, table, query string, body any) ([]byte, error) {
	return c.rest(ctx, http.MethodPatch, table, query, body)
}

// Delete removes the rows matched by query.
func (c *Client) Delete(ctx context.Context, table, query string) error {
	_, err := c.rest(ctx, http.MethodDelete, table, query, nil)
	return err
}

// RPC calls a stored procedure.
func (c *Client) RPC(ctx context.Context, fn string, args any) error {
	_, err := c.request(ctx, c.httpClient, http.MethodPost,
		c.url+"/rest/v1/rpc/"+url.PathEscape(fn), args, c.serviceHeaders())
	return err
}

func (c *Client) rest(ctx context.Context, method, table, query string, body any) ([]byte, error) {
	u := c.url + "/rest/v1/" + url.PathEscape(table)
	if query != "" {
		u += "?" + query
	}
	return c.request(ctx, c.httpClient, method, u, body, c.serviceHeaders())
}

func (c *Client) serviceHeaders() map[string]string {
	return map[string]string{
		"apikey":        c.serviceKey,
		"Authorization": "Bearer " + c.serviceKey,
		"Content-Type":  "application/json",
		"Prefer":        "return=representation",
	}
}

func (c *Client) request(ctx context.Context, hc *http.Client, method, u string, body any, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	return io.ReadAll(resp.Body)
}
