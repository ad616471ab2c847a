package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Pollinations is the free tier: keyless, best effort, cost zero.
type Pollinations struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewPollinations creates the free provider.
func NewPollinations() *Pollinations {
	return &Pollinations{
		baseURL: "https://text.pollinations.ai",
		model:   "openai",
		client:  newProviderClient(),
	}
}

func (p *Pollinations) Name() string { return "pollinations" }
func (p *Pollinations) Cost() int    { return 0 }

func (p *Pollinations) Generate(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model": p.model,
		"messages": []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pollinations request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<10))
		return "", fmt.Errorf("pollinations API error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	// The endpoint answers with the completion as plain text.
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(out), nil
}
