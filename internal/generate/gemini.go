package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Gemini is the official tier, backed by the Google generative language
// REST API.
type Gemini struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// ModelForChoice maps the caller-facing model selector onto a concrete
// Gemini model name.
func ModelForChoice(choice string) string {
	if choice == "gemini-3" {
		return "gemini-3-flash-preview"
	}
	return "gemini-2.5-flash"
}

// NewGemini creates the official provider.
func NewGemini(apiKey string) *Gemini {
	return &Gemini{
		apiKey:  apiKey,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		model:   "gemini-2.5-flash",
		client:  newProviderClient(),
	}
}

func (g *Gemini) Name() string { return "official" }
func (g *Gemini) Cost() int    { return 1 }

// WithModel returns a copy pinned to the given model name.
func (g *Gemini) WithModel(model string) *Gemini {
	clone := *g
	clone.model = model
	return &clone
}

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"system_instruction"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig:  geminiGenConfig{Temperature: 0.7},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<10))
		return "", fmt.Errorf("gemini API error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
