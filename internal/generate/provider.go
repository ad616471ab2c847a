// Package generate turns a prompt into a persisted multi-file project:
// provider dispatch, prompt construction, output normalization and the
// credit debit that gates it all.
package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Provider is one text-generation backend. Cost is the fixed per-call
// debit for its tier.
type Provider interface {
	Name() string
	Cost() int
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// ErrUnknownProvider rejects a provider selector with no registered backend.
var ErrUnknownProvider = errors.New("unknown provider")

// DefaultProvider is used when the caller does not pick one.
const DefaultProvider = "official"

// Registry is the provider lookup table.
type Registry map[string]Provider

// NewRegistry wires up every backend that has credentials available.
// Pollinations is keyless, so the free tier is always present.
func NewRegistry(geminiKey, openRouterKey string) Registry {
	r := Registry{}
	if geminiKey != "" {
		r["official"] = NewGemini(geminiKey)
	}
	if openRouterKey != "" {
		r["openrouter"] = NewOpenRouter(openRouterKey)
	}
	r["pollinations"] = NewPollinations()
	return r
}

// Lookup resolves a provider selector, falling back to the default for an
// empty selector.
func (r Registry) Lookup(name string) (Provider, error) {
	if name == "" {
		name = DefaultProvider
	}
	p, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Generation calls get a long fixed timeout and no retries; a failure is
// surfaced to the caller immediately.
const generateTimeout = 120 * time.Second

func newProviderClient() *http.Client {
	return &http.Client{Timeout: generateTimeout}
}
