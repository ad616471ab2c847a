package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"siteulation/internal/credits"
	"siteulation/internal/models"
	"siteulation/internal/supabase"
)

// Request is one generation call.
type Request struct {
	Prompt      string
	Name        string // display name; derived from the prompt when empty
	Model       string // model selector for the official tier
	Provider    string // provider selector; empty means the default
	RemixCode   string // prior project payload, structured or legacy text
	Multiplayer bool
	Mobile      bool
}

// Service runs the full generation flow: provider lookup, credit debit,
// backend call, normalization and the atomic persist of the result.
type Service struct {
	db        *supabase.Client
	ledger    *credits.Ledger
	providers Registry
	log       zerolog.Logger
}

// NewService creates the dispatcher.
func NewService(db *supabase.Client, ledger *credits.Ledger, providers Registry, log zerolog.Logger) *Service {
	return &Service{db: db, ledger: ledger, providers: providers, log: log}
}

// Generate produces and persists a cart for the user. The debit happens
// before any provider call; an insufficient balance never reaches a model.
// A provider failure after the debit is surfaced without compensation.
func (s *Service) Generate(ctx context.Context, user *models.User, req Request) (*models.Cart, error) {
	provider, err := s.providers.Lookup(req.Provider)
	if err != nil {
		return nil, err
	}

	modelLabel := provider.Name()
	if g, ok := provider.(*Gemini); ok {
		g = g.WithModel(ModelForChoice(req.Model))
		provider = g
		modelLabel = g.model
	}

	if err := s.ledger.Debit(ctx, user, provider.Cost()); err != nil {
		return nil, err
	}

	system := BuildSystemInstruction(req.Multiplayer, req.Mobile)
	prompt := BuildUserPrompt(req.Prompt, req.RemixCode)

	s.log.Info().
		Str("user_id", user.ID).
		Str("provider", provider.Name()).
		Str("model", modelLabel).
		Bool("multiplayer", req.Multiplayer).
		Msg("dispatching generation")

	raw, err := provider.Generate(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", provider.Name(), err)
	}

	files := Normalize(raw)

	cart := &models.Cart{
		UserID:   user.ID,
		Username: user.Username,
		Name:     cartName(req),
		Prompt:   req.Prompt,
		Model:    modelLabel,
		Code:     EncodeFiles(files),
		IsListed: true,
	}
	stored, err := s.db.InsertCart(ctx, cart)
	if err != nil {
		return nil, fmt.Errorf("persist cart: %w", err)
	}
	return stored, nil
}

func cartName(req Request) string {
	if req.Name != "" {
		return req.Name
	}
	name := strings.TrimSpace(req.Prompt)
	if len(name) > 48 {
		name = strings.TrimSpace(name[:48])
	}
	if name == "" {
		name = "Untitled"
	}
	return name
}
