// Package handlers contains the HTTP route handlers. Each handler works on
// services injected through the Handler struct; nothing reaches for
// package-level state.
package handlers

import (
	"github.com/rs/zerolog"

	"siteulation/internal/config"
	"siteulation/internal/credits"
	"siteulation/internal/generate"
	"siteulation/internal/relay"
	"siteulation/internal/supabase"
)

// Handler carries the wired services for all routes.
type Handler struct {
	cfg       *config.Config
	db        *supabase.Client
	ledger    *credits.Ledger
	generator *generate.Service
	hub       *relay.Hub
	log       zerolog.Logger
}

// New creates the handler set.
func New(cfg *config.Config, db *supabase.Client, ledger *credits.Ledger, generator *generate.Service, hub *relay.Hub, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		db:        db,
		ledger:    ledger,
		generator: generator,
		hub:       hub,
		log:       log,
	}
}
