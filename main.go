package main

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/rs/zerolog"

	"siteulation/internal/auth"
	"siteulation/internal/config"
	"siteulation/internal/credits"
	"siteulation/internal/generate"
	"siteulation/internal/handlers"
	"siteulation/internal/middleware"
	"siteulation/internal/relay"
	"siteulation/internal/routes"
	"siteulation/internal/supabase"
)

const authCacheTTL = 60 * time.Second

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	db := supabase.New(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseAnonKey)
	ledger := credits.NewLedger(db, nil)
	cache := auth.NewMemoryCache(authCacheTTL, nil)
	verifier := auth.NewVerifier(db, cache, ledger, cfg.SupabaseJWTSecret, cfg.AdminUsername)

	providers := generate.NewRegistry(cfg.GeminiAPIKey, cfg.OpenRouterAPIKey)
	generator := generate.NewService(db, ledger, providers, log)
	hub := relay.NewHub()

	h := handlers.New(cfg, db, ledger, generator, hub, log)
	m := middleware.New(verifier)

	engine := html.New("./views", ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
	})

	routes.SetupRoutes(app, h, m, cfg.FrontendDir)

	log.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
