package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the process configuration, loaded once at startup.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR,default=:8080"`

	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	SupabaseAnonKey    string `env:"SUPABASE_ANON_KEY"`
	// Optional. When set, bearer tokens are verified locally instead of
	// round-tripping to the identity endpoint on every cache miss.
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`

	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`

	// Bootstrap admin: a fresh project has no profile with role=admin yet,
	// so this username is also treated as admin.
	AdminUsername string `env:"ADMIN_USERNAME"`

	FrontendDir string `env:"FRONTEND_DIR,default=./frontend"`
	IndexFile   string `env:"INDEX_FILE,default=./index.html"`
}

// Load reads .env (best effort) and decodes the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode env: %w", err)
	}

	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseServiceKey == "" {
		return nil, fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	return &cfg, nil
}
