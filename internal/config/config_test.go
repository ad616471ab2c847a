package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "./frontend", cfg.FrontendDir)
	assert.Equal(t, "./index.html", cfg.IndexFile)
	assert.Empty(t, cfg.SupabaseJWTSecret, "local JWT verification is opt-in")
}

func TestLoadMissingRequired(t *testing.T) {
	for _, key := range []string{"SUPABASE_URL", "SUPABASE_SERVICE_KEY", "SUPABASE_ANON_KEY"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("ADMIN_USERNAME", "root")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "root", cfg.AdminUsername)
}
