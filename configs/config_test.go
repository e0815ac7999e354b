package configs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/ledger/configs"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := configs.Load()
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.TempAssets.AudioTTL)
	require.Equal(t, 30*time.Minute, cfg.TempAssets.ImageTTL)
	require.False(t, cfg.Storage.Configured())
	require.False(t, cfg.Auth.Enabled())
	require.Equal(t, 3, cfg.AI.ASRMaxAttempts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TEMP_AUDIO_TTL", "90s")
	t.Setenv("BUCKET_ENDPOINT_URL", "https://s3.example.com")
	t.Setenv("BUCKET_NAME", "ledger")
	t.Setenv("AUTH_JWT_SECRET", "s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PUBLIC_URL", "https://ledger.example.com/")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/ledger")

	cfg, err := configs.Load()
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.TempAssets.AudioTTL)
	require.True(t, cfg.Storage.Configured())
	require.True(t, cfg.Auth.Enabled())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	require.Equal(t, "https://ledger.example.com", cfg.Server.PublicURL)
	require.Equal(t, "postgres://u:p@db/ledger", cfg.Database.DSN)
}

func TestLoad_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("TEMP_IMAGE_TTL", "-1s")
	_, err := configs.Load()
	require.Error(t, err)
}
