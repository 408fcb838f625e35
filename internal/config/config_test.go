package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load()

	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gatherly")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()

	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gatherly")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := Load()

	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 168*time.Hour, cfg.Auth.JWTExpiry)
	require.Equal(t, 12, cfg.Auth.BcryptCost)
	require.Equal(t, int64(10<<20), cfg.Uploads.MaxBytes)
	require.Equal(t, "development", cfg.Environment)
	require.True(t, cfg.CORS.AllowAllOrigins)
}

func TestLoadProductionCORS(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gatherly")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.gatherly.dev, https://gatherly.dev")

	cfg, err := Load()

	require.NoError(t, err)
	require.False(t, cfg.CORS.AllowAllOrigins)
	require.Equal(t, []string{"https://app.gatherly.dev", "https://gatherly.dev"}, cfg.CORS.AllowedOrigins)
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("DATABASE_URL", "postgres://localhost/gatherly")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()

	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
}
