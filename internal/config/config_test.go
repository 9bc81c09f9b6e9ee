package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horas-api/internal/config"
)

func TestLoadReadsPrefixedEnvironment(t *testing.T) {
	t.Setenv("HORAS_JWT_SECRET", "secret")
	t.Setenv("HORAS_APP_PORT", "9090")
	t.Setenv("HORAS_PROGRESS_CACHE_TTL", "30s")
	t.Setenv("HORAS_UPLOAD_MAX_SIZE_MB", "0")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 30*time.Second, cfg.ProgressCacheTTL)
	require.Equal(t, 12*time.Hour, cfg.JWTTTL)
	require.Equal(t, 10, cfg.UploadMaxSizeMB)
	require.Equal(t, "horas.progress", cfg.NATSSubject)
	require.False(t, cfg.UploadsEnabled())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("HORAS_JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidCacheTTL(t *testing.T) {
	t.Setenv("HORAS_JWT_SECRET", "secret")
	t.Setenv("HORAS_PROGRESS_CACHE_TTL", "soon")

	_, err := config.Load()
	require.Error(t, err)
}
