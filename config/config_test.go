package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 180.0, cfg.Alignment.SpringK, "default spring_k")
	assert.Equal(t, 0.5, cfg.Alignment.Tolerance, "default tolerance")
	assert.Equal(t, 3*time.Second, cfg.Sync.FullSyncCooldown)
	assert.Equal(t, 100*1024, cfg.Undo.LargePayloadThreshold)

	require.Len(t, cfg.Upload.RetryBackoff, 3)
	assert.Equal(t, 2*time.Second, cfg.Upload.RetryBackoff[0])
	assert.Equal(t, 6*time.Second, cfg.Upload.RetryBackoff[2])
}

func TestLoad_EnvOverride(t *testing.T) {
	Reset()
	defer Reset()

	os.Setenv("CANVAS_UPLOAD_MAX_RETRIES", "7")
	defer os.Unsetenv("CANVAS_UPLOAD_MAX_RETRIES")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Upload.MaxRetries, "env override should set max_retries")
}

func TestLoad_Caches(t *testing.T) {
	Reset()
	defer Reset()

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second, "Load should return the cached config on subsequent calls")
}
