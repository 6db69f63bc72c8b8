package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"ARTIFACT_BUCKET", "MANIFEST_BUCKET", "APP_PORT", "RATE_LIMIT_MAX_REQUESTS",
		"REDIS_DB", "MAX_PIXELS",
	}
	for _, k := range keys {
		orig, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, orig)
			}
		})
	}
}

func TestLoadConfig_FailsWithoutArtifactBucket(t *testing.T) {
	clearConfigEnv(t)
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARTIFACT_BUCKET")
}

func TestLoadConfig_FailsWithoutManifestBucket(t *testing.T) {
	clearConfigEnv(t)
	os.Setenv("ARTIFACT_BUCKET", "artifacts")
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANIFEST_BUCKET")
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	clearConfigEnv(t)
	os.Setenv("ARTIFACT_BUCKET", "artifacts")
	os.Setenv("MANIFEST_BUCKET", "manifests")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 2_300_000, cfg.Normalize.MaxPixels)
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
}

func TestGetEnvInt_FallsBackOnInvalidValue(t *testing.T) {
	os.Setenv("MAX_PIXELS", "not-a-number")
	t.Cleanup(func() { os.Unsetenv("MAX_PIXELS") })
	assert.Equal(t, 42, getEnvInt("MAX_PIXELS", 42))
}
