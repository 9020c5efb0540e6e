package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 60*time.Second, cfg.Metrics.CacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.Metrics.SweepInterval)
	assert.Equal(t, 1000, cfg.Metrics.RecorderLimit)
	assert.Equal(t, 3, cfg.Extractor.MaxRetries)
	assert.Equal(t, "po-documents", cfg.MinIO.Bucket)
	assert.Empty(t, cfg.Auth.APIKeyHashes)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENVIRONMENT", "production")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("METRICS_CACHE_TTL", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.Metrics.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "potrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: memory
auth:
  api_key_hashes:
    - "c2FsdA==$aGFzaA=="
extractor:
  url: http://extractor.local/v1/extract
  max_retries: 5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, []string{"c2FsdA==$aGFzaA=="}, cfg.Auth.APIKeyHashes)
	assert.Equal(t, "http://extractor.local/v1/extract", cfg.Extractor.URL)
	assert.Equal(t, 5, cfg.Extractor.MaxRetries)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "STORAGE_DRIVER", "mongo"},
		{"zero ttl", "METRICS_CACHE_TTL", "0s"},
		{"zero uploads", "INGEST_UPLOADS_PER_MINUTE", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}
