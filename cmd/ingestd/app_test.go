package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatoolkit/ingestd/internal/adapters/driven/config/file"
	"github.com/iatoolkit/ingestd/internal/adapters/driven/embedding/openai"
	"github.com/iatoolkit/ingestd/internal/adapters/driven/storage/memory"
	"github.com/iatoolkit/ingestd/internal/core/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for env := range envKeys {
		t.Setenv(env, "")
	}
	old := getenv
	getenv = func(string) string { return "" }
	t.Cleanup(func() { getenv = old })
}

func newTestConfig(t *testing.T, values map[string]any) *memory.ConfigStore {
	t.Helper()
	return memory.NewConfigStore(values)
}

func TestEnvironment(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", domain.EnvDevelopment},
		{"dev", domain.EnvDevelopment},
		{"prod", domain.EnvProduction},
		{"production", domain.EnvProduction},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg := newTestConfig(t, map[string]any{"environment": tt.value})
			assert.Equal(t, tt.want, environment(cfg))
		})
	}
}

func TestChunkerConfig(t *testing.T) {
	assert.Empty(t, chunkerConfig(newTestConfig(t, nil)))

	cfg := newTestConfig(t, map[string]any{"chunker.chunk_size": 500, "chunker.overlap": 50})
	assert.Equal(t, map[string]any{"chunk_size": 500, "overlap": 50}, chunkerConfig(cfg))
}

func TestNewEmbeddings(t *testing.T) {
	clearEnv(t)
	ctx := context.Background()

	t.Run("no provider and no key", func(t *testing.T) {
		svc, err := newEmbeddings(ctx, newTestConfig(t, nil))
		require.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("explicit none", func(t *testing.T) {
		svc, err := newEmbeddings(ctx, newTestConfig(t, map[string]any{"embedding.provider": "none"}))
		require.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("openai from key", func(t *testing.T) {
		svc, err := newEmbeddings(ctx, newTestConfig(t, map[string]any{
			"embedding.api_key": "sk-test",
			"embedding.model":   "text-embedding-3-large",
		}))
		require.NoError(t, err)
		require.IsType(t, &openai.EmbeddingService{}, svc)
		assert.Equal(t, 3072, svc.Dimensions())
	})

	t.Run("openai without key", func(t *testing.T) {
		_, err := newEmbeddings(ctx, newTestConfig(t, map[string]any{"embedding.provider": "openai"}))
		assert.ErrorIs(t, err, domain.ErrConfig)
	})

	t.Run("gemini without key", func(t *testing.T) {
		_, err := newEmbeddings(ctx, newTestConfig(t, map[string]any{"embedding.provider": "gemini"}))
		assert.ErrorIs(t, err, domain.ErrConfig)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := newEmbeddings(ctx, newTestConfig(t, map[string]any{"embedding.provider": "cohere"}))
		assert.ErrorIs(t, err, domain.ErrConfig)
	})
}

func TestNewApp(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	companiesDir := filepath.Join(dir, "companies")
	require.NoError(t, os.MkdirAll(filepath.Join(companiesDir, "acme"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(companiesDir, "acme", "company.yaml"), []byte(`
name: Acme Corp
knowledge_base:
  collections:
    - name: legal
connectors:
  local_docs:
    type: local
`), 0o600))

	cfg, err := file.NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Set("storage.data_dir", filepath.Join(dir, "data")))
	require.NoError(t, cfg.Set("companies.dir", companiesDir))
	require.NoError(t, cfg.Set("auth.jwt_secret", "s3cret"))
	require.NoError(t, cfg.Set("scheduler.enabled", false))

	a, err := newApp(context.Background(), dir)
	require.NoError(t, err)
	defer a.Close()

	services := a.Services()
	assert.Equal(t, "s3cret", services.Server.JWTSecret)
	assert.False(t, services.Server.SchedulerEnabled)
	assert.NotNil(t, services.Server.Metrics)

	company, err := services.Companies.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", company.Name)

	connectors, err := services.Companies.ListConnectors(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConnectorSummary{{Name: "local_docs", Type: "local"}}, connectors)

	sources, err := services.Ingestor.ListSources(context.Background(), company)
	require.NoError(t, err)
	assert.Empty(t, sources)
}
