package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyConfig_ConnectorConfig(t *testing.T) {
	cfg := &CompanyConfig{
		Connectors: map[string]any{
			"storage": map[string]any{"type": "local", "path": "/tmp"},
			"broken":  "not-a-map",
		},
	}

	t.Run("returns a copy", func(t *testing.T) {
		block, ok := cfg.ConnectorConfig("storage")
		require.True(t, ok)
		block["path"] = "p"

		again, _ := cfg.ConnectorConfig("storage")
		assert.Equal(t, "/tmp", again["path"])
	})

	t.Run("missing alias", func(t *testing.T) {
		_, ok := cfg.ConnectorConfig("missing")
		assert.False(t, ok)
	})

	t.Run("non-map entry", func(t *testing.T) {
		_, ok := cfg.ConnectorConfig("broken")
		assert.False(t, ok)
	})

	t.Run("empty alias", func(t *testing.T) {
		_, ok := cfg.ConnectorConfig("")
		assert.False(t, ok)
	})
}

func TestCompanyConfig_ConnectorSummaries(t *testing.T) {
	cfg := &CompanyConfig{
		Connectors: map[string]any{
			"zeta":  map[string]any{"type": "s3"},
			"alpha": map[string]any{"type": "local"},
			"skip":  []any{"x"},
		},
	}

	got := cfg.ConnectorSummaries()
	assert.Equal(t, []ConnectorSummary{
		{Name: "alpha", Type: "local"},
		{Name: "zeta", Type: "s3"},
	}, got)
}

func TestCompanyConfig_ConnectorSummaries_Nil(t *testing.T) {
	var cfg *CompanyConfig
	got := cfg.ConnectorSummaries()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestKnowledgeBaseConfig_BaseConnector(t *testing.T) {
	t.Run("dev default is local", func(t *testing.T) {
		kb := KnowledgeBaseConfig{}
		assert.Equal(t, map[string]any{"type": "local"}, kb.BaseConnector(EnvDevelopment))
	})

	t.Run("dev configured", func(t *testing.T) {
		kb := KnowledgeBaseConfig{Connectors: map[string]map[string]any{
			"development": {"type": "local", "path": "/data"},
		}}
		assert.Equal(t, "/data", kb.BaseConnector(EnvDevelopment)["path"])
	})

	t.Run("prod without config is empty", func(t *testing.T) {
		kb := KnowledgeBaseConfig{}
		assert.Empty(t, kb.BaseConnector(EnvProduction))
	})

	t.Run("prod configured", func(t *testing.T) {
		kb := KnowledgeBaseConfig{Connectors: map[string]map[string]any{
			"production": {"type": "s3", "bucket": "kb"},
		}}
		assert.Equal(t, "s3", kb.BaseConnector(EnvProduction)["type"])
	})
}

func TestKnowledgeBaseConfig_Collection(t *testing.T) {
	kb := KnowledgeBaseConfig{Collections: []CollectionConfig{
		{Name: "legal", ParserProvider: "docling"},
	}}

	c, ok := kb.Collection("legal")
	require.True(t, ok)
	assert.Equal(t, "docling", c.ParserProvider)

	_, ok = kb.Collection("hr")
	assert.False(t, ok)
}

func TestCollectionType_NormalisedParserProvider(t *testing.T) {
	assert.Equal(t, "docling", (&CollectionType{ParserProvider: "  Docling "}).NormalisedParserProvider())
	assert.Empty(t, (*CollectionType)(nil).NormalisedParserProvider())
}
