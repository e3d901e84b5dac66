package domain

import "sort"

// Environment names used to pick the legacy base connector.
const (
	EnvDevelopment = "dev"
	EnvProduction  = "prod"
)

// CompanyConfig is the per-company configuration document.
type CompanyConfig struct {
	ShortName     string              `yaml:"-"`
	Name          string              `yaml:"name"`
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base"`

	// Connectors maps an alias to a connector configuration block.
	Connectors map[string]any `yaml:"connectors"`
}

// KnowledgeBaseConfig is the knowledge_base section of a company config.
type KnowledgeBaseConfig struct {
	ParsingProvider string                          `yaml:"parsing_provider"`
	Collections     []CollectionConfig              `yaml:"collections"`
	DocumentSources map[string]DocumentSourceConfig `yaml:"document_sources"`

	// Connectors holds the development and production base connectors
	// used by sources declared in DocumentSources.
	Connectors map[string]map[string]any `yaml:"connectors"`
}

// CollectionConfig declares a collection type and its parser override.
type CollectionConfig struct {
	Name           string `yaml:"name"`
	ParserProvider string `yaml:"parser_provider"`
}

// DocumentSourceConfig is a source declared directly in the company config.
type DocumentSourceConfig struct {
	Path         string         `yaml:"path"`
	Folder       string         `yaml:"folder"`
	Metadata     map[string]any `yaml:"metadata"`
	Collection   string         `yaml:"collection"`
	ScheduleCron string         `yaml:"schedule_cron"`
}

// ConnectorConfig returns a copy of the connector block registered under alias.
// Entries that are not maps are treated as absent.
func (c *CompanyConfig) ConnectorConfig(alias string) (map[string]any, bool) {
	if c == nil || alias == "" {
		return nil, false
	}
	block, ok := c.Connectors[alias].(map[string]any)
	if !ok {
		return nil, false
	}
	return CloneConfig(block), true
}

// ConnectorSummary is a connector alias with its declared type.
type ConnectorSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ConnectorSummaries lists map-valued connector entries sorted by name.
func (c *CompanyConfig) ConnectorSummaries() []ConnectorSummary {
	out := []ConnectorSummary{}
	if c == nil {
		return out
	}
	for name, v := range c.Connectors {
		block, ok := v.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := block[ConfigKeyType].(string)
		out = append(out, ConnectorSummary{Name: name, Type: typ})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BaseConnector returns the knowledge base connector for env.
// Development defaults to a local connector; production has no default.
func (k KnowledgeBaseConfig) BaseConnector(env string) map[string]any {
	if env == EnvDevelopment || env == "" {
		if base, ok := k.Connectors["development"]; ok {
			return CloneConfig(base)
		}
		return map[string]any{ConfigKeyType: "local"}
	}
	if base, ok := k.Connectors["production"]; ok {
		return CloneConfig(base)
	}
	return map[string]any{}
}

// Collection finds a declared collection by name.
func (k KnowledgeBaseConfig) Collection(name string) (CollectionConfig, bool) {
	for _, c := range k.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return CollectionConfig{}, false
}
