package domain

import (
	"fmt"
	"time"
)

// IngestionStatus is the lifecycle state shared by sources and runs.
type IngestionStatus string

const (
	// StatusActive means idle and healthy for sources, succeeded for runs.
	StatusActive IngestionStatus = "active"

	// StatusRunning means an execution is in progress.
	StatusRunning IngestionStatus = "running"

	// StatusError means the last execution failed.
	StatusError IngestionStatus = "error"
)

// ParseIngestionStatus converts a user-supplied string into a status.
func ParseIngestionStatus(s string) (IngestionStatus, error) {
	switch IngestionStatus(s) {
	case StatusActive, StatusRunning, StatusError:
		return IngestionStatus(s), nil
	}
	return "", fmt.Errorf("%w: invalid status %q", ErrInvalidParameter, s)
}

// Well-known keys inside IngestionSource.Configuration.
const (
	ConfigKeyRoot       = "root"
	ConfigKeyFolder     = "folder"
	ConfigKeyMetadata   = "metadata"
	ConfigKeyCollection = "collection"
	ConfigKeyType       = "type"
	ConfigKeyPath       = "path"
	ConfigKeyPrefix     = "prefix"
	ConfigKeyFilter     = "filter"
)

// IngestionSource is a persisted, recurring ingestion job.
type IngestionSource struct {
	ID        int64
	CompanyID int64
	Name      string

	// ConnectorName is the alias of an entry in the company connectors block.
	ConnectorName string

	// Configuration holds source-specific settings such as root, folder,
	// metadata and collection.
	Configuration map[string]any

	CollectionTypeID *int64

	// CollectionType is populated by stores that join the collection.
	CollectionType *CollectionType

	Status       IngestionStatus
	ScheduleCron string
	LastRunAt    *time.Time
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Root returns the configured root path or prefix, or "" when absent.
func (s *IngestionSource) Root() string {
	return s.configString(ConfigKeyRoot)
}

// Folder returns the optional sub-folder below the root.
func (s *IngestionSource) Folder() string {
	return s.configString(ConfigKeyFolder)
}

// Metadata returns the predefined metadata attached to every document.
func (s *IngestionSource) Metadata() map[string]any {
	if s.Configuration == nil {
		return map[string]any{}
	}
	if m, ok := s.Configuration[ConfigKeyMetadata].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// CollectionName prefers the joined collection type over the configuration.
func (s *IngestionSource) CollectionName() string {
	if s.CollectionType != nil && s.CollectionType.Name != "" {
		return s.CollectionType.Name
	}
	return s.configString(ConfigKeyCollection)
}

// IsRunning reports whether an execution is in progress.
func (s *IngestionSource) IsRunning() bool {
	return s.Status == StatusRunning
}

func (s *IngestionSource) configString(key string) string {
	if s.Configuration == nil {
		return ""
	}
	v, _ := s.Configuration[key].(string)
	return v
}

// IngestionRun records a single execution of an IngestionSource.
type IngestionRun struct {
	ID             int64
	SourceID       int64
	CompanyID      int64
	Status         IngestionStatus
	TriggeredBy    string
	ProcessedFiles int
	ErrorMessage   string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// Duration returns the elapsed run time, or zero when unfinished.
func (r *IngestionRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// CloneConfig returns a shallow copy of a configuration map.
func CloneConfig(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
