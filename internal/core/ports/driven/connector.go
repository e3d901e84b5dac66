package driven

import (
	"context"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// Connector lists and reads files from one storage backend.
// Each backend type (local, s3, minio) implements this interface.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// ListFiles returns every file below the configured root.
	ListFiles(ctx context.Context) ([]domain.FileRef, error)

	// ReadFile returns the content of a file previously listed.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// Close releases resources.
	Close() error
}

// WatchableConnector is implemented by connectors that can push file changes.
type WatchableConnector interface {
	Connector

	// Watch emits a change for every created or modified file until ctx ends.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)
}

// ConnectorFactory creates connectors from a flat configuration map.
// The "type" key selects the backend.
type ConnectorFactory interface {
	Create(ctx context.Context, config map[string]any) (Connector, error)

	// SupportedTypes lists the registered connector types.
	SupportedTypes() []string
}
