package driven

import (
	"context"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// ParsingProvider converts raw file bytes into structured text.
type ParsingProvider interface {
	// Name returns the provider name ("legacy", "docling").
	Name() string

	// Enabled reports whether the provider may be used at all.
	Enabled() bool

	// Supports reports whether the provider handles this file.
	Supports(req domain.ParseRequest) bool

	// Parse extracts text blocks, tables and images.
	Parse(ctx context.Context, req domain.ParseRequest) (*domain.ParseResult, error)
}

// ParsingProviderFactory returns providers by name.
type ParsingProviderFactory interface {
	// Get returns the named provider or domain.ErrConfig if unknown.
	Get(name string) (ParsingProvider, error)
}
