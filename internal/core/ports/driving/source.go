package driving

import (
	"context"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// IngestionSourceService manages ingestion source configurations.
type IngestionSourceService interface {
	// ListSources returns every source of the company.
	ListSources(ctx context.Context, company *domain.Company) ([]domain.IngestionSource, error)

	// GetSource returns one source or domain.ErrNotFound.
	GetSource(ctx context.Context, company *domain.Company, sourceID int64) (*domain.IngestionSource, error)

	// CreateSource validates input and persists a new ACTIVE source.
	CreateSource(ctx context.Context, company *domain.Company, in domain.SourceInput) (*domain.IngestionSource, error)

	// UpdateSource applies the supplied fields. Running sources are rejected.
	UpdateSource(ctx context.Context, company *domain.Company, sourceID int64, in domain.SourceInput) (*domain.IngestionSource, error)

	// DeleteSource removes a source. Running sources are rejected.
	DeleteSource(ctx context.Context, company *domain.Company, sourceID int64) error
}
