package driven

import (
	"context"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// CompanyConfigProvider supplies per-company configuration documents.
type CompanyConfigProvider interface {
	// Get returns the configuration of a company or domain.ErrNotFound.
	Get(ctx context.Context, shortName string) (*domain.CompanyConfig, error)

	// List returns every known company configuration.
	List(ctx context.Context) ([]*domain.CompanyConfig, error)
}
