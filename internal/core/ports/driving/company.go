package driving

import (
	"context"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// CompanyService resolves tenants and their configuration.
type CompanyService interface {
	// Resolve returns the company with the given short name or domain.ErrNotFound.
	Resolve(ctx context.Context, shortName string) (*domain.Company, error)

	// List returns every company.
	List(ctx context.Context) ([]domain.Company, error)

	// ListConnectors returns the connector aliases declared by a company.
	ListConnectors(ctx context.Context, shortName string) ([]domain.ConnectorSummary, error)

	// Bootstrap seeds companies and collection types from configuration.
	Bootstrap(ctx context.Context) error
}
