package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/core/ports/driving"
	"github.com/iatoolkit/ingestd/internal/logger"
)

// Ensure CompanyService implements the interface.
var _ driving.CompanyService = (*CompanyService)(nil)

// CompanyService resolves tenants and exposes their configuration.
type CompanyService struct {
	companies   driven.CompanyStore
	collections driven.CollectionStore
	configs     driven.CompanyConfigProvider
}

// NewCompanyService creates a company service.
func NewCompanyService(
	companies driven.CompanyStore,
	collections driven.CollectionStore,
	configs driven.CompanyConfigProvider,
) *CompanyService {
	return &CompanyService{
		companies:   companies,
		collections: collections,
		configs:     configs,
	}
}

// Resolve returns the company with the given short name.
func (s *CompanyService) Resolve(ctx context.Context, shortName string) (*domain.Company, error) {
	if shortName == "" {
		return nil, fmt.Errorf("%w: company", domain.ErrMissingParameter)
	}
	company, err := s.companies.GetCompanyByShortName(ctx, shortName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("company %q: %w", shortName, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return company, nil
}

// List returns every company.
func (s *CompanyService) List(ctx context.Context) ([]domain.Company, error) {
	return s.companies.ListCompanies(ctx)
}

// ListConnectors returns the connector aliases of a company sorted by name.
// A company without a connectors block has none.
func (s *CompanyService) ListConnectors(ctx context.Context, shortName string) ([]domain.ConnectorSummary, error) {
	cfg, err := s.configs.Get(ctx, shortName)
	if err != nil {
		return nil, fmt.Errorf("get company config: %w", err)
	}
	return cfg.ConnectorSummaries(), nil
}

// Bootstrap seeds companies and their collection types from configuration.
// Existing rows are updated in place so IDs stay stable across restarts.
func (s *CompanyService) Bootstrap(ctx context.Context) error {
	configs, err := s.configs.List(ctx)
	if err != nil {
		return fmt.Errorf("list company configs: %w", err)
	}

	for _, cfg := range configs {
		company := &domain.Company{ShortName: cfg.ShortName, Name: cfg.Name}
		if company.Name == "" {
			company.Name = cfg.ShortName
		}
		if err := s.companies.SaveCompany(ctx, company); err != nil {
			return fmt.Errorf("save company %q: %w", cfg.ShortName, err)
		}

		for _, c := range cfg.KnowledgeBase.Collections {
			if c.Name == "" {
				continue
			}
			ct := &domain.CollectionType{
				CompanyID:      company.ID,
				Name:           c.Name,
				ParserProvider: c.ParserProvider,
			}
			if err := s.collections.SaveCollectionType(ctx, ct); err != nil {
				return fmt.Errorf("save collection %q for %q: %w", c.Name, cfg.ShortName, err)
			}
		}
		logger.Debug("Bootstrapped company %s with %d collections", cfg.ShortName, len(cfg.KnowledgeBase.Collections))
	}
	return nil
}
