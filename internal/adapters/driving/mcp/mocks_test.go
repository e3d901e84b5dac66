package mcp

import (
	"context"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// mockCompanyService is a mock implementation of driving.CompanyService.
type mockCompanyService struct {
	companies  []domain.Company
	connectors []domain.ConnectorSummary
	err        error
}

func (m *mockCompanyService) Resolve(_ context.Context, shortName string) (*domain.Company, error) {
	for i := range m.companies {
		if m.companies[i].ShortName == shortName {
			return &m.companies[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCompanyService) List(_ context.Context) ([]domain.Company, error) {
	return m.companies, m.err
}

func (m *mockCompanyService) ListConnectors(_ context.Context, _ string) ([]domain.ConnectorSummary, error) {
	return m.connectors, m.err
}

func (m *mockCompanyService) Bootstrap(_ context.Context) error {
	return m.err
}

// mockIngestor is a mock implementation of driving.Ingestor.
type mockIngestor struct {
	sources   []domain.IngestionSource
	processed int
	err       error

	lastCompany *domain.Company
	lastSource  int64
	lastUser    string
}

func (m *mockIngestor) ListSources(_ context.Context, company *domain.Company) ([]domain.IngestionSource, error) {
	m.lastCompany = company
	return m.sources, m.err
}

func (m *mockIngestor) GetSource(_ context.Context, _ *domain.Company, _ int64) (*domain.IngestionSource, error) {
	return nil, domain.ErrNotFound
}

func (m *mockIngestor) CreateSource(_ context.Context, _ *domain.Company, _ domain.SourceInput) (*domain.IngestionSource, error) {
	return nil, m.err
}

func (m *mockIngestor) UpdateSource(_ context.Context, _ *domain.Company, _ int64, _ domain.SourceInput) (*domain.IngestionSource, error) {
	return nil, m.err
}

func (m *mockIngestor) DeleteSource(_ context.Context, _ *domain.Company, _ int64) error {
	return m.err
}

func (m *mockIngestor) RunIngestion(_ context.Context, company *domain.Company, sourceID int64, user string) (int, error) {
	m.lastCompany = company
	m.lastSource = sourceID
	m.lastUser = user
	return m.processed, m.err
}

func (m *mockIngestor) TriggerIngestion(_ context.Context, _ *domain.Company, _ *domain.IngestionSource, _ *domain.FileFilter) (int, error) {
	return m.processed, m.err
}

func (m *mockIngestor) ListRuns(_ context.Context, _ *domain.Company, _ int64, _ int) ([]domain.IngestionRun, error) {
	return nil, m.err
}

func (m *mockIngestor) LoadSources(_ context.Context, _ *domain.Company, _ []string, _ *domain.FileFilter) (int, error) {
	return m.processed, m.err
}
