package api

import (
	"context"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

type mockCompanies struct {
	companies  map[string]*domain.Company
	connectors []domain.ConnectorSummary
	err        error
}

func (m *mockCompanies) Resolve(_ context.Context, shortName string) (*domain.Company, error) {
	if c, ok := m.companies[shortName]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCompanies) List(_ context.Context) ([]domain.Company, error) {
	out := make([]domain.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCompanies) ListConnectors(_ context.Context, _ string) ([]domain.ConnectorSummary, error) {
	return m.connectors, m.err
}

func (m *mockCompanies) Bootstrap(_ context.Context) error {
	return nil
}

type mockIngestor struct {
	sources map[int64]*domain.IngestionSource
	runs    []domain.IngestionRun
	nextID  int64

	runErr      error
	processed   int
	lastUser    string
	lastInput   domain.SourceInput
	lastLimit   int
	lastCompany *domain.Company
}

func newMockIngestor() *mockIngestor {
	return &mockIngestor{sources: map[int64]*domain.IngestionSource{}, nextID: 1}
}

func (m *mockIngestor) ListSources(_ context.Context, company *domain.Company) ([]domain.IngestionSource, error) {
	m.lastCompany = company
	var out []domain.IngestionSource
	for _, s := range m.sources {
		if s.CompanyID == company.ID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockIngestor) GetSource(_ context.Context, company *domain.Company, id int64) (*domain.IngestionSource, error) {
	s, ok := m.sources[id]
	if !ok || s.CompanyID != company.ID {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (m *mockIngestor) CreateSource(_ context.Context, company *domain.Company, in domain.SourceInput) (*domain.IngestionSource, error) {
	m.lastInput = in
	if in.Name == nil || *in.Name == "" {
		return nil, &domain.FieldError{Field: "name", Err: domain.ErrMissingParameter}
	}
	s := &domain.IngestionSource{
		ID:        m.nextID,
		CompanyID: company.ID,
		Name:      *in.Name,
		Status:    domain.StatusActive,
	}
	if in.ConnectorName != nil {
		s.ConnectorName = *in.ConnectorName
	}
	if cfg, ok := in.Configuration.(map[string]any); ok {
		s.Configuration = cfg
	}
	m.sources[s.ID] = s
	m.nextID++
	return s, nil
}

func (m *mockIngestor) UpdateSource(ctx context.Context, company *domain.Company, id int64, in domain.SourceInput) (*domain.IngestionSource, error) {
	m.lastInput = in
	s, err := m.GetSource(ctx, company, id)
	if err != nil {
		return nil, err
	}
	if s.IsRunning() {
		return nil, domain.ErrInvalidState
	}
	if in.Name != nil {
		s.Name = *in.Name
	}
	return s, nil
}

func (m *mockIngestor) DeleteSource(ctx context.Context, company *domain.Company, id int64) error {
	s, err := m.GetSource(ctx, company, id)
	if err != nil {
		return err
	}
	if s.IsRunning() {
		return domain.ErrInvalidState
	}
	delete(m.sources, id)
	return nil
}

func (m *mockIngestor) RunIngestion(ctx context.Context, company *domain.Company, id int64, user string) (int, error) {
	m.lastUser = user
	if _, err := m.GetSource(ctx, company, id); err != nil {
		return 0, err
	}
	return m.processed, m.runErr
}

func (m *mockIngestor) TriggerIngestion(_ context.Context, _ *domain.Company, _ *domain.IngestionSource, _ *domain.FileFilter) (int, error) {
	return m.processed, m.runErr
}

func (m *mockIngestor) ListRuns(ctx context.Context, company *domain.Company, id int64, limit int) ([]domain.IngestionRun, error) {
	m.lastLimit = limit
	if _, err := m.GetSource(ctx, company, id); err != nil {
		return nil, err
	}
	return m.runs, nil
}

func (m *mockIngestor) LoadSources(_ context.Context, _ *domain.Company, _ []string, _ *domain.FileFilter) (int, error) {
	return m.processed, m.runErr
}
