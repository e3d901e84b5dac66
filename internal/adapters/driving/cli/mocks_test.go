package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

type mockCompanyService struct {
	connectors []domain.ConnectorSummary
}

func (m *mockCompanyService) Resolve(_ context.Context, shortName string) (*domain.Company, error) {
	if shortName != "acme" {
		return nil, domain.ErrNotFound
	}
	return &domain.Company{ID: 1, ShortName: "acme", Name: "Acme"}, nil
}

func (m *mockCompanyService) List(_ context.Context) ([]domain.Company, error) {
	return []domain.Company{{ID: 1, ShortName: "acme"}}, nil
}

func (m *mockCompanyService) ListConnectors(_ context.Context, _ string) ([]domain.ConnectorSummary, error) {
	return m.connectors, nil
}

func (m *mockCompanyService) Bootstrap(_ context.Context) error {
	return nil
}

type mockIngestor struct {
	sources   []domain.IngestionSource
	runs      []domain.IngestionRun
	processed int
	err       error

	created    *domain.SourceInput
	deleted    int64
	lastUser   string
	lastNames  []string
	lastFilter *domain.FileFilter
	lastLimit  int
}

func (m *mockIngestor) ListSources(_ context.Context, _ *domain.Company) ([]domain.IngestionSource, error) {
	return m.sources, m.err
}

func (m *mockIngestor) GetSource(_ context.Context, _ *domain.Company, id int64) (*domain.IngestionSource, error) {
	for i := range m.sources {
		if m.sources[i].ID == id {
			return &m.sources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockIngestor) CreateSource(_ context.Context, _ *domain.Company, in domain.SourceInput) (*domain.IngestionSource, error) {
	m.created = &in
	return &domain.IngestionSource{ID: 42, Name: *in.Name}, m.err
}

func (m *mockIngestor) UpdateSource(_ context.Context, _ *domain.Company, _ int64, _ domain.SourceInput) (*domain.IngestionSource, error) {
	return nil, m.err
}

func (m *mockIngestor) DeleteSource(_ context.Context, _ *domain.Company, id int64) error {
	m.deleted = id
	return m.err
}

func (m *mockIngestor) RunIngestion(_ context.Context, _ *domain.Company, _ int64, user string) (int, error) {
	m.lastUser = user
	return m.processed, m.err
}

func (m *mockIngestor) TriggerIngestion(_ context.Context, _ *domain.Company, _ *domain.IngestionSource, _ *domain.FileFilter) (int, error) {
	return m.processed, m.err
}

func (m *mockIngestor) ListRuns(_ context.Context, _ *domain.Company, _ int64, limit int) ([]domain.IngestionRun, error) {
	m.lastLimit = limit
	return m.runs, m.err
}

func (m *mockIngestor) LoadSources(_ context.Context, _ *domain.Company, names []string, filter *domain.FileFilter) (int, error) {
	m.lastNames = names
	m.lastFilter = filter
	return m.processed, m.err
}

type mockWatcher struct {
	watched *domain.IngestionSource
}

func (m *mockWatcher) Watch(_ context.Context, _ *domain.Company, source *domain.IngestionSource) error {
	m.watched = source
	return nil
}

func testSources() []domain.IngestionSource {
	last := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return []domain.IngestionSource{
		{
			ID: 1, Name: "contracts", ConnectorName: "s3_docs", Status: domain.StatusActive,
			ScheduleCron: "@daily", LastRunAt: &last,
			Configuration: map[string]any{"root": "contracts/", "collection": "legal"},
		},
		{ID: 2, Name: "manuals", Status: domain.StatusError, LastError: "bucket missing"},
	}
}

// setupTestServices installs mocks and returns them with a restore func.
func setupTestServices() (*mockCompanyService, *mockIngestor, *mockWatcher, func()) {
	oldCompanies, oldIngestor, oldScheduler, oldWatcher := companyService, ingestor, scheduler, watcher

	companies := &mockCompanyService{}
	ing := &mockIngestor{sources: testSources()}
	w := &mockWatcher{}
	SetServices(Services{Companies: companies, Ingestor: ing, Watcher: w})

	return companies, ing, w, func() {
		companyService, ingestor, scheduler, watcher = oldCompanies, oldIngestor, oldScheduler, oldWatcher
	}
}

// execute runs the root command and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd.Commands())
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores flag defaults since cobra keeps values between executions.
func resetFlags(cmds []*cobra.Command) {
	for _, c := range cmds {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if !f.Changed {
				return
			}
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
		resetFlags(c.Commands())
	}
}
