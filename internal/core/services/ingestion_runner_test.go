package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatoolkit/ingestd/internal/adapters/driven/storage/memory"
	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/logger"
)

// mockConnectorFactory records the configurations it was asked to build.
type mockConnectorFactory struct {
	mu        sync.Mutex
	connector driven.Connector
	createErr error
	configs   []map[string]any
}

func (f *mockConnectorFactory) Create(_ context.Context, config map[string]any) (driven.Connector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, config)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.connector, nil
}

func (f *mockConnectorFactory) SupportedTypes() []string { return []string{"mock"} }

func (f *mockConnectorFactory) lastConfig() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.configs) == 0 {
		return nil
	}
	return f.configs[len(f.configs)-1]
}

// mockParser implements driven.ParsingProvider returning the raw content as text.
type mockParser struct {
	name       string
	enabled    bool
	extensions []string
	parseErr   error
}

func (p *mockParser) Name() string  { return p.name }
func (p *mockParser) Enabled() bool { return p.enabled }

func (p *mockParser) Supports(req domain.ParseRequest) bool {
	if len(p.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(req.Filename))
	for _, e := range p.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (p *mockParser) Parse(_ context.Context, req domain.ParseRequest) (*domain.ParseResult, error) {
	if p.parseErr != nil {
		return nil, p.parseErr
	}
	return &domain.ParseResult{Provider: p.name, FullText: string(req.Content)}, nil
}

// mockParserFactory implements driven.ParsingProviderFactory.
type mockParserFactory struct {
	providers map[string]*mockParser
}

func newMockParserFactory() *mockParserFactory {
	return &mockParserFactory{providers: map[string]*mockParser{
		domain.ProviderLegacy:  {name: domain.ProviderLegacy, enabled: true},
		domain.ProviderDocling: {name: domain.ProviderDocling, extensions: []string{".pdf", ".docx"}},
	}}
}

func (f *mockParserFactory) Get(name string) (driven.ParsingProvider, error) {
	p, ok := f.providers[name]
	if !ok {
		return nil, domain.ErrConfig
	}
	return p, nil
}

// mockLocker implements driven.RunLocker in memory.
type mockLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	released []string
}

func (l *mockLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *mockLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

// mockMetrics implements driven.IngestionMetrics.
type mockMetrics struct {
	mu       sync.Mutex
	runs     []string
	files    int
	failures int
}

func (m *mockMetrics) RunFinished(_ string, status string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, status)
}

func (m *mockMetrics) FileProcessed(_ string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.files++
	} else {
		m.failures++
	}
}

// ingestFixture wires a runner on top of the memory stores.
type ingestFixture struct {
	companies *memory.CompanyStore
	store     *memory.IngestionStore
	docs      *memory.DocumentStore
	configs   *memory.CompanyConfigs
	factory   *mockConnectorFactory
	parsers   *mockParserFactory
	kb        *KnowledgeBaseService
	runner    *IngestionRunner
	company   *domain.Company
}

func newIngestFixture(t *testing.T, files map[string][]byte) *ingestFixture {
	t.Helper()
	ctx := context.Background()

	companies := memory.NewCompanyStore()
	company := &domain.Company{ShortName: "acme", Name: "Acme"}
	require.NoError(t, companies.SaveCompany(ctx, company))
	require.NoError(t, companies.SaveCollectionType(ctx, &domain.CollectionType{CompanyID: company.ID, Name: "legal"}))

	configs := memory.NewCompanyConfigs(&domain.CompanyConfig{
		ShortName: "acme",
		Connectors: map[string]any{
			"iatoolkit_storage": map[string]any{"type": "local", "path": "/tmp"},
			"bucket":            map[string]any{"type": "s3", "bucket": "docs", "prefix": ""},
			"broken":            "not a map",
		},
	})

	f := &ingestFixture{
		companies: companies,
		store:     memory.NewIngestionStore(companies),
		docs:      memory.NewDocumentStore(),
		configs:   configs,
		factory:   &mockConnectorFactory{connector: newMockConnector(files)},
		parsers:   newMockParserFactory(),
		company:   company,
	}
	resolver := NewParsingProviderResolver(companies, configs, f.parsers)
	f.kb = NewKnowledgeBaseService(f.docs, resolver, nil)
	f.runner = NewIngestionRunner(f.store, configs, f.factory, f.kb)
	return f
}

func (f *ingestFixture) addSource(t *testing.T, src domain.IngestionSource) *domain.IngestionSource {
	t.Helper()
	src.CompanyID = f.company.ID
	if src.Status == "" {
		src.Status = domain.StatusActive
	}
	require.NoError(t, f.store.CreateSource(context.Background(), &src))
	return &src
}

func TestIngestionRunner_RunIngestion_NotFound(t *testing.T) {
	f := newIngestFixture(t, nil)

	_, err := f.runner.RunIngestion(context.Background(), f.company, 999, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.store.Runs())
}

func TestIngestionRunner_RunIngestion_AlreadyRunning(t *testing.T) {
	f := newIngestFixture(t, nil)
	src := f.addSource(t, domain.IngestionSource{
		Name:          "contracts",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{"root": "p"},
		Status:        domain.StatusRunning,
	})

	_, err := f.runner.RunIngestion(context.Background(), f.company, src.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Empty(t, f.store.Runs())
	assert.Empty(t, f.factory.configs)
}

func TestIngestionRunner_RunIngestion_Success(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, map[string][]byte{
		"p/a.txt": []byte("alpha"),
		"p/b.md":  []byte("# beta"),
	})
	metrics := &mockMetrics{}
	f.runner.SetMetrics(metrics)
	f.kb.SetMetrics(metrics)

	src := f.addSource(t, domain.IngestionSource{
		Name:          "contracts",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{
			"root":       "p",
			"collection": "legal",
			"metadata":   map[string]any{"origin": "test"},
		},
	})

	processed, err := f.runner.RunIngestion(ctx, f.company, src.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	cfg := f.factory.lastConfig()
	assert.Equal(t, "local", cfg["type"])
	assert.Equal(t, "p", cfg["path"])

	runs := f.store.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, domain.StatusActive, runs[0].Status)
	assert.Equal(t, 2, runs[0].ProcessedFiles)
	assert.Equal(t, "alice", runs[0].TriggeredBy)
	assert.NotNil(t, runs[0].FinishedAt)
	assert.Empty(t, runs[0].ErrorMessage)

	got, err := f.store.GetSource(ctx, f.company.ID, src.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.NotNil(t, got.LastRunAt)

	docs, err := f.docs.ListDocuments(ctx, f.company.ID, "legal")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "test", docs[0].Metadata["origin"])
	assert.Equal(t, domain.ProviderLegacy, docs[0].Metadata["parser"])

	assert.Equal(t, []string{"active"}, metrics.runs)
	assert.Equal(t, 2, metrics.files)
	assert.True(t, f.factory.connector.(*mockConnector).closed)
}

func TestIngestionRunner_RunIngestion_Failure(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, nil)
	f.factory.createErr = errors.New("bucket unreachable")

	src := f.addSource(t, domain.IngestionSource{
		Name:          "contracts",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{"root": "p"},
	})

	processed, err := f.runner.RunIngestion(ctx, f.company, src.ID, "alice")
	require.Error(t, err)
	assert.Zero(t, processed)

	runs := f.store.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, domain.StatusError, runs[0].Status)
	assert.Contains(t, runs[0].ErrorMessage, "bucket unreachable")
	assert.NotNil(t, runs[0].FinishedAt)

	got, err := f.store.GetSource(ctx, f.company.ID, src.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Contains(t, got.LastError, "bucket unreachable")
}

func TestIngestionRunner_RunIngestion_Rerun(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, map[string][]byte{"p/a.txt": []byte("alpha")})
	src := f.addSource(t, domain.IngestionSource{
		Name:          "contracts",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{"root": "p", "collection": "legal"},
	})

	first, err := f.runner.RunIngestion(ctx, f.company, src.ID, "alice")
	require.NoError(t, err)
	second, err := f.runner.RunIngestion(ctx, f.company, src.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	runs := f.store.Runs()
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.Equal(t, domain.StatusActive, run.Status)
		assert.Equal(t, 1, run.ProcessedFiles)
	}

	got, err := f.store.GetSource(ctx, f.company.ID, src.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)

	docs, err := f.docs.ListDocuments(ctx, f.company.ID, "legal")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.txt", docs[0].Filename)
}

func TestIngestionRunner_RunIngestion_ConfiguredFilter(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, map[string][]byte{
		"p/a.pdf":  []byte("a"),
		"p/b.docx": []byte("b"),
		"p/c.txt":  []byte("c"),
	})
	src := f.addSource(t, domain.IngestionSource{
		Name:          "contracts",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{
			"root":   "p",
			"filter": map[string]any{"extensions": "pdf, docx"},
		},
	})

	n, err := f.runner.RunIngestion(ctx, f.company, src.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// runningSaveFailStore rejects saving a source as RUNNING.
type runningSaveFailStore struct {
	*memory.IngestionStore
}

func (s runningSaveFailStore) SaveSource(ctx context.Context, source *domain.IngestionSource) error {
	if source.Status == domain.StatusRunning {
		return errors.New("disk full")
	}
	return s.IngestionStore.SaveSource(ctx, source)
}

func TestIngestionRunner_RunIngestion_MarkRunningFails(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, map[string][]byte{"p/a.txt": []byte("alpha")})
	src := f.addSource(t, domain.IngestionSource{
		Name:          "contracts",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{"root": "p"},
	})
	runner := NewIngestionRunner(runningSaveFailStore{f.store}, f.configs, f.factory, f.kb)

	_, err := runner.RunIngestion(ctx, f.company, src.ID, "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, f.factory.configs)

	runs := f.store.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, domain.StatusError, runs[0].Status)

	got, err := f.store.GetSource(ctx, f.company.ID, src.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Contains(t, got.LastError, "mark source running")
}

func TestIngestionRunner_RunIngestion_FailurePausesSchedule(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Output()
	logger.SetOutput(&buf)
	defer logger.SetOutput(prev)

	ctx := context.Background()
	f := newIngestFixture(t, nil)
	f.factory.createErr = errors.New("bucket unreachable")
	src := f.addSource(t, domain.IngestionSource{
		Name:          "nightly",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{"root": "p"},
		ScheduleCron:  "@daily",
	})

	_, err := f.runner.RunIngestion(ctx, f.company, src.ID, SchedulerTrigger)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `Scheduled source "nightly" paused`)

	scheduled, err := f.store.ListScheduledSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, scheduled)
}

func TestIngestionRunner_RunIngestion_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		source domain.IngestionSource
	}{
		{"no connector", domain.IngestionSource{Name: "a", Configuration: map[string]any{"root": "p"}}},
		{"no root", domain.IngestionSource{Name: "b", ConnectorName: "iatoolkit_storage", Configuration: map[string]any{}}},
		{"unknown alias", domain.IngestionSource{Name: "c", ConnectorName: "missing", Configuration: map[string]any{"root": "p"}}},
		{"alias not a map", domain.IngestionSource{Name: "d", ConnectorName: "broken", Configuration: map[string]any{"root": "p"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestFixture(t, nil)
			src := f.addSource(t, tt.source)

			_, err := f.runner.RunIngestion(context.Background(), f.company, src.ID, "alice")
			assert.ErrorIs(t, err, domain.ErrConfig)

			runs := f.store.Runs()
			require.Len(t, runs, 1)
			assert.Equal(t, domain.StatusError, runs[0].Status)

			got, err := f.store.GetSource(context.Background(), f.company.ID, src.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusError, got.Status)
		})
	}
}

func TestIngestionRunner_ContinuesPastBadFiles(t *testing.T) {
	f := newIngestFixture(t, map[string][]byte{
		"p/good.txt": []byte("ok"),
		"p/bad.txt":  []byte("broken"),
	})
	conn := f.factory.connector.(*mockConnector)
	conn.readErr["p/bad.txt"] = errors.New("permission denied")

	src := f.addSource(t, domain.IngestionSource{
		Name:          "contracts",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{"root": "p"},
	})

	processed, err := f.runner.RunIngestion(context.Background(), f.company, src.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, domain.StatusActive, f.store.Runs()[0].Status)
}

func TestIngestionRunner_Lock(t *testing.T) {
	f := newIngestFixture(t, map[string][]byte{"p/a.txt": []byte("a")})
	locker := &mockLocker{held: map[string]bool{}}
	f.runner.SetLocker(locker, time.Minute)

	src := f.addSource(t, domain.IngestionSource{
		Name:          "contracts",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{"root": "p"},
	})

	t.Run("held elsewhere", func(t *testing.T) {
		locker.held[runLockKey(src.ID)] = true
		_, err := f.runner.RunIngestion(context.Background(), f.company, src.ID, "alice")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		assert.Empty(t, f.store.Runs())
		delete(locker.held, runLockKey(src.ID))
	})

	t.Run("acquired and released", func(t *testing.T) {
		n, err := f.runner.RunIngestion(context.Background(), f.company, src.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{runLockKey(src.ID)}, locker.released)
		assert.Empty(t, locker.held)
	})
}

func TestIngestionRunner_ConnectorConfig(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, nil)

	t.Run("alias with folder", func(t *testing.T) {
		src := &domain.IngestionSource{
			ConnectorName: "iatoolkit_storage",
			Configuration: map[string]any{"root": "p", "folder": "contracts"},
		}
		cfg, err := f.runner.ConnectorConfig(ctx, f.company, src)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"type": "local", "path": "p", "folder": "contracts"}, cfg)
	})

	t.Run("prefix follows root", func(t *testing.T) {
		src := &domain.IngestionSource{
			ConnectorName: "bucket",
			Configuration: map[string]any{"root": "acme/docs"},
		}
		cfg, err := f.runner.ConnectorConfig(ctx, f.company, src)
		require.NoError(t, err)
		assert.Equal(t, "acme/docs", cfg["prefix"])
		assert.Equal(t, "acme/docs", cfg["path"])
		assert.Equal(t, "docs", cfg["bucket"])
	})

	t.Run("company block is not mutated", func(t *testing.T) {
		cfg, err := f.configs.Get(ctx, "acme")
		require.NoError(t, err)
		block := cfg.Connectors["iatoolkit_storage"].(map[string]any)
		assert.Equal(t, "/tmp", block["path"])
	})

	t.Run("declared source uses its own block", func(t *testing.T) {
		src := &domain.IngestionSource{
			Configuration: map[string]any{"type": "local", "path": "/data"},
		}
		cfg, err := f.runner.ConnectorConfig(ctx, f.company, src)
		require.NoError(t, err)
		assert.Equal(t, "/data", cfg["path"])
	})
}

func TestIngestionRunner_TriggerIngestion(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, map[string][]byte{
		"p/a.pdf": []byte("a"),
		"p/b.txt": []byte("b"),
	})
	src := f.addSource(t, domain.IngestionSource{
		Name:          "contracts",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{"root": "p"},
	})

	n, err := f.runner.TriggerIngestion(ctx, f.company, src, &domain.FileFilter{FilenameContains: ".pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, f.store.Runs())

	_, err = f.runner.TriggerIngestion(ctx, nil, src, nil)
	assert.ErrorIs(t, err, domain.ErrMissingParameter)
}

func TestIngestionRunner_ListRuns(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t, map[string][]byte{"p/a.txt": []byte("a")})
	src := f.addSource(t, domain.IngestionSource{
		Name:          "contracts",
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{"root": "p"},
	})

	for i := 0; i < 3; i++ {
		_, err := f.runner.RunIngestion(ctx, f.company, src.ID, "alice")
		require.NoError(t, err)
	}

	runs, err := f.runner.ListRuns(ctx, f.company, src.ID, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	_, err = f.runner.ListRuns(ctx, f.company, 999, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
