package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// Ensure IngestionStore implements the interface.
var _ driven.IngestionStore = (*IngestionStore)(nil)

// IngestionStore keeps sources and runs in memory.
// When built with a CompanyStore, sources are returned with their
// collection type joined.
type IngestionStore struct {
	mu        sync.RWMutex
	nextID    int64
	sources   map[int64]domain.IngestionSource
	runs      map[int64]domain.IngestionRun
	companies *CompanyStore
}

// NewIngestionStore creates an empty ingestion store.
func NewIngestionStore(companies *CompanyStore) *IngestionStore {
	return &IngestionStore{
		sources:   make(map[int64]domain.IngestionSource),
		runs:      make(map[int64]domain.IngestionRun),
		companies: companies,
	}
}

// CreateSource inserts a source and assigns its ID.
func (s *IngestionStore) CreateSource(_ context.Context, source *domain.IngestionSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sources {
		if existing.CompanyID == source.CompanyID && existing.Name == source.Name {
			return domain.ErrAlreadyExists
		}
	}
	s.nextID++
	source.ID = s.nextID
	now := time.Now().UTC()
	source.CreatedAt = now
	source.UpdatedAt = now
	s.sources[source.ID] = copySource(*source)
	return nil
}

// SaveSource updates an existing source.
func (s *IngestionStore) SaveSource(_ context.Context, source *domain.IngestionSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.sources[source.ID]
	if !ok || existing.CompanyID != source.CompanyID {
		return domain.ErrNotFound
	}
	source.CreatedAt = existing.CreatedAt
	source.UpdatedAt = time.Now().UTC()
	s.sources[source.ID] = copySource(*source)
	return nil
}

// GetSource returns a source of a company.
func (s *IngestionStore) GetSource(_ context.Context, companyID, sourceID int64) (*domain.IngestionSource, error) {
	s.mu.RLock()
	src, ok := s.sources[sourceID]
	s.mu.RUnlock()
	if !ok || src.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return s.joined(src), nil
}

// GetSourceByName returns a source of a company by name.
func (s *IngestionStore) GetSourceByName(_ context.Context, companyID int64, name string) (*domain.IngestionSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, src := range s.sources {
		if src.CompanyID == companyID && src.Name == name {
			return s.joined(src), nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListSources returns the sources of a company ordered by ID.
func (s *IngestionStore) ListSources(_ context.Context, companyID int64) ([]domain.IngestionSource, error) {
	return s.filter(func(src domain.IngestionSource) bool {
		return src.CompanyID == companyID
	}), nil
}

// ListActiveSources returns ACTIVE sources of a company whose name is in names.
func (s *IngestionStore) ListActiveSources(_ context.Context, companyID int64, names []string) ([]domain.IngestionSource, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	return s.filter(func(src domain.IngestionSource) bool {
		return src.CompanyID == companyID && src.Status == domain.StatusActive && wanted[src.Name]
	}), nil
}

// ListScheduledSources returns ACTIVE sources with a schedule.
func (s *IngestionStore) ListScheduledSources(_ context.Context) ([]domain.IngestionSource, error) {
	return s.filter(func(src domain.IngestionSource) bool {
		return src.Status == domain.StatusActive && src.ScheduleCron != ""
	}), nil
}

// DeleteSource removes a source and its runs.
func (s *IngestionStore) DeleteSource(_ context.Context, companyID, sourceID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[sourceID]
	if !ok || src.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(s.sources, sourceID)
	for id, run := range s.runs {
		if run.SourceID == sourceID {
			delete(s.runs, id)
		}
	}
	return nil
}

// CreateRun inserts a run and assigns its ID.
func (s *IngestionStore) CreateRun(_ context.Context, run *domain.IngestionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	run.ID = s.nextID
	s.runs[run.ID] = *run
	return nil
}

// UpdateRun replaces a stored run.
func (s *IngestionStore) UpdateRun(_ context.Context, run *domain.IngestionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return domain.ErrNotFound
	}
	s.runs[run.ID] = *run
	return nil
}

// ListRuns returns the newest runs of a source first.
func (s *IngestionStore) ListRuns(_ context.Context, companyID, sourceID int64, limit int) ([]domain.IngestionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.IngestionRun
	for _, run := range s.runs {
		if run.CompanyID == companyID && run.SourceID == sourceID {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Runs returns every stored run ordered by ID. Intended for tests.
func (s *IngestionStore) Runs() []domain.IngestionRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IngestionRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *IngestionStore) filter(keep func(domain.IngestionSource) bool) []domain.IngestionSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.IngestionSource{}
	for _, src := range s.sources {
		if keep(src) {
			out = append(out, *s.joined(src))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *IngestionStore) joined(src domain.IngestionSource) *domain.IngestionSource {
	out := copySource(src)
	out.CollectionType = nil
	if s.companies != nil && out.CollectionTypeID != nil {
		if ct, ok := s.companies.collectionByID(*out.CollectionTypeID); ok {
			out.CollectionType = ct
		}
	}
	return &out
}

// copySource detaches the configuration map so callers cannot mutate stored state.
func copySource(src domain.IngestionSource) domain.IngestionSource {
	if src.Configuration != nil {
		src.Configuration = domain.CloneConfig(src.Configuration)
	}
	return src
}
