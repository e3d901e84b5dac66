package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

var (
	_ driven.CompanyStore    = (*CompanyStore)(nil)
	_ driven.CollectionStore = (*CompanyStore)(nil)
)

// CompanyStore keeps companies and their collection types in memory.
type CompanyStore struct {
	mu          sync.RWMutex
	nextID      int64
	companies   map[int64]domain.Company
	collections map[int64]domain.CollectionType
}

// NewCompanyStore creates an empty company store.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{
		companies:   make(map[int64]domain.Company),
		collections: make(map[int64]domain.CollectionType),
	}
}

// SaveCompany inserts or updates a company keyed by short name.
func (s *CompanyStore) SaveCompany(_ context.Context, company *domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.companies {
		if c.ShortName == company.ShortName {
			company.ID = id
			company.CreatedAt = c.CreatedAt
			s.companies[id] = *company
			return nil
		}
	}
	s.nextID++
	company.ID = s.nextID
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}
	s.companies[company.ID] = *company
	return nil
}

// GetCompany returns a company by ID.
func (s *CompanyStore) GetCompany(_ context.Context, id int64) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// GetCompanyByShortName returns a company by short name.
func (s *CompanyStore) GetCompanyByShortName(_ context.Context, shortName string) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.companies {
		if c.ShortName == shortName {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListCompanies returns companies ordered by ID.
func (s *CompanyStore) ListCompanies(_ context.Context) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveCollectionType inserts or updates a collection keyed by (company, name).
func (s *CompanyStore) SaveCollectionType(_ context.Context, ct *domain.CollectionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.collections {
		if existing.CompanyID == ct.CompanyID && existing.Name == ct.Name {
			ct.ID = id
			s.collections[id] = *ct
			return nil
		}
	}
	s.nextID++
	ct.ID = s.nextID
	s.collections[ct.ID] = *ct
	return nil
}

// GetCollectionTypeByName returns the named collection of a company.
func (s *CompanyStore) GetCollectionTypeByName(_ context.Context, companyID int64, name string) (*domain.CollectionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ct := range s.collections {
		if ct.CompanyID == companyID && ct.Name == name {
			return &ct, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListCollectionTypes returns the collections of a company ordered by name.
func (s *CompanyStore) ListCollectionTypes(_ context.Context, companyID int64) ([]domain.CollectionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.CollectionType
	for _, ct := range s.collections {
		if ct.CompanyID == companyID {
			out = append(out, ct)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CompanyStore) collectionByID(id int64) (*domain.CollectionType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ct, ok := s.collections[id]
	if !ok {
		return nil, false
	}
	return &ct, true
}
