package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// Ensure CompanyConfigs implements the interface.
var _ driven.CompanyConfigProvider = (*CompanyConfigs)(nil)

// CompanyConfigs serves company configurations held in memory.
type CompanyConfigs struct {
	mu      sync.RWMutex
	configs map[string]*domain.CompanyConfig
}

// NewCompanyConfigs creates a provider from the given configs.
func NewCompanyConfigs(configs ...*domain.CompanyConfig) *CompanyConfigs {
	p := &CompanyConfigs{configs: make(map[string]*domain.CompanyConfig)}
	for _, c := range configs {
		p.Put(c)
	}
	return p
}

// Put adds or replaces a configuration.
func (p *CompanyConfigs) Put(cfg *domain.CompanyConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configs[cfg.ShortName] = cfg
}

// Get returns a company configuration.
func (p *CompanyConfigs) Get(_ context.Context, shortName string) (*domain.CompanyConfig, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cfg, ok := p.configs[shortName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cfg, nil
}

// List returns every configuration ordered by short name.
func (p *CompanyConfigs) List(_ context.Context) ([]*domain.CompanyConfig, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*domain.CompanyConfig, 0, len(p.configs))
	for _, c := range p.configs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortName < out[j].ShortName })
	return out, nil
}
