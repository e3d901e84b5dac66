package parsers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/parsers/docling"
	"github.com/iatoolkit/ingestd/internal/parsers/legacy"
)

// Ensure Factory implements the interface.
var _ driven.ParsingProviderFactory = (*Factory)(nil)

// Factory holds the parsing providers keyed by name.
type Factory struct {
	mu        sync.RWMutex
	providers map[string]driven.ParsingProvider
}

// NewFactory creates a factory with the legacy and docling providers.
func NewFactory(doclingCfg docling.Config) *Factory {
	f := &Factory{providers: make(map[string]driven.ParsingProvider)}
	f.Register(legacy.New())
	f.Register(docling.New(doclingCfg))
	return f
}

// Register adds or replaces a provider.
func (f *Factory) Register(p driven.ParsingProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[p.Name()] = p
}

// Get returns the named provider. Aliases such as document_service are
// accepted.
func (f *Factory) Get(name string) (driven.ParsingProvider, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.providers[domain.NormaliseProviderName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown parsing provider %q", domain.ErrConfig, name)
	}
	return p, nil
}

// Names returns the registered provider names, sorted.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
