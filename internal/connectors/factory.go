package connectors

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iatoolkit/ingestd/internal/connectors/local"
	"github.com/iatoolkit/ingestd/internal/connectors/minio"
	"github.com/iatoolkit/ingestd/internal/connectors/s3"
	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Builder creates a connector from a configuration map.
type Builder func(ctx context.Context, config map[string]any) (driven.Connector, error)

// Factory creates connectors by type.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewFactory creates a factory with the built-in connector types.
func NewFactory() *Factory {
	f := &Factory{builders: make(map[string]Builder)}
	f.Register(local.Type, buildLocal)
	f.Register("filesystem", buildLocal)
	f.Register(s3.Type, buildS3)
	f.Register(minio.Type, buildMinIO)
	return f
}

// Register adds or replaces the builder for a connector type.
func (f *Factory) Register(typ string, b Builder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[strings.ToLower(typ)] = b
}

// Create builds a connector. The "type" key selects the builder.
func (f *Factory) Create(ctx context.Context, config map[string]any) (driven.Connector, error) {
	typ, _ := config[domain.ConfigKeyType].(string)
	if typ == "" {
		return nil, fmt.Errorf("%w: connector configuration has no type", domain.ErrConfig)
	}

	f.mu.RLock()
	b, ok := f.builders[strings.ToLower(typ)]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown connector type %q", domain.ErrConfig, typ)
	}
	return b(ctx, config)
}

// SupportedTypes returns the registered types sorted by name.
func (f *Factory) SupportedTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	types := make([]string, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func buildLocal(_ context.Context, config map[string]any) (driven.Connector, error) {
	cfg, err := local.ParseConfig(config)
	if err != nil {
		return nil, err
	}
	return local.New(cfg), nil
}

func buildS3(ctx context.Context, config map[string]any) (driven.Connector, error) {
	cfg, err := s3.ParseConfig(config)
	if err != nil {
		return nil, err
	}
	return s3.New(ctx, cfg)
}

func buildMinIO(_ context.Context, config map[string]any) (driven.Connector, error) {
	cfg, err := minio.ParseConfig(config)
	if err != nil {
		return nil, err
	}
	return minio.New(cfg)
}
