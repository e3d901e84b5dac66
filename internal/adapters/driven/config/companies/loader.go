// Package companies loads per-company YAML configuration files laid out
// as <dir>/<short_name>/company.yaml.
package companies

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// FileName is the configuration file inside each company directory.
const FileName = "company.yaml"

// Ensure Loader implements the interface.
var _ driven.CompanyConfigProvider = (*Loader)(nil)

// Loader reads company configurations from disk and caches them.
// ${VAR} references are expanded from the environment.
type Loader struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*domain.CompanyConfig
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:   dir,
		cache: make(map[string]*domain.CompanyConfig),
	}
}

// Dir returns the companies directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Get returns the configuration of a company or domain.ErrNotFound.
func (l *Loader) Get(_ context.Context, shortName string) (*domain.CompanyConfig, error) {
	l.mu.RLock()
	cfg, ok := l.cache[shortName]
	l.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	cfg, err := l.load(shortName)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[shortName] = cfg
	l.mu.Unlock()
	return cfg, nil
}

// List returns every company that has a configuration file, sorted by
// short name. Invalid files are reported as errors.
func (l *Loader) List(ctx context.Context) ([]*domain.CompanyConfig, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading companies directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(l.dir, e.Name(), FileName)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]*domain.CompanyConfig, 0, len(names))
	for _, name := range names {
		cfg, err := l.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// Reload drops cached configurations so the next Get reads from disk.
func (l *Loader) Reload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*domain.CompanyConfig)
}

func (l *Loader) load(shortName string) (*domain.CompanyConfig, error) {
	if shortName == "" || shortName != filepath.Base(shortName) || shortName == "." || shortName == ".." {
		return nil, fmt.Errorf("%w: company %q", domain.ErrNotFound, shortName)
	}

	path := filepath.Join(l.dir, shortName, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: company %q", domain.ErrNotFound, shortName)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return Parse(shortName, data)
}

// Parse decodes a company YAML document.
func Parse(shortName string, data []byte) (*domain.CompanyConfig, error) {
	var cfg domain.CompanyConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("%w: company %q: %w", domain.ErrConfig, shortName, err)
	}
	cfg.ShortName = shortName
	if cfg.Name == "" {
		cfg.Name = shortName
	}
	return &cfg, nil
}
