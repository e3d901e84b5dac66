// Package local provides a connector that reads files from a local directory tree.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iatoolkit/ingestd/internal/connectors/confmap"
	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/logger"
)

// Type is the connector type identifier.
const Type = "local"

// ErrRootNotFound is returned when the configured root does not exist.
var ErrRootNotFound = errors.New("root path does not exist")

// Verify interface compliance.
var _ driven.WatchableConnector = (*Connector)(nil)

// Config holds local connector settings.
type Config struct {
	// Path is the directory to ingest.
	Path string

	// Folder is an optional sub-directory of Path.
	Folder string
}

// ParseConfig reads a Config from a connector configuration map.
func ParseConfig(m map[string]any) (Config, error) {
	cfg := Config{
		Path:   confmap.String(m, domain.ConfigKeyPath, domain.ConfigKeyRoot),
		Folder: confmap.String(m, domain.ConfigKeyFolder),
	}
	if cfg.Path == "" {
		return Config{}, fmt.Errorf("%w: local connector requires a path", domain.ErrConfig)
	}
	return cfg, nil
}

// Connector lists and reads files below a root directory.
type Connector struct {
	root string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a local connector.
func New(cfg Config) *Connector {
	return &Connector{root: filepath.Join(cfg.Path, cfg.Folder)}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return Type
}

// Root returns the directory being listed.
func (c *Connector) Root() string {
	return c.root
}

// ListFiles walks the root and returns every visible regular file.
func (c *Connector) ListFiles(ctx context.Context) ([]domain.FileRef, error) {
	info, err := os.Stat(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, c.root)
		}
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: root is not a directory: %s", domain.ErrConfig, c.root)
	}

	var files []domain.FileRef
	err = filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p != c.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, domain.FileRef{
			Path:    p,
			Name:    d.Name(),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", c.root, err)
	}
	return files, nil
}

// ReadFile reads a file. Relative paths are resolved against the root.
func (c *Connector) ReadFile(_ context.Context, path string) ([]byte, error) {
	path = c.resolve(path)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return nil, err
	}
	return content, nil
}

func (c *Connector) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if rel, err := filepath.Rel(c.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.Join(c.root, path)
}

// Watch emits a change for every visible file created or written below
// the root. New directories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrConnectorClosed
	}
	if c.watcher != nil {
		return nil, fmt.Errorf("%w: already watching %s", domain.ErrInvalidState, c.root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.root); err != nil {
		watcher.Close()
		return nil, err
	}
	c.watcher = watcher

	changes := make(chan domain.FileChange)
	go c.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- domain.FileChange) {
	defer close(changes)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			change, ok := c.handleEvent(watcher, event)
			if !ok {
				continue
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch %s: %v", c.root, err)
		}
	}
}

// handleEvent turns a filesystem event into a change. Directory creation
// extends the watch instead of producing a change.
func (c *Connector) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (domain.FileChange, bool) {
	rel, err := filepath.Rel(c.root, event.Name)
	if err != nil || isHidden(rel) {
		return domain.FileChange{}, false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return domain.FileChange{}, false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return domain.FileChange{}, false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && watcher != nil {
			if err := c.addTree(watcher, event.Name); err != nil {
				logger.Warn("watch %s: %v", event.Name, err)
			}
		}
		return domain.FileChange{}, false
	}
	return domain.FileChange{Path: event.Name, At: time.Now()}, true
}

func (c *Connector) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != c.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Close stops any active watch.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

// isHidden reports whether any element of a relative path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
