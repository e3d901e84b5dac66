package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/logger"
)

// WatcherTrigger is recorded as triggered_by on runs started by file changes.
const WatcherTrigger = "watcher"

// DefaultWatchDebounce groups bursts of file events into one run.
const DefaultWatchDebounce = 2 * time.Second

// WatchStatus describes one active watch.
type WatchStatus struct {
	SourceID int64
	Events   int
	Runs     int
	LastRun  time.Time
}

// SourceWatcher re-runs sources whose connector reports file changes.
type SourceWatcher struct {
	runner   *IngestionRunner
	factory  driven.ConnectorFactory
	debounce time.Duration

	mu     sync.RWMutex
	active map[int64]*WatchStatus
}

// NewSourceWatcher creates a watcher. A zero debounce uses DefaultWatchDebounce.
func NewSourceWatcher(runner *IngestionRunner, factory driven.ConnectorFactory, debounce time.Duration) *SourceWatcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &SourceWatcher{
		runner:   runner,
		factory:  factory,
		debounce: debounce,
		active:   make(map[int64]*WatchStatus),
	}
}

// Watch blocks until ctx ends, running the source after each quiet period
// that follows one or more file changes.
func (w *SourceWatcher) Watch(ctx context.Context, company *domain.Company, source *domain.IngestionSource) error {
	cfg, err := w.runner.ConnectorConfig(ctx, company, source)
	if err != nil {
		return err
	}
	connector, err := w.factory.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	watchable, ok := connector.(driven.WatchableConnector)
	if !ok {
		return fmt.Errorf("%w: connector %q cannot be watched", domain.ErrUnsupportedType, connector.Type())
	}

	changes, err := watchable.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	status := &WatchStatus{SourceID: source.ID}
	w.setStatus(source.ID, status)
	defer w.clearStatus(source.ID)

	logger.Info("Watching source %q for changes", source.Name)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("Change: %s", change.Path)
			w.mu.Lock()
			status.Events++
			w.mu.Unlock()
			pending = true
			timer.Reset(w.debounce)
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			w.runOnce(ctx, company, source.ID, status)
		}
	}
}

func (w *SourceWatcher) runOnce(ctx context.Context, company *domain.Company, sourceID int64, status *WatchStatus) {
	n, err := w.runner.RunIngestion(ctx, company, sourceID, WatcherTrigger)
	switch {
	case errors.Is(err, domain.ErrInvalidState):
		logger.Debug("watcher: source %d already running", sourceID)
		return
	case err != nil:
		logger.Warn("watcher: source %d failed: %v", sourceID, err)
	default:
		logger.Info("watcher: source %d processed %d files", sourceID, n)
	}
	w.mu.Lock()
	status.Runs++
	status.LastRun = time.Now()
	w.mu.Unlock()
}

// Status returns a copy of the watch status for a source.
func (w *SourceWatcher) Status(sourceID int64) (WatchStatus, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if s, ok := w.active[sourceID]; ok {
		return *s, true
	}
	return WatchStatus{}, false
}

func (w *SourceWatcher) setStatus(id int64, s *WatchStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active[id] = s
}

func (w *SourceWatcher) clearStatus(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.active, id)
}
