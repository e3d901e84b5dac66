package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/core/ports/driving"
	"github.com/iatoolkit/ingestd/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// SchedulerTrigger is recorded as triggered_by on scheduled runs.
const SchedulerTrigger = "scheduler"

// SchedulerConfig configures the cron scheduler.
type SchedulerConfig struct {
	// Interval between checks for due sources. Defaults to one minute.
	Interval time.Duration

	// Workers bounds concurrent scheduled runs. Defaults to four.
	Workers int
}

// Scheduler runs ACTIVE sources whose schedule_cron is due.
type Scheduler struct {
	store     driven.IngestionStore
	companies driven.CompanyStore
	runner    driving.IngestionRunner
	interval  time.Duration
	pool      *ants.Pool
	now       func() time.Time

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	loopDone chan struct{}
	inflight map[int64]struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler with its worker pool.
func NewScheduler(
	store driven.IngestionStore,
	companies driven.CompanyStore,
	runner driving.IngestionRunner,
	cfg SchedulerConfig,
) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Scheduler{
		store:     store,
		companies: companies,
		runner:    runner,
		interval:  cfg.Interval,
		pool:      pool,
		now:       time.Now,
		inflight:  make(map[int64]struct{}),
	}, nil
}

// Start begins the scheduler loop in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.loopDone = make(chan struct{})

	go s.run(ctx, s.stopCh, s.loopDone)
	return nil
}

// Stop halts the loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.loopDone
	s.mu.Unlock()

	<-done
	s.wg.Wait()
}

// Close stops the scheduler and releases the worker pool.
func (s *Scheduler) Close() {
	s.Stop()
	s.pool.Release()
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if _, err := s.RunDue(ctx); err != nil {
		logger.Warn("scheduler: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := s.RunDue(ctx); err != nil {
				logger.Warn("scheduler: %v", err)
			}
		}
	}
}

// RunDue submits every due source to the worker pool.
// Sources already queued or running in this process are skipped.
func (s *Scheduler) RunDue(ctx context.Context) (int, error) {
	sources, err := s.store.ListScheduledSources(ctx)
	if err != nil {
		return 0, fmt.Errorf("list scheduled sources: %w", err)
	}

	now := s.now()
	started := 0
	for i := range sources {
		source := sources[i]
		if !IsDue(source.ScheduleCron, scheduleBase(&source), now) {
			continue
		}

		company, err := s.companies.GetCompany(ctx, source.CompanyID)
		if err != nil {
			logger.Warn("scheduler: company %d of source %d: %v", source.CompanyID, source.ID, err)
			continue
		}

		if !s.claim(source.ID) {
			continue
		}

		s.wg.Add(1)
		err = s.pool.Submit(func() {
			defer s.wg.Done()
			defer s.release(source.ID)
			s.execute(ctx, company, &source)
		})
		if err != nil {
			s.wg.Done()
			s.release(source.ID)
			logger.Warn("scheduler: submit source %d: %v", source.ID, err)
			continue
		}
		started++
	}
	return started, nil
}

func (s *Scheduler) execute(ctx context.Context, company *domain.Company, source *domain.IngestionSource) {
	n, err := s.runner.RunIngestion(ctx, company, source.ID, SchedulerTrigger)
	switch {
	case errors.Is(err, domain.ErrInvalidState):
		logger.Debug("scheduler: source %d already running", source.ID)
	case err != nil:
		logger.Warn("scheduler: source %q failed: %v", source.Name, err)
	default:
		logger.Info("scheduler: source %q processed %d files", source.Name, n)
	}
}

func (s *Scheduler) claim(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Scheduler) release(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

// scheduleBase is the last run, or the creation time for sources that never ran.
func scheduleBase(source *domain.IngestionSource) *time.Time {
	if source.LastRunAt != nil {
		return source.LastRunAt
	}
	if !source.CreatedAt.IsZero() {
		created := source.CreatedAt
		return &created
	}
	return nil
}
