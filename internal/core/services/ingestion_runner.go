package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/core/ports/driving"
	"github.com/iatoolkit/ingestd/internal/logger"
)

// Ensure IngestionRunner implements the interface.
var _ driving.IngestionRunner = (*IngestionRunner)(nil)

// DefaultRunLockTTL bounds how long a distributed run lock is held.
const DefaultRunLockTTL = 30 * time.Minute

// IngestionRunner executes ingestion sources and records their runs.
type IngestionRunner struct {
	store   driven.IngestionStore
	configs driven.CompanyConfigProvider
	factory driven.ConnectorFactory
	kb      *KnowledgeBaseService

	locker  driven.RunLocker
	lockTTL time.Duration
	metrics driven.IngestionMetrics
	now     func() time.Time
}

// NewIngestionRunner creates a runner.
func NewIngestionRunner(
	store driven.IngestionStore,
	configs driven.CompanyConfigProvider,
	factory driven.ConnectorFactory,
	kb *KnowledgeBaseService,
) *IngestionRunner {
	return &IngestionRunner{
		store:   store,
		configs: configs,
		factory: factory,
		kb:      kb,
		lockTTL: DefaultRunLockTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetLocker attaches an optional cross-process run lock.
func (r *IngestionRunner) SetLocker(locker driven.RunLocker, ttl time.Duration) {
	r.locker = locker
	if ttl > 0 {
		r.lockTTL = ttl
	}
}

// SetMetrics attaches an optional metrics recorder.
func (r *IngestionRunner) SetMetrics(m driven.IngestionMetrics) {
	r.metrics = m
}

// RunIngestion executes a source and records the execution as a run.
//
// A missing source is domain.ErrNotFound and a running one is
// domain.ErrInvalidState; neither creates a run. Otherwise the run is
// created RUNNING and finalised as ACTIVE or ERROR together with the
// source. Documents stored before a failure are kept.
func (r *IngestionRunner) RunIngestion(
	ctx context.Context,
	company *domain.Company,
	sourceID int64,
	userIdentifier string,
) (int, error) {
	if company == nil {
		return 0, fmt.Errorf("%w: company", domain.ErrMissingParameter)
	}

	source, err := r.store.GetSource(ctx, company.ID, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("ingestion source %d: %w", sourceID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("get source: %w", err)
	}

	if source.IsRunning() {
		return 0, fmt.Errorf("%w: source %q is already running", domain.ErrInvalidState, source.Name)
	}

	if r.locker != nil {
		key := runLockKey(source.ID)
		acquired, err := r.locker.Acquire(ctx, key, r.lockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire run lock: %w", err)
		}
		if !acquired {
			return 0, fmt.Errorf("%w: source %q is already running", domain.ErrInvalidState, source.Name)
		}
		defer func() {
			if err := r.locker.Release(context.WithoutCancel(ctx), key); err != nil {
				logger.Warn("Failed to release run lock %s: %v", key, err)
			}
		}()
	}

	run := &domain.IngestionRun{
		SourceID:    source.ID,
		CompanyID:   company.ID,
		Status:      domain.StatusRunning,
		TriggeredBy: userIdentifier,
		StartedAt:   r.now(),
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}

	processed, runErr := r.trigger(ctx, company, source, nil)

	finished := r.now()
	run.FinishedAt = &finished
	run.ProcessedFiles = processed
	if runErr != nil {
		run.Status = domain.StatusError
		run.ErrorMessage = runErr.Error()
	} else {
		run.Status = domain.StatusActive
	}

	if err := r.store.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("Failed to update run %d: %v", run.ID, err)
	}
	if r.metrics != nil {
		r.metrics.RunFinished(company.ShortName, string(run.Status), processed, run.Duration())
	}

	if runErr != nil {
		return 0, runErr
	}
	return processed, nil
}

// TriggerIngestion executes a source without creating a run.
func (r *IngestionRunner) TriggerIngestion(
	ctx context.Context,
	company *domain.Company,
	source *domain.IngestionSource,
	filter *domain.FileFilter,
) (int, error) {
	if company == nil || source == nil {
		return 0, fmt.Errorf("%w: company and source", domain.ErrMissingParameter)
	}
	return r.trigger(ctx, company, source, filter)
}

// ListRuns returns the most recent runs of a source.
func (r *IngestionRunner) ListRuns(
	ctx context.Context,
	company *domain.Company,
	sourceID int64,
	limit int,
) ([]domain.IngestionRun, error) {
	if company == nil {
		return nil, fmt.Errorf("%w: company", domain.ErrMissingParameter)
	}
	if _, err := r.store.GetSource(ctx, company.ID, sourceID); err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if limit <= 0 {
		limit = 20
	}
	return r.store.ListRuns(ctx, company.ID, sourceID, limit)
}

// trigger marks the source RUNNING, processes its files and stores the
// final source status. The error of the run is returned unchanged.
func (r *IngestionRunner) trigger(
	ctx context.Context,
	company *domain.Company,
	source *domain.IngestionSource,
	filter *domain.FileFilter,
) (int, error) {
	source.Status = domain.StatusRunning
	source.LastError = ""
	if err := r.store.SaveSource(ctx, source); err != nil {
		return 0, r.finish(ctx, source, 0, fmt.Errorf("mark source running: %w", err))
	}

	logger.Info("Starting ingestion for source %q (%d)", source.Name, source.ID)
	processed, runErr := r.process(ctx, company, source, filter)
	return processed, r.finish(ctx, source, processed, runErr)
}

// finish stores the final status of the source and returns runErr.
func (r *IngestionRunner) finish(
	ctx context.Context,
	source *domain.IngestionSource,
	processed int,
	runErr error,
) error {
	if runErr != nil {
		source.Status = domain.StatusError
		source.LastError = runErr.Error()
		logger.Warn("Ingestion failed for source %q: %v", source.Name, runErr)
		if source.ScheduleCron != "" {
			logger.Warn("Scheduled source %q paused until its status is set to active", source.Name)
		}
	} else {
		finished := r.now()
		source.Status = domain.StatusActive
		source.LastRunAt = &finished
		logger.Info("Finished source %q: %d files processed", source.Name, processed)
	}

	if err := r.store.SaveSource(context.WithoutCancel(ctx), source); err != nil {
		logger.Warn("Failed to save source %d: %v", source.ID, err)
	}
	return runErr
}

func (r *IngestionRunner) process(
	ctx context.Context,
	company *domain.Company,
	source *domain.IngestionSource,
	filter *domain.FileFilter,
) (int, error) {
	connCfg, err := r.ConnectorConfig(ctx, company, source)
	if err != nil {
		return 0, err
	}

	if r.factory == nil {
		return 0, fmt.Errorf("%w: connector factory not configured", domain.ErrConfig)
	}
	connector, err := r.factory.Create(ctx, connCfg)
	if err != nil {
		return 0, fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	sourceID := source.ID
	cfg := FileProcessorConfig{
		Callback: r.kb.Callback(),
		Context: domain.FileContext{
			Company:    company,
			SourceID:   &sourceID,
			Collection: source.CollectionName(),
			Metadata:   source.Metadata(),
		},
		ContinueOnError: true,
		Echo:            true,
	}
	if filter != nil {
		cfg.Filter = *filter
	} else if m, ok := source.Configuration[domain.ConfigKeyFilter].(map[string]any); ok {
		cfg.Filter = FilterFromMap(m)
	}

	processor := NewFileProcessor(connector, cfg)
	if err := processor.ProcessFiles(ctx); err != nil {
		return processor.ProcessedFiles(), err
	}
	if n := len(processor.Errors()); n > 0 {
		logger.Warn("Source %q: %d files failed", source.Name, n)
	}
	return processor.ProcessedFiles(), nil
}

// ConnectorConfig builds the connector configuration of a source.
//
// Sources bound to an alias copy the company connector block and replace
// its path with the source root. Sources declared in company configuration
// carry a complete connector block with a type and no alias.
func (r *IngestionRunner) ConnectorConfig(
	ctx context.Context,
	company *domain.Company,
	source *domain.IngestionSource,
) (map[string]any, error) {
	if source.ConnectorName == "" {
		if typ, _ := source.Configuration[domain.ConfigKeyType].(string); typ != "" {
			return domain.CloneConfig(source.Configuration), nil
		}
		return nil, fmt.Errorf("%w: source %q has no connector", domain.ErrConfig, source.Name)
	}

	root := source.Root()
	if root == "" {
		return nil, fmt.Errorf("%w: source %q has no root configured", domain.ErrConfig, source.Name)
	}

	if r.configs == nil {
		return nil, fmt.Errorf("%w: company configuration not available", domain.ErrConfig)
	}
	companyCfg, err := r.configs.Get(ctx, company.ShortName)
	if err != nil {
		return nil, fmt.Errorf("%w: company %q: %w", domain.ErrConfig, company.ShortName, err)
	}

	connCfg, ok := companyCfg.ConnectorConfig(source.ConnectorName)
	if !ok {
		return nil, fmt.Errorf("%w: connector %q is not defined for company %q",
			domain.ErrConfig, source.ConnectorName, company.ShortName)
	}

	connCfg[domain.ConfigKeyPath] = root
	if _, hasPrefix := connCfg[domain.ConfigKeyPrefix]; hasPrefix {
		connCfg[domain.ConfigKeyPrefix] = root
	}
	if folder := source.Folder(); folder != "" {
		connCfg[domain.ConfigKeyFolder] = folder
	}
	return connCfg, nil
}

func runLockKey(sourceID int64) string {
	return fmt.Sprintf("ingest:lock:%d", sourceID)
}
