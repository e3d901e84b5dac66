package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/core/ports/driving"
	"github.com/iatoolkit/ingestd/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.Ingestor = (*Ingestor)(nil)

// Ingestor combines source management and execution behind one entry point.
type Ingestor struct {
	*IngestionSourceService
	*IngestionRunner

	store   driven.IngestionStore
	configs driven.CompanyConfigProvider
	env     string
}

// NewIngestor creates the facade. env selects the base connector for
// sources declared in company configuration ("dev" or "prod").
func NewIngestor(
	sources *IngestionSourceService,
	runner *IngestionRunner,
	store driven.IngestionStore,
	configs driven.CompanyConfigProvider,
	env string,
) *Ingestor {
	if env == "" {
		env = domain.EnvDevelopment
	}
	return &Ingestor{
		IngestionSourceService: sources,
		IngestionRunner:        runner,
		store:                  store,
		configs:                configs,
		env:                    env,
	}
}

// LoadSources syncs the sources declared in company configuration and
// runs the named ones. Failing sources are logged and skipped.
func (i *Ingestor) LoadSources(
	ctx context.Context,
	company *domain.Company,
	names []string,
	filter *domain.FileFilter,
) (int, error) {
	if company == nil {
		return 0, fmt.Errorf("%w: company", domain.ErrMissingParameter)
	}
	if len(names) == 0 {
		return 0, fmt.Errorf("%w: no sources to load for company %q", domain.ErrMissingParameter, company.ShortName)
	}

	if err := i.SyncSourcesFromConfig(ctx, company); err != nil {
		return 0, err
	}

	sources, err := i.store.ListActiveSources(ctx, company.ID, names)
	if err != nil {
		return 0, fmt.Errorf("list active sources: %w", err)
	}
	if len(sources) == 0 {
		logger.Warn("No active ingestion sources found matching %v", names)
		return 0, nil
	}

	if filter == nil {
		f := domain.LegacyDefaultFilter
		filter = &f
	}

	total := 0
	for idx := range sources {
		source := &sources[idx]
		n, err := i.TriggerIngestion(ctx, company, source, filter)
		if err != nil {
			logger.Warn("Error executing source %s: %v", source.Name, err)
			continue
		}
		total += n
	}
	return total, nil
}

// SyncSourcesFromConfig creates or updates one source per entry of
// knowledge_base.document_sources, keyed by name.
func (i *Ingestor) SyncSourcesFromConfig(ctx context.Context, company *domain.Company) error {
	cfg, err := i.configs.Get(ctx, company.ShortName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get company config: %w", err)
	}

	declared := cfg.KnowledgeBase.DocumentSources
	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Strings(names)

	base := cfg.KnowledgeBase.BaseConnector(i.env)
	for _, name := range names {
		ds := declared[name]

		full := domain.CloneConfig(base)
		full[domain.ConfigKeyPath] = ds.Path
		full[domain.ConfigKeyFolder] = ds.Folder
		metadata := ds.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		full[domain.ConfigKeyMetadata] = metadata
		full[domain.ConfigKeyCollection] = ds.Collection

		source, err := i.store.GetSourceByName(ctx, company.ID, name)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			source = &domain.IngestionSource{
				CompanyID: company.ID,
				Name:      name,
				Status:    domain.StatusActive,
			}
		case err != nil:
			return fmt.Errorf("get source %q: %w", name, err)
		}

		// Declared sources carry their own connector block.
		source.ConnectorName = ""
		source.Configuration = full
		source.ScheduleCron = ds.ScheduleCron
		if ds.Collection != "" && i.collections != nil {
			if ct, err := i.collections.GetCollectionTypeByName(ctx, company.ID, ds.Collection); err == nil {
				source.CollectionTypeID = &ct.ID
				source.CollectionType = ct
			}
		}

		if source.ID == 0 {
			err = i.store.CreateSource(ctx, source)
		} else {
			err = i.store.SaveSource(ctx, source)
		}
		if err != nil {
			return fmt.Errorf("save source %q: %w", name, err)
		}
	}
	return nil
}
