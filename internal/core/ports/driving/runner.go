package driving

import (
	"context"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// IngestionRunner executes ingestion sources and records their runs.
type IngestionRunner interface {
	// RunIngestion executes a source on behalf of userIdentifier and
	// returns the number of files processed.
	RunIngestion(ctx context.Context, company *domain.Company, sourceID int64, userIdentifier string) (int, error)

	// TriggerIngestion executes a source without creating a run record.
	TriggerIngestion(ctx context.Context, company *domain.Company, source *domain.IngestionSource, filter *domain.FileFilter) (int, error)

	// ListRuns returns the most recent runs of a source.
	ListRuns(ctx context.Context, company *domain.Company, sourceID int64, limit int) ([]domain.IngestionRun, error)
}

// Ingestor is the combined entry point used by the CLI and the HTTP API.
type Ingestor interface {
	IngestionSourceService
	IngestionRunner

	// LoadSources syncs sources declared in company configuration and runs
	// the named ones, returning the total processed count.
	LoadSources(ctx context.Context, company *domain.Company, names []string, filter *domain.FileFilter) (int, error)
}
