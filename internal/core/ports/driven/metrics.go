package driven

import "time"

// IngestionMetrics records ingestion activity.
type IngestionMetrics interface {
	// RunFinished records a finished run with its final status.
	RunFinished(company string, status string, processed int, elapsed time.Duration)

	// FileProcessed records one file handed to the knowledge base.
	FileProcessed(company string, ok bool)
}
