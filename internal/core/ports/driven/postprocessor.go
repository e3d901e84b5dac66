package driven

import (
	"context"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// PostProcessor transforms a parsed document into chunks.
// PostProcessors are chained in a pipeline (e.g., cleaning, chunking, embedding).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and the chunks produced so far.
	// A processor that creates chunks receives nil and returns new chunks.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
