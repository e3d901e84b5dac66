// Package embedder attaches embedding vectors to chunks.
package embedder

import (
	"context"
	"fmt"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// DefaultBatchSize is the number of chunks embedded per request.
const DefaultBatchSize = 64

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor embeds chunk content through an EmbeddingService.
type Processor struct {
	svc       driven.EmbeddingService
	batchSize int
}

// Option configures the embedder.
type Option func(*Processor)

// WithBatchSize sets the number of chunks per embedding request.
func WithBatchSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.batchSize = size
		}
	}
}

// New creates an embedder.
func New(svc driven.EmbeddingService, opts ...Option) *Processor {
	p := &Processor{svc: svc, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "embedder"
}

// Process sets Embedding on every chunk. Chunks that already carry a
// vector are left alone.
func (p *Processor) Process(ctx context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if p.svc == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	var pending []int
	for i := range chunks {
		if !chunks[i].HasEmbedding() {
			pending = append(pending, i)
		}
	}

	for start := 0; start < len(pending); start += p.batchSize {
		end := start + p.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for j, idx := range batch {
			texts[j] = chunks[idx].Content
		}

		vectors, err := p.svc.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed chunks: got %d vectors for %d texts", len(vectors), len(batch))
		}

		for j, idx := range batch {
			chunks[idx].Embedding = vectors[j]
			if chunks[idx].Metadata == nil {
				chunks[idx].Metadata = make(map[string]any)
			}
			chunks[idx].Metadata["embedding_model"] = p.svc.ModelName()
		}
	}
	return chunks, nil
}
