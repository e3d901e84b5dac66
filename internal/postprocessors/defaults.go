package postprocessors

import (
	"fmt"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/postprocessors/chunker"
	"github.com/iatoolkit/ingestd/internal/postprocessors/cleaner"
	"github.com/iatoolkit/ingestd/internal/postprocessors/embedder"
)

// DefaultOrder is the processor order used when none is configured.
var DefaultOrder = []string{"cleaner", "chunker", "embedder"}

// RegisterDefaults registers the built-in processors. The embedder is
// registered only when an embedding service is available.
func RegisterDefaults(r *Registry, embeddings driven.EmbeddingService) {
	r.Register("cleaner", buildCleaner)
	r.Register("chunker", buildChunker)
	if embeddings != nil {
		r.Register("embedder", func(cfg map[string]any) (driven.PostProcessor, error) {
			return buildEmbedder(embeddings, cfg)
		})
	}
}

// DefaultPipeline builds cleaner, chunker and (if available) embedder.
func DefaultPipeline(embeddings driven.EmbeddingService, chunkerCfg map[string]any) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r, embeddings)

	var names []string
	for _, name := range DefaultOrder {
		if r.Has(name) {
			names = append(names, name)
		}
	}
	return r.BuildPipeline(names, map[string]map[string]any{"chunker": chunkerCfg})
}

func buildCleaner(_ map[string]any) (driven.PostProcessor, error) {
	return cleaner.New(), nil
}

// buildChunker reads chunk_size and overlap.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := intFromConfig(cfg, "chunk_size"); ok {
		if size <= 0 {
			return nil, fmt.Errorf("%w: chunk_size must be positive", domain.ErrConfig)
		}
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := intFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// buildEmbedder reads batch_size.
func buildEmbedder(svc driven.EmbeddingService, cfg map[string]any) (driven.PostProcessor, error) {
	var opts []embedder.Option
	if size, ok := intFromConfig(cfg, "batch_size"); ok {
		opts = append(opts, embedder.WithBatchSize(size))
	}
	return embedder.New(svc, opts...), nil
}

// intFromConfig extracts an int from TOML, YAML or JSON decoded values.
func intFromConfig(cfg map[string]any, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
