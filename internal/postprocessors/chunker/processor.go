// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor splits document content into chunks of at most chunkSize
// characters, preferring to cut at whitespace near the end of a window.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks. Input chunks are ignored.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, nil
	}

	runes := []rune(doc.Content)
	n := len(runes)
	chunks := make([]domain.Chunk, 0, n/(p.chunkSize-p.overlap)+1)

	start := 0
	for start < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + p.chunkSize
		if end >= n {
			end = n
		} else {
			end = p.boundary(runes, start, end)
		}

		if text := strings.TrimSpace(string(runes[start:end])); text != "" {
			chunks = append(chunks, domain.Chunk{
				ID:         uuid.New().String(),
				DocumentID: doc.ID,
				Content:    text,
				Position:   len(chunks),
				Metadata:   chunkMetadata(doc, start),
			})
		}

		if end == n {
			break
		}
		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// boundary moves end back to just after the last whitespace within the
// final fifth of the window. Without whitespace the window is cut as is.
func (p *Processor) boundary(runes []rune, start, end int) int {
	lo := end - p.chunkSize/5
	if lo < start {
		lo = start
	}
	for i := end; i > lo; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}

func chunkMetadata(doc *domain.Document, offset int) map[string]any {
	meta := map[string]any{"offset": offset}
	if doc.Filename != "" {
		meta["filename"] = doc.Filename
	}
	if doc.Collection != "" {
		meta["collection"] = doc.Collection
	}
	return meta
}
