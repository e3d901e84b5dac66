// Package cleaner normalises whitespace and strips control characters.
package cleaner

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// Processor cleans document content before chunking, or the chunks
// themselves when it runs after a chunker.
type Processor struct{}

// New creates a cleaner.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "cleaner"
}

// Process cleans doc.Content when chunks is nil. Otherwise each chunk is
// cleaned and empty chunks are dropped.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if chunks == nil {
		doc.Content = Clean(doc.Content)
		return nil, nil
	}

	out := chunks[:0]
	for _, c := range chunks {
		c.Content = Clean(c.Content)
		if c.Content == "" {
			continue
		}
		c.Position = len(out)
		out = append(out, c)
	}
	return out, nil
}

// Clean normalises line endings, drops control characters, collapses
// horizontal whitespace and limits blank lines to one.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r == '\u00a0' {
			return ' '
		}
		if unicode.IsControl(r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, s)
	s = horizontalSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
