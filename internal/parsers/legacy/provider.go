// Package legacy provides the built-in parsing provider. It extracts plain
// text from common document formats without external services.
package legacy

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// Name is the provider name.
const Name = domain.ProviderLegacy

// Ensure Provider implements the interface.
var _ driven.ParsingProvider = (*Provider)(nil)

// extractor parses one family of formats.
type extractor func(filename string, content []byte) (*domain.ParseResult, error)

// Provider dispatches on file extension to a format extractor.
type Provider struct {
	extractors map[string]extractor
	mimeTypes  map[string]string
}

// New creates the legacy provider.
func New() *Provider {
	p := &Provider{
		extractors: make(map[string]extractor),
		mimeTypes:  make(map[string]string),
	}
	for _, ext := range []string{".txt", ".text", ".log", ".csv", ".tsv", ".json", ".xml", ".yaml", ".yml"} {
		p.register(ext, "text/plain", extractPlainText)
	}
	p.register(".md", "text/markdown", extractMarkdown)
	p.register(".markdown", "text/markdown", extractMarkdown)
	p.register(".html", "text/html", extractHTML)
	p.register(".htm", "text/html", extractHTML)
	p.register(".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", extractDocx)
	p.register(".pdf", "application/pdf", extractPDF)
	return p
}

func (p *Provider) register(ext, mimeType string, fn extractor) {
	p.extractors[ext] = fn
	p.mimeTypes[ext] = mimeType
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return Name
}

// Enabled is always true.
func (p *Provider) Enabled() bool {
	return true
}

// Supports reports whether the extension has an extractor.
func (p *Provider) Supports(req domain.ParseRequest) bool {
	_, ok := p.extractors[extension(req.Filename)]
	return ok
}

// Extensions returns the supported extensions.
func (p *Provider) Extensions() []string {
	out := make([]string, 0, len(p.extractors))
	for ext := range p.extractors {
		out = append(out, ext)
	}
	return out
}

// Parse extracts text from req.Content. Files with an unknown extension
// are accepted when their content is valid UTF-8 text.
func (p *Provider) Parse(ctx context.Context, req domain.ParseRequest) (*domain.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := extension(req.Filename)
	fn, ok := p.extractors[ext]
	mimeType := p.mimeTypes[ext]
	if !ok {
		if !looksLikeText(req.Content) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, req.Filename)
		}
		fn, mimeType = extractPlainText, "text/plain"
	}

	result, err := fn(req.Filename, req.Content)
	if err != nil {
		return nil, err
	}
	result.Provider = Name
	if result.MIMEType == "" {
		result.MIMEType = mimeType
	}
	return result, nil
}

func extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// looksLikeText accepts non-empty valid UTF-8 without NUL bytes.
func looksLikeText(content []byte) bool {
	if len(content) == 0 || !utf8.Valid(content) {
		return false
	}
	return !strings.ContainsRune(string(content), 0)
}

// singleBlock wraps extracted text in a result with one block.
func singleBlock(title, text string) *domain.ParseResult {
	result := &domain.ParseResult{Title: title, FullText: text}
	if text != "" {
		result.TextBlocks = []domain.TextBlock{{Text: text, BlockType: "text"}}
	}
	return result
}
