package domain

import "strings"

// Parsing provider names.
const (
	ProviderAuto    = "auto"
	ProviderLegacy  = "legacy"
	ProviderDocling = "docling"

	// ProviderDocumentService is an older name for the legacy provider.
	ProviderDocumentService = "document_service"
)

// NormaliseProviderName maps aliases onto canonical provider names.
func NormaliseProviderName(name string) string {
	if name == ProviderDocumentService {
		return ProviderLegacy
	}
	return name
}

// ParseRequest is the input to a parsing provider.
type ParseRequest struct {
	CompanyShortName string
	Filename         string
	Content          []byte
	Metadata         map[string]any
}

// TextBlock is a contiguous run of text with its page span.
type TextBlock struct {
	Text         string
	PageStart    int
	PageEnd      int
	BlockType    string
	SectionTitle string
	Meta         map[string]any
}

// Table is a table extracted from a document, rendered as markdown.
type Table struct {
	Markdown  string
	TableJSON map[string]any
	Page      int
	Title     string
	Meta      map[string]any
}

// Image is an embedded image extracted from a document.
type Image struct {
	Content    []byte
	Filename   string
	Page       int
	ImageIndex int
	Caption    string
	Meta       map[string]any
}

// ParseResult is the structured output of a parsing provider.
type ParseResult struct {
	Provider   string
	Title      string
	MIMEType   string
	TextBlocks []TextBlock
	Tables     []Table
	Images     []Image
	FullText   string

	// TablesInText is set when FullText already renders Tables.
	TablesInText bool
}

// Text returns FullText, falling back to the joined text blocks.
func (r *ParseResult) Text() string {
	if r.FullText != "" {
		return r.FullText
	}
	parts := make([]string, 0, len(r.TextBlocks))
	for _, b := range r.TextBlocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
