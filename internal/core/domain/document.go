package domain

import "time"

// Document is a parsed file stored in a company's knowledge base.
type Document struct {
	ID        string
	CompanyID int64

	// SourceID is nil for documents ingested outside a source run.
	SourceID   *int64
	Collection string
	Filename   string
	Title      string
	Content    string

	// StorageKey is where the original bytes live, if they were kept.
	StorageKey string
	Metadata   map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Chunk is a retrievable slice of a document's content.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Position   int
	Embedding  []float32
	Metadata   map[string]any
}

// HasEmbedding reports whether the chunk carries a vector.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
