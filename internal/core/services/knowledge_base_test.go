package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatoolkit/ingestd/internal/adapters/driven/storage/memory"
	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// kbMockPipeline splits content into one chunk per line.
type kbMockPipeline struct {
	err error
}

func (p *kbMockPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []domain.Chunk{{ID: doc.ID + "-0", DocumentID: doc.ID, Content: doc.Content}}, nil
}

func newKBFixture(t *testing.T, pipeline *kbMockPipeline) (*KnowledgeBaseService, *memory.DocumentStore, *mockParserFactory) {
	t.Helper()
	docs := memory.NewDocumentStore()
	parsers := newMockParserFactory()
	resolver := NewParsingProviderResolver(nil, nil, parsers)
	var kb *KnowledgeBaseService
	if pipeline != nil {
		kb = NewKnowledgeBaseService(docs, resolver, pipeline)
	} else {
		kb = NewKnowledgeBaseService(docs, resolver, nil)
	}
	return kb, docs, parsers
}

func TestKnowledgeBaseService_IngestDocument(t *testing.T) {
	ctx := context.Background()
	kb, docs, _ := newKBFixture(t, &kbMockPipeline{})
	company := &domain.Company{ID: 7, ShortName: "acme"}
	sourceID := int64(3)

	fc := domain.FileContext{
		Company:    company,
		SourceID:   &sourceID,
		Collection: "legal",
		Metadata:   map[string]any{"origin": "crm"},
	}
	doc, err := kb.IngestDocument(ctx, fc, "master_service-agreement.html", []byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, "master service agreement", doc.Title)
	assert.Equal(t, "hello", doc.Content)
	assert.Equal(t, int64(7), doc.CompanyID)
	assert.Equal(t, &sourceID, doc.SourceID)
	assert.Equal(t, "crm", doc.Metadata["origin"])
	assert.Equal(t, "legal", doc.Metadata["collection"])
	assert.Equal(t, domain.ProviderLegacy, doc.Metadata["parser"])
	assert.Contains(t, doc.Metadata["mime_type"], "text/html")

	chunks, err := docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)

	_, stillOriginal := fc.Metadata["parser"]
	assert.False(t, stillOriginal)
}

func TestKnowledgeBaseService_IngestDocument_Errors(t *testing.T) {
	ctx := context.Background()
	company := &domain.Company{ID: 1, ShortName: "acme"}

	t.Run("parse failure", func(t *testing.T) {
		kb, _, parsers := newKBFixture(t, nil)
		parsers.providers[domain.ProviderLegacy].parseErr = errors.New("corrupt")
		_, err := kb.IngestDocument(ctx, domain.FileContext{Company: company}, "a.txt", nil)
		assert.ErrorIs(t, err, domain.ErrLoadDocument)
		assert.Contains(t, err.Error(), "corrupt")
	})

	t.Run("pipeline failure", func(t *testing.T) {
		kb, docs, _ := newKBFixture(t, &kbMockPipeline{err: errors.New("chunker exploded")})
		_, err := kb.IngestDocument(ctx, domain.FileContext{Company: company}, "a.txt", []byte("x"))
		assert.ErrorIs(t, err, domain.ErrLoadDocument)
		list, _ := docs.ListDocuments(ctx, 1, "")
		assert.Empty(t, list)
	})

	t.Run("missing company", func(t *testing.T) {
		kb, _, _ := newKBFixture(t, nil)
		_, err := kb.IngestDocument(ctx, domain.FileContext{}, "a.txt", nil)
		assert.ErrorIs(t, err, domain.ErrLoadDocument)
		assert.ErrorIs(t, err, domain.ErrMissingParameter)
	})
}

func TestDocumentContent_AppendsTables(t *testing.T) {
	result := &domain.ParseResult{
		TextBlocks: []domain.TextBlock{{Text: "intro"}, {Text: ""}, {Text: "body"}},
		Tables: []domain.Table{
			{Title: "Prices", Markdown: "| a |\n|---|\n| 1 |"},
			{Markdown: ""},
		},
	}
	assert.Equal(t, "intro\n\nbody\n\nPrices\n| a |\n|---|\n| 1 |", documentContent(result))
}

func TestDocumentContent_TablesAlreadyInText(t *testing.T) {
	result := &domain.ParseResult{
		FullText:     "intro\n\n| a |\n|---|\n| 1 |",
		Tables:       []domain.Table{{Markdown: "| a |\n|---|\n| 1 |"}},
		TablesInText: true,
	}
	assert.Equal(t, "intro\n\n| a |\n|---|\n| 1 |", documentContent(result))
}
