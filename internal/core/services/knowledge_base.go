package services

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/logger"
)

// KnowledgeBaseService parses, chunks and stores single documents.
type KnowledgeBaseService struct {
	docs     driven.DocumentStore
	resolver *ParsingProviderResolver
	pipeline driven.PostProcessorPipeline
	metrics  driven.IngestionMetrics
}

// NewKnowledgeBaseService creates a knowledge base service.
// The pipeline is optional; without it documents are stored unchunked.
func NewKnowledgeBaseService(
	docs driven.DocumentStore,
	resolver *ParsingProviderResolver,
	pipeline driven.PostProcessorPipeline,
) *KnowledgeBaseService {
	return &KnowledgeBaseService{
		docs:     docs,
		resolver: resolver,
		pipeline: pipeline,
	}
}

// SetMetrics attaches an optional metrics recorder.
func (k *KnowledgeBaseService) SetMetrics(m driven.IngestionMetrics) {
	k.metrics = m
}

// IngestDocument stores one file in a company collection. Any failure is
// reported as domain.ErrLoadDocument wrapping the cause.
func (k *KnowledgeBaseService) IngestDocument(
	ctx context.Context,
	fc domain.FileContext,
	filename string,
	content []byte,
) (*domain.Document, error) {
	doc, err := k.ingest(ctx, fc, filename, content)
	if k.metrics != nil && fc.Company != nil {
		k.metrics.FileProcessed(fc.Company.ShortName, err == nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLoadDocument, filename, err)
	}
	return doc, nil
}

// Callback adapts IngestDocument for a FileProcessor.
func (k *KnowledgeBaseService) Callback() FileCallback {
	return func(ctx context.Context, fc domain.FileContext, filename string, content []byte) error {
		_, err := k.IngestDocument(ctx, fc, filename, content)
		return err
	}
}

func (k *KnowledgeBaseService) ingest(
	ctx context.Context,
	fc domain.FileContext,
	filename string,
	content []byte,
) (*domain.Document, error) {
	if fc.Company == nil {
		return nil, fmt.Errorf("%w: company", domain.ErrMissingParameter)
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: filename", domain.ErrMissingParameter)
	}

	req := domain.ParseRequest{
		CompanyShortName: fc.Company.ShortName,
		Filename:         filename,
		Content:          content,
		Metadata:         fc.Metadata,
	}

	provider, err := k.resolver.Resolve(ctx, fc.Company, fc.Collection, req)
	if err != nil {
		return nil, fmt.Errorf("resolve parser: %w", err)
	}

	logger.Debug("Parsing %s with %s", filename, provider.Name())
	result, err := provider.Parse(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("parse with %s: %w", provider.Name(), err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:         uuid.New().String(),
		CompanyID:  fc.Company.ID,
		SourceID:   fc.SourceID,
		Collection: fc.Collection,
		Filename:   filename,
		Title:      documentTitle(result, filename),
		Content:    documentContent(result),
		Metadata:   documentMetadata(fc, result, provider.Name(), filename),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var chunks []domain.Chunk
	if k.pipeline != nil {
		chunks, err = k.pipeline.Process(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("post-process: %w", err)
		}
	}

	if err := k.docs.SaveDocument(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	logger.Debug("Stored %s: %d chunks", filename, len(chunks))
	return doc, nil
}

func documentTitle(result *domain.ParseResult, filename string) string {
	if result.Title != "" {
		return result.Title
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.ReplaceAll(base, "_", " ")
	return strings.ReplaceAll(base, "-", " ")
}

// documentContent appends table markdown so tables are chunked with the text,
// unless the text already contains them.
func documentContent(result *domain.ParseResult) string {
	text := result.Text()
	if len(result.Tables) == 0 || result.TablesInText {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	for _, t := range result.Tables {
		if t.Markdown == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if t.Title != "" {
			b.WriteString(t.Title)
			b.WriteString("\n")
		}
		b.WriteString(t.Markdown)
	}
	return b.String()
}

func documentMetadata(fc domain.FileContext, result *domain.ParseResult, provider, filename string) map[string]any {
	meta := domain.CloneConfig(fc.Metadata)
	meta["parser"] = provider
	meta["filename"] = filename
	if fc.Collection != "" {
		meta["collection"] = fc.Collection
	}
	mimeType := result.MIMEType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	if mimeType != "" {
		meta["mime_type"] = mimeType
	}
	if n := len(result.Tables); n > 0 {
		meta["tables"] = n
	}
	if n := len(result.Images); n > 0 {
		meta["images"] = n
	}
	return meta
}
