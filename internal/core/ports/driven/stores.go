package driven

import (
	"context"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// IngestionStore persists ingestion sources and their runs.
type IngestionStore interface {
	// CreateSource inserts a source and assigns its ID.
	CreateSource(ctx context.Context, source *domain.IngestionSource) error

	// SaveSource updates every mutable field of an existing source.
	SaveSource(ctx context.Context, source *domain.IngestionSource) error

	// GetSource returns the company's source or domain.ErrNotFound.
	// The collection type is joined when set.
	GetSource(ctx context.Context, companyID, sourceID int64) (*domain.IngestionSource, error)

	// GetSourceByName returns the company's source named name or domain.ErrNotFound.
	GetSourceByName(ctx context.Context, companyID int64, name string) (*domain.IngestionSource, error)

	// ListSources returns all sources of a company ordered by ID.
	ListSources(ctx context.Context, companyID int64) ([]domain.IngestionSource, error)

	// ListActiveSources returns ACTIVE sources whose name is in names.
	ListActiveSources(ctx context.Context, companyID int64, names []string) ([]domain.IngestionSource, error)

	// ListScheduledSources returns ACTIVE sources with a schedule across all companies.
	ListScheduledSources(ctx context.Context) ([]domain.IngestionSource, error)

	// DeleteSource removes a source and its runs.
	DeleteSource(ctx context.Context, companyID, sourceID int64) error

	// CreateRun inserts a run and assigns its ID.
	CreateRun(ctx context.Context, run *domain.IngestionRun) error

	// UpdateRun persists the final state of a run.
	UpdateRun(ctx context.Context, run *domain.IngestionRun) error

	// ListRuns returns the most recent runs of a source, newest first.
	ListRuns(ctx context.Context, companyID, sourceID int64, limit int) ([]domain.IngestionRun, error)
}

// CompanyStore persists tenants.
type CompanyStore interface {
	// SaveCompany inserts or updates a company keyed by short name.
	SaveCompany(ctx context.Context, company *domain.Company) error

	// GetCompanyByShortName returns the company or domain.ErrNotFound.
	GetCompanyByShortName(ctx context.Context, shortName string) (*domain.Company, error)

	// GetCompany returns the company by ID or domain.ErrNotFound.
	GetCompany(ctx context.Context, id int64) (*domain.Company, error)

	// ListCompanies returns every company.
	ListCompanies(ctx context.Context) ([]domain.Company, error)
}

// CollectionStore persists collection types.
type CollectionStore interface {
	// SaveCollectionType inserts or updates a collection keyed by (company, name).
	SaveCollectionType(ctx context.Context, ct *domain.CollectionType) error

	// GetCollectionTypeByName returns the collection or domain.ErrNotFound.
	GetCollectionTypeByName(ctx context.Context, companyID int64, name string) (*domain.CollectionType, error)

	// ListCollectionTypes returns every collection of a company.
	ListCollectionTypes(ctx context.Context, companyID int64) ([]domain.CollectionType, error)
}

// DocumentStore persists ingested documents and their chunks.
type DocumentStore interface {
	// SaveDocument stores a document with its chunks, replacing any previous
	// document with the same company, collection and filename.
	SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetDocument returns a document by ID or domain.ErrNotFound.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks returns the chunks of a document ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListDocuments returns the documents of a company collection.
	// An empty collection lists every document of the company.
	ListDocuments(ctx context.Context, companyID int64, collection string) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error
}
