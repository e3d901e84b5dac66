package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

const documentColumns = `id, company_id, source_id, collection, filename, title, content,
	storage_key, metadata, created_at, updated_at`

// SaveDocument stores a document with its chunks in one transaction,
// replacing any document with the same company, collection and filename.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	metadataJSON, err := marshalMap(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM documents
		WHERE company_id = ? AND collection = ? AND filename = ? AND id <> ?
	`, doc.CompanyID, doc.Collection, doc.Filename, doc.ID); err != nil {
		return fmt.Errorf("replacing document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			collection = excluded.collection,
			filename = excluded.filename,
			title = excluded.title,
			content = excluded.content,
			storage_key = excluded.storage_key,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.CompanyID, nullInt64(doc.SourceID), doc.Collection, doc.Filename, doc.Title,
		doc.Content, doc.StorageKey, metadataJSON, doc.CreatedAt, doc.UpdatedAt); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, document_id, content, position, embedding, metadata)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing chunk insert: %w", err)
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			chunkMeta, err := marshalMap(chunk.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling chunk metadata: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, chunk.ID, doc.ID, chunk.Content, chunk.Position,
				float32SliceToBytes(chunk.Embedding), chunkMeta); err != nil {
				return fmt.Errorf("saving chunk: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetChunks returns the chunks of a document ordered by position.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, position, embedding, metadata
		FROM chunks WHERE document_id = ? ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.Chunk{}
	for rows.Next() {
		var c domain.Chunk
		var embedding []byte
		var metadataJSON string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Content, &c.Position, &embedding, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(embedding)
		if c.Metadata, err = unmarshalMap(metadataJSON); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ListDocuments returns documents of a company ordered by filename,
// optionally limited to a collection.
func (s *Store) ListDocuments(ctx context.Context, companyID int64, collection string) ([]domain.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents WHERE company_id = ?"
	args := []any{companyID}
	if collection != "" {
		query += " AND collection = ?"
		args = append(args, collection)
	}
	query += " ORDER BY filename"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document; its chunks are removed by cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var sourceID sql.NullInt64
	var metadataJSON string
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(&doc.ID, &doc.CompanyID, &sourceID, &doc.Collection, &doc.Filename, &doc.Title,
		&doc.Content, &doc.StorageKey, &metadataJSON, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if doc.Metadata, err = unmarshalMap(metadataJSON); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	doc.SourceID = int64Ptr(sourceID)
	doc.CreatedAt = createdAt.Time
	doc.UpdatedAt = updatedAt.Time
	return &doc, nil
}
