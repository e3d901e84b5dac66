package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// sourceColumns selects a source with its joined collection type.
const sourceColumns = `
	s.id, s.company_id, s.name, s.connector_name, s.configuration,
	s.collection_type_id, s.status, s.schedule_cron, s.last_run_at,
	s.last_error, s.created_at, s.updated_at,
	ct.id, ct.name, ct.parser_provider
	FROM ingestion_sources s
	LEFT JOIN collection_types ct ON ct.id = s.collection_type_id`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// CreateSource inserts a source and assigns its ID.
func (s *Store) CreateSource(ctx context.Context, source *domain.IngestionSource) error {
	configJSON, err := marshalMap(source.Configuration)
	if err != nil {
		return fmt.Errorf("marshalling configuration: %w", err)
	}

	now := time.Now().UTC()
	source.CreatedAt = now
	source.UpdatedAt = now
	if source.Status == "" {
		source.Status = domain.StatusActive
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestion_sources (company_id, name, connector_name, configuration,
			collection_type_id, status, schedule_cron, last_run_at, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, source.CompanyID, source.Name, source.ConnectorName, configJSON,
		nullInt64(source.CollectionTypeID), string(source.Status), source.ScheduleCron,
		nullTime(source.LastRunAt), source.LastError, source.CreatedAt, source.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("source %q: %w", source.Name, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting source: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading source id: %w", err)
	}
	source.ID = id
	return nil
}

// SaveSource updates every mutable field of an existing source.
func (s *Store) SaveSource(ctx context.Context, source *domain.IngestionSource) error {
	configJSON, err := marshalMap(source.Configuration)
	if err != nil {
		return fmt.Errorf("marshalling configuration: %w", err)
	}
	source.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE ingestion_sources SET
			name = ?, connector_name = ?, configuration = ?, collection_type_id = ?,
			status = ?, schedule_cron = ?, last_run_at = ?, last_error = ?, updated_at = ?
		WHERE id = ? AND company_id = ?
	`, source.Name, source.ConnectorName, configJSON, nullInt64(source.CollectionTypeID),
		string(source.Status), source.ScheduleCron, nullTime(source.LastRunAt), source.LastError,
		source.UpdatedAt, source.ID, source.CompanyID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("source %q: %w", source.Name, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("updating source: %w", err)
	}
	return expectAffected(res)
}

// GetSource returns a source of a company with its collection type joined.
func (s *Store) GetSource(ctx context.Context, companyID, sourceID int64) (*domain.IngestionSource, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sourceColumns+" WHERE s.company_id = ? AND s.id = ?", companyID, sourceID)
	return scanSourceRow(row)
}

// GetSourceByName returns a source of a company by name.
func (s *Store) GetSourceByName(ctx context.Context, companyID int64, name string) (*domain.IngestionSource, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sourceColumns+" WHERE s.company_id = ? AND s.name = ?", companyID, name)
	return scanSourceRow(row)
}

// ListSources returns the sources of a company ordered by ID.
func (s *Store) ListSources(ctx context.Context, companyID int64) ([]domain.IngestionSource, error) {
	return s.querySources(ctx, "WHERE s.company_id = ? ORDER BY s.id", companyID)
}

// ListActiveSources returns ACTIVE sources of a company whose name is in names.
func (s *Store) ListActiveSources(ctx context.Context, companyID int64, names []string) ([]domain.IngestionSource, error) {
	if len(names) == 0 {
		return []domain.IngestionSource{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, 0, len(names)+2)
	args = append(args, companyID, string(domain.StatusActive))
	for _, n := range names {
		args = append(args, n)
	}
	return s.querySources(ctx,
		"WHERE s.company_id = ? AND s.status = ? AND s.name IN ("+placeholders+") ORDER BY s.id", args...)
}

// ListScheduledSources returns ACTIVE sources with a schedule across companies.
func (s *Store) ListScheduledSources(ctx context.Context) ([]domain.IngestionSource, error) {
	return s.querySources(ctx,
		"WHERE s.status = ? AND s.schedule_cron <> '' ORDER BY s.id", string(domain.StatusActive))
}

// DeleteSource removes a source; its runs are removed by cascade.
func (s *Store) DeleteSource(ctx context.Context, companyID, sourceID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM ingestion_sources WHERE id = ? AND company_id = ?", sourceID, companyID)
	if err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	return expectAffected(res)
}

func (s *Store) querySources(ctx context.Context, where string, args ...any) ([]domain.IngestionSource, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sourceColumns+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	sources := []domain.IngestionSource{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

func scanSourceRow(row *sql.Row) (*domain.IngestionSource, error) {
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return src, err
}

func scanSource(row rowScanner) (*domain.IngestionSource, error) {
	var src domain.IngestionSource
	var configJSON, status string
	var collectionTypeID, ctID sql.NullInt64
	var ctName, ctProvider sql.NullString
	var lastRunAt, createdAt, updatedAt sql.NullTime

	err := row.Scan(&src.ID, &src.CompanyID, &src.Name, &src.ConnectorName, &configJSON,
		&collectionTypeID, &status, &src.ScheduleCron, &lastRunAt,
		&src.LastError, &createdAt, &updatedAt,
		&ctID, &ctName, &ctProvider)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}

	if src.Configuration, err = unmarshalMap(configJSON); err != nil {
		return nil, fmt.Errorf("unmarshalling configuration: %w", err)
	}
	src.Status = domain.IngestionStatus(status)
	src.CollectionTypeID = int64Ptr(collectionTypeID)
	src.LastRunAt = timePtr(lastRunAt)
	src.CreatedAt = createdAt.Time
	src.UpdatedAt = updatedAt.Time
	if ctID.Valid {
		src.CollectionType = &domain.CollectionType{
			ID:             ctID.Int64,
			CompanyID:      src.CompanyID,
			Name:           ctName.String,
			ParserProvider: ctProvider.String,
		}
	}
	return &src, nil
}

// CreateRun inserts a run and assigns its ID.
func (s *Store) CreateRun(ctx context.Context, run *domain.IngestionRun) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestion_runs (source_id, company_id, status, triggered_by,
			processed_files, error_message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.SourceID, run.CompanyID, string(run.Status), run.TriggeredBy,
		run.ProcessedFiles, run.ErrorMessage, run.StartedAt, nullTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}
	run.ID = id
	return nil
}

// UpdateRun persists the final state of a run.
func (s *Store) UpdateRun(ctx context.Context, run *domain.IngestionRun) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ingestion_runs SET
			status = ?, processed_files = ?, error_message = ?, finished_at = ?
		WHERE id = ?
	`, string(run.Status), run.ProcessedFiles, run.ErrorMessage, nullTime(run.FinishedAt), run.ID)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	return expectAffected(res)
}

// ListRuns returns the newest runs of a source first.
func (s *Store) ListRuns(ctx context.Context, companyID, sourceID int64, limit int) ([]domain.IngestionRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, company_id, status, triggered_by, processed_files,
			error_message, started_at, finished_at
		FROM ingestion_runs
		WHERE company_id = ? AND source_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, companyID, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.IngestionRun{}
	for rows.Next() {
		var run domain.IngestionRun
		var status string
		var startedAt, finishedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.SourceID, &run.CompanyID, &status, &run.TriggeredBy,
			&run.ProcessedFiles, &run.ErrorMessage, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Status = domain.IngestionStatus(status)
		run.StartedAt = startedAt.Time
		run.FinishedAt = timePtr(finishedAt)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
