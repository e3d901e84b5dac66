package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// SaveCompany inserts or updates a company keyed by short name.
func (s *Store) SaveCompany(ctx context.Context, company *domain.Company) error {
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO companies (short_name, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(short_name) DO UPDATE SET
			name = excluded.name
		RETURNING id, created_at
	`, company.ShortName, company.Name, company.CreatedAt)

	var createdAt sql.NullTime
	if err := row.Scan(&company.ID, &createdAt); err != nil {
		return fmt.Errorf("saving company: %w", err)
	}
	if createdAt.Valid {
		company.CreatedAt = createdAt.Time
	}
	return nil
}

// GetCompany returns a company by ID.
func (s *Store) GetCompany(ctx context.Context, id int64) (*domain.Company, error) {
	return scanCompany(s.db.QueryRowContext(ctx, `
		SELECT id, short_name, name, created_at FROM companies WHERE id = ?
	`, id))
}

// GetCompanyByShortName returns a company by short name.
func (s *Store) GetCompanyByShortName(ctx context.Context, shortName string) (*domain.Company, error) {
	return scanCompany(s.db.QueryRowContext(ctx, `
		SELECT id, short_name, name, created_at FROM companies WHERE short_name = ?
	`, shortName))
}

// ListCompanies returns every company ordered by ID.
func (s *Store) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, short_name, name, created_at FROM companies ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying companies: %w", err)
	}
	defer rows.Close()

	var companies []domain.Company //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Company
		var createdAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.ShortName, &c.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning company: %w", err)
		}
		c.CreatedAt = createdAt.Time
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating companies: %w", err)
	}
	return companies, nil
}

func scanCompany(row *sql.Row) (*domain.Company, error) {
	var c domain.Company
	var createdAt sql.NullTime
	if err := row.Scan(&c.ID, &c.ShortName, &c.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning company: %w", err)
	}
	c.CreatedAt = createdAt.Time
	return &c, nil
}

// SaveCollectionType inserts or updates a collection keyed by (company, name).
func (s *Store) SaveCollectionType(ctx context.Context, ct *domain.CollectionType) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO collection_types (company_id, name, parser_provider)
		VALUES (?, ?, ?)
		ON CONFLICT(company_id, name) DO UPDATE SET
			parser_provider = excluded.parser_provider
		RETURNING id
	`, ct.CompanyID, ct.Name, ct.ParserProvider)

	if err := row.Scan(&ct.ID); err != nil {
		return fmt.Errorf("saving collection type: %w", err)
	}
	return nil
}

// GetCollectionTypeByName returns the named collection of a company.
func (s *Store) GetCollectionTypeByName(ctx context.Context, companyID int64, name string) (*domain.CollectionType, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, parser_provider
		FROM collection_types WHERE company_id = ? AND name = ?
	`, companyID, name)

	var ct domain.CollectionType
	if err := row.Scan(&ct.ID, &ct.CompanyID, &ct.Name, &ct.ParserProvider); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning collection type: %w", err)
	}
	return &ct, nil
}

// ListCollectionTypes returns the collections of a company ordered by name.
func (s *Store) ListCollectionTypes(ctx context.Context, companyID int64) ([]domain.CollectionType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, parser_provider
		FROM collection_types WHERE company_id = ? ORDER BY name
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying collection types: %w", err)
	}
	defer rows.Close()

	var out []domain.CollectionType //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ct domain.CollectionType
		if err := rows.Scan(&ct.ID, &ct.CompanyID, &ct.Name, &ct.ParserProvider); err != nil {
			return nil, fmt.Errorf("scanning collection type: %w", err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collection types: %w", err)
	}
	return out, nil
}
