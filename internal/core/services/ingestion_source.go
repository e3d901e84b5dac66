package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/core/ports/driving"
)

// Ensure IngestionSourceService implements the interface.
var _ driving.IngestionSourceService = (*IngestionSourceService)(nil)

// IngestionSourceService manages ingestion source configurations.
type IngestionSourceService struct {
	store       driven.IngestionStore
	collections driven.CollectionStore
	connectors  driven.ConnectorFactory
}

// NewIngestionSourceService creates a new source service.
func NewIngestionSourceService(store driven.IngestionStore, collections driven.CollectionStore) *IngestionSourceService {
	return &IngestionSourceService{
		store:       store,
		collections: collections,
	}
}

// SetConnectorFactory enables rejecting configurations whose connector
// type the factory cannot build.
func (s *IngestionSourceService) SetConnectorFactory(factory driven.ConnectorFactory) {
	s.connectors = factory
}

// ListSources returns every source of the company.
func (s *IngestionSourceService) ListSources(ctx context.Context, company *domain.Company) ([]domain.IngestionSource, error) {
	if company == nil {
		return nil, fmt.Errorf("%w: company", domain.ErrMissingParameter)
	}
	return s.store.ListSources(ctx, company.ID)
}

// GetSource returns one source of the company.
func (s *IngestionSourceService) GetSource(
	ctx context.Context,
	company *domain.Company,
	sourceID int64,
) (*domain.IngestionSource, error) {
	if company == nil {
		return nil, fmt.Errorf("%w: company", domain.ErrMissingParameter)
	}
	source, err := s.store.GetSource(ctx, company.ID, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("ingestion source %d: %w", sourceID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get source: %w", err)
	}
	return source, nil
}

// CreateSource validates input and persists a new ACTIVE source.
func (s *IngestionSourceService) CreateSource(
	ctx context.Context,
	company *domain.Company,
	in domain.SourceInput,
) (*domain.IngestionSource, error) {
	if company == nil {
		return nil, fmt.Errorf("%w: company", domain.ErrMissingParameter)
	}

	for _, req := range []struct {
		field string
		value *string
	}{
		{"name", in.Name},
		{"collection_name", in.CollectionName},
		{"connector_name", in.ConnectorName},
	} {
		if req.value == nil || strings.TrimSpace(*req.value) == "" {
			return nil, &domain.FieldError{Field: req.field, Err: domain.ErrMissingParameter}
		}
	}
	if in.Configuration == nil {
		return nil, &domain.FieldError{Field: "configuration", Err: domain.ErrMissingParameter}
	}

	config, err := configurationObject(in.Configuration)
	if err != nil {
		return nil, err
	}
	if err := s.checkConnectorType(config); err != nil {
		return nil, err
	}

	ct, err := s.collectionByName(ctx, company, *in.CollectionName)
	if err != nil {
		return nil, err
	}
	config[domain.ConfigKeyCollection] = ct.Name

	source := &domain.IngestionSource{
		CompanyID:        company.ID,
		Name:             strings.TrimSpace(*in.Name),
		ConnectorName:    strings.TrimSpace(*in.ConnectorName),
		Configuration:    config,
		CollectionTypeID: &ct.ID,
		CollectionType:   ct,
		Status:           domain.StatusActive,
	}

	if in.ScheduleCron != nil {
		if err := ValidateSchedule(*in.ScheduleCron); err != nil {
			return nil, err
		}
		source.ScheduleCron = *in.ScheduleCron
	}

	if err := s.store.CreateSource(ctx, source); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return source, nil
}

// UpdateSource applies the supplied fields to a source that is not running.
func (s *IngestionSourceService) UpdateSource(
	ctx context.Context,
	company *domain.Company,
	sourceID int64,
	in domain.SourceInput,
) (*domain.IngestionSource, error) {
	source, err := s.GetSource(ctx, company, sourceID)
	if err != nil {
		return nil, err
	}
	if source.IsRunning() {
		return nil, fmt.Errorf("%w: cannot update source %q while it is running", domain.ErrInvalidState, source.Name)
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		source.Name = strings.TrimSpace(*in.Name)
	}
	if in.ConnectorName != nil {
		source.ConnectorName = strings.TrimSpace(*in.ConnectorName)
	}
	if in.Status != nil {
		status, err := domain.ParseIngestionStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		source.Status = status
	}
	if in.ScheduleCron != nil {
		if err := ValidateSchedule(*in.ScheduleCron); err != nil {
			return nil, err
		}
		source.ScheduleCron = *in.ScheduleCron
	}
	if in.Configuration != nil {
		config, err := configurationObject(in.Configuration)
		if err != nil {
			return nil, err
		}
		if err := s.checkConnectorType(config); err != nil {
			return nil, err
		}
		if name := source.CollectionName(); name != "" {
			config[domain.ConfigKeyCollection] = name
		}
		source.Configuration = config
	}
	if in.CollectionName != nil {
		ct, err := s.collectionByName(ctx, company, *in.CollectionName)
		if err != nil {
			return nil, err
		}
		source.CollectionTypeID = &ct.ID
		source.CollectionType = ct
		if source.Configuration == nil {
			source.Configuration = map[string]any{}
		}
		source.Configuration[domain.ConfigKeyCollection] = ct.Name
	}

	if err := s.store.SaveSource(ctx, source); err != nil {
		return nil, fmt.Errorf("save source: %w", err)
	}
	return source, nil
}

// DeleteSource removes a source that is not running.
func (s *IngestionSourceService) DeleteSource(ctx context.Context, company *domain.Company, sourceID int64) error {
	source, err := s.GetSource(ctx, company, sourceID)
	if err != nil {
		return err
	}
	if source.IsRunning() {
		return fmt.Errorf("%w: cannot delete source %q while it is running", domain.ErrInvalidState, source.Name)
	}
	if err := s.store.DeleteSource(ctx, company.ID, sourceID); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}

func (s *IngestionSourceService) collectionByName(
	ctx context.Context,
	company *domain.Company,
	name string,
) (*domain.CollectionType, error) {
	name = strings.TrimSpace(name)
	if s.collections == nil {
		return nil, fmt.Errorf("%w: collection store not configured", domain.ErrConfig)
	}
	ct, err := s.collections.GetCollectionTypeByName(ctx, company.ID, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown collection %q", domain.ErrInvalidParameter, name)
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return ct, nil
}

func (s *IngestionSourceService) checkConnectorType(config map[string]any) error {
	typ, _ := config[domain.ConfigKeyType].(string)
	if typ == "" || s.connectors == nil {
		return nil
	}
	if !slices.Contains(s.connectors.SupportedTypes(), strings.ToLower(typ)) {
		return &domain.FieldError{Field: "configuration.type", Err: domain.ErrInvalidParameter}
	}
	return nil
}

// configurationObject accepts only JSON-object shaped configuration.
func configurationObject(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &domain.FieldError{Field: "configuration", Err: domain.ErrInvalidParameter}
	}
	return domain.CloneConfig(m), nil
}
