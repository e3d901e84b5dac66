package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// ParsingProviderResolver picks the parsing provider for a file.
//
// Precedence: collection override, then the company parsing_provider,
// then auto. Auto prefers docling when it is enabled and supports the
// file, and falls back to legacy.
type ParsingProviderResolver struct {
	collections driven.CollectionStore
	configs     driven.CompanyConfigProvider
	factory     driven.ParsingProviderFactory
}

// NewParsingProviderResolver creates a resolver.
func NewParsingProviderResolver(
	collections driven.CollectionStore,
	configs driven.CompanyConfigProvider,
	factory driven.ParsingProviderFactory,
) *ParsingProviderResolver {
	return &ParsingProviderResolver{
		collections: collections,
		configs:     configs,
		factory:     factory,
	}
}

// Resolve returns the provider to use for req inside collection.
func (r *ParsingProviderResolver) Resolve(
	ctx context.Context,
	company *domain.Company,
	collection string,
	req domain.ParseRequest,
) (driven.ParsingProvider, error) {
	name, err := r.ConfiguredProvider(ctx, company, collection)
	if err != nil {
		return nil, err
	}

	if name == domain.ProviderAuto {
		docling, err := r.factory.Get(domain.ProviderDocling)
		if err == nil && docling.Enabled() && docling.Supports(req) {
			return docling, nil
		}
		return r.factory.Get(domain.ProviderLegacy)
	}

	return r.factory.Get(domain.NormaliseProviderName(name))
}

// ConfiguredProvider returns the provider name before auto selection.
func (r *ParsingProviderResolver) ConfiguredProvider(
	ctx context.Context,
	company *domain.Company,
	collection string,
) (string, error) {
	if company == nil {
		return "", fmt.Errorf("%w: company", domain.ErrMissingParameter)
	}

	if collection != "" && r.collections != nil {
		ct, err := r.collections.GetCollectionTypeByName(ctx, company.ID, collection)
		switch {
		case err == nil:
			if p := ct.NormalisedParserProvider(); p != "" {
				return p, nil
			}
		case !errors.Is(err, domain.ErrNotFound):
			return "", fmt.Errorf("get collection %q: %w", collection, err)
		}
	}

	if r.configs != nil {
		cfg, err := r.configs.Get(ctx, company.ShortName)
		switch {
		case err == nil:
			if p := strings.ToLower(strings.TrimSpace(cfg.KnowledgeBase.ParsingProvider)); p != "" {
				return p, nil
			}
		case !errors.Is(err, domain.ErrNotFound):
			return "", fmt.Errorf("get company config: %w", err)
		}
	}

	return domain.ProviderAuto, nil
}
