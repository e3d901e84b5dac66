package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatoolkit/ingestd/internal/adapters/driven/storage/memory"
	"github.com/iatoolkit/ingestd/internal/core/domain"
)

func newResolverFixture(t *testing.T, companyProvider string) (*ParsingProviderResolver, *mockParserFactory, *domain.Company) {
	t.Helper()
	ctx := context.Background()

	companies := memory.NewCompanyStore()
	company := &domain.Company{ShortName: "acme"}
	require.NoError(t, companies.SaveCompany(ctx, company))
	require.NoError(t, companies.SaveCollectionType(ctx, &domain.CollectionType{
		CompanyID: company.ID, Name: "scanned", ParserProvider: " DOCLING ",
	}))
	require.NoError(t, companies.SaveCollectionType(ctx, &domain.CollectionType{
		CompanyID: company.ID, Name: "plain",
	}))

	configs := memory.NewCompanyConfigs(&domain.CompanyConfig{
		ShortName:     "acme",
		KnowledgeBase: domain.KnowledgeBaseConfig{ParsingProvider: companyProvider},
	})
	factory := newMockParserFactory()
	return NewParsingProviderResolver(companies, configs, factory), factory, company
}

func TestParsingProviderResolver_Precedence(t *testing.T) {
	ctx := context.Background()
	pdf := domain.ParseRequest{Filename: "a.pdf"}

	t.Run("collection override wins", func(t *testing.T) {
		r, _, company := newResolverFixture(t, "legacy")
		p, err := r.Resolve(ctx, company, "scanned", pdf)
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderDocling, p.Name())
	})

	t.Run("company provider when collection has none", func(t *testing.T) {
		r, _, company := newResolverFixture(t, "Legacy")
		name, err := r.ConfiguredProvider(ctx, company, "plain")
		require.NoError(t, err)
		assert.Equal(t, "legacy", name)
	})

	t.Run("document_service alias maps to legacy", func(t *testing.T) {
		r, _, company := newResolverFixture(t, "document_service")
		p, err := r.Resolve(ctx, company, "plain", pdf)
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderLegacy, p.Name())
	})

	t.Run("unknown collection falls through", func(t *testing.T) {
		r, _, company := newResolverFixture(t, "")
		name, err := r.ConfiguredProvider(ctx, company, "nope")
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderAuto, name)
	})

	t.Run("unknown provider", func(t *testing.T) {
		r, _, company := newResolverFixture(t, "tesseract")
		_, err := r.Resolve(ctx, company, "plain", pdf)
		assert.ErrorIs(t, err, domain.ErrConfig)
	})

	t.Run("missing company", func(t *testing.T) {
		r, _, _ := newResolverFixture(t, "")
		_, err := r.Resolve(ctx, nil, "plain", pdf)
		assert.ErrorIs(t, err, domain.ErrMissingParameter)
	})
}

func TestParsingProviderResolver_Auto(t *testing.T) {
	ctx := context.Background()

	t.Run("docling disabled", func(t *testing.T) {
		r, _, company := newResolverFixture(t, "auto")
		p, err := r.Resolve(ctx, company, "plain", domain.ParseRequest{Filename: "a.pdf"})
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderLegacy, p.Name())
	})

	t.Run("docling enabled and supported", func(t *testing.T) {
		r, factory, company := newResolverFixture(t, "auto")
		factory.providers[domain.ProviderDocling].enabled = true
		p, err := r.Resolve(ctx, company, "plain", domain.ParseRequest{Filename: "a.pdf"})
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderDocling, p.Name())
	})

	t.Run("docling enabled but unsupported", func(t *testing.T) {
		r, factory, company := newResolverFixture(t, "")
		factory.providers[domain.ProviderDocling].enabled = true
		p, err := r.Resolve(ctx, company, "plain", domain.ParseRequest{Filename: "notes.txt"})
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderLegacy, p.Name())
	})

	t.Run("docling not registered", func(t *testing.T) {
		r, factory, company := newResolverFixture(t, "")
		delete(factory.providers, domain.ProviderDocling)
		p, err := r.Resolve(ctx, company, "", domain.ParseRequest{Filename: "a.pdf"})
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderLegacy, p.Name())
	})
}
