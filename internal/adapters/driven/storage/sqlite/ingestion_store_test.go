package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

func newSource(companyID int64, name string) *domain.IngestionSource {
	return &domain.IngestionSource{
		CompanyID:     companyID,
		Name:          name,
		ConnectorName: "iatoolkit_storage",
		Configuration: map[string]any{
			"root":     "contracts",
			"metadata": map[string]any{"type": "contract"},
		},
		Status: domain.StatusActive,
	}
}

func TestSources_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	acme := seedCompany(t, s, "acme")

	legal := &domain.CollectionType{CompanyID: acme.ID, Name: "legal", ParserProvider: "docling"}
	require.NoError(t, s.SaveCollectionType(ctx, legal))

	src := newSource(acme.ID, "contracts")
	src.CollectionTypeID = &legal.ID
	src.ScheduleCron = "@daily"
	require.NoError(t, s.CreateSource(ctx, src))
	require.NotZero(t, src.ID)
	assert.False(t, src.CreatedAt.IsZero())

	got, err := s.GetSource(ctx, acme.ID, src.ID)
	require.NoError(t, err)
	assert.Equal(t, "contracts", got.Name)
	assert.Equal(t, "iatoolkit_storage", got.ConnectorName)
	assert.Equal(t, "contracts", got.Root())
	assert.Equal(t, map[string]any{"type": "contract"}, got.Metadata())
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.Equal(t, "@daily", got.ScheduleCron)
	assert.Nil(t, got.LastRunAt)
	require.NotNil(t, got.CollectionType)
	assert.Equal(t, "legal", got.CollectionType.Name)
	assert.Equal(t, "docling", got.CollectionType.ParserProvider)
	assert.Equal(t, "legal", got.CollectionName())

	byName, err := s.GetSourceByName(ctx, acme.ID, "contracts")
	require.NoError(t, err)
	assert.Equal(t, src.ID, byName.ID)
}

func TestSources_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	acme := seedCompany(t, s, "acme")
	globex := seedCompany(t, s, "globex")

	src := newSource(acme.ID, "contracts")
	require.NoError(t, s.CreateSource(ctx, src))

	_, err := s.GetSource(ctx, globex.ID, src.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetSourceByName(ctx, globex.ID, "contracts")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteSource(ctx, globex.ID, src.ID), domain.ErrNotFound)

	other := *src
	other.CompanyID = globex.ID
	assert.ErrorIs(t, s.SaveSource(ctx, &other), domain.ErrNotFound)

	sameName := newSource(globex.ID, "contracts")
	require.NoError(t, s.CreateSource(ctx, sameName))
}

func TestSources_DuplicateName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	acme := seedCompany(t, s, "acme")

	require.NoError(t, s.CreateSource(ctx, newSource(acme.ID, "contracts")))
	err := s.CreateSource(ctx, newSource(acme.ID, "contracts"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestSources_Save(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	acme := seedCompany(t, s, "acme")

	src := newSource(acme.ID, "contracts")
	require.NoError(t, s.CreateSource(ctx, src))

	finished := time.Now().UTC().Truncate(time.Second)
	src.Status = domain.StatusError
	src.LastError = "boom"
	src.LastRunAt = &finished
	src.Configuration["folder"] = "2024"
	require.NoError(t, s.SaveSource(ctx, src))

	got, err := s.GetSource(ctx, acme.ID, src.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Equal(t, "boom", got.LastError)
	assert.Equal(t, "2024", got.Folder())
	require.NotNil(t, got.LastRunAt)
	assert.True(t, finished.Equal(*got.LastRunAt))
	assert.Nil(t, got.CollectionType)
}

func TestSources_Lists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	acme := seedCompany(t, s, "acme")
	globex := seedCompany(t, s, "globex")

	a := newSource(acme.ID, "a")
	a.ScheduleCron = "@hourly"
	b := newSource(acme.ID, "b")
	b.Status = domain.StatusError
	b.ScheduleCron = "@hourly"
	c := newSource(acme.ID, "c")
	g := newSource(globex.ID, "g")
	g.ScheduleCron = "0 * * * *"
	for _, src := range []*domain.IngestionSource{a, b, c, g} {
		require.NoError(t, s.CreateSource(ctx, src))
	}

	all, err := s.ListSources(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, sourceNames(all))

	active, err := s.ListActiveSources(ctx, acme.ID, []string{"a", "b", "g"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, sourceNames(active))

	none, err := s.ListActiveSources(ctx, acme.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	scheduled, err := s.ListScheduledSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "g"}, sourceNames(scheduled))
}

func sourceNames(sources []domain.IngestionSource) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Name
	}
	return out
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	acme := seedCompany(t, s, "acme")
	src := newSource(acme.ID, "contracts")
	require.NoError(t, s.CreateSource(ctx, src))

	started := time.Now().UTC().Truncate(time.Second)
	var ids []int64
	for i := 0; i < 3; i++ {
		run := &domain.IngestionRun{
			SourceID:    src.ID,
			CompanyID:   acme.ID,
			Status:      domain.StatusRunning,
			TriggeredBy: "alice",
			StartedAt:   started,
		}
		require.NoError(t, s.CreateRun(ctx, run))
		ids = append(ids, run.ID)

		finished := started.Add(time.Minute)
		run.FinishedAt = &finished
		run.Status = domain.StatusActive
		run.ProcessedFiles = i
		require.NoError(t, s.UpdateRun(ctx, run))
	}

	runs, err := s.ListRuns(ctx, acme.ID, src.ID, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, domain.StatusActive, runs[0].Status)
	assert.Equal(t, 2, runs[0].ProcessedFiles)
	assert.Equal(t, "alice", runs[0].TriggeredBy)
	assert.Equal(t, time.Minute, runs[0].Duration())

	unlimited, err := s.ListRuns(ctx, acme.ID, src.ID, 0)
	require.NoError(t, err)
	assert.Len(t, unlimited, 3)

	assert.ErrorIs(t, s.UpdateRun(ctx, &domain.IngestionRun{ID: 999}), domain.ErrNotFound)

	require.NoError(t, s.DeleteSource(ctx, acme.ID, src.ID))
	after, err := s.ListRuns(ctx, acme.ID, src.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, after)
}
