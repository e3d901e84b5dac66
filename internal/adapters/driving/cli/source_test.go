package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

func TestSourceCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range sourceCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "get", "create", "delete"}, names)
}

func TestSourceList(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "source", "list", "acme")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] contracts (active)")
	assert.Contains(t, out, "Connector: s3_docs")
	assert.Contains(t, out, "Schedule:  @daily")
	assert.Contains(t, out, "[2] manuals (error)")
	assert.Contains(t, out, "Total: 2 sources")
}

func TestSourceList_Empty(t *testing.T) {
	_, ing, _, cleanup := setupTestServices()
	defer cleanup()
	ing.sources = nil

	out, err := execute(t, "source", "list", "acme")
	require.NoError(t, err)
	assert.Contains(t, out, "No ingestion sources for acme")
}

func TestSourceList_UnknownCompany(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "source", "list", "initech")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `company "initech" not found`)
}

func TestSourceList_RequiresArg(t *testing.T) {
	_, err := execute(t, "source", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSourceGet(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "source", "get", "acme", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Source: contracts")
	assert.Contains(t, out, "Collection: legal")
	assert.Contains(t, out, "root: contracts/")

	out, err = execute(t, "source", "get", "acme", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Last run:   never")
	assert.Contains(t, out, "Last error: bucket missing")
}

func TestSourceGet_InvalidID(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "source", "get", "acme", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid source id "abc"`)

	_, err = execute(t, "source", "get", "acme", "99")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceCreate(t *testing.T) {
	_, ing, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "source", "create", "acme", "invoices",
		"--connector", "s3_docs", "--root", "invoices/", "--collection", "finance", "--cron", "@hourly")
	require.NoError(t, err)
	assert.Contains(t, out, "Created source invoices with id 42")

	require.NotNil(t, ing.created)
	assert.Equal(t, "invoices", *ing.created.Name)
	assert.Equal(t, "s3_docs", *ing.created.ConnectorName)
	assert.Equal(t, "finance", *ing.created.CollectionName)
	assert.Equal(t, "@hourly", *ing.created.ScheduleCron)
	assert.Equal(t, map[string]any{"root": "invoices/"}, ing.created.Configuration)
}

func TestSourceDelete(t *testing.T) {
	_, ing, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "source", "delete", "acme", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted source 2")
	assert.Equal(t, int64(2), ing.deleted)

	ing.err = domain.ErrInvalidState
	_, err = execute(t, "source", "delete", "acme", "1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
