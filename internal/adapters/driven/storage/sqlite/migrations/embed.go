// Package migrations embeds the versioned schema of the ingestion store.
//
// Files are named NNN_description.up.sql and applied in version order.
package migrations

import "embed"

// FS holds the migration files.
//
//go:embed *.up.sql
var FS embed.FS
