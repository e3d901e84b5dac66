// Package sqlite provides the SQLite implementation of the ingestion,
// company, collection and document stores.
//
// It uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. All stores share one database connection.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.ingestd/data/ingestd.db
package sqlite
