// Package domain defines the core business entities for ingestd.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Company: A tenant owning knowledge base collections
//   - IngestionSource: A configured, recurring ingestion job
//   - IngestionRun: One timestamped execution of a source
//   - Document and Chunk: Ingested content ready for retrieval
//   - ParseResult: Structured output of a parsing provider
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
