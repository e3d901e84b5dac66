// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants list and run the ingestion sources of a company.
package mcp

import "errors"

// ErrMissingCompanyService is returned when the company service is not provided.
var ErrMissingCompanyService = errors.New("mcp: company service is required")

// ErrMissingIngestor is returned when the ingestor is not provided.
var ErrMissingIngestor = errors.New("mcp: ingestor is required")
