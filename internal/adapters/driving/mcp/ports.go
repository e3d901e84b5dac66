package mcp

import (
	"github.com/iatoolkit/ingestd/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Companies resolves tenants and their connector catalogue.
	Companies driving.CompanyService

	// Ingestor lists and runs ingestion sources.
	Ingestor driving.Ingestor
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Companies == nil {
		return ErrMissingCompanyService
	}
	if p.Ingestor == nil {
		return ErrMissingIngestor
	}
	return nil
}
