package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// mcpUser is recorded as triggered_by when the caller names nobody.
const mcpUser = "mcp"

// CompanyInput selects a tenant.
type CompanyInput struct {
	Company string `json:"company" jsonschema:"short name of the company"`
}

// SourceOutput is one ingestion source.
type SourceOutput struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	ConnectorName string     `json:"connector_name,omitempty"`
	Collection    string     `json:"collection,omitempty"`
	Status        string     `json:"status"`
	ScheduleCron  string     `json:"schedule_cron,omitempty"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// ListSourcesOutput is the output schema for list_ingestion_sources.
type ListSourcesOutput struct {
	Sources []SourceOutput `json:"sources"`
	Count   int            `json:"count"`
}

// RunInput is the input schema for run_ingestion.
type RunInput struct {
	Company  string `json:"company" jsonschema:"short name of the company"`
	SourceID int64  `json:"source_id" jsonschema:"id of the ingestion source to run"`
	User     string `json:"user,omitempty" jsonschema:"identifier recorded as the run trigger"`
}

// RunOutput is the output schema for run_ingestion.
type RunOutput struct {
	SourceID       int64 `json:"source_id"`
	ProcessedFiles int   `json:"processed_files"`
}

// ListConnectorsOutput is the output schema for list_connectors.
type ListConnectorsOutput struct {
	Connectors []domain.ConnectorSummary `json:"connectors"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_ingestion_sources",
		Description: "List the ingestion sources configured for a company",
	}, s.handleListSources)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_ingestion",
		Description: "Run one ingestion source now and record the run",
	}, s.handleRunIngestion)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_connectors",
		Description: "List the connector aliases declared in a company configuration",
	}, s.handleListConnectors)
}

func (s *Server) resolve(ctx context.Context, shortName string) (*domain.Company, error) {
	company, err := s.ports.Companies.Resolve(ctx, shortName)
	if err != nil {
		return nil, fmt.Errorf("resolving company: %w", err)
	}
	return company, nil
}

func (s *Server) handleListSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompanyInput,
) (*mcp.CallToolResult, ListSourcesOutput, error) {
	company, err := s.resolve(ctx, input.Company)
	if err != nil {
		return nil, ListSourcesOutput{}, err
	}

	sources, err := s.ports.Ingestor.ListSources(ctx, company)
	if err != nil {
		return nil, ListSourcesOutput{}, err
	}

	output := ListSourcesOutput{
		Sources: make([]SourceOutput, len(sources)),
		Count:   len(sources),
	}
	for i := range sources {
		src := &sources[i]
		output.Sources[i] = SourceOutput{
			ID:            src.ID,
			Name:          src.Name,
			ConnectorName: src.ConnectorName,
			Collection:    src.CollectionName(),
			Status:        string(src.Status),
			ScheduleCron:  src.ScheduleCron,
			LastRunAt:     src.LastRunAt,
			LastError:     src.LastError,
		}
	}
	return nil, output, nil
}

func (s *Server) handleRunIngestion(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunInput,
) (*mcp.CallToolResult, RunOutput, error) {
	if input.SourceID <= 0 {
		return nil, RunOutput{}, fmt.Errorf("%w: source_id", domain.ErrMissingParameter)
	}
	company, err := s.resolve(ctx, input.Company)
	if err != nil {
		return nil, RunOutput{}, err
	}

	user := input.User
	if user == "" {
		user = mcpUser
	}
	n, err := s.ports.Ingestor.RunIngestion(ctx, company, input.SourceID, user)
	if err != nil {
		return nil, RunOutput{}, err
	}
	return nil, RunOutput{SourceID: input.SourceID, ProcessedFiles: n}, nil
}

func (s *Server) handleListConnectors(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompanyInput,
) (*mcp.CallToolResult, ListConnectorsOutput, error) {
	company, err := s.resolve(ctx, input.Company)
	if err != nil {
		return nil, ListConnectorsOutput{}, err
	}
	connectors, err := s.ports.Companies.ListConnectors(ctx, company.ShortName)
	if err != nil {
		return nil, ListConnectorsOutput{}, err
	}
	return nil, ListConnectorsOutput{Connectors: connectors}, nil
}
