package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "ingestd://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "companies",
		Name:        "companies",
		Description: "Companies known to the ingestion service",
		MIMEType:    "application/json",
	}, s.handleCompaniesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "companies/{company}/sources",
		Name:        "company-sources",
		Description: "Ingestion sources of a company",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)
}

func (s *Server) handleCompaniesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	companies, err := s.ports.Companies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}

	type companyInfo struct {
		ShortName string `json:"short_name"`
		Name      string `json:"name"`
	}
	infos := make([]companyInfo, len(companies))
	for i, c := range companies {
		infos[i] = companyInfo{ShortName: c.ShortName, Name: c.Name}
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	shortName := extractCompany(req.Params.URI)
	if shortName == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	company, err := s.ports.Companies.Resolve(ctx, shortName)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	sources, err := s.ports.Ingestor.ListSources(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	type sourceInfo struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	infos := make([]sourceInfo, len(sources))
	for i := range sources {
		infos[i] = sourceInfo{ID: sources[i].ID, Name: sources[i].Name, Status: string(sources[i].Status)}
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCompany extracts the short name from ingestd://companies/{company}/sources.
func extractCompany(uri string) string {
	const prefix = uriScheme + "companies/"
	const suffix = "/sources"

	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return ""
	}
	name, ok := strings.CutSuffix(rest, suffix)
	if !ok || strings.Contains(name, "/") {
		return ""
	}
	return name
}
