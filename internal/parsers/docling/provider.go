// Package docling provides a parsing provider backed by a docling-serve
// instance. It produces structured text blocks, tables and images.
package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// Name is the provider name.
const Name = domain.ProviderDocling

const (
	// DefaultURL is the docling-serve default listen address.
	DefaultURL = "http://localhost:5001"

	// DefaultTimeout bounds a single conversion.
	DefaultTimeout = 5 * time.Minute

	convertPath = "/v1/convert/file"
)

// Ensure Provider implements the interface.
var _ driven.ParsingProvider = (*Provider)(nil)

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".pptx": true,
	".xlsx": true,
	".html": true,
	".htm":  true,
}

// Config configures the provider.
type Config struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

// EnabledFromEnv reports whether DOCLING_ENABLED holds 1, true or yes.
func EnabledFromEnv() bool {
	return ParseEnabled(os.Getenv("DOCLING_ENABLED"))
}

// ParseEnabled interprets a boolean flag the way DOCLING_ENABLED is read.
func ParseEnabled(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Provider converts documents through the docling-serve HTTP API.
type Provider struct {
	enabled bool
	baseURL string
	client  *http.Client
}

// New creates a docling provider.
func New(cfg Config) *Provider {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Provider{
		enabled: cfg.Enabled,
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return Name
}

// Enabled reports whether the provider is switched on.
func (p *Provider) Enabled() bool {
	return p.enabled
}

// Supports reports whether docling handles the file extension.
func (p *Provider) Supports(req domain.ParseRequest) bool {
	if req.Filename == "" {
		return false
	}
	return supportedExtensions[strings.ToLower(filepath.Ext(req.Filename))]
}

// convertResponse is the docling-serve conversion payload.
type convertResponse struct {
	Document struct {
		MDContent   string         `json:"md_content"`
		JSONContent map[string]any `json:"json_content"`
	} `json:"document"`
	Status string `json:"status"`
}

// Parse sends the file to docling-serve and extracts the result.
func (p *Provider) Parse(ctx context.Context, req domain.ParseRequest) (*domain.ParseResult, error) {
	if !p.enabled {
		return nil, fmt.Errorf("%w: docling is disabled", domain.ErrConfig)
	}

	resp, err := p.convert(ctx, req.Filename, req.Content)
	if err != nil {
		return nil, err
	}

	result := Extract(req.Filename, resp.Document.MDContent, resp.Document.JSONContent)
	result.Provider = Name
	return result, nil
}

func (p *Provider) convert(ctx context.Context, filename string, content []byte) (*convertResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, format := range []string{"md", "json"} {
		if err := w.WriteField("to_formats", format); err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
	}
	part, err := w.CreateFormFile("files", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+convertPath, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: docling request: %w", domain.ErrLoadDocument, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: docling returned %d: %s",
			domain.ErrLoadDocument, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode docling response: %w", domain.ErrLoadDocument, err)
	}
	if out.Status != "" && out.Status != "success" && out.Status != "partial_success" {
		return nil, fmt.Errorf("%w: docling conversion %s", domain.ErrLoadDocument, out.Status)
	}
	return &out, nil
}
