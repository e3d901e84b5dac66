package services

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
	"github.com/iatoolkit/ingestd/internal/logger"
)

// FileCallback handles one file accepted by a FileProcessor.
type FileCallback func(ctx context.Context, fc domain.FileContext, filename string, content []byte) error

// FileProcessorConfig configures a FileProcessor.
type FileProcessorConfig struct {
	Callback        FileCallback
	Context         domain.FileContext
	Filter          domain.FileFilter
	ContinueOnError bool

	// Echo logs every processed file at info level.
	Echo bool
}

// FileError records a per-file failure collected under continue-on-error.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// FileProcessor drives a connector file by file.
type FileProcessor struct {
	connector driven.Connector
	config    FileProcessorConfig

	processed int
	skipped   int
	errs      []FileError
}

// NewFileProcessor creates a processor for connector.
func NewFileProcessor(connector driven.Connector, config FileProcessorConfig) *FileProcessor {
	return &FileProcessor{connector: connector, config: config}
}

// ProcessFiles lists the connector and hands every accepted file to the callback.
// A listing failure always aborts. Per-file failures abort unless
// ContinueOnError is set, in which case they are collected in Errors.
func (p *FileProcessor) ProcessFiles(ctx context.Context) error {
	if p.config.Callback == nil {
		return fmt.Errorf("%w: file processor has no callback", domain.ErrConfig)
	}

	files, err := p.connector.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := f.Name
		if name == "" {
			name = path.Base(filepath.ToSlash(f.Path))
		}
		if !MatchesFilter(p.config.Filter, name) {
			p.skipped++
			logger.Debug("Skipping %s: filtered", f.Path)
			continue
		}

		if err := p.processOne(ctx, f.Path, name); err != nil {
			if !p.config.ContinueOnError {
				return err
			}
			p.errs = append(p.errs, FileError{Path: f.Path, Err: err})
			logger.Warn("Failed to process %s: %v", f.Path, err)
			continue
		}

		p.processed++
		if p.config.Echo {
			logger.Info("Processed %s", f.Path)
		}
	}

	return nil
}

func (p *FileProcessor) processOne(ctx context.Context, filePath, name string) error {
	content, err := p.connector.ReadFile(ctx, filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}
	if err := p.config.Callback(ctx, p.config.Context, name, content); err != nil {
		return fmt.Errorf("process %s: %w", filePath, err)
	}
	return nil
}

// ProcessedFiles returns the number of files the callback accepted.
func (p *FileProcessor) ProcessedFiles() int {
	return p.processed
}

// SkippedFiles returns the number of files rejected by the filter.
func (p *FileProcessor) SkippedFiles() int {
	return p.skipped
}

// Errors returns the per-file failures collected so far.
func (p *FileProcessor) Errors() []FileError {
	return p.errs
}

// MatchesFilter reports whether filename passes every non-empty filter rule.
// Matching is case-insensitive.
func MatchesFilter(f domain.FileFilter, filename string) bool {
	lower := strings.ToLower(filename)

	if f.FilenameContains != "" && !strings.Contains(lower, strings.ToLower(f.FilenameContains)) {
		return false
	}

	if len(f.Extensions) > 0 {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(lower)), ".")
		found := false
		for _, want := range f.Extensions {
			if strings.TrimPrefix(strings.ToLower(want), ".") == ext {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, pattern := range f.Exclude {
		if ok, _ := filepath.Match(strings.ToLower(pattern), lower); ok {
			return false
		}
	}

	return true
}

// FilterFromMap reads a filter from loosely typed input such as query
// parameters or CLI flags decoded into a map.
func FilterFromMap(m map[string]any) domain.FileFilter {
	var f domain.FileFilter
	if v, ok := m["filename_contains"].(string); ok {
		f.FilenameContains = v
	}
	f.Extensions = stringList(m["extensions"])
	if v, ok := m["ext"].(string); ok && v != "" {
		f.Extensions = append(f.Extensions, v)
	}
	f.Exclude = stringList(m["exclude"])
	return f
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		var out []string
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
