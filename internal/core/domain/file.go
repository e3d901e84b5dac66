package domain

import "time"

// FileRef identifies one file visible to a connector.
type FileRef struct {
	// Path is the connector-specific location: a filesystem path or an object key.
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// FileContext travels with every file a processor hands to its callback.
type FileContext struct {
	Company    *Company
	SourceID   *int64
	Collection string
	Metadata   map[string]any
}

// FileFilter selects which files a processor handles.
type FileFilter struct {
	// FilenameContains keeps files whose name contains this substring.
	FilenameContains string

	// Extensions keeps files with one of these extensions.
	Extensions []string

	// Exclude drops files whose base name matches one of these globs.
	Exclude []string
}

// IsEmpty reports whether the filter accepts everything.
func (f FileFilter) IsEmpty() bool {
	return f.FilenameContains == "" && len(f.Extensions) == 0 && len(f.Exclude) == 0
}

// LegacyDefaultFilter is applied by the YAML loader when no filter is given.
var LegacyDefaultFilter = FileFilter{FilenameContains: ".pdf"}

// FileChange is emitted by watchable connectors when a file changes.
type FileChange struct {
	Path string
	At   time.Time
}
