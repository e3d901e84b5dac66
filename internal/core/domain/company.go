package domain

import (
	"strings"
	"time"
)

// Company is a tenant. Every source, collection and document belongs to one.
type Company struct {
	ID        int64
	ShortName string
	Name      string
	CreatedAt time.Time
}

// CollectionType groups documents of a company under a named collection.
type CollectionType struct {
	ID        int64
	CompanyID int64
	Name      string

	// ParserProvider overrides parsing provider resolution for every file
	// ingested into this collection. Empty means no override.
	ParserProvider string
}

// NormalisedParserProvider returns the override trimmed and lower-cased.
func (c *CollectionType) NormalisedParserProvider() string {
	if c == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(c.ParserProvider))
}
