// Package parsers provides the parsing providers that turn raw file bytes
// into text blocks, tables and images, and the factory that selects them
// by name.
package parsers
