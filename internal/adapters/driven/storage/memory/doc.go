// Package memory provides in-memory implementations of the driven store
// ports. They back unit tests and the --ephemeral server mode.
package memory
