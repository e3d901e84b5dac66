package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState indicates the entity is in a state that forbids the
	// operation, such as updating a source while it is running.
	ErrInvalidState = errors.New("invalid state")

	// ErrConfig indicates missing or inconsistent configuration.
	ErrConfig = errors.New("configuration error")

	// ErrMissingParameter indicates a required parameter was not supplied.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidParameter indicates a parameter has the wrong type or value.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrLoadDocument wraps any failure while ingesting a single document.
	ErrLoadDocument = errors.New("load document error")

	// ErrUnsupportedType indicates an unknown connector or parser type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnauthorized indicates the caller lacks the required role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")
)
