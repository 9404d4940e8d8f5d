package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	// For vault loads this indicates an upstream ordering violation: every
	// event kind presupposes that the vault-creation event was processed.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a derived event record
	// whose (transaction hash, log index) key already exists. Derived
	// records are immutable once created.
	ErrDuplicateKey = errors.New("duplicate key: derived records are immutable")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
