package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownConnection indicates the referenced connection is not registered.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrUnknownJob indicates the referenced ingestion job does not exist.
	ErrUnknownJob = errors.New("unknown job")

	// ErrEmptyBatch indicates an ingestion request with no file references
	// after de-duplication. No job is created.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source or connector type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNotImplemented indicates functionality is not available for a
	// particular source type.
	ErrNotImplemented = errors.New("not implemented")

	// ErrConnectorValidation indicates connector validation failed.
	// The connection is misconfigured or credentials are invalid.
	ErrConnectorValidation = errors.New("connector validation failed")

	// ErrSinkUnavailable indicates the vector sink could not be reached.
	// Ingestion requests are rejected while the sink is down.
	ErrSinkUnavailable = errors.New("vector sink unavailable")

	// ErrTaskTimeout indicates a file task exceeded its processing deadline.
	// Recorded on the affected file only; sibling files are unaffected.
	ErrTaskTimeout = errors.New("file task timed out")

	// ErrPollTimeout indicates a status polling loop exhausted its attempt
	// budget before the job reached a terminal state. The job keeps running
	// server-side.
	ErrPollTimeout = errors.New("poll attempts exhausted")
)
