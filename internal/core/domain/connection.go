package domain

import "time"

// Connection represents one authenticated handle to a document repository.
// Connections are owned exclusively by the connection registry; other
// components hold only the ID.
type Connection struct {
	// ID is the opaque unique identifier, assigned at registration.
	ID string

	// SourceType identifies the kind of repository behind this connection.
	SourceType SourceType

	// Config contains source-specific configuration. It is never inspected
	// outside the connector that consumed it.
	Config map[string]string

	// Metadata is free-form descriptive information returned to callers,
	// such as the resolved instance URL.
	Metadata map[string]any

	// CreatedAt is when the connection was registered.
	CreatedAt time.Time

	// LastUsed is updated on every lookup. Used for idle eviction.
	LastUsed time.Time
}
