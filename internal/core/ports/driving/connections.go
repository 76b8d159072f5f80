package driving

import (
	"context"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
)

// BrowseOptions narrows a list or search call against a connection.
type BrowseOptions struct {
	// Container scopes the call to one folder, space or project,
	// depending on the source type.
	Container string

	// Limit caps the number of results. Zero means the source default.
	Limit int

	// Offset skips results for pagination. Ignored by search.
	Offset int
}

// ConnectionManager registers and resolves connections to document
// repositories, and browses files through them.
type ConnectionManager interface {
	// Connect validates the configuration against the source and registers
	// a new connection. The connection is never registered when validation
	// fails (domain.ErrConnectorValidation).
	Connect(ctx context.Context, sourceType domain.SourceType, config map[string]string) (*domain.Connection, error)

	// Get returns a connection by id, or domain.ErrUnknownConnection.
	Get(ctx context.Context, id string) (*domain.Connection, error)

	// List returns all registered connections in creation order.
	List(ctx context.Context) ([]domain.Connection, error)

	// Remove closes and deregisters a connection.
	Remove(ctx context.Context, id string) error

	// ListFiles enumerates files through the identified connection.
	ListFiles(ctx context.Context, connectionID string, opts BrowseOptions) ([]domain.FileInfo, error)

	// SearchFiles searches through the identified connection.
	SearchFiles(ctx context.Context, connectionID, query string, opts BrowseOptions) ([]domain.FileInfo, error)
}
