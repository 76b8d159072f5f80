package driven

import (
	"context"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
)

// Connector exposes list, search and fetch against one connected source.
// Each source type (confluence, gdrive, jira, sharepoint, local_pdf)
// implements this interface. The ingestion core consumes connectors only
// through this capability surface and never inspects their configuration.
type Connector interface {
	// Type returns the source type identifier.
	Type() domain.SourceType

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// Validate checks that the connector is properly configured and
	// authenticated. For API connectors this makes a lightweight test call;
	// for local_pdf it checks the directory exists and is readable.
	// Returns nil if ready, an error describing the problem otherwise.
	Validate(ctx context.Context) error

	// ListFiles enumerates files available for ingestion.
	ListFiles(ctx context.Context, opts ListOptions) ([]domain.FileInfo, error)

	// SearchFiles searches the source for files matching the query.
	// Only available if SupportsSearch is true.
	SearchFiles(ctx context.Context, query string, opts SearchOptions) ([]domain.FileInfo, error)

	// ResolveFile returns metadata for a single file reference.
	// Used by the ingestion core to resolve display names lazily.
	ResolveFile(ctx context.Context, ref string) (*domain.FileInfo, error)

	// FetchContent downloads the raw content for a file reference.
	FetchContent(ctx context.Context, ref string) (*domain.FileContent, error)

	// Watch listens for file changes in the source.
	// Only available if SupportsWatch is true.
	Watch(ctx context.Context) (<-chan domain.FileInfo, error)

	// Close releases resources.
	Close() error
}

// ListOptions narrows a ListFiles call.
type ListOptions struct {
	// Container scopes the listing to one folder, space or project,
	// depending on the source type. Empty lists everything reachable.
	Container string

	// Limit caps the number of results. Zero means the connector default.
	Limit int

	// Offset skips results for pagination.
	Offset int
}

// SearchOptions narrows a SearchFiles call.
type SearchOptions struct {
	// Container scopes the search, like ListOptions.Container.
	Container string

	// Limit caps the number of results. Zero means the connector default.
	Limit int
}

// ConnectorCapabilities describes what a connector supports.
type ConnectorCapabilities struct {
	// SupportsSearch indicates SearchFiles performs a real source-side search.
	SupportsSearch bool

	// SupportsValidation indicates Validate() performs actual validation.
	SupportsValidation bool

	// SupportsWatch indicates the connector can push change events.
	SupportsWatch bool

	// SupportsPagination indicates the connector handles paginated APIs.
	// Connectors handle pagination internally; this is informational.
	SupportsPagination bool

	// SupportsRateLimiting indicates the connector throttles its own calls.
	SupportsRateLimiting bool
}
