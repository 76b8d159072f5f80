package driven

import (
	"context"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
)

// ConnectorBuilder creates a Connector from a connection's configuration.
type ConnectorBuilder func(ctx context.Context, conn domain.Connection) (Connector, error)

// ConnectorFactory creates connectors from connection configuration.
// It maintains a registry of source types and their builders.
type ConnectorFactory interface {
	// Create returns a Connector for the given connection.
	// Returns ErrUnsupportedType if the source type is unknown.
	Create(ctx context.Context, conn domain.Connection) (Connector, error)

	// Register adds a connector builder for the given source type.
	Register(sourceType domain.SourceType, builder ConnectorBuilder)

	// SupportedTypes returns all registered source types.
	SupportedTypes() []domain.SourceType
}
