package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/custodia-labs/vectorbridge/internal/connectors/confluence"
	"github.com/custodia-labs/vectorbridge/internal/connectors/gdrive"
	"github.com/custodia-labs/vectorbridge/internal/connectors/jira"
	"github.com/custodia-labs/vectorbridge/internal/connectors/localpdf"
	"github.com/custodia-labs/vectorbridge/internal/connectors/sharepoint"
	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory creates connectors from registered builders.
type Factory struct {
	mu       sync.RWMutex
	builders map[domain.SourceType]driven.ConnectorBuilder
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{builders: make(map[domain.SourceType]driven.ConnectorBuilder)}
}

// DefaultFactory returns a factory with every built-in connector registered.
func DefaultFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}

	f := NewFactory()
	f.Register(domain.SourceConfluence, confluence.Builder(logger))
	f.Register(domain.SourceGDrive, gdrive.Builder(logger))
	f.Register(domain.SourceJira, jira.Builder(logger))
	f.Register(domain.SourceSharePoint, sharepoint.Builder(logger))
	f.Register(domain.SourceLocalPDF, localpdf.Builder(logger))
	return f
}

// Register adds or replaces the builder for a source type.
func (f *Factory) Register(sourceType domain.SourceType, builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[sourceType] = builder
}

// Create builds a connector for the connection's source type.
func (f *Factory) Create(ctx context.Context, conn domain.Connection) (driven.Connector, error) {
	f.mu.RLock()
	builder, ok := f.builders[conn.SourceType]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, conn.SourceType)
	}
	return builder(ctx, conn)
}

// SupportedTypes returns the registered source types.
func (f *Factory) SupportedTypes() []domain.SourceType {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]domain.SourceType, 0, len(f.builders))
	for _, t := range domain.AllSourceTypes() {
		if _, ok := f.builders[t]; ok {
			types = append(types, t)
		}
	}
	return types
}
