package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driving"
)

// Ensure ConnectionRegistry implements the interface.
var _ driving.ConnectionManager = (*ConnectionRegistry)(nil)

// connectionEntry pairs a registered connection with its live connector.
type connectionEntry struct {
	conn      domain.Connection
	connector driven.Connector
}

// ConnectionRegistry owns live handles to document repositories.
// All mutations are serialized by a single mutex so register/remove are
// linearizable with respect to concurrent get/list. The registry performs
// no I/O of its own beyond delegating validation to the connector.
type ConnectionRegistry struct {
	factory driven.ConnectorFactory
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]*connectionEntry
	order   []string
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry(factory driven.ConnectorFactory, logger *slog.Logger) *ConnectionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionRegistry{
		factory: factory,
		logger:  logger.With("component", "connections"),
		entries: make(map[string]*connectionEntry),
	}
}

// newConnectionID generates a collision-resistant connection id, prefixed
// with the source type for readability (e.g. "confluence_1f8a...").
func newConnectionID(sourceType domain.SourceType) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s", sourceType, token)
}

// Connect validates the configuration against the source and registers a
// new connection. The connector is created and validated before anything
// is stored, so a failed connect leaves no trace.
func (r *ConnectionRegistry) Connect(
	ctx context.Context,
	sourceType domain.SourceType,
	config map[string]string,
) (*domain.Connection, error) {
	if !sourceType.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, sourceType)
	}
	if err := ValidateSourceConfig(sourceType, config); err != nil {
		return nil, err
	}

	now := time.Now()
	conn := domain.Connection{
		ID:         newConnectionID(sourceType),
		SourceType: sourceType,
		Config:     config,
		Metadata:   connectionMetadata(sourceType, config, now),
		CreatedAt:  now,
		LastUsed:   now,
	}

	connector, err := r.factory.Create(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}

	if connector.Capabilities().SupportsValidation {
		if err := connector.Validate(ctx); err != nil {
			_ = connector.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
		}
	}

	r.mu.Lock()
	r.entries[conn.ID] = &connectionEntry{conn: conn, connector: connector}
	r.order = append(r.order, conn.ID)
	r.mu.Unlock()

	r.logger.Info("connection registered", "id", conn.ID, "source_type", sourceType)

	snapshot := conn
	return &snapshot, nil
}

// connectionMetadata assembles the descriptive metadata returned to callers.
// Well-known config keys surface the instance location per source type.
func connectionMetadata(sourceType domain.SourceType, config map[string]string, now time.Time) map[string]any {
	md := map[string]any{
		"source_type":  string(sourceType),
		"connected_at": now.UTC().Format(time.RFC3339),
	}
	for _, key := range []string{"url", "site_url", "base_directory"} {
		if v := config[key]; v != "" {
			md["instance"] = v
			break
		}
	}
	return md
}

// Get returns a connection by id and refreshes its last-used time.
func (r *ConnectionRegistry) Get(_ context.Context, id string) (*domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownConnection, id)
	}
	entry.conn.LastUsed = time.Now()
	snapshot := entry.conn
	return &snapshot, nil
}

// List returns all registered connections in creation order.
func (r *ConnectionRegistry) List(_ context.Context) ([]domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.Connection, 0, len(r.order))
	for _, id := range r.order {
		if entry, ok := r.entries[id]; ok {
			result = append(result, entry.conn)
		}
	}
	return result, nil
}

// Remove closes and deregisters a connection.
// Jobs created against the connection keep their copied identifiers; their
// in-flight file tasks fail individually when they can no longer resolve it.
func (r *ConnectionRegistry) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrUnknownConnection, id)
	}
	delete(r.entries, id)
	for i, ordered := range r.order {
		if ordered == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if err := entry.connector.Close(); err != nil {
		r.logger.Warn("connector close failed", "id", id, "err", err)
	}
	r.logger.Info("connection removed", "id", id)
	return nil
}

// ListFiles enumerates files through the identified connection.
func (r *ConnectionRegistry) ListFiles(
	ctx context.Context,
	connectionID string,
	opts driving.BrowseOptions,
) ([]domain.FileInfo, error) {
	connector, err := r.resolve(connectionID)
	if err != nil {
		return nil, err
	}
	return connector.ListFiles(ctx, driven.ListOptions{
		Container: opts.Container,
		Limit:     opts.Limit,
		Offset:    opts.Offset,
	})
}

// SearchFiles searches through the identified connection.
func (r *ConnectionRegistry) SearchFiles(
	ctx context.Context,
	connectionID, query string,
	opts driving.BrowseOptions,
) ([]domain.FileInfo, error) {
	connector, err := r.resolve(connectionID)
	if err != nil {
		return nil, err
	}
	return connector.SearchFiles(ctx, query, driven.SearchOptions{
		Container: opts.Container,
		Limit:     opts.Limit,
	})
}

// resolve returns the live connector for a connection id, refreshing the
// last-used time. The connector stays owned by the registry.
func (r *ConnectionRegistry) resolve(id string) (driven.Connector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownConnection, id)
	}
	entry.conn.LastUsed = time.Now()
	return entry.connector, nil
}

// StartEvictor runs an idle-connection janitor until ctx is cancelled.
// Connections unused for longer than ttl are closed and deregistered.
// A ttl of zero disables eviction.
func (r *ConnectionRegistry) StartEvictor(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.evictIdle(ttl)
			}
		}
	}()
}

func (r *ConnectionRegistry) evictIdle(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	var stale []*connectionEntry
	for id, entry := range r.entries {
		if entry.conn.LastUsed.Before(cutoff) {
			stale = append(stale, entry)
			delete(r.entries, id)
		}
	}
	if len(stale) > 0 {
		kept := r.order[:0]
		for _, id := range r.order {
			if _, ok := r.entries[id]; ok {
				kept = append(kept, id)
			}
		}
		r.order = kept
	}
	r.mu.Unlock()

	for _, entry := range stale {
		if err := entry.connector.Close(); err != nil {
			r.logger.Warn("connector close failed", "id", entry.conn.ID, "err", err)
		}
		r.logger.Info("idle connection evicted", "id", entry.conn.ID)
	}
}
