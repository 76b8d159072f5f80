package driven

import (
	"context"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
)

// VectorSink writes content chunks into a vector store.
// The sink owns embedding and storage; the ingestion core only hands it
// chunks and a target collection. Delivery is at-least-once.
type VectorSink interface {
	// AddChunks embeds and stores chunks under the named collection,
	// attaching metadata to every chunk. Returns the number of chunks
	// written.
	AddChunks(ctx context.Context, collection string, chunks []domain.Chunk, metadata map[string]any) (int, error)

	// CollectionStats returns statistics for every known collection.
	CollectionStats(ctx context.Context) (map[string]domain.CollectionStats, error)

	// Ping verifies the sink is reachable. Ingestion requests are rejected
	// while Ping fails.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
