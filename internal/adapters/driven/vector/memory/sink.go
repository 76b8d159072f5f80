// Package memory provides an in-memory vector sink. It keeps chunks in
// plain maps without computing embeddings, which makes it useful for
// tests and for running the service without a Qdrant instance.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.VectorSink = (*Sink)(nil)

// Sink stores chunks per collection in memory.
type Sink struct {
	mu          sync.RWMutex
	collections map[string][]domain.Chunk
}

// NewSink creates an empty in-memory sink.
func NewSink() *Sink {
	return &Sink{collections: make(map[string][]domain.Chunk)}
}

// AddChunks appends chunks to a collection, creating it on first write.
func (s *Sink) AddChunks(_ context.Context, collection string, chunks []domain.Chunk, metadata map[string]any) (int, error) {
	stored := make([]domain.Chunk, len(chunks))
	for i, chunk := range chunks {
		merged := make(map[string]any, len(chunk.Metadata)+len(metadata))
		for k, v := range metadata {
			merged[k] = v
		}
		for k, v := range chunk.Metadata {
			merged[k] = v
		}
		chunk.Metadata = merged
		stored[i] = chunk
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], stored...)
	return len(stored), nil
}

// CollectionStats reports chunk counts per collection.
func (s *Sink) CollectionStats(_ context.Context) (map[string]domain.CollectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]domain.CollectionStats, len(s.collections))
	for name, chunks := range s.collections {
		stats[name] = domain.CollectionStats{
			TotalVectors: int64(len(chunks)),
			Status:       "green",
		}
	}
	return stats, nil
}

// Ping always succeeds.
func (s *Sink) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Sink) Close() error { return nil }

// Chunks returns a copy of a collection's stored chunks.
func (s *Sink) Chunks(collection string) []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Chunk, len(s.collections[collection]))
	copy(out, s.collections[collection])
	return out
}
