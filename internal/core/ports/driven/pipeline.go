package driven

import (
	"context"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
)

// ChunkPipeline transforms fetched file content into content chunks.
// The transformation (text extraction, splitting) is opaque to the
// ingestion core; a file producing zero chunks is a successful outcome.
type ChunkPipeline interface {
	// Process extracts text from the content and splits it into chunks.
	Process(ctx context.Context, content *domain.FileContent) ([]domain.Chunk, error)
}
