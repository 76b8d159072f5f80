package driving

import (
	"context"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
)

// CreateJobRequest describes one ingestion batch.
type CreateJobRequest struct {
	// ConnectionID references a registered connection.
	ConnectionID string

	// FileRefs is the ordered batch of source-specific file identifiers.
	// Duplicates are permitted and removed before scheduling.
	FileRefs []string

	// CollectionName is the target vector-store collection. Empty selects
	// the configured default.
	CollectionName string

	// Metadata is attached to every chunk produced by the job.
	Metadata map[string]any
}

// JobManager accepts ingestion batches and answers status queries.
// Both operations are non-blocking with respect to file processing and
// return in bounded time regardless of pool backlog.
type JobManager interface {
	// CreateJob validates the request, allocates a pending job and begins
	// asynchronous processing. Returns the initial job snapshot.
	// Fails with domain.ErrUnknownConnection, domain.ErrEmptyBatch or
	// domain.ErrSinkUnavailable; it never partially fails.
	CreateJob(ctx context.Context, req CreateJobRequest) (*domain.Job, error)

	// GetStatus returns an immutable snapshot of the job's current state.
	// Fails with domain.ErrUnknownJob for unknown ids.
	GetStatus(ctx context.Context, jobID string) (*domain.Job, error)

	// CollectionStats reports vector-store collection statistics.
	CollectionStats(ctx context.Context) (map[string]domain.CollectionStats, error)
}
