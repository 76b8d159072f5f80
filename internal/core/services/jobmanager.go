package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driving"
)

// Ensure JobManager implements the interface.
var _ driving.JobManager = (*JobManager)(nil)

// Defaults for the job manager.
const (
	DefaultPoolSize          = 4
	DefaultTaskTimeout       = 5 * time.Minute
	DefaultCollectionName    = "documents"
	completionChannelBacklog = 64
)

// update kinds flowing from file tasks to the aggregator.
type updatePhase int

const (
	phaseJobStarted updatePhase = iota
	phaseFileStarted
	phaseFileDone
)

// jobUpdate is a completion message. File tasks and dispatchers send these
// on a channel consumed by a single aggregator goroutine, which is the sole
// writer of job state after creation.
type jobUpdate struct {
	phase    updatePhase
	jobID    string
	fileRef  string
	fileName string
	chunks   int
	err      error
}

// JobManager accepts ingestion batches, drives their asynchronous
// processing through a bounded worker pool, and answers status queries
// with consistent snapshots.
type JobManager struct {
	registry   *ConnectionRegistry
	pipeline   driven.ChunkPipeline
	sink       driven.VectorSink
	logger     *slog.Logger
	collection string
	timeout    time.Duration

	pool    *ants.Pool
	updates chan jobUpdate

	mu   sync.RWMutex
	jobs map[string]*domain.Job

	tasks    sync.WaitGroup
	aggDone  chan struct{}
	closeMu  sync.Mutex
	closed   bool
}

// Option configures a JobManager.
type Option func(*JobManager) error

// WithPoolSize sets the number of file tasks processed concurrently.
func WithPoolSize(size int) Option {
	return func(m *JobManager) error {
		if size < 1 {
			size = 1
		}
		if m.pool != nil {
			m.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		m.pool = pool
		return nil
	}
}

// WithTaskTimeout bounds the processing time of one file so a stuck source
// cannot hold a pool slot indefinitely.
func WithTaskTimeout(d time.Duration) Option {
	return func(m *JobManager) error {
		if d > 0 {
			m.timeout = d
		}
		return nil
	}
}

// WithDefaultCollection sets the collection used when a request omits one.
func WithDefaultCollection(name string) Option {
	return func(m *JobManager) error {
		if name != "" {
			m.collection = name
		}
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *JobManager) error {
		if logger != nil {
			m.logger = logger.With("component", "jobs")
		}
		return nil
	}
}

// NewJobManager creates a job manager and starts its aggregator.
func NewJobManager(
	registry *ConnectionRegistry,
	pipeline driven.ChunkPipeline,
	sink driven.VectorSink,
	opts ...Option,
) (*JobManager, error) {
	if registry == nil {
		return nil, errors.New("connection registry required")
	}
	if pipeline == nil {
		return nil, errors.New("chunk pipeline required")
	}
	if sink == nil {
		return nil, errors.New("vector sink required")
	}

	m := &JobManager{
		registry:   registry,
		pipeline:   pipeline,
		sink:       sink,
		logger:     slog.Default().With("component", "jobs"),
		collection: DefaultCollectionName,
		timeout:    DefaultTaskTimeout,
		updates:    make(chan jobUpdate, completionChannelBacklog),
		jobs:       make(map[string]*domain.Job),
		aggDone:    make(chan struct{}),
	}

	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}
	m.pool = pool

	for _, opt := range opts {
		if optErr := opt(m); optErr != nil {
			m.pool.Release()
			return nil, optErr
		}
	}

	go m.aggregate()

	return m, nil
}

// newJobID generates an opaque job identifier.
func newJobID() string {
	return "job_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// CreateJob validates the request, allocates a pending job and begins
// asynchronous processing. It returns immediately with the initial
// snapshot; it never blocks on file processing.
func (m *JobManager) CreateJob(ctx context.Context, req driving.CreateJobRequest) (*domain.Job, error) {
	refs := domain.DedupeFileRefs(req.FileRefs)
	if len(refs) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	conn, err := m.registry.Get(ctx, req.ConnectionID)
	if err != nil {
		return nil, err
	}

	if err := m.sink.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSinkUnavailable, err)
	}

	collection := req.CollectionName
	if collection == "" {
		collection = m.collection
	}

	job := &domain.Job{
		ID:             newJobID(),
		ConnectionID:   conn.ID,
		SourceType:     conn.SourceType,
		FileRefs:       refs,
		CollectionName: collection,
		Metadata:       req.Metadata,
		Status:         domain.JobPending,
		Progress:       make([]domain.FileProgress, len(refs)),
		StartedAt:      time.Now(),
	}
	for i, ref := range refs {
		job.Progress[i] = domain.FileProgress{
			FileRef:  ref,
			FileName: ref,
			Status:   domain.FileQueued,
		}
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	snapshot := job.Clone()
	m.mu.Unlock()

	m.logger.Info("job created",
		"job", job.ID,
		"connection", conn.ID,
		"files", len(refs),
		"collection", collection)

	m.tasks.Add(1)
	go m.dispatch(job.ID, conn.ID, collection, refs, job.Metadata)

	return snapshot, nil
}

// GetStatus returns an immutable snapshot of the job's current state.
func (m *JobManager) GetStatus(_ context.Context, jobID string) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownJob, jobID)
	}
	return job.Clone(), nil
}

// CollectionStats reports vector-store collection statistics.
func (m *JobManager) CollectionStats(ctx context.Context) (map[string]domain.CollectionStats, error) {
	return m.sink.CollectionStats(ctx)
}

// dispatch offers a job's files to the shared pool in progress order.
// Pool admission is FIFO across jobs, so no job can starve another.
func (m *JobManager) dispatch(jobID, connectionID, collection string, refs []string, metadata map[string]any) {
	defer m.tasks.Done()

	m.updates <- jobUpdate{phase: phaseJobStarted, jobID: jobID}

	for _, ref := range refs {
		ref := ref
		m.tasks.Add(1)
		err := m.pool.Submit(func() {
			defer m.tasks.Done()
			m.runFile(jobID, connectionID, collection, ref, metadata)
		})
		if err != nil {
			// Pool rejected the task (released or saturated in non-blocking
			// mode). Treated as a per-file failure.
			m.tasks.Done()
			m.updates <- jobUpdate{
				phase:   phaseFileDone,
				jobID:   jobID,
				fileRef: ref,
				err:     fmt.Errorf("schedule file task: %w", err),
			}
		}
	}
}

// runFile executes the processing of one file reference: resolve content
// via the connector, transform into chunks, write to the vector sink.
// Every failure is recovered here and recorded on the file's progress;
// sibling files are never affected.
func (m *JobManager) runFile(jobID, connectionID, collection, ref string, metadata map[string]any) {
	m.updates <- jobUpdate{phase: phaseFileStarted, jobID: jobID, fileRef: ref}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	fileName, chunks, err := m.processFile(ctx, connectionID, collection, ref, metadata)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %w", domain.ErrTaskTimeout, m.timeout, err)
	}

	m.updates <- jobUpdate{
		phase:    phaseFileDone,
		jobID:    jobID,
		fileRef:  ref,
		fileName: fileName,
		chunks:   chunks,
		err:      err,
	}
}

// processFile is the fetch → pipeline → sink sequence for one file.
// Returns the resolved file name (best effort), the chunk count on
// success, or the first encountered error.
func (m *JobManager) processFile(
	ctx context.Context,
	connectionID, collection, ref string,
	metadata map[string]any,
) (string, int, error) {
	connector, err := m.registry.resolve(connectionID)
	if err != nil {
		return "", 0, err
	}

	fileName := ref
	if info, resolveErr := connector.ResolveFile(ctx, ref); resolveErr == nil && info.Name != "" {
		fileName = info.Name
	}

	content, err := connector.FetchContent(ctx, ref)
	if err != nil {
		return fileName, 0, fmt.Errorf("fetch content: %w", err)
	}
	if content.Name != "" {
		fileName = content.Name
	}

	chunks, err := m.pipeline.Process(ctx, content)
	if err != nil {
		return fileName, 0, fmt.Errorf("process content: %w", err)
	}
	if len(chunks) == 0 {
		return fileName, 0, nil
	}

	written, err := m.sink.AddChunks(ctx, collection, chunks, metadata)
	if err != nil {
		return fileName, 0, fmt.Errorf("write chunks: %w", err)
	}
	return fileName, written, nil
}

// aggregate consumes completion messages and applies them to job state.
// It is the sole writer of jobs after creation, so a state mutation and
// the aggregate status recompute happen in one critical section and
// status snapshots are always internally consistent.
func (m *JobManager) aggregate() {
	defer close(m.aggDone)

	for update := range m.updates {
		m.apply(update)
	}
}

func (m *JobManager) apply(update jobUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[update.jobID]
	if !ok {
		return
	}

	switch update.phase {
	case phaseJobStarted:
		if job.Status == domain.JobPending {
			job.Status = domain.JobProcessing
		}

	case phaseFileStarted:
		if progress := findProgress(job, update.fileRef); progress != nil && progress.Status == domain.FileQueued {
			progress.Status = domain.FileProcessing
		}

	case phaseFileDone:
		progress := findProgress(job, update.fileRef)
		if progress == nil || progress.Status.Terminal() {
			// Terminal transitions are monotonic and exactly-once.
			return
		}
		if update.fileName != "" {
			progress.FileName = update.fileName
		}
		if update.err != nil {
			progress.Status = domain.FileFailed
			progress.Error = update.err.Error()
			m.logger.Warn("file failed", "job", job.ID, "file", update.fileRef, "err", update.err)
		} else {
			progress.Status = domain.FileCompleted
			progress.ChunksCreated = update.chunks
			m.logger.Debug("file completed", "job", job.ID, "file", update.fileRef, "chunks", update.chunks)
		}

		job.Status = job.AggregateStatus()
		if job.Status.Terminal() && job.CompletedAt.IsZero() {
			job.CompletedAt = time.Now()
			m.logger.Info("job finished",
				"job", job.ID,
				"status", job.Status,
				"completed", job.CompletedFiles(),
				"failed", job.FailedFiles())
		}
	}
}

func findProgress(job *domain.Job, ref string) *domain.FileProgress {
	for i := range job.Progress {
		if job.Progress[i].FileRef == ref {
			return &job.Progress[i]
		}
	}
	return nil
}

// Close drains in-flight work and releases the worker pool.
// The manager must not be used after Close.
func (m *JobManager) Close() {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	m.tasks.Wait()
	close(m.updates)
	<-m.aggDone
	m.pool.Release()
}
