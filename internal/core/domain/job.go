package domain

import "time"

// JobStatus is the aggregate state of an ingestion job.
type JobStatus string

// Job states. Completed and Failed are terminal.
const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition can occur.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// FileStatus is the state of one file within a job.
type FileStatus string

// File states. Completed and Failed are terminal; a terminal file status is
// never overwritten and failed files are not retried within a job.
const (
	FileQueued     FileStatus = "queued"
	FileProcessing FileStatus = "processing"
	FileCompleted  FileStatus = "completed"
	FileFailed     FileStatus = "failed"
)

// Terminal reports whether no further transition can occur.
func (s FileStatus) Terminal() bool {
	return s == FileCompleted || s == FileFailed
}

// FileProgress is the per-file status record within a job.
type FileProgress struct {
	// FileRef is the caller-supplied file reference.
	FileRef string

	// FileName is resolved lazily from the source; falls back to FileRef.
	FileName string

	// Status of this file's processing.
	Status FileStatus

	// ChunksCreated is defined only once Status is FileCompleted.
	ChunksCreated int

	// Error is present only when Status is FileFailed.
	Error string
}

// Job is one ingestion request for a batch of file references against one
// connection. ConnectionID and SourceType are copied at creation time and
// stay valid even if the connection is later closed.
type Job struct {
	// ID is the opaque unique identifier, assigned at creation.
	ID string

	// ConnectionID references the connection the batch was submitted against.
	ConnectionID string

	// SourceType of the connection at creation time.
	SourceType SourceType

	// FileRefs is the de-duplicated, order-preserving batch.
	FileRefs []string

	// CollectionName is the target vector-store collection.
	CollectionName string

	// Metadata is attached to every chunk produced by this job.
	Metadata map[string]any

	// Status is the aggregate job state.
	Status JobStatus

	// Progress holds one entry per file ref, in FileRefs order regardless of
	// completion order.
	Progress []FileProgress

	// StartedAt is when the job was created.
	StartedAt time.Time

	// CompletedAt is set the first time Status becomes terminal and never
	// rewritten. Zero until then.
	CompletedAt time.Time
}

// DedupeFileRefs removes duplicate references, keeping the first occurrence
// order. Blank references are dropped.
func DedupeFileRefs(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// AggregateStatus recomputes the job state from per-file progress:
// any non-terminal file keeps the job processing; all files failed marks the
// job failed; otherwise the job is completed. Partial success is reported as
// completed, with per-file detail carrying the failures.
func (j *Job) AggregateStatus() JobStatus {
	completed := 0
	for i := range j.Progress {
		switch j.Progress[i].Status {
		case FileCompleted:
			completed++
		case FileFailed:
			// terminal, counts toward neither
		default:
			return JobProcessing
		}
	}
	if completed == 0 {
		return JobFailed
	}
	return JobCompleted
}

// CompletedFiles counts files that finished successfully.
func (j *Job) CompletedFiles() int {
	n := 0
	for i := range j.Progress {
		if j.Progress[i].Status == FileCompleted {
			n++
		}
	}
	return n
}

// FailedFiles counts files that finished with an error.
func (j *Job) FailedFiles() int {
	n := 0
	for i := range j.Progress {
		if j.Progress[i].Status == FileFailed {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the job, safe to hand to concurrent readers.
func (j *Job) Clone() *Job {
	cp := *j
	cp.FileRefs = append([]string(nil), j.FileRefs...)
	cp.Progress = append([]FileProgress(nil), j.Progress...)
	if j.Metadata != nil {
		cp.Metadata = make(map[string]any, len(j.Metadata))
		for k, v := range j.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
