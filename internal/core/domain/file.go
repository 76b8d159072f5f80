package domain

import "time"

// FileInfo describes one file or document in a repository.
// It is the uniform shape returned by list and search across source types.
type FileInfo struct {
	// ID is the source-specific file reference used for ingestion.
	ID string

	// Name is the human-readable file or document name.
	Name string

	// MIMEType is the content type (e.g. "application/pdf").
	MIMEType string

	// Size in bytes, zero when the source does not report it.
	Size int64

	// ModifiedAt is the last modification time, zero when unknown.
	ModifiedAt time.Time

	// Path is the location within the source (folder path, space key).
	Path string

	// WebURL is a browser link to the document, when available.
	WebURL string

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]any
}

// FileContent is the raw payload fetched for one file reference.
type FileContent struct {
	// Ref is the file reference the content was fetched for.
	Ref string

	// Name is the resolved file name.
	Name string

	// MIMEType is the content type of Data.
	MIMEType string

	// Data is the raw bytes.
	Data []byte
}

// CollectionStats describes one vector-store collection.
type CollectionStats struct {
	// TotalVectors is the number of stored vectors.
	TotalVectors int64

	// VectorSize is the embedding dimension.
	VectorSize int

	// Status is the store-reported collection health (e.g. "green").
	Status string
}

// Chunk is one unit of content produced by the pipeline and written to the
// vector sink.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// FileRef links back to the file the chunk was produced from.
	FileRef string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the file.
	Position int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}
