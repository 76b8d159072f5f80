// Package pipeline turns fetched file content into vector-store chunks.
// Extraction dispatches on MIME type, splitting uses recursive character
// splitting with overlap so chunk boundaries keep local context.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.ChunkPipeline = (*Pipeline)(nil)

// Splitting defaults.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Pipeline extracts plain text from file content and splits it into
// overlapping chunks ready for embedding.
type Pipeline struct {
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks.
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) {
		if overlap >= 0 {
			p.chunkOverlap = overlap
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger.With("component", "pipeline")
		}
	}
}

// New creates a pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		logger:       slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.chunkOverlap >= p.chunkSize {
		p.chunkOverlap = p.chunkSize / 2
	}
	return p
}

// Process extracts text from the content and splits it into chunks.
// Content that yields no text (an empty file, a scanned PDF without a
// text layer) produces zero chunks, which is a success: there is simply
// nothing to index.
func (p *Pipeline) Process(ctx context.Context, content *domain.FileContent) ([]domain.Chunk, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: nil content", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := ExtractText(content)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		p.logger.Debug("no text extracted", "file", content.Ref, "mime", content.MIMEType)
		return nil, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		if part == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:       uuid.NewString(),
			FileRef:  content.Ref,
			Content:  part,
			Position: i,
			Metadata: map[string]any{
				"file_ref":  content.Ref,
				"file_name": content.Name,
				"mime_type": content.MIMEType,
				"position":  i,
			},
		})
	}

	p.logger.Debug("content chunked",
		"file", content.Ref,
		"mime", content.MIMEType,
		"bytes", len(content.Data),
		"chunks", len(chunks))
	return chunks, nil
}
