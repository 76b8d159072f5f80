// Package qdrant provides a vector sink backed by a Qdrant instance.
// Document upserts go through the langchaingo vector store, which embeds
// chunk content on write. Collection management and statistics use the
// Qdrant REST API directly.
package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	lcqdrant "github.com/tmc/langchaingo/vectorstores/qdrant"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.VectorSink = (*Sink)(nil)

// Defaults.
const (
	DefaultDimensions = 1536
	DefaultDistance   = "Cosine"
	DefaultTimeout    = 30 * time.Second
)

// Config holds the Qdrant connection settings.
type Config struct {
	// URL is the Qdrant base URL (required), e.g. http://localhost:6333.
	URL string

	// APIKey authenticates requests. Optional for local instances.
	APIKey string

	// Dimensions is the vector size for newly created collections.
	// Must match the embedding model's output. Default: 1536.
	Dimensions int
}

// Sink writes chunks into Qdrant collections.
type Sink struct {
	baseURL    *url.URL
	apiKey     string
	dimensions int
	embedder   embeddings.Embedder
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	stores map[string]lcqdrant.Store
}

// NewSink creates a sink for the Qdrant instance in cfg.
func NewSink(cfg Config, embedder embeddings.Embedder, logger *slog.Logger) (*Sink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant: url is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("qdrant: embedder is required")
	}
	parsed, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("qdrant: invalid url %q", cfg.URL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Sink{
		baseURL:    parsed,
		apiKey:     cfg.APIKey,
		dimensions: dimensions,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger.With("component", "qdrant"),
		stores:     make(map[string]lcqdrant.Store),
	}, nil
}

// AddChunks embeds and upserts chunks into a collection, creating the
// collection on first use.
func (s *Sink) AddChunks(ctx context.Context, collection string, chunks []domain.Chunk, metadata map[string]any) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return 0, err
	}
	store, err := s.store(collection)
	if err != nil {
		return 0, err
	}

	docs := make([]schema.Document, len(chunks))
	for i, chunk := range chunks {
		merged := make(map[string]any, len(chunk.Metadata)+len(metadata)+1)
		for k, v := range metadata {
			merged[k] = v
		}
		for k, v := range chunk.Metadata {
			merged[k] = v
		}
		merged["chunk_id"] = chunk.ID
		docs[i] = schema.Document{PageContent: chunk.Content, Metadata: merged}
	}

	ids, err := store.AddDocuments(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("qdrant: add documents: %w", err)
	}

	s.logger.Debug("chunks upserted", "collection", collection, "count", len(ids))
	return len(ids), nil
}

// collectionInfo is the wire shape of a collection detail response.
type collectionInfo struct {
	Result struct {
		Status      string `json:"status"`
		PointsCount int64  `json:"points_count"`
		Config      struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// CollectionStats reports size and status for every collection.
func (s *Sink) CollectionStats(ctx context.Context) (map[string]domain.CollectionStats, error) {
	var listing struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.getJSON(ctx, "/collections", &listing); err != nil {
		return nil, fmt.Errorf("qdrant: list collections: %w", err)
	}

	stats := make(map[string]domain.CollectionStats, len(listing.Result.Collections))
	for _, col := range listing.Result.Collections {
		var info collectionInfo
		if err := s.getJSON(ctx, "/collections/"+url.PathEscape(col.Name), &info); err != nil {
			return nil, fmt.Errorf("qdrant: describe collection %s: %w", col.Name, err)
		}
		stats[col.Name] = domain.CollectionStats{
			TotalVectors: info.Result.PointsCount,
			VectorSize:   info.Result.Config.Params.Vectors.Size,
			Status:       info.Result.Status,
		}
	}
	return stats, nil
}

// Ping checks that the instance answers.
func (s *Sink) Ping(ctx context.Context) error {
	var out struct{}
	if err := s.getJSON(ctx, "/collections", &out); err != nil {
		return fmt.Errorf("qdrant: ping: %w", err)
	}
	return nil
}

// Close is a no-op; the sink holds no persistent connections.
func (s *Sink) Close() error { return nil }

// ensureCollection creates the collection when it does not exist yet.
func (s *Sink) ensureCollection(ctx context.Context, collection string) error {
	path := "/collections/" + url.PathEscape(collection)

	var info collectionInfo
	err := s.getJSON(ctx, path, &info)
	if err == nil {
		return nil
	}
	var statusErr *statusError
	if !errors.As(err, &statusErr) || statusErr.code != http.StatusNotFound {
		return fmt.Errorf("qdrant: check collection %s: %w", collection, err)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimensions,
			"distance": DefaultDistance,
		},
	}
	if err := s.doJSON(ctx, http.MethodPut, path, body); err != nil {
		return fmt.Errorf("qdrant: create collection %s: %w", collection, err)
	}

	s.logger.Info("collection created", "collection", collection, "dimensions", s.dimensions)
	return nil
}

// store returns the cached langchaingo store for a collection.
func (s *Sink) store(collection string) (lcqdrant.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.stores[collection]; ok {
		return store, nil
	}
	store, err := lcqdrant.New(
		lcqdrant.WithURL(*s.baseURL),
		lcqdrant.WithAPIKey(s.apiKey),
		lcqdrant.WithCollectionName(collection),
		lcqdrant.WithEmbedder(s.embedder),
	)
	if err != nil {
		return lcqdrant.Store{}, fmt.Errorf("qdrant: create store: %w", err)
	}
	s.stores[collection] = store
	return store, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func (s *Sink) getJSON(ctx context.Context, path string, out any) error {
	return s.request(ctx, http.MethodGet, path, nil, out)
}

func (s *Sink) doJSON(ctx context.Context, method, path string, body any) error {
	return s.request(ctx, method, path, body, nil)
}

func (s *Sink) request(ctx context.Context, method, path string, body, out any) error {
	endpoint := s.baseURL.String() + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = strings.NewReader(string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(message))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
