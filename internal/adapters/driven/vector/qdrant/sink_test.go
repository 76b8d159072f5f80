package qdrant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder implements embeddings.Embedder with fixed-size vectors.
type fakeEmbedder struct{}

func (fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func TestNewSink_Validation(t *testing.T) {
	_, err := NewSink(Config{}, fakeEmbedder{}, nil)
	assert.Error(t, err)

	_, err = NewSink(Config{URL: "http://localhost:6333"}, nil, nil)
	assert.Error(t, err)

	_, err = NewSink(Config{URL: "::bad::"}, fakeEmbedder{}, nil)
	assert.Error(t, err)

	s, err := NewSink(Config{URL: "http://localhost:6333/"}, fakeEmbedder{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDimensions, s.dimensions)
}

func TestSink_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections" {
			_, _ = w.Write([]byte(`{"result":{"collections":[]}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	s, err := NewSink(Config{URL: server.URL}, fakeEmbedder{}, nil)
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))

	down, err := NewSink(Config{URL: "http://127.0.0.1:1"}, fakeEmbedder{}, nil)
	require.NoError(t, err)
	assert.Error(t, down.Ping(context.Background()))
}

func TestSink_CollectionStats(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"collections":[{"name":"docs"}]}}`))
	})
	mux.HandleFunc("/collections/docs", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"status":"green","points_count":42,
			"config":{"params":{"vectors":{"size":1536}}}}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s, err := NewSink(Config{URL: server.URL}, fakeEmbedder{}, nil)
	require.NoError(t, err)

	stats, err := s.CollectionStats(context.Background())
	require.NoError(t, err)
	require.Contains(t, stats, "docs")
	assert.Equal(t, int64(42), stats["docs"].TotalVectors)
	assert.Equal(t, 1536, stats["docs"].VectorSize)
	assert.Equal(t, "green", stats["docs"].Status)
}

func TestSink_EnsureCollection_CreatesMissing(t *testing.T) {
	var created atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/fresh", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if created.Load() {
				_, _ = w.Write([]byte(`{"result":{"status":"green"}}`))
				return
			}
			http.Error(w, `{"status":{"error":"not found"}}`, http.StatusNotFound)
		case http.MethodPut:
			created.Store(true)
			_, _ = w.Write([]byte(`{"result":true,"status":"ok"}`))
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s, err := NewSink(Config{URL: server.URL, Dimensions: 3}, fakeEmbedder{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.ensureCollection(context.Background(), "fresh"))
	assert.True(t, created.Load())

	// Second call sees the existing collection and does not recreate it.
	require.NoError(t, s.ensureCollection(context.Background(), "fresh"))
}

func TestSink_AddChunks_Empty(t *testing.T) {
	s, err := NewSink(Config{URL: "http://localhost:6333"}, fakeEmbedder{}, nil)
	require.NoError(t, err)

	written, err := s.AddChunks(context.Background(), "docs", nil, nil)
	require.NoError(t, err)
	assert.Zero(t, written)
}

func TestSink_APIKeyHeader(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		_, _ = w.Write([]byte(`{"result":{"collections":[]}}`))
	}))
	defer server.Close()

	s, err := NewSink(Config{URL: server.URL, APIKey: "secret"}, fakeEmbedder{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, "secret", gotKey)
}
