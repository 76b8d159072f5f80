// Package openai provides the embedding backend used by the Qdrant
// sink, built on OpenAI-compatible embedding APIs.
package openai

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Defaults.
const (
	DefaultModel = "text-embedding-3-small"
)

// Config holds the embedding backend settings.
type Config struct {
	// APIKey authenticates against the API. Required unless the endpoint
	// is a local OpenAI-compatible service.
	APIKey string

	// BaseURL overrides the API endpoint, for Azure OpenAI or local
	// compatible services. Empty selects the OpenAI default.
	BaseURL string

	// Model is the embedding model. Default: text-embedding-3-small.
	Model string
}

// NewEmbedder creates an embeddings.Embedder from the configuration.
func NewEmbedder(cfg Config) (embeddings.Embedder, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	// Local OpenAI-compatible services accept any token.
	token := cfg.APIKey
	if token == "" {
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai: api key is required")
		}
		token = "none"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai: create client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("openai: create embedder: %w", err)
	}
	return embedder, nil
}
