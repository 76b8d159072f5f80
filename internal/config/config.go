// Package config loads the service configuration from a TOML file and
// sets up logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults.
const (
	DefaultListenAddr     = "127.0.0.1:8100"
	DefaultPoolSize       = 4
	DefaultTaskTimeout    = 5 * time.Minute
	DefaultPollInterval   = 5 * time.Second
	DefaultPollAttempts   = 60
	DefaultCollection     = "documents"
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultVectorStore    = "qdrant"
	DefaultQdrantURL      = "http://localhost:6333"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultLogLevel       = "info"
)

// Duration is a time.Duration that unmarshals from TOML strings such
// as "30s" or "5m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full service configuration.
type Config struct {
	// ListenAddr is the HTTP API bind address.
	ListenAddr string `toml:"listen_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LogFile receives JSON logs in addition to stderr. Optional.
	LogFile string `toml:"log_file"`

	Ingestion  Ingestion  `toml:"ingestion"`
	Connection Connection `toml:"connection"`
	Vector     Vector     `toml:"vector"`
	Embedding  Embedding  `toml:"embedding"`
}

// Ingestion configures the job manager and pipeline.
type Ingestion struct {
	// PoolSize is the number of files processed concurrently.
	PoolSize int `toml:"pool_size"`

	// TaskTimeout bounds the processing of one file.
	TaskTimeout Duration `toml:"task_timeout"`

	// PollInterval is the CLI status polling interval.
	PollInterval Duration `toml:"poll_interval"`

	// PollAttempts bounds the CLI status polling loop.
	PollAttempts int `toml:"poll_attempts"`

	// DefaultCollection receives chunks when a request omits a collection.
	DefaultCollection string `toml:"default_collection"`

	// ChunkSize is the target chunk size in characters.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the overlap between consecutive chunks.
	ChunkOverlap int `toml:"chunk_overlap"`
}

// Connection configures the connection registry.
type Connection struct {
	// IdleTTL evicts connections unused for this long. Zero disables
	// eviction.
	IdleTTL Duration `toml:"idle_ttl"`

	// EvictInterval is how often the evictor runs.
	EvictInterval Duration `toml:"evict_interval"`
}

// Vector configures the vector sink.
type Vector struct {
	// Store selects the sink backend: "qdrant" or "memory".
	Store string `toml:"store"`

	// QdrantURL is the Qdrant base URL.
	QdrantURL string `toml:"qdrant_url"`

	// QdrantAPIKey authenticates against Qdrant. Optional.
	QdrantAPIKey string `toml:"qdrant_api_key"`

	// Dimensions is the vector size for new collections.
	Dimensions int `toml:"dimensions"`
}

// Embedding configures the embedding backend.
type Embedding struct {
	// APIKey authenticates against the embedding API. Falls back to the
	// OPENAI_API_KEY environment variable.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the API endpoint for compatible services.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name.
	Model string `toml:"model"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		ListenAddr: DefaultListenAddr,
		LogLevel:   DefaultLogLevel,
		Ingestion: Ingestion{
			PoolSize:          DefaultPoolSize,
			TaskTimeout:       Duration(DefaultTaskTimeout),
			PollInterval:      Duration(DefaultPollInterval),
			PollAttempts:      DefaultPollAttempts,
			DefaultCollection: DefaultCollection,
			ChunkSize:         DefaultChunkSize,
			ChunkOverlap:      DefaultChunkOverlap,
		},
		Connection: Connection{
			EvictInterval: Duration(time.Minute),
		},
		Vector: Vector{
			Store:     DefaultVectorStore,
			QdrantURL: DefaultQdrantURL,
		},
		Embedding: Embedding{
			Model: DefaultEmbeddingModel,
		},
	}
}

// DefaultPath returns the default config file location,
// ~/.vectorbridge/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".vectorbridge", "config.toml"), nil
}

// Load reads a TOML config file and applies defaults for absent keys.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Vector.Store {
	case "qdrant", "memory":
	default:
		return fmt.Errorf("config: unknown vector store %q", c.Vector.Store)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.Ingestion.ChunkOverlap >= c.Ingestion.ChunkSize {
		return fmt.Errorf("config: chunk_overlap must be smaller than chunk_size")
	}
	return nil
}
