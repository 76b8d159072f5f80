// Package cli implements the vectorbridge command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorbridge/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/vectorbridge/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/vectorbridge/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/vectorbridge/internal/config"
	"github.com/custodia-labs/vectorbridge/internal/connectors"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
	"github.com/custodia-labs/vectorbridge/internal/core/services"
	"github.com/custodia-labs/vectorbridge/internal/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "vectorbridge",
	Short: "Ingest documents from repositories into a vector store",
	Long: `vectorbridge connects to document repositories (Confluence, Google
Drive, Jira, SharePoint, local PDF directories), extracts and chunks their
content, and writes the chunks into a vector store for semantic search.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadApp()
	},
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.vectorbridge/config.toml)")
}

// app holds lazily constructed services shared by the commands.
var app struct {
	cfg        *config.Config
	logger     *slog.Logger
	logCleanup func() error

	once     sync.Once
	initErr  error
	registry *services.ConnectionRegistry
	manager  *services.JobManager
	sink     driven.VectorSink
}

func loadApp() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, cleanup := config.SetupLogger(cfg.LogFile, config.ParseLevel(cfg.LogLevel))

	app.cfg = cfg
	app.logger = logger
	app.logCleanup = cleanup
	return nil
}

// ensureServices wires the registry, pipeline, sink and job manager.
// Construction is deferred so commands that only read the source catalog
// never touch the vector store configuration.
func ensureServices() error {
	app.once.Do(func() {
		cfg := app.cfg

		factory := connectors.DefaultFactory(app.logger)
		app.registry = services.NewConnectionRegistry(factory, app.logger)

		sink, err := buildSink(cfg)
		if err != nil {
			app.initErr = err
			return
		}
		app.sink = sink

		chunker := pipeline.New(
			pipeline.WithChunkSize(cfg.Ingestion.ChunkSize),
			pipeline.WithChunkOverlap(cfg.Ingestion.ChunkOverlap),
			pipeline.WithLogger(app.logger),
		)

		manager, err := services.NewJobManager(app.registry, chunker, sink,
			services.WithPoolSize(cfg.Ingestion.PoolSize),
			services.WithTaskTimeout(cfg.Ingestion.TaskTimeout.Std()),
			services.WithDefaultCollection(cfg.Ingestion.DefaultCollection),
			services.WithLogger(app.logger),
		)
		if err != nil {
			app.initErr = err
			return
		}
		app.manager = manager
	})
	return app.initErr
}

func buildSink(cfg *config.Config) (driven.VectorSink, error) {
	switch cfg.Vector.Store {
	case "memory":
		return memory.NewSink(), nil
	case "qdrant":
		embedder, err := openai.NewEmbedder(openai.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		})
		if err != nil {
			return nil, err
		}
		return qdrant.NewSink(qdrant.Config{
			URL:        cfg.Vector.QdrantURL,
			APIKey:     cfg.Vector.QdrantAPIKey,
			Dimensions: cfg.Vector.Dimensions,
		}, embedder, app.logger)
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.Vector.Store)
	}
}

// Execute runs the CLI.
func Execute() error {
	defer func() {
		if app.manager != nil {
			app.manager.Close()
		}
		if app.logCleanup != nil {
			_ = app.logCleanup()
		}
	}()
	return rootCmd.Execute()
}
