package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorbridge/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
	"github.com/custodia-labs/vectorbridge/internal/core/services"
	"github.com/custodia-labs/vectorbridge/internal/pipeline"
)

// cliConnector is a fixed-content connector for command tests.
type cliConnector struct {
	files map[string]string
}

func (c *cliConnector) Type() domain.SourceType { return domain.SourceLocalPDF }

func (c *cliConnector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{SupportsSearch: true}
}

func (c *cliConnector) Validate(_ context.Context) error { return nil }

func (c *cliConnector) ListFiles(_ context.Context, _ driven.ListOptions) ([]domain.FileInfo, error) {
	var infos []domain.FileInfo
	for ref := range c.files {
		infos = append(infos, domain.FileInfo{ID: ref, Name: ref})
	}
	return infos, nil
}

func (c *cliConnector) SearchFiles(_ context.Context, query string, _ driven.SearchOptions) ([]domain.FileInfo, error) {
	var infos []domain.FileInfo
	for ref := range c.files {
		if strings.Contains(ref, query) {
			infos = append(infos, domain.FileInfo{ID: ref, Name: ref})
		}
	}
	return infos, nil
}

func (c *cliConnector) ResolveFile(_ context.Context, ref string) (*domain.FileInfo, error) {
	if _, ok := c.files[ref]; !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.FileInfo{ID: ref, Name: ref}, nil
}

func (c *cliConnector) FetchContent(_ context.Context, ref string) (*domain.FileContent, error) {
	body, ok := c.files[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.FileContent{Ref: ref, Name: ref, MIMEType: "text/plain", Data: []byte(body)}, nil
}

func (c *cliConnector) Watch(_ context.Context) (<-chan domain.FileInfo, error) {
	return nil, domain.ErrNotImplemented
}

func (c *cliConnector) Close() error { return nil }

type cliFactory struct {
	connector *cliConnector
}

func (f *cliFactory) Create(_ context.Context, _ domain.Connection) (driven.Connector, error) {
	return f.connector, nil
}

func (f *cliFactory) Register(_ domain.SourceType, _ driven.ConnectorBuilder) {}

func (f *cliFactory) SupportedTypes() []domain.SourceType {
	return []domain.SourceType{domain.SourceLocalPDF}
}

// testConfigTOML keeps the polling loop fast and the log quiet.
const testConfigTOML = `log_level = "error"

[ingestion]
poll_interval = "1ms"
poll_attempts = 1000

[vector]
store = "memory"
`

// setupTestApp swaps the package-level app for an in-memory stack. The
// root command's pre-run reloads the config on every execution, so the
// test settings go through a temp config file.
func setupTestApp(t *testing.T) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigTOML), 0o600))
	configPath = path

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := &cliFactory{connector: &cliConnector{files: map[string]string{
		"guide.txt": "ingestion in practice",
	}}}
	registry := services.NewConnectionRegistry(factory, logger)

	manager, err := services.NewJobManager(registry, pipeline.New(pipeline.WithLogger(logger)),
		memory.NewSink(), services.WithLogger(logger))
	require.NoError(t, err)

	app.registry = registry
	app.manager = manager
	app.initErr = nil
	app.once = sync.Once{}
	app.once.Do(func() {})

	resetFlags()

	t.Cleanup(func() {
		manager.Close()
		configPath = ""
		app.once = sync.Once{}
		app.registry = nil
		app.manager = nil
	})
}

// resetFlags clears flag state left behind by earlier executions.
func resetFlags() {
	connectSettings = nil
	filesContainer = ""
	filesLimit = 0
	filesOffset = 0
	filesSearch = ""
	ingestCollection = ""
	ingestNoWait = false
}

// run executes the root command with args and returns combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// connectForTest registers a connection and returns its id.
func connectForTest(t *testing.T) string {
	t.Helper()

	conn, err := app.registry.Connect(context.Background(), domain.SourceLocalPDF,
		map[string]string{"base_directory": "/srv/docs"})
	require.NoError(t, err)
	return conn.ID
}

func TestVersionCmd(t *testing.T) {
	setupTestApp(t)

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vectorbridge dev")
}

func TestSourcesCmd(t *testing.T) {
	setupTestApp(t)

	out, err := run(t, "sources")
	require.NoError(t, err)
	for _, sourceType := range []string{"confluence", "gdrive", "jira", "sharepoint", "local_pdf"} {
		assert.Contains(t, out, sourceType)
	}
	assert.Contains(t, out, "base_directory")
}

func TestConnectCmd(t *testing.T) {
	setupTestApp(t)

	out, err := run(t, "connect", "local_pdf", "--set", "base_directory=/srv/docs")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected: local_pdf_")
	assert.Contains(t, out, "/srv/docs")
}

func TestConnectCmd_InvalidSet(t *testing.T) {
	setupTestApp(t)

	_, err := run(t, "connect", "local_pdf", "--set", "base_directory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
}

func TestConnectionsCmd(t *testing.T) {
	setupTestApp(t)
	id := connectForTest(t)

	out, err := run(t, "connections")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	out, err = run(t, "connections", "remove", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed")

	out, err = run(t, "connections")
	require.NoError(t, err)
	assert.Contains(t, out, "No connections registered.")
}

func TestFilesCmd(t *testing.T) {
	setupTestApp(t)
	id := connectForTest(t)

	out, err := run(t, "files", id)
	require.NoError(t, err)
	assert.Contains(t, out, "guide.txt")

	out, err = run(t, "files", id, "--search", "nothing-matches")
	require.NoError(t, err)
	assert.Contains(t, out, "No files found.")
}

func TestIngestAndStatusCmds(t *testing.T) {
	setupTestApp(t)
	id := connectForTest(t)

	out, err := run(t, "ingest", id, "guide.txt", "--collection", "kb")
	require.NoError(t, err)
	assert.Contains(t, out, "Job job_")
	assert.Contains(t, out, "completed")

	jobID := extractJobID(t, out)
	out, err = run(t, "status", jobID)
	require.NoError(t, err)
	assert.Contains(t, out, "1 completed, 0 failed, 1 total")

	out, err = run(t, "collections")
	require.NoError(t, err)
	assert.Contains(t, out, "kb")
}

func TestStatusCmd_Unknown(t *testing.T) {
	setupTestApp(t)

	_, err := run(t, "status", "job_missing")
	assert.ErrorIs(t, err, domain.ErrUnknownJob)
}

func extractJobID(t *testing.T, out string) string {
	t.Helper()

	for _, field := range strings.Fields(out) {
		if strings.HasPrefix(field, "job_") {
			return strings.TrimRight(field, ":")
		}
	}
	t.Fatalf("no job id in output: %s", out)
	return ""
}
