package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorbridge/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
	"github.com/custodia-labs/vectorbridge/internal/core/services"
	"github.com/custodia-labs/vectorbridge/internal/pipeline"
)

// textConnector serves fixed text files for API tests.
type textConnector struct {
	files map[string]string
}

func (c *textConnector) Type() domain.SourceType { return domain.SourceLocalPDF }

func (c *textConnector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{SupportsSearch: true}
}

func (c *textConnector) Validate(_ context.Context) error { return nil }

func (c *textConnector) ListFiles(_ context.Context, _ driven.ListOptions) ([]domain.FileInfo, error) {
	var infos []domain.FileInfo
	for ref := range c.files {
		infos = append(infos, domain.FileInfo{ID: ref, Name: ref, MIMEType: "text/plain"})
	}
	return infos, nil
}

func (c *textConnector) SearchFiles(_ context.Context, query string, _ driven.SearchOptions) ([]domain.FileInfo, error) {
	var infos []domain.FileInfo
	for ref := range c.files {
		if strings.Contains(ref, query) {
			infos = append(infos, domain.FileInfo{ID: ref, Name: ref, MIMEType: "text/plain"})
		}
	}
	return infos, nil
}

func (c *textConnector) ResolveFile(_ context.Context, ref string) (*domain.FileInfo, error) {
	if _, ok := c.files[ref]; !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.FileInfo{ID: ref, Name: ref}, nil
}

func (c *textConnector) FetchContent(_ context.Context, ref string) (*domain.FileContent, error) {
	body, ok := c.files[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.FileContent{Ref: ref, Name: ref, MIMEType: "text/plain", Data: []byte(body)}, nil
}

func (c *textConnector) Watch(_ context.Context) (<-chan domain.FileInfo, error) {
	return nil, domain.ErrNotImplemented
}

func (c *textConnector) Close() error { return nil }

type textFactory struct {
	connector *textConnector
}

func (f *textFactory) Create(_ context.Context, _ domain.Connection) (driven.Connector, error) {
	return f.connector, nil
}

func (f *textFactory) Register(_ domain.SourceType, _ driven.ConnectorBuilder) {}

func (f *textFactory) SupportedTypes() []domain.SourceType {
	return []domain.SourceType{domain.SourceLocalPDF}
}

type testAPI struct {
	server *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := &textFactory{connector: &textConnector{files: map[string]string{
		"guide.txt":  "how to ingest documents",
		"primer.txt": "vector stores in practice",
	}}}
	registry := services.NewConnectionRegistry(factory, logger)

	manager, err := services.NewJobManager(registry, pipeline.New(pipeline.WithLogger(logger)),
		memory.NewSink(), services.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	api := NewServer("127.0.0.1:0", registry, manager, logger)
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return &testAPI{server: server}
}

func (a *testAPI) do(t *testing.T, method, path string, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (a *testAPI) connect(t *testing.T) string {
	t.Helper()

	resp, body := a.do(t, http.MethodPost, "/connections",
		`{"source_type":"local_pdf","config":{"base_directory":"/srv/docs"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var conn struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &conn))
	require.NotEmpty(t, conn.ID)
	return conn.ID
}

func TestAPI_Health(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status            string   `json:"status"`
		ActiveConnections int      `json:"active_connections"`
		Sources           []string `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Zero(t, health.ActiveConnections)
	assert.Contains(t, health.Sources, "local_pdf")
}

func TestAPI_ListSources(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodGet, "/sources", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Sources []struct {
			Type       string `json:"type"`
			ConfigKeys []struct {
				Key      string `json:"key"`
				Required bool   `json:"required"`
			} `json:"config_keys"`
		} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Sources, 5)
}

func TestAPI_ConnectionLifecycle(t *testing.T) {
	api := newTestAPI(t)
	id := api.connect(t)

	resp, body := api.do(t, http.MethodGet, "/connections/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"source_type":"local_pdf"`)

	resp, body = api.do(t, http.MethodGet, "/connections", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), id)

	resp, _ = api.do(t, http.MethodDelete, "/connections/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = api.do(t, http.MethodGet, "/connections/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Connect_Errors(t *testing.T) {
	api := newTestAPI(t)

	resp, _ := api.do(t, http.MethodPost, "/connections",
		`{"source_type":"dropbox","config":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/connections",
		`{"source_type":"local_pdf","config":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/connections", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_BrowseFiles(t *testing.T) {
	api := newTestAPI(t)
	id := api.connect(t)

	resp, body := api.do(t, http.MethodGet, "/connections/"+id+"/files", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "guide.txt")

	resp, body = api.do(t, http.MethodGet, "/connections/"+id+"/files/search?q=primer", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "primer.txt")
	assert.NotContains(t, string(body), "guide.txt")

	resp, _ = api.do(t, http.MethodGet, "/connections/"+id+"/files/search", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, http.MethodGet, "/connections/local_pdf_missing/files", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func pollUntilTerminal(t *testing.T, api *testAPI, jobID string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, body := api.do(t, http.MethodGet, "/ingest/status/"+jobID, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out map[string]any
		require.NoError(t, json.Unmarshal(body, &out))
		status := out["status"].(string)
		if status == "completed" || status == "failed" {
			return out
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return nil
}

func TestAPI_IngestFlow(t *testing.T) {
	api := newTestAPI(t)
	id := api.connect(t)

	resp, body := api.do(t, http.MethodPost, "/ingest", fmt.Sprintf(
		`{"connection_id":%q,"file_refs":["guide.txt","primer.txt"],"collection_name":"kb"}`, id))
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

	var created struct {
		JobID      string `json:"job_id"`
		Status     string `json:"status"`
		TotalFiles int    `json:"total_files"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 2, created.TotalFiles)

	final := pollUntilTerminal(t, api, created.JobID)
	assert.Equal(t, "completed", final["status"])
	assert.Equal(t, float64(2), final["processed_files"])
	assert.NotNil(t, final["completed_at"])

	resp, body = api.do(t, http.MethodGet, "/ingest/collections/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"kb"`)
}

func TestAPI_Ingest_Errors(t *testing.T) {
	api := newTestAPI(t)
	id := api.connect(t)

	resp, _ := api.do(t, http.MethodPost, "/ingest",
		fmt.Sprintf(`{"connection_id":%q,"file_refs":[]}`, id))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPost, "/ingest",
		`{"connection_id":"local_pdf_missing","file_refs":["guide.txt"]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := api.do(t, http.MethodPost, "/ingest",
		fmt.Sprintf(`{"connection_id":%q,"source_type":"confluence","file_refs":["guide.txt"]}`, id))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "does not match connection")
}

func TestAPI_IngestBatch(t *testing.T) {
	api := newTestAPI(t)
	id := api.connect(t)

	resp, body := api.do(t, http.MethodPost, "/ingest/batch", fmt.Sprintf(
		`[{"connection_id":%q,"file_refs":["guide.txt"]},
		  {"connection_id":"local_pdf_missing","file_refs":["x"]}]`, id))
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

	var out struct {
		Results []struct {
			Job *struct {
				JobID string `json:"job_id"`
			} `json:"job"`
			Error string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Results, 2)
	assert.NotNil(t, out.Results[0].Job)
	assert.Empty(t, out.Results[0].Error)
	assert.Nil(t, out.Results[1].Job)
	assert.Contains(t, out.Results[1].Error, "unknown connection")

	resp, _ = api.do(t, http.MethodPost, "/ingest/batch", `[]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_JobStatus_Unknown(t *testing.T) {
	api := newTestAPI(t)

	resp, _ := api.do(t, http.MethodGet, "/ingest/status/job_missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
