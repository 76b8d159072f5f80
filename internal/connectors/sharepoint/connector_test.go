package sharepoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/sites/contoso.sharepoint.com:/sites/eng", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"site-1"}`))
	})
	mux.HandleFunc("/sites/site-1/drive/root/children", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":[
			{"id":"item-1","name":"spec.docx","size":4096,
			 "lastModifiedDateTime":"2026-05-01T10:00:00Z",
			 "webUrl":"https://contoso.sharepoint.com/sites/eng/spec.docx",
			 "file":{"mimeType":"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
			 "parentReference":{"path":"/drive/root:"}},
			{"id":"folder-1","name":"archive","folder":{}}
		]}`))
	})
	mux.HandleFunc("/sites/site-1/drive/items/item-1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"item-1","name":"spec.docx",
			"file":{"mimeType":"text/plain"}}`))
	})
	mux.HandleFunc("/sites/site-1/drive/items/item-1/content", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("document body"))
	})
	mux.HandleFunc("/sites/site-1/drive/items/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "itemNotFound 404", http.StatusNotFound)
	})
	return httptest.NewServer(mux)
}

func newTestConnector(t *testing.T) *Connector {
	t.Helper()
	server := newTestServer(t)
	t.Cleanup(server.Close)

	return newWithClient("https://contoso.sharepoint.com/sites/eng", server.URL, server.Client(), nil)
}

func TestNew_MissingConfig(t *testing.T) {
	_, err := New(context.Background(), Config{SiteURL: "https://x"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConnector_Validate(t *testing.T) {
	c := newTestConnector(t)
	assert.NoError(t, c.Validate(context.Background()))
}

func TestConnector_ListFiles_SkipsFolders(t *testing.T) {
	c := newTestConnector(t)

	files, err := c.ListFiles(context.Background(), driven.ListOptions{})
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, "item-1", files[0].ID)
	assert.Equal(t, "spec.docx", files[0].Name)
	assert.Equal(t, int64(4096), files[0].Size)
	assert.Contains(t, files[0].MIMEType, "wordprocessingml")
}

func TestConnector_SiteIDIsCached(t *testing.T) {
	c := newTestConnector(t)

	_, err := c.ListFiles(context.Background(), driven.ListOptions{})
	require.NoError(t, err)

	c.mu.Lock()
	assert.Equal(t, "site-1", c.siteID)
	c.mu.Unlock()
}

func TestConnector_FetchContent(t *testing.T) {
	c := newTestConnector(t)

	content, err := c.FetchContent(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, "spec.docx", content.Name)
	assert.Equal(t, "text/plain", content.MIMEType)
	assert.Equal(t, []byte("document body"), content.Data)
}

func TestConnector_FetchContent_NotFound(t *testing.T) {
	c := newTestConnector(t)

	_, err := c.FetchContent(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConnector_Watch_NotSupported(t *testing.T) {
	c := newTestConnector(t)

	_, err := c.Watch(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}
