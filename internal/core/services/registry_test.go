package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driving"
)

func newTestRegistry(t *testing.T) (*ConnectionRegistry, *fakeConnector) {
	t.Helper()

	connector := &fakeConnector{
		sourceType: domain.SourceLocalPDF,
		files:      map[string]string{"f1": "alpha", "report-f2": "bravo"},
		names:      map[string]string{"f1": "first.pdf", "report-f2": "report.pdf"},
		fetchErrs:  map[string]error{},
	}
	factory := &fakeFactory{connectors: map[domain.SourceType]*fakeConnector{
		domain.SourceLocalPDF: connector,
	}}
	return NewConnectionRegistry(factory, discardLogger()), connector
}

func TestConnectionRegistry_Connect(t *testing.T) {
	registry, _ := newTestRegistry(t)

	conn, err := registry.Connect(context.Background(), domain.SourceLocalPDF,
		map[string]string{"base_directory": "/srv/docs"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(conn.ID, "local_pdf_"), "id %q should carry the source type prefix", conn.ID)
	assert.Equal(t, domain.SourceLocalPDF, conn.SourceType)
	assert.Equal(t, "/srv/docs", conn.Metadata["instance"])
	assert.False(t, conn.CreatedAt.IsZero())
	assert.False(t, conn.LastUsed.IsZero())
}

func TestConnectionRegistry_Connect_UnsupportedType(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.Connect(context.Background(), domain.SourceType("dropbox"), nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestConnectionRegistry_Connect_MissingConfig(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.Connect(context.Background(), domain.SourceLocalPDF, map[string]string{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "base_directory")

	// Nothing was registered.
	conns, listErr := registry.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, conns)
}

func TestConnectionRegistry_Connect_ValidationFailureLeavesNoTrace(t *testing.T) {
	registry, connector := newTestRegistry(t)
	connector.validateErr = errors.New("401 unauthorized")

	_, err := registry.Connect(context.Background(), domain.SourceLocalPDF,
		map[string]string{"base_directory": "/srv/docs"})
	require.ErrorIs(t, err, domain.ErrConnectorValidation)

	conns, listErr := registry.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, conns)
	assert.True(t, connector.isClosed())
}

func TestConnectionRegistry_UniqueIDs(t *testing.T) {
	registry, _ := newTestRegistry(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		conn, err := registry.Connect(context.Background(), domain.SourceLocalPDF,
			map[string]string{"base_directory": "/srv/docs"})
		require.NoError(t, err)
		require.False(t, seen[conn.ID], "duplicate id %s", conn.ID)
		seen[conn.ID] = true
	}
}

func TestConnectionRegistry_GetRefreshesLastUsed(t *testing.T) {
	registry, _ := newTestRegistry(t)

	conn, err := registry.Connect(context.Background(), domain.SourceLocalPDF,
		map[string]string{"base_directory": "/srv/docs"})
	require.NoError(t, err)

	first := conn.LastUsed
	time.Sleep(5 * time.Millisecond)

	got, err := registry.Get(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.True(t, got.LastUsed.After(first))
}

func TestConnectionRegistry_Get_Unknown(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.Get(context.Background(), "local_pdf_missing")
	assert.ErrorIs(t, err, domain.ErrUnknownConnection)
}

func TestConnectionRegistry_ListCreationOrder(t *testing.T) {
	registry, _ := newTestRegistry(t)

	var ids []string
	for i := 0; i < 4; i++ {
		conn, err := registry.Connect(context.Background(), domain.SourceLocalPDF,
			map[string]string{"base_directory": fmt.Sprintf("/srv/docs/%d", i)})
		require.NoError(t, err)
		ids = append(ids, conn.ID)
	}

	conns, err := registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, conns, 4)
	for i, conn := range conns {
		assert.Equal(t, ids[i], conn.ID)
	}
}

func TestConnectionRegistry_Remove(t *testing.T) {
	registry, connector := newTestRegistry(t)

	conn, err := registry.Connect(context.Background(), domain.SourceLocalPDF,
		map[string]string{"base_directory": "/srv/docs"})
	require.NoError(t, err)

	require.NoError(t, registry.Remove(context.Background(), conn.ID))
	assert.True(t, connector.isClosed())

	_, err = registry.Get(context.Background(), conn.ID)
	assert.ErrorIs(t, err, domain.ErrUnknownConnection)

	err = registry.Remove(context.Background(), conn.ID)
	assert.ErrorIs(t, err, domain.ErrUnknownConnection)
}

func TestConnectionRegistry_BrowseFiles(t *testing.T) {
	registry, _ := newTestRegistry(t)

	conn, err := registry.Connect(context.Background(), domain.SourceLocalPDF,
		map[string]string{"base_directory": "/srv/docs"})
	require.NoError(t, err)

	files, err := registry.ListFiles(context.Background(), conn.ID, driving.BrowseOptions{})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	hits, err := registry.SearchFiles(context.Background(), conn.ID, "report", driving.BrowseOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "report.pdf", hits[0].Name)

	_, err = registry.ListFiles(context.Background(), "local_pdf_missing", driving.BrowseOptions{})
	assert.ErrorIs(t, err, domain.ErrUnknownConnection)
}

func TestConnectionRegistry_ConcurrentAccess(t *testing.T) {
	registry, _ := newTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := registry.Connect(context.Background(), domain.SourceLocalPDF,
				map[string]string{"base_directory": "/srv/docs"})
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := registry.Get(context.Background(), conn.ID); err != nil {
				t.Error(err)
			}
			if _, err := registry.List(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	conns, err := registry.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, conns, 16)
}

func TestConnectionRegistry_EvictIdle(t *testing.T) {
	registry, connector := newTestRegistry(t)

	stale, err := registry.Connect(context.Background(), domain.SourceLocalPDF,
		map[string]string{"base_directory": "/srv/old"})
	require.NoError(t, err)
	fresh, err := registry.Connect(context.Background(), domain.SourceLocalPDF,
		map[string]string{"base_directory": "/srv/new"})
	require.NoError(t, err)

	// Age the first connection past the ttl.
	registry.mu.Lock()
	registry.entries[stale.ID].conn.LastUsed = time.Now().Add(-time.Hour)
	registry.mu.Unlock()

	registry.evictIdle(30 * time.Minute)

	_, err = registry.Get(context.Background(), stale.ID)
	assert.ErrorIs(t, err, domain.ErrUnknownConnection)
	_, err = registry.Get(context.Background(), fresh.ID)
	assert.NoError(t, err)
	assert.True(t, connector.isClosed())
}

func TestSourceCatalog(t *testing.T) {
	catalog := SourceCatalog()
	require.Len(t, catalog, len(domain.AllSourceTypes()))

	for _, desc := range catalog {
		assert.True(t, desc.Type.Valid())
		assert.NotEmpty(t, desc.Name)
		assert.NotEmpty(t, desc.ConfigKeys)
	}
}

func TestDescribeSource(t *testing.T) {
	desc, err := DescribeSource(domain.SourceConfluence)
	require.NoError(t, err)
	assert.Equal(t, "Confluence", desc.Name)

	keys := make([]string, 0, len(desc.ConfigKeys))
	for _, k := range desc.ConfigKeys {
		keys = append(keys, k.Key)
	}
	assert.Equal(t, []string{"url", "username", "api_token"}, keys)

	_, err = DescribeSource(domain.SourceType("dropbox"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestValidateSourceConfig(t *testing.T) {
	tests := []struct {
		name       string
		sourceType domain.SourceType
		config     map[string]string
		wantErr    error
	}{
		{
			name:       "complete confluence config",
			sourceType: domain.SourceConfluence,
			config:     map[string]string{"url": "https://x.atlassian.net/wiki", "username": "u", "api_token": "t"},
		},
		{
			name:       "missing token",
			sourceType: domain.SourceConfluence,
			config:     map[string]string{"url": "https://x.atlassian.net/wiki", "username": "u"},
			wantErr:    domain.ErrInvalidInput,
		},
		{
			name:       "empty value counts as missing",
			sourceType: domain.SourceLocalPDF,
			config:     map[string]string{"base_directory": ""},
			wantErr:    domain.ErrInvalidInput,
		},
		{
			name:       "unknown source type",
			sourceType: domain.SourceType("dropbox"),
			config:     map[string]string{},
			wantErr:    domain.ErrUnsupportedType,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSourceConfig(tc.sourceType, tc.config)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
