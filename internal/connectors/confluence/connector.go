// Package confluence ingests pages from Confluence Cloud via its REST
// API. File references are content ids, containers are space keys.
package confluence

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/vectorbridge/internal/connectors/atlassian"
	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

const (
	htmlMIMEType = "text/html"
	defaultLimit = 50
)

// Connector reads pages from one Confluence instance.
type Connector struct {
	client *atlassian.Client
	logger *slog.Logger
}

// Builder returns a ConnectorBuilder for the factory.
func Builder(logger *slog.Logger) driven.ConnectorBuilder {
	return func(_ context.Context, conn domain.Connection) (driven.Connector, error) {
		return New(conn.Config["url"], conn.Config["username"], conn.Config["api_token"], logger)
	}
}

// New creates a connector for the instance at baseURL.
func New(baseURL, username, apiToken string, logger *slog.Logger) (*Connector, error) {
	client, err := atlassian.NewClient(baseURL, username, apiToken)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		client: client,
		logger: logger.With("component", "connector.confluence"),
	}, nil
}

func (c *Connector) Type() domain.SourceType { return domain.SourceConfluence }

func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsSearch:        true,
		SupportsValidation:    true,
		SupportsPagination:    true,
		SupportsRateLimiting:  true,
	}
}

// contentPage is the wire shape of a content list response.
type contentPage struct {
	Results []contentItem `json:"results"`
}

type contentItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version struct {
		When time.Time `json:"when"`
	} `json:"version"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

// Validate performs an authenticated no-op request.
func (c *Connector) Validate(ctx context.Context) error {
	var out struct {
		Results []struct {
			Key string `json:"key"`
		} `json:"results"`
	}
	query := url.Values{"limit": {"1"}}
	if err := c.client.GetJSON(ctx, "/rest/api/space", query, &out); err != nil {
		return fmt.Errorf("confluence validation: %w", err)
	}
	return nil
}

// ListFiles returns pages, optionally restricted to one space key.
func (c *Connector) ListFiles(ctx context.Context, opts driven.ListOptions) ([]domain.FileInfo, error) {
	query := url.Values{
		"type":   {"page"},
		"expand": {"version,space"},
		"limit":  {strconv.Itoa(pageLimit(opts.Limit))},
		"start":  {strconv.Itoa(opts.Offset)},
	}
	if opts.Container != "" {
		query.Set("spaceKey", opts.Container)
	}

	var page contentPage
	if err := c.client.GetJSON(ctx, "/rest/api/content", query, &page); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return c.toFileInfos(page.Results), nil
}

// SearchFiles runs a CQL text search across pages.
func (c *Connector) SearchFiles(ctx context.Context, queryText string, opts driven.SearchOptions) ([]domain.FileInfo, error) {
	cql := fmt.Sprintf("type=page AND text ~ %q", queryText)
	if opts.Container != "" {
		cql += fmt.Sprintf(" AND space = %q", opts.Container)
	}

	query := url.Values{
		"cql":    {cql},
		"expand": {"version,space"},
		"limit":  {strconv.Itoa(pageLimit(opts.Limit))},
	}

	var page contentPage
	if err := c.client.GetJSON(ctx, "/rest/api/content/search", query, &page); err != nil {
		return nil, fmt.Errorf("search pages: %w", err)
	}
	return c.toFileInfos(page.Results), nil
}

// ResolveFile fetches a page's metadata by content id.
func (c *Connector) ResolveFile(ctx context.Context, ref string) (*domain.FileInfo, error) {
	item, err := c.fetchContent(ctx, ref, "version,space")
	if err != nil {
		return nil, err
	}
	info := c.toFileInfo(*item)
	return &info, nil
}

// FetchContent returns the page body in storage (HTML) format.
func (c *Connector) FetchContent(ctx context.Context, ref string) (*domain.FileContent, error) {
	item, err := c.fetchContent(ctx, ref, "body.storage,version,space")
	if err != nil {
		return nil, err
	}
	return &domain.FileContent{
		Ref:      ref,
		Name:     item.Title,
		MIMEType: htmlMIMEType,
		Data:     []byte(item.Body.Storage.Value),
	}, nil
}

func (c *Connector) Watch(_ context.Context) (<-chan domain.FileInfo, error) {
	return nil, fmt.Errorf("%w: confluence does not support watch", domain.ErrNotImplemented)
}

func (c *Connector) Close() error { return nil }

func (c *Connector) fetchContent(ctx context.Context, ref, expand string) (*contentItem, error) {
	var item contentItem
	query := url.Values{"expand": {expand}}
	err := c.client.GetJSON(ctx, "/rest/api/content/"+url.PathEscape(ref), query, &item)
	if err != nil {
		if atlassian.IsNotFound(err) {
			return nil, fmt.Errorf("%w: page %s", domain.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("fetch page %s: %w", ref, err)
	}
	return &item, nil
}

func (c *Connector) toFileInfos(items []contentItem) []domain.FileInfo {
	infos := make([]domain.FileInfo, 0, len(items))
	for _, item := range items {
		infos = append(infos, c.toFileInfo(item))
	}
	return infos
}

func (c *Connector) toFileInfo(item contentItem) domain.FileInfo {
	return domain.FileInfo{
		ID:         item.ID,
		Name:       item.Title,
		MIMEType:   htmlMIMEType,
		ModifiedAt: item.Version.When,
		Path:       item.Space.Key + "/" + item.Title,
		WebURL:     c.client.BaseURL() + item.Links.WebUI,
		Metadata: map[string]any{
			"space_key": item.Space.Key,
		},
	}
}

func pageLimit(limit int) int {
	if limit <= 0 || limit > defaultLimit {
		return defaultLimit
	}
	return limit
}
