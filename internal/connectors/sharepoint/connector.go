// Package sharepoint ingests documents from SharePoint document
// libraries through the Microsoft Graph API, authenticating with the
// client credentials flow. File references are drive item ids,
// containers are folder item ids.
package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

const (
	defaultGraphURL = "https://graph.microsoft.com/v1.0"
	graphScope      = "https://graph.microsoft.com/.default"
	tokenURLFormat  = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

	// maxContentSize bounds downloaded file content (10MB).
	maxContentSize = 10 * 1024 * 1024

	defaultTimeout = 30 * time.Second
)

// Config holds the SharePoint connection settings.
type Config struct {
	SiteURL      string
	ClientID     string
	ClientSecret string
	TenantID     string
}

// Connector reads files from one SharePoint site's default document library.
type Connector struct {
	graphURL   string
	siteURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	siteID string
}

// Builder returns a ConnectorBuilder for the factory.
func Builder(logger *slog.Logger) driven.ConnectorBuilder {
	return func(ctx context.Context, conn domain.Connection) (driven.Connector, error) {
		return New(ctx, Config{
			SiteURL:      conn.Config["site_url"],
			ClientID:     conn.Config["client_id"],
			ClientSecret: conn.Config["client_secret"],
			TenantID:     conn.Config["tenant_id"],
		}, logger)
	}
}

// New creates a connector using the client credentials flow.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Connector, error) {
	if cfg.SiteURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.TenantID == "" {
		return nil, fmt.Errorf("%w: site_url, client_id, client_secret and tenant_id are required",
			domain.ErrInvalidInput)
	}
	if _, err := url.Parse(cfg.SiteURL); err != nil {
		return nil, fmt.Errorf("%w: invalid site_url: %v", domain.ErrInvalidInput, err)
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf(tokenURLFormat, cfg.TenantID),
		Scopes:       []string{graphScope},
	}
	httpClient := creds.Client(ctx)
	httpClient.Timeout = defaultTimeout

	return newWithClient(cfg.SiteURL, defaultGraphURL, httpClient, logger), nil
}

// newWithClient wires a connector against an arbitrary Graph endpoint.
func newWithClient(siteURL, graphURL string, httpClient *http.Client, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		graphURL:   strings.TrimRight(graphURL, "/"),
		siteURL:    strings.TrimRight(siteURL, "/"),
		httpClient: httpClient,
		logger:     logger.With("component", "connector.sharepoint"),
	}
}

func (c *Connector) Type() domain.SourceType { return domain.SourceSharePoint }

func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsSearch:     true,
		SupportsValidation: true,
		SupportsPagination: true,
	}
}

// driveItem is the wire shape of a Graph drive item.
type driveItem struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Size                 int64     `json:"size"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime"`
	WebURL               string    `json:"webUrl"`
	File                 *struct {
		MimeType string `json:"mimeType"`
	} `json:"file"`
	Folder *struct{} `json:"folder"`
	Parent struct {
		Path string `json:"path"`
	} `json:"parentReference"`
}

type driveItemPage struct {
	Value []driveItem `json:"value"`
}

// Validate resolves the site, proving both credentials and site URL.
func (c *Connector) Validate(ctx context.Context) error {
	if _, err := c.resolveSiteID(ctx); err != nil {
		return fmt.Errorf("sharepoint validation: %w", err)
	}
	return nil
}

// ListFiles returns files from the default document library, optionally
// inside one folder item.
func (c *Connector) ListFiles(ctx context.Context, opts driven.ListOptions) ([]domain.FileInfo, error) {
	siteID, err := c.resolveSiteID(ctx)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/sites/%s/drive/root/children", siteID)
	if opts.Container != "" {
		path = fmt.Sprintf("/sites/%s/drive/items/%s/children", siteID, url.PathEscape(opts.Container))
	}

	var page driveItemPage
	if err := c.getJSON(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("list drive items: %w", err)
	}
	return filesOnly(page.Value, opts.Limit), nil
}

// SearchFiles searches the document library.
func (c *Connector) SearchFiles(ctx context.Context, queryText string, opts driven.SearchOptions) ([]domain.FileInfo, error) {
	siteID, err := c.resolveSiteID(ctx)
	if err != nil {
		return nil, err
	}

	escaped := strings.ReplaceAll(queryText, "'", "''")
	path := fmt.Sprintf("/sites/%s/drive/root/search(q='%s')", siteID, url.PathEscape(escaped))

	var page driveItemPage
	if err := c.getJSON(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("search drive items: %w", err)
	}
	return filesOnly(page.Value, opts.Limit), nil
}

// ResolveFile fetches one drive item's metadata by id.
func (c *Connector) ResolveFile(ctx context.Context, ref string) (*domain.FileInfo, error) {
	item, err := c.fetchItem(ctx, ref)
	if err != nil {
		return nil, err
	}
	info := toFileInfo(*item)
	return &info, nil
}

// FetchContent downloads a drive item's bytes.
func (c *Connector) FetchContent(ctx context.Context, ref string) (*domain.FileContent, error) {
	item, err := c.fetchItem(ctx, ref)
	if err != nil {
		return nil, err
	}
	if item.Folder != nil {
		return nil, fmt.Errorf("%w: %s is a folder", domain.ErrInvalidInput, ref)
	}

	siteID, err := c.resolveSiteID(ctx)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/sites/%s/drive/items/%s/content",
		c.graphURL, siteID, url.PathEscape(ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, graphError(resp, endpoint)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}

	mimeType := "application/octet-stream"
	if item.File != nil && item.File.MimeType != "" {
		mimeType = item.File.MimeType
	}
	return &domain.FileContent{
		Ref:      ref,
		Name:     item.Name,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

func (c *Connector) Watch(_ context.Context) (<-chan domain.FileInfo, error) {
	return nil, fmt.Errorf("%w: sharepoint does not support watch", domain.ErrNotImplemented)
}

func (c *Connector) Close() error { return nil }

// resolveSiteID converts the configured site URL into a Graph site id,
// caching the result for the connector's lifetime.
func (c *Connector) resolveSiteID(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.siteID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	parsed, err := url.Parse(c.siteURL)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: invalid site url %q", domain.ErrInvalidInput, c.siteURL)
	}
	sitePath := strings.TrimRight(parsed.Path, "/")

	var site struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/sites/%s:%s", parsed.Host, sitePath)
	if sitePath == "" {
		path = "/sites/" + parsed.Host
	}
	if err := c.getJSON(ctx, path, &site); err != nil {
		return "", fmt.Errorf("resolve site: %w", err)
	}
	if site.ID == "" {
		return "", fmt.Errorf("resolve site: empty site id for %s", c.siteURL)
	}

	c.mu.Lock()
	c.siteID = site.ID
	c.mu.Unlock()
	return site.ID, nil
}

func (c *Connector) fetchItem(ctx context.Context, ref string) (*driveItem, error) {
	siteID, err := c.resolveSiteID(ctx)
	if err != nil {
		return nil, err
	}

	var item driveItem
	path := fmt.Sprintf("/sites/%s/drive/items/%s", siteID, url.PathEscape(ref))
	if err := c.getJSON(ctx, path, &item); err != nil {
		if strings.Contains(err.Error(), "404") {
			return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("fetch item %s: %w", ref, err)
	}
	return &item, nil
}

func (c *Connector) getJSON(ctx context.Context, path string, out any) error {
	endpoint := c.graphURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return graphError(resp, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode graph response: %w", err)
	}
	return nil
}

func graphError(resp *http.Response, endpoint string) error {
	message, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("graph API error %d: %s (URL: %s)",
		resp.StatusCode, strings.TrimSpace(string(message)), endpoint)
}

func filesOnly(items []driveItem, limit int) []domain.FileInfo {
	infos := make([]domain.FileInfo, 0, len(items))
	for _, item := range items {
		if item.Folder != nil {
			continue
		}
		infos = append(infos, toFileInfo(item))
		if limit > 0 && len(infos) == limit {
			break
		}
	}
	return infos
}

func toFileInfo(item driveItem) domain.FileInfo {
	mimeType := "application/octet-stream"
	if item.File != nil && item.File.MimeType != "" {
		mimeType = item.File.MimeType
	}
	return domain.FileInfo{
		ID:         item.ID,
		Name:       item.Name,
		MIMEType:   mimeType,
		Size:       item.Size,
		ModifiedAt: item.LastModifiedDateTime,
		Path:       item.Parent.Path,
		WebURL:     item.WebURL,
	}
}
