// Package gdrive ingests documents from Google Drive using a service
// account. File references are Drive file ids, containers are folder ids.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Google Workspace MIME types that need export instead of download.
const (
	mimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	mimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	mimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	mimeTypeFolder       = "application/vnd.google-apps.folder"

	exportMimeText = "text/plain"
	exportMimeCSV  = "text/csv"
)

// maxContentSize bounds downloaded file content (10MB).
const maxContentSize = 10 * 1024 * 1024

const defaultPageSize = 50

const fileFields = "id, name, mimeType, size, modifiedTime, webViewLink"

// Connector reads files from Google Drive on behalf of a service account.
type Connector struct {
	svc    *drive.Service
	logger *slog.Logger
}

// Builder returns a ConnectorBuilder for the factory.
func Builder(logger *slog.Logger) driven.ConnectorBuilder {
	return func(ctx context.Context, conn domain.Connection) (driven.Connector, error) {
		return New(ctx, []byte(conn.Config["service_account_json"]), logger)
	}
}

// New creates a connector authenticated with service account credentials.
func New(ctx context.Context, credentialsJSON []byte, logger *slog.Logger) (*Connector, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("%w: service_account_json is required", domain.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	svc, err := drive.NewService(ctx, option.WithTokenSource(jwtConfig.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Connector{
		svc:    svc,
		logger: logger.With("component", "connector.gdrive"),
	}, nil
}

func (c *Connector) Type() domain.SourceType { return domain.SourceGDrive }

func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsSearch:     true,
		SupportsValidation: true,
		SupportsPagination: true,
	}
}

// Validate performs an authenticated no-op request.
func (c *Connector) Validate(ctx context.Context) error {
	_, err := c.svc.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("drive validation: %w", err)
	}
	return nil
}

// ListFiles returns non-folder files, optionally inside one folder.
func (c *Connector) ListFiles(ctx context.Context, opts driven.ListOptions) ([]domain.FileInfo, error) {
	query := fmt.Sprintf("mimeType != '%s' and trashed = false", mimeTypeFolder)
	if opts.Container != "" {
		query = fmt.Sprintf("'%s' in parents and %s", opts.Container, query)
	}
	return c.list(ctx, query, opts.Limit)
}

// SearchFiles matches the query against file names and content.
func (c *Connector) SearchFiles(ctx context.Context, queryText string, opts driven.SearchOptions) ([]domain.FileInfo, error) {
	escaped := strings.ReplaceAll(queryText, "'", `\'`)
	query := fmt.Sprintf("fullText contains '%s' and mimeType != '%s' and trashed = false",
		escaped, mimeTypeFolder)
	if opts.Container != "" {
		query = fmt.Sprintf("'%s' in parents and %s", opts.Container, query)
	}
	return c.list(ctx, query, opts.Limit)
}

// ResolveFile fetches one file's metadata by id.
func (c *Connector) ResolveFile(ctx context.Context, ref string) (*domain.FileInfo, error) {
	file, err := c.svc.Files.Get(ref).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, c.wrapError(err, ref)
	}
	info := toFileInfo(file)
	return &info, nil
}

// FetchContent downloads a file's bytes. Google Workspace documents are
// exported to a portable format first.
func (c *Connector) FetchContent(ctx context.Context, ref string) (*domain.FileContent, error) {
	file, err := c.svc.Files.Get(ref).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, c.wrapError(err, ref)
	}
	if file.MimeType == mimeTypeFolder {
		return nil, fmt.Errorf("%w: %s is a folder", domain.ErrInvalidInput, ref)
	}

	data, mimeType, err := c.download(ctx, file)
	if err != nil {
		return nil, err
	}
	return &domain.FileContent{
		Ref:      ref,
		Name:     file.Name,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

func (c *Connector) Watch(_ context.Context) (<-chan domain.FileInfo, error) {
	return nil, fmt.Errorf("%w: gdrive does not support watch", domain.ErrNotImplemented)
}

func (c *Connector) Close() error { return nil }

func (c *Connector) list(ctx context.Context, query string, limit int) ([]domain.FileInfo, error) {
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}

	result, err := c.svc.Files.List().
		Q(query).
		PageSize(int64(limit)).
		Fields(googleapi.Field("files(" + fileFields + ")")).
		OrderBy("modifiedTime desc").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list drive files: %w", err)
	}

	infos := make([]domain.FileInfo, 0, len(result.Files))
	for _, file := range result.Files {
		infos = append(infos, toFileInfo(file))
	}
	return infos, nil
}

// download fetches file bytes, exporting Workspace documents.
func (c *Connector) download(ctx context.Context, file *drive.File) ([]byte, string, error) {
	exportMime := ""
	switch file.MimeType {
	case mimeTypeGoogleDoc, mimeTypeGoogleSlides:
		exportMime = exportMimeText
	case mimeTypeGoogleSheet:
		exportMime = exportMimeCSV
	}

	var (
		body io.ReadCloser
		mime = file.MimeType
	)
	if exportMime != "" {
		resp, err := c.svc.Files.Export(file.Id, exportMime).Context(ctx).Download()
		if err != nil {
			return nil, "", fmt.Errorf("export %s: %w", file.Id, err)
		}
		body = resp.Body
		mime = exportMime
	} else {
		resp, err := c.svc.Files.Get(file.Id).Context(ctx).Download()
		if err != nil {
			return nil, "", fmt.Errorf("download %s: %w", file.Id, err)
		}
		body = resp.Body
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxContentSize))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", file.Id, err)
	}
	return data, mime, nil
}

func (c *Connector) wrapError(err error, ref string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 404 {
		return fmt.Errorf("%w: file %s", domain.ErrNotFound, ref)
	}
	return fmt.Errorf("drive file %s: %w", ref, err)
}

func toFileInfo(file *drive.File) domain.FileInfo {
	var modified time.Time
	if t, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
		modified = t
	}
	return domain.FileInfo{
		ID:         file.Id,
		Name:       file.Name,
		MIMEType:   file.MimeType,
		Size:       file.Size,
		ModifiedAt: modified,
		WebURL:     file.WebViewLink,
	}
}
