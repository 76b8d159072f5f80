// Package localpdf ingests PDF files from a directory on the local
// filesystem. File references are paths relative to the configured base
// directory.
package localpdf

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

const pdfMIMEType = "application/pdf"

// Connector reads PDF files below a base directory.
type Connector struct {
	baseDir string
	logger  *slog.Logger
}

// Builder returns a ConnectorBuilder for the factory.
func Builder(logger *slog.Logger) driven.ConnectorBuilder {
	return func(_ context.Context, conn domain.Connection) (driven.Connector, error) {
		return New(conn.Config["base_directory"], logger)
	}
}

// New creates a connector rooted at baseDir.
func New(baseDir string, logger *slog.Logger) (*Connector, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: base_directory is required", domain.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}
	return &Connector{
		baseDir: abs,
		logger:  logger.With("component", "connector.local_pdf"),
	}, nil
}

func (c *Connector) Type() domain.SourceType { return domain.SourceLocalPDF }

func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsSearch:     true,
		SupportsValidation: true,
		SupportsWatch:      true,
		SupportsPagination: true,
	}
}

// Validate checks that the base directory exists and is readable.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.baseDir)
	if err != nil {
		return fmt.Errorf("base directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("base directory %s is not a directory", c.baseDir)
	}
	return nil
}

// ListFiles walks the base directory and returns every PDF file, sorted
// by relative path. Container narrows the walk to a subdirectory.
func (c *Connector) ListFiles(ctx context.Context, opts driven.ListOptions) ([]domain.FileInfo, error) {
	files, err := c.scan(ctx, opts.Container)
	if err != nil {
		return nil, err
	}
	return paginate(files, opts.Limit, opts.Offset), nil
}

// SearchFiles matches the query case-insensitively against file names.
func (c *Connector) SearchFiles(ctx context.Context, query string, opts driven.SearchOptions) ([]domain.FileInfo, error) {
	files, err := c.scan(ctx, opts.Container)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var hits []domain.FileInfo
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Name), needle) ||
			strings.Contains(strings.ToLower(f.Path), needle) {
			hits = append(hits, f)
		}
	}
	return paginate(hits, opts.Limit, 0), nil
}

// ResolveFile returns metadata for one file reference.
func (c *Connector) ResolveFile(_ context.Context, ref string) (*domain.FileInfo, error) {
	path, err := c.safePath(ref)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
		}
		return nil, err
	}
	fi := c.fileInfo(ref, info)
	return &fi, nil
}

// FetchContent reads the file's bytes.
func (c *Connector) FetchContent(_ context.Context, ref string) (*domain.FileContent, error) {
	path, err := c.safePath(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return &domain.FileContent{
		Ref:      ref,
		Name:     filepath.Base(ref),
		MIMEType: pdfMIMEType,
		Data:     data,
	}, nil
}

// Watch emits FileInfo for PDFs created or modified under the base
// directory until ctx is cancelled.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.FileInfo, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(c.baseDir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", c.baseDir, err)
	}

	out := make(chan domain.FileInfo)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if !isPDF(event.Name) {
					continue
				}
				info, err := os.Stat(event.Name)
				if err != nil || info.IsDir() {
					continue
				}
				rel, err := filepath.Rel(c.baseDir, event.Name)
				if err != nil {
					continue
				}
				select {
				case out <- c.fileInfo(rel, info):
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warn("watch error", "err", err)
			}
		}
	}()
	return out, nil
}

func (c *Connector) Close() error { return nil }

// scan walks the tree below container collecting PDF files.
func (c *Connector) scan(ctx context.Context, container string) ([]domain.FileInfo, error) {
	root := c.baseDir
	if container != "" {
		var err error
		root, err = c.safePath(container)
		if err != nil {
			return nil, err
		}
	}

	var files []domain.FileInfo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !isPDF(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(c.baseDir, path)
		if err != nil {
			return err
		}
		files = append(files, c.fileInfo(rel, info))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, container)
		}
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// safePath resolves a reference below the base directory, rejecting
// traversal outside it.
func (c *Connector) safePath(ref string) (string, error) {
	path := filepath.Join(c.baseDir, filepath.FromSlash(ref))
	rel, err := filepath.Rel(c.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: reference %q escapes base directory", domain.ErrInvalidInput, ref)
	}
	return path, nil
}

func (c *Connector) fileInfo(rel string, info fs.FileInfo) domain.FileInfo {
	rel = filepath.ToSlash(rel)
	return domain.FileInfo{
		ID:         rel,
		Name:       filepath.Base(rel),
		MIMEType:   pdfMIMEType,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		Path:       rel,
	}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func paginate(files []domain.FileInfo, limit, offset int) []domain.FileInfo {
	if offset > 0 {
		if offset >= len(files) {
			return []domain.FileInfo{}
		}
		files = files[offset:]
	}
	if limit > 0 && limit < len(files) {
		files = files[:limit]
	}
	return files
}
