// Package jira ingests issues from Jira Cloud via its REST API.
// File references are issue keys, containers are project keys.
package jira

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/vectorbridge/internal/connectors/atlassian"
	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

const (
	textMIMEType = "text/plain"
	defaultLimit = 50
)

// Connector reads issues from one Jira instance.
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
		logger: logger.With("component", "connector.jira"),
	}, nil
}

func (c *Connector) Type() domain.SourceType { return domain.SourceJira }

func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsSearch:       true,
		SupportsValidation:   true,
		SupportsPagination:   true,
		SupportsRateLimiting: true,
	}
}

type searchResult struct {
	Issues []issue `json:"issues"`
}

type issue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		Updated     string `json:"updated"`
		Project     struct {
			Key string `json:"key"`
		} `json:"project"`
		Comment struct {
			Comments []struct {
				Author struct {
					DisplayName string `json:"displayName"`
				} `json:"author"`
				Body string `json:"body"`
			} `json:"comments"`
		} `json:"comment"`
	} `json:"fields"`
}

// jiraTimeLayout is the timestamp format Jira Cloud uses in issue fields.
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// Validate performs an authenticated no-op request.
func (c *Connector) Validate(ctx context.Context) error {
	var out struct {
		AccountID string `json:"accountId"`
	}
	if err := c.client.GetJSON(ctx, "/rest/api/2/myself", nil, &out); err != nil {
		return fmt.Errorf("jira validation: %w", err)
	}
	return nil
}

// ListFiles returns issues, optionally restricted to one project key.
func (c *Connector) ListFiles(ctx context.Context, opts driven.ListOptions) ([]domain.FileInfo, error) {
	jql := "ORDER BY updated DESC"
	if opts.Container != "" {
		jql = fmt.Sprintf("project = %q %s", opts.Container, jql)
	}
	return c.search(ctx, jql, opts.Limit, opts.Offset)
}

// SearchFiles runs a JQL text search across issues.
func (c *Connector) SearchFiles(ctx context.Context, queryText string, opts driven.SearchOptions) ([]domain.FileInfo, error) {
	jql := fmt.Sprintf("text ~ %q", queryText)
	if opts.Container != "" {
		jql = fmt.Sprintf("project = %q AND %s", opts.Container, jql)
	}
	return c.search(ctx, jql+" ORDER BY updated DESC", opts.Limit, 0)
}

// ResolveFile fetches an issue's metadata by key.
func (c *Connector) ResolveFile(ctx context.Context, ref string) (*domain.FileInfo, error) {
	item, err := c.fetchIssue(ctx, ref, "summary,updated,project")
	if err != nil {
		return nil, err
	}
	info := c.toFileInfo(*item)
	return &info, nil
}

// FetchContent returns the issue rendered as plain text: summary,
// description and all comments.
func (c *Connector) FetchContent(ctx context.Context, ref string) (*domain.FileContent, error) {
	item, err := c.fetchIssue(ctx, ref, "summary,description,updated,project,comment")
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(item.Key + ": " + item.Fields.Summary + "\n")
	if item.Fields.Description != "" {
		sb.WriteString("\n" + item.Fields.Description + "\n")
	}
	for _, comment := range item.Fields.Comment.Comments {
		sb.WriteString("\nComment")
		if comment.Author.DisplayName != "" {
			sb.WriteString(" by " + comment.Author.DisplayName)
		}
		sb.WriteString(":\n" + comment.Body + "\n")
	}

	return &domain.FileContent{
		Ref:      ref,
		Name:     item.Key + " " + item.Fields.Summary,
		MIMEType: textMIMEType,
		Data:     []byte(sb.String()),
	}, nil
}

func (c *Connector) Watch(_ context.Context) (<-chan domain.FileInfo, error) {
	return nil, fmt.Errorf("%w: jira does not support watch", domain.ErrNotImplemented)
}

func (c *Connector) Close() error { return nil }

func (c *Connector) search(ctx context.Context, jql string, limit, offset int) ([]domain.FileInfo, error) {
	if limit <= 0 || limit > defaultLimit {
		limit = defaultLimit
	}
	query := url.Values{
		"jql":        {jql},
		"fields":     {"summary,updated,project"},
		"maxResults": {strconv.Itoa(limit)},
		"startAt":    {strconv.Itoa(offset)},
	}

	var result searchResult
	if err := c.client.GetJSON(ctx, "/rest/api/2/search", query, &result); err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	infos := make([]domain.FileInfo, 0, len(result.Issues))
	for _, item := range result.Issues {
		infos = append(infos, c.toFileInfo(item))
	}
	return infos, nil
}

func (c *Connector) fetchIssue(ctx context.Context, ref, fields string) (*issue, error) {
	var item issue
	query := url.Values{"fields": {fields}}
	err := c.client.GetJSON(ctx, "/rest/api/2/issue/"+url.PathEscape(ref), query, &item)
	if err != nil {
		if atlassian.IsNotFound(err) {
			return nil, fmt.Errorf("%w: issue %s", domain.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("fetch issue %s: %w", ref, err)
	}
	return &item, nil
}

func (c *Connector) toFileInfo(item issue) domain.FileInfo {
	var modified time.Time
	if t, err := time.Parse(jiraTimeLayout, item.Fields.Updated); err == nil {
		modified = t
	}
	return domain.FileInfo{
		ID:         item.Key,
		Name:       item.Key + " " + item.Fields.Summary,
		MIMEType:   textMIMEType,
		ModifiedAt: modified,
		Path:       item.Fields.Project.Key + "/" + item.Key,
		WebURL:     c.client.BaseURL() + "/browse/" + item.Key,
		Metadata: map[string]any{
			"project_key": item.Fields.Project.Key,
		},
	}
}
