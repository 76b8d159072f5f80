package pipeline

import (
	"bytes"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
)

var htmlTagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

// ExtractText converts file content into plain text based on its MIME type.
// PDF pages without a text layer are skipped rather than failing the file.
func ExtractText(content *domain.FileContent) (string, error) {
	mediaType := content.MIMEType
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}

	switch {
	case mediaType == "application/pdf":
		return extractPDF(content.Data)

	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return stripHTML(string(content.Data)), nil

	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/json",
		mediaType == "application/xml":
		return strings.TrimSpace(string(content.Data)), nil

	default:
		// Unknown types pass through when they decode as text.
		if utf8.Valid(content.Data) {
			return strings.TrimSpace(string(content.Data)), nil
		}
		return "", fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidInput, content.MIMEType)
	}
}

// extractPDF pulls the plain text from every page of a PDF document.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

// stripHTML removes markup and collapses whitespace.
func stripHTML(s string) string {
	text := htmlTagPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}
