package domain

import "fmt"

// SourceType identifies a kind of document repository.
type SourceType string

// Supported source types.
const (
	SourceConfluence SourceType = "confluence"
	SourceGDrive     SourceType = "gdrive"
	SourceJira       SourceType = "jira"
	SourceSharePoint SourceType = "sharepoint"
	SourceLocalPDF   SourceType = "local_pdf"
)

// AllSourceTypes returns the supported source types in a stable order.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceConfluence,
		SourceGDrive,
		SourceJira,
		SourceSharePoint,
		SourceLocalPDF,
	}
}

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceConfluence, SourceGDrive, SourceJira, SourceSharePoint, SourceLocalPDF:
		return true
	}
	return false
}

// ParseSourceType converts a string into a SourceType.
// Returns ErrUnsupportedType for unknown values.
func ParseSourceType(s string) (SourceType, error) {
	t := SourceType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
	return t, nil
}
