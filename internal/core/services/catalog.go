package services

import (
	"fmt"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
)

// ConfigKey describes one configuration key a source type accepts.
type ConfigKey struct {
	// Key is the config map key.
	Key string

	// Label is the human-readable name shown in CLI prompts.
	Label string

	// Description explains what the key configures.
	Description string

	// Required marks keys that must be present and non-empty at connect time.
	Required bool

	// Secret marks credentials that must never be echoed back.
	Secret bool
}

// SourceDescriptor describes one supported source type.
type SourceDescriptor struct {
	// Type is the source type identifier.
	Type domain.SourceType

	// Name is the human-readable source name.
	Name string

	// Description explains what the source provides.
	Description string

	// ConfigKeys lists the accepted configuration keys.
	ConfigKeys []ConfigKey
}

var sourceCatalog = []SourceDescriptor{
	{
		Type:        domain.SourceConfluence,
		Name:        "Confluence",
		Description: "Ingest pages and attachments from Confluence spaces",
		ConfigKeys: []ConfigKey{
			{Key: "url", Label: "Instance URL", Description: "Confluence instance URL", Required: true},
			{Key: "username", Label: "Username", Description: "Account username or email", Required: true},
			{Key: "api_token", Label: "API Token", Description: "Confluence API token", Required: true, Secret: true},
		},
	},
	{
		Type:        domain.SourceGDrive,
		Name:        "Google Drive",
		Description: "Ingest documents from Google Drive",
		ConfigKeys: []ConfigKey{
			{Key: "service_account_json", Label: "Service Account JSON", Description: "Service account credentials (JSON content)", Required: true, Secret: true},
		},
	},
	{
		Type:        domain.SourceJira,
		Name:        "Jira",
		Description: "Ingest issues from Jira projects",
		ConfigKeys: []ConfigKey{
			{Key: "url", Label: "Instance URL", Description: "Jira instance URL", Required: true},
			{Key: "username", Label: "Username", Description: "Account username or email", Required: true},
			{Key: "api_token", Label: "API Token", Description: "Jira API token", Required: true, Secret: true},
		},
	},
	{
		Type:        domain.SourceSharePoint,
		Name:        "SharePoint",
		Description: "Ingest documents from SharePoint document libraries",
		ConfigKeys: []ConfigKey{
			{Key: "site_url", Label: "Site URL", Description: "SharePoint site URL", Required: true},
			{Key: "client_id", Label: "Client ID", Description: "Azure AD application client id", Required: true},
			{Key: "client_secret", Label: "Client Secret", Description: "Azure AD application client secret", Required: true, Secret: true},
			{Key: "tenant_id", Label: "Tenant ID", Description: "Azure AD tenant id", Required: true},
		},
	},
	{
		Type:        domain.SourceLocalPDF,
		Name:        "Local PDF",
		Description: "Ingest PDF files from a local directory",
		ConfigKeys: []ConfigKey{
			{Key: "base_directory", Label: "Base Directory", Description: "Directory to scan for PDF files", Required: true},
		},
	},
}

// SourceCatalog returns descriptors for every supported source type.
func SourceCatalog() []SourceDescriptor {
	out := make([]SourceDescriptor, len(sourceCatalog))
	copy(out, sourceCatalog)
	return out
}

// DescribeSource returns the descriptor for one source type.
func DescribeSource(t domain.SourceType) (*SourceDescriptor, error) {
	for i := range sourceCatalog {
		if sourceCatalog[i].Type == t {
			d := sourceCatalog[i]
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, t)
}

// ValidateSourceConfig checks that all required config keys for a source
// type are present and non-empty.
func ValidateSourceConfig(t domain.SourceType, config map[string]string) error {
	desc, err := DescribeSource(t)
	if err != nil {
		return err
	}

	var missing []string
	for _, key := range desc.ConfigKeys {
		if key.Required && config[key.Key] == "" {
			missing = append(missing, key.Key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required config keys %v", domain.ErrInvalidInput, missing)
	}
	return nil
}
