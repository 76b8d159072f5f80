package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
)

var connectSettings []string

var connectCmd = &cobra.Command{
	Use:   "connect <source-type>",
	Short: "Connect to a document repository",
	Long: `Registers a connection to a document repository. Configuration is
passed as repeated --set key=value flags; run "vectorbridge sources" to see
the keys each source type accepts.`,
	Example: `  vectorbridge connect local_pdf --set base_directory=/srv/docs
  vectorbridge connect confluence --set url=https://acme.atlassian.net/wiki \
      --set username=bot@acme.com --set api_token=TOKEN`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().StringArrayVar(&connectSettings, "set", nil,
		"configuration entry as key=value (repeatable)")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	cfg := make(map[string]string, len(connectSettings))
	for _, setting := range connectSettings {
		key, value, found := strings.Cut(setting, "=")
		if !found || key == "" {
			return fmt.Errorf("invalid --set %q, expected key=value", setting)
		}
		cfg[key] = value
	}

	conn, err := app.registry.Connect(cmd.Context(), domain.SourceType(args[0]), cfg)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}

	cmd.Printf("Connected: %s\n", conn.ID)
	if instance, ok := conn.Metadata["instance"]; ok {
		cmd.Printf("Instance:  %v\n", instance)
	}
	return nil
}
