package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorbridge/internal/core/services"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List supported source types",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	for _, desc := range services.SourceCatalog() {
		cmd.Printf("%-12s %s\n", desc.Type, desc.Description)
		for _, key := range desc.ConfigKeys {
			required := "optional"
			if key.Required {
				required = "required"
			}
			cmd.Printf("    %-24s %s (%s)\n", key.Key, key.Description, required)
		}
		cmd.Println()
	}
	return nil
}
