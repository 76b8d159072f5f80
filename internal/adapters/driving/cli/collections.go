package cli

import (
	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Show vector store collection statistics",
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	stats, err := app.manager.CollectionStats(cmd.Context())
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		cmd.Println("No collections.")
		return nil
	}

	cmd.Printf("%-24s %12s %8s %s\n", "COLLECTION", "VECTORS", "SIZE", "STATUS")
	for name, stat := range stats {
		cmd.Printf("%-24s %12d %8d %s\n", name, stat.TotalVectors, stat.VectorSize, stat.Status)
	}
	return nil
}
