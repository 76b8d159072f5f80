package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "List registered connections",
	RunE:  runConnections,
}

var connectionsRemoveCmd = &cobra.Command{
	Use:   "remove <connection-id>",
	Short: "Remove a connection",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnectionsRemove,
}

func init() {
	connectionsCmd.AddCommand(connectionsRemoveCmd)
	rootCmd.AddCommand(connectionsCmd)
}

func runConnections(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	conns, err := app.registry.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(conns) == 0 {
		cmd.Println("No connections registered.")
		return nil
	}

	for _, conn := range conns {
		cmd.Printf("%s\n", conn.ID)
		cmd.Printf("    source:    %s\n", conn.SourceType)
		if instance, ok := conn.Metadata["instance"]; ok {
			cmd.Printf("    instance:  %v\n", instance)
		}
		cmd.Printf("    last used: %s\n", conn.LastUsed.Format(time.RFC3339))
	}
	return nil
}

func runConnectionsRemove(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	if err := app.registry.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}
