package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driving"
)

var (
	filesContainer string
	filesLimit     int
	filesOffset    int
	filesSearch    string
)

var filesCmd = &cobra.Command{
	Use:   "files <connection-id>",
	Short: "Browse files available through a connection",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiles,
}

func init() {
	filesCmd.Flags().StringVar(&filesContainer, "container", "",
		"restrict to a container (space key, project key, folder id, subdirectory)")
	filesCmd.Flags().IntVar(&filesLimit, "limit", 0, "maximum number of results")
	filesCmd.Flags().IntVar(&filesOffset, "offset", 0, "number of results to skip")
	filesCmd.Flags().StringVar(&filesSearch, "search", "", "search query instead of listing")
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	opts := driving.BrowseOptions{
		Container: filesContainer,
		Limit:     filesLimit,
		Offset:    filesOffset,
	}

	var (
		files []domain.FileInfo
		err   error
	)
	if filesSearch != "" {
		files, err = app.registry.SearchFiles(cmd.Context(), args[0], filesSearch, opts)
	} else {
		files, err = app.registry.ListFiles(cmd.Context(), args[0], opts)
	}
	if err != nil {
		return err
	}

	if len(files) == 0 {
		cmd.Println("No files found.")
		return nil
	}
	for _, file := range files {
		cmd.Printf("%-24s %s\n", file.ID, file.Name)
	}
	cmd.Printf("\n%d file(s)\n", len(files))
	return nil
}
