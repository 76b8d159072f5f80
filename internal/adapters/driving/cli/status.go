package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of an ingestion job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	job, err := app.manager.GetStatus(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printJob(cmd, job)
	return nil
}

// printJob renders a job snapshot.
func printJob(cmd *cobra.Command, job *domain.Job) {
	cmd.Printf("Job %s: %s\n", job.ID, job.Status)
	cmd.Printf("Collection: %s\n", job.CollectionName)
	cmd.Printf("Files: %d completed, %d failed, %d total\n",
		job.CompletedFiles(), job.FailedFiles(), len(job.Progress))

	for _, p := range job.Progress {
		switch p.Status {
		case domain.FileCompleted:
			cmd.Printf("    %-32s %s (%d chunks)\n", p.FileName, p.Status, p.ChunksCreated)
		case domain.FileFailed:
			cmd.Printf("    %-32s %s: %s\n", p.FileName, p.Status, p.Error)
		default:
			cmd.Printf("    %-32s %s\n", p.FileName, p.Status)
		}
	}
}
