package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driving"
	"github.com/custodia-labs/vectorbridge/internal/core/services"
)

var (
	ingestCollection string
	ingestNoWait     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <connection-id> <file-ref>...",
	Short: "Ingest files into the vector store",
	Long: `Creates an ingestion job for the given file references and waits for
it to finish, printing progress. With --no-wait the job id is printed
immediately and the job runs in the background of the server process.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCollection, "collection", "",
		"target collection (default from config)")
	ingestCmd.Flags().BoolVar(&ingestNoWait, "no-wait", false,
		"do not wait for the job to finish")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	job, err := app.manager.CreateJob(cmd.Context(), driving.CreateJobRequest{
		ConnectionID:   args[0],
		FileRefs:       args[1:],
		CollectionName: ingestCollection,
	})
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	cmd.Printf("Job %s created (%d files)\n", job.ID, len(job.Progress))
	if ingestNoWait {
		return nil
	}

	lastDone := -1
	final, err := services.PollJobStatus(cmd.Context(), app.manager, job.ID, services.PollOptions{
		Interval:    app.cfg.Ingestion.PollInterval.Std(),
		MaxAttempts: app.cfg.Ingestion.PollAttempts,
		OnPoll: func(snapshot *domain.Job) {
			done := snapshot.CompletedFiles() + snapshot.FailedFiles()
			if done != lastDone {
				cmd.Printf("\rProcessing... %d/%d files", done, len(snapshot.Progress))
				lastDone = done
			}
		},
	})
	cmd.Println()
	if err != nil {
		if errors.Is(err, domain.ErrPollTimeout) {
			cmd.Printf("Job %s still running; check later with: vectorbridge status %s\n",
				job.ID, job.ID)
			return nil
		}
		return err
	}

	printJob(cmd, final)
	if final.Status == domain.JobFailed {
		return fmt.Errorf("job %s failed", final.ID)
	}
	return nil
}
