package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TrashScientist/contract-features/batch"
)

var (
	processInput  string
	processOutput string
	processJobs   int
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Calculate features for every row of a CSV file",
	Long: `Read applications (id, application_date, contracts) from a CSV file and
write one feature row per application.

Rows that cannot be processed are written with the sentinel values
-3, -1, -1 instead of aborting the run.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processInput, "input", "data.csv", "input CSV file containing contract data")
	processCmd.Flags().StringVar(&processOutput, "output", "contract_features.csv", "output CSV file for calculated features")
	processCmd.Flags().IntVarP(&processJobs, "jobs", "j", 0, "concurrent row workers (overrides batch.workers)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	workers := a.cfg.Batch.Workers
	if processJobs > 0 {
		workers = processJobs
	}

	processor := batch.NewProcessor(a.features,
		batch.WithWorkers(workers),
		batch.WithProgressEvery(a.cfg.Batch.ProgressEvery),
		batch.WithFailureRecorder(a.metrics),
		batch.WithLogger(a.logger),
	)

	summary, err := processor.ProcessFile(cmd.Context(), processInput, processOutput)
	if err != nil {
		return fmt.Errorf("error processing CSV file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d rows (%d failed) in %s -> %s\n",
		summary.Rows, summary.Failed, summary.Duration.Round(time.Millisecond), processOutput)
	return nil
}
