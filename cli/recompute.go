package cli

import (
	"fmt"

	"github.com/kscout/runboard-api/jobs"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RecomputeCmd returns the recompute command
func RecomputeCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Repair stored submission statuses",
		Long: `Scan every stored submission and rewrite its status where it does not match
the status derived from its sections.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := rootLogger().GetChild("recompute")

			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.Close()

			job := jobs.RecomputeStatusJob{
				Ctx:         a.Ctx,
				Logger:      logger,
				Submissions: a.Submissions,
			}

			result, err := job.Recompute(jobs.RecomputeStatusJobDefinition{DryRun: dryRun})
			if err != nil {
				return err
			}

			for _, id := range result.Stale {
				fmt.Printf("%s %s\n", color.New(color.FgYellow).Sprint("STALE"), id)
			}

			fmt.Printf("scanned %d submissions, %d stale, %s\n", result.Scanned,
				len(result.Stale), color.New(color.FgGreen).Sprintf("%d repaired", result.Repaired))

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only list stale submissions")

	return cmd
}
