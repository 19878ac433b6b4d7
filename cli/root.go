package cli

import (
	"github.com/Noah-Huppert/golog"
	"github.com/spf13/cobra"
)

// rootLogger returns the logger every command derives its logger from
func rootLogger() golog.Logger {
	return golog.NewStdLogger("runboard-api").GetChild("cli")
}

// RootCmd returns the runboard-api command with every subcommand added
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "runboard-api",
		Short: "Test run reporting API",
		Long: `runboard-api records test runs filed by team leads and answers the
report queries of their coordinators.

Configuration is read from APP_ prefixed environment variables.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(SeedCmd())
	rootCmd.AddCommand(ReportCmd())
	rootCmd.AddCommand(RecomputeCmd())

	return rootCmd
}
