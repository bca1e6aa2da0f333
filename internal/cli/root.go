package cli

import (
	"github.com/spf13/cobra"

	"github.com/candle-hpc/upfchain/internal/version"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "upfchain",
		Short: "Generate stage UPF files and submit them as chained batch jobs",
		Long: `upfchain expands a plan into one unit-of-parallelism file per stage and
submits one batch job per stage, each depending on the completion of the
previous stage's job.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newBoundsCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
