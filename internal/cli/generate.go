package cli

import (
	"github.com/spf13/cobra"

	"github.com/candle-hpc/upfchain/internal/logging"
	"github.com/candle-hpc/upfchain/internal/orchestrator"
)

func newGenerateCmd() *cobra.Command {
	var opts campaignOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate stage files without submitting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(cmd, "upf_dir"); err != nil {
				return err
			}

			logger, err := logging.New(opts.logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			_, err = orchestrator.New(cmd.OutOrStdout()).
				WithLogger(logger).
				Generate(opts.config(true))
			return err
		},
	}

	opts.addPlanFlags(cmd)
	return cmd
}
