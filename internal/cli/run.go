package cli

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/candle-hpc/upfchain/internal/logging"
	"github.com/candle-hpc/upfchain/internal/orchestrator"
	"github.com/candle-hpc/upfchain/internal/submit"
	"github.com/candle-hpc/upfchain/internal/tui"
)

// tuiProgramOptions are passed to the monitor started by run --tui.
var tuiProgramOptions []tea.ProgramOption

func newRunCmd() *cobra.Command {
	var opts campaignOptions
	var dryRun, useTUI bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate stage files and submit one chained job per stage",
		Long: `Generate one UPF file per stage from the plan and submit each stage through
the submit script. Every job after the first waits for the previous job to
complete. The chain stops at the first stage whose submission prints no
JOB_ID= line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(cmd, "upf_dir", "site", "submit_script"); err != nil {
				return err
			}

			logger, err := logging.New(opts.logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg := opts.config(dryRun)
			if useTUI {
				// The monitor owns the terminal while the chain runs, so the
				// chain log is held back and printed once it exits.
				var chainLog bytes.Buffer
				err := tui.RunChain(ctx, func(ctx context.Context, obs submit.Observer) error {
					return orchestrator.New(&chainLog).
						WithLogger(logger).
						WithObserver(obs).
						Run(ctx, cfg)
				}, tuiProgramOptions...)
				if _, werr := chainLog.WriteTo(cmd.OutOrStdout()); werr != nil && err == nil {
					err = werr
				}
				return err
			}

			return orchestrator.New(cmd.OutOrStdout()).
				WithLogger(logger).
				Run(ctx, cfg)
		},
	}

	opts.addPlanFlags(cmd)
	opts.addSubmitFlags(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate stage files without submitting jobs")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "Show a live monitor while submitting")
	return cmd
}
