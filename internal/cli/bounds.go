package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/candle-hpc/upfchain/internal/plan"
)

func newBoundsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "bounds <plan>",
		Short: "Print the root, maximum stages and maximum nodes of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := plan.LoadBounds(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			fmt.Fprintf(out, "Root: %s\n", b.Root)
			fmt.Fprintf(out, "Max stages: %d\n", b.MaxStages)
			fmt.Fprintf(out, "Max nodes: %d\n", b.MaxNodes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print bounds as JSON")
	return cmd
}
