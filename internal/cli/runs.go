package cli

import (
	"github.com/spf13/cobra"

	"submitq.dev/submitq/internal/output"
	"submitq.dev/submitq/internal/runtime"
)

// newRunsCmd creates the runs command
func newRunsCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs <branch>",
		Short: "List recorded merge runs for a branch, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx *runtime.Context) error {
				runs, err := ctx.Changes.Runs(ctx.Context, branchName(args[0]).String())
				if err != nil {
					return err
				}
				if limit > 0 && len(runs) > limit {
					runs = runs[:limit]
				}

				splog := output.NewSplog(cmd.OutOrStdout())
				if len(runs) == 0 {
					splog.Info("No runs recorded for %s", branchName(args[0]).Short())
					return nil
				}
				splog.Lines(output.FormatRuns(runs))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many runs, 0 for all")

	return cmd
}
