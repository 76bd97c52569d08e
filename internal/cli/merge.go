package cli

import (
	"github.com/spf13/cobra"

	"submitq.dev/submitq/internal/output"
	"submitq.dev/submitq/internal/runtime"
)

// newMergeCmd creates the merge command
func newMergeCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge the changes submitted for a branch",
		Long: `Merge the changes submitted for a branch.

Changes that build on each other are fast-forwarded or merged together;
independent changes get a merge commit each. A change that conflicts with the
branch is sent back to its owner with a message. The branch is only updated if
nobody else moved it during the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx *runtime.Context) error {
				res, err := ctx.Engine().Merge(ctx.Context, args[0])
				if err != nil {
					return err
				}
				output.NewSplog(cmd.OutOrStdout()).Lines(output.FormatResult(res))
				return nil
			})
		},
	}

	return cmd
}
