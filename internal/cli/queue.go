package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/internal/output"
	"submitq.dev/submitq/internal/runtime"
	"submitq.dev/submitq/internal/store"
)

// newQueueCmd creates the queue command and its subcommands
func newQueueCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and add to a branch's submit queue",
	}

	cmd.AddCommand(newQueueAddCmd(opts))
	cmd.AddCommand(newQueueSubmitCmd(opts))
	cmd.AddCommand(newQueueListCmd(opts))

	return cmd
}

func newQueueAddCmd(opts *globalOptions) *cobra.Command {
	var noSubmit bool

	cmd := &cobra.Command{
		Use:   "add <branch> <revision>",
		Short: "Create a change for a commit and submit it",
		Long: `Create a change for a commit and submit it.

The revision may be a commit id or a ref name. The commit becomes the
change's first patch set and is published under refs/changes/.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx *runtime.Context) error {
				branch := branchName(args[0])
				id, err := resolveRevision(ctx.Context, ctx.Repo, args[1])
				if err != nil {
					return err
				}
				subject, err := ctx.Repo.Subject(ctx.Context, id)
				if err != nil {
					return err
				}

				change := &store.Change{Branch: branch.String(), Subject: subject}
				ps := &store.PatchSet{ID: 1, Revision: id.String()}
				if err := ctx.Changes.CreateSubmission(ctx.Context, change, ps, !noSubmit); err != nil {
					return err
				}
				if err := ctx.Repo.PublishPatchSet(ctx.Context, int(change.ID), ps.ID, id); err != nil {
					return err
				}

				splog := output.NewSplog(cmd.OutOrStdout())
				if noSubmit {
					splog.Info("Created change %d for %s", change.ID, output.ColorBranchName(branch.Short()))
					splog.Tip("Queue it with: submitq queue submit %d", change.ID)
					return nil
				}
				splog.Info("Submitted change %d to %s", change.ID, output.ColorBranchName(branch.Short()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noSubmit, "no-submit", false, "Create the change without submitting it")

	return cmd
}

func newQueueSubmitCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <change>",
		Short: "Put an existing change at the end of its branch's submit queue",
		Long: `Put an existing change at the end of its branch's submit queue.

The change may be given by number or by a patch set ref such as
refs/changes/34/1234/2, in which case that patch set must still be the
change's current one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, patchSet, err := parseChangeArg(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx *runtime.Context) error {
				if patchSet != 0 {
					change, err := ctx.Changes.GetChange(ctx.Context, id)
					if err != nil {
						return err
					}
					if change.CurrentPatchSet != patchSet {
						return fmt.Errorf("patch set %d of change %d is outdated (current is %d)", patchSet, id, change.CurrentPatchSet)
					}
				}
				if err := ctx.Changes.Submit(ctx.Context, id); err != nil {
					return err
				}
				output.NewSplog(cmd.OutOrStdout()).Info("Submitted change %d", id)
				return nil
			})
		},
	}
}

// parseChangeArg accepts a change number or a patch set ref. patchSet is zero
// for a bare number.
func parseChangeArg(arg string) (id store.ChangeID, patchSet int, err error) {
	if strings.HasPrefix(arg, git.ChangesRefPrefix) {
		change, ps, err := git.ParsePatchSetRef(plumbing.ReferenceName(arg))
		if err != nil {
			return 0, 0, err
		}
		return store.ChangeID(change), ps, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid change number %q", arg)
	}
	return store.ChangeID(n), 0, nil
}

func newQueueListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <branch>",
		Short: "List the changes submitted for a branch in queue order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx *runtime.Context) error {
				branch := branchName(args[0])
				queue, err := ctx.Changes.Submitted(ctx.Context, branch.String())
				if err != nil {
					return err
				}

				splog := output.NewSplog(cmd.OutOrStdout())
				if len(queue) == 0 {
					splog.Info("Nothing submitted for %s", output.ColorBranchName(branch.Short()))
					return nil
				}
				for _, sc := range queue {
					rev := output.ColorDim("no revision")
					if sc.Revision != "" {
						rev = output.ColorHash(sc.Revision[:min(8, len(sc.Revision))])
					}
					splog.Info("change %d (patch set %d) %s", sc.ChangeID, sc.PatchSetID, rev)
				}
				return nil
			})
		},
	}
}

// resolveRevision turns a commit id or ref name into a commit id
func resolveRevision(ctx context.Context, repo *git.Store, rev string) (plumbing.Hash, error) {
	id := plumbing.NewHash(rev)
	if !plumbing.IsHash(rev) {
		var err error
		id, err = repo.ResolveRef(ctx, branchName(rev))
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if id.IsZero() {
			return plumbing.ZeroHash, fmt.Errorf("unknown revision %q", rev)
		}
	}

	node, err := repo.ResolveCommit(ctx, id)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return node.ID, nil
}
