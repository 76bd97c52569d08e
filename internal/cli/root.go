package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	"submitq.dev/submitq/internal/output"
	"submitq.dev/submitq/internal/runtime"
)

// globalOptions are the persistent flags every command shares
type globalOptions struct {
	repo    string
	config  string
	debug   bool
	quiet   bool
	noColor bool
}

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "submitq",
		Short: "submitq merges the changes submitted for a branch",
		Long: `submitq merges the changes submitted for a branch.

Each run takes the branch's submit queue, fast-forwards or merges every
change that can be integrated, moves the branch once, and records the outcome
on each change.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.noColor || os.Getenv("NO_COLOR") != "" {
				output.DisableColor()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.repo, "repo", "C", ".", "Path to the git repository")
	rootCmd.PersistentFlags().StringVar(&opts.config, "config", "", "Path to the config file (default <gitdir>/submitq.json)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Show debug output")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress log output on the console")

	// Add subcommands
	rootCmd.AddCommand(newInitCmd(opts))
	rootCmd.AddCommand(newMergeCmd(opts))
	rootCmd.AddCommand(newQueueCmd(opts))
	rootCmd.AddCommand(newRunsCmd(opts))

	return rootCmd
}

// run opens the repository for a command and releases it afterwards
func run(cmd *cobra.Command, opts *globalOptions, fn func(ctx *runtime.Context) error) (err error) {
	ctx, err := runtime.Open(cmd.Context(), runtime.Options{
		RepoPath:   opts.repo,
		ConfigPath: opts.config,
		Debug:      opts.debug,
		Quiet:      opts.quiet,
		Stderr:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ctx.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx)
}

// branchName accepts a short branch name or a full ref name
func branchName(name string) plumbing.ReferenceName {
	if strings.HasPrefix(name, "refs/") {
		return plumbing.ReferenceName(name)
	}
	return plumbing.NewBranchReferenceName(name)
}
