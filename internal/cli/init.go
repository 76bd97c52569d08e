package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"submitq.dev/submitq/internal/config"
	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/internal/output"
	"submitq.dev/submitq/internal/store"
)

// newInitCmd creates the init command
func newInitCmd(opts *globalOptions) *cobra.Command {
	var (
		name            string
		email           string
		database        string
		fastForwardOnly []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the submitq config file and change database for a repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := git.OpenStore(opts.repo)
			if err != nil {
				return fmt.Errorf("not a git repository: %w", err)
			}

			configPath := opts.config
			if configPath == "" {
				configPath = config.Path(repo.GitDir())
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if name != "" {
				cfg.ServiceName = &name
			}
			if email != "" {
				cfg.ServiceEmail = &email
			}
			if database != "" {
				cfg.DatabasePath = &database
			}
			for _, branch := range fastForwardOnly {
				cfg.SetFastForwardOnly(branch, true)
			}
			if err := cfg.Save(configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			changes, err := store.Open(cfg.Database())
			if err != nil {
				return err
			}
			if err := changes.Close(); err != nil {
				return err
			}

			splog := output.NewSplog(cmd.OutOrStdout())
			splog.Info("Initialized submitq in %s", repo.GitDir())
			splog.Info("  config:   %s", configPath)
			splog.Info("  database: %s", cfg.Database())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name merge commits are written as")
	cmd.Flags().StringVar(&email, "email", "", "Email merge commits are written as")
	cmd.Flags().StringVar(&database, "database", "", "Change database path, relative to the config file")
	cmd.Flags().StringSliceVar(&fastForwardOnly, "fast-forward-only", nil, "Branches that only accept fast-forwards")

	return cmd
}
