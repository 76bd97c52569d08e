package runtime

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"submitq.dev/submitq/internal/config"
	"submitq.dev/submitq/internal/git"
	"submitq.dev/submitq/internal/logging"
	"submitq.dev/submitq/internal/metrics"
	"submitq.dev/submitq/internal/store"
	"submitq.dev/submitq/internal/submit"
)

// Options selects the repository and how to log
type Options struct {
	// RepoPath is the repository, or any directory inside its work tree
	RepoPath string
	// ConfigPath overrides <gitdir>/submitq.json
	ConfigPath string

	Debug bool
	Quiet bool
	// Stderr receives console logging, os.Stderr when nil
	Stderr io.Writer
}

// Context provides access to the repository, change store and output for commands
type Context struct {
	Context    context.Context
	Config     *config.RepoConfig
	ConfigPath string
	Repo       *git.Store
	Changes    *store.Store
	Logger     *logging.Logger
	Metrics    *metrics.PrometheusRecorder
}

// Open opens the repository at opts.RepoPath and everything configured for it
func Open(ctx context.Context, opts Options) (*Context, error) {
	repo, err := git.OpenStore(opts.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.Path(repo.GitDir())
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Writer:  opts.Stderr,
		LogFile: cfg.LogFilePath(),
		Debug:   opts.Debug,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return nil, err
	}

	changes, err := store.Open(cfg.Database())
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	return &Context{
		Context:    ctx,
		Config:     cfg,
		ConfigPath: configPath,
		Repo:       repo,
		Changes:    changes,
		Logger:     logger,
		Metrics:    metrics.NewPrometheusRecorder(),
	}, nil
}

// Policy combines the config file and git config fast-forward-only settings
func (c *Context) Policy() submit.Policy {
	fromConfig := submit.PolicyFunc(func(_ context.Context, branch string) (bool, error) {
		return c.Config.IsFastForwardOnly(branch), nil
	})
	return submit.AnyPolicy{fromConfig, c.Repo}
}

// Engine builds a merge engine over the opened resources
func (c *Context) Engine() *submit.Engine {
	name, email := c.Config.Identity()
	return submit.New(submit.Options{
		Source:       c.Changes,
		Changes:      c.Changes,
		Objects:      c.Repo,
		Policy:       c.Policy(),
		Runs:         c.Changes,
		ServiceName:  name,
		ServiceEmail: email,
		Metrics:      c.Metrics,
		Logger:       c.Logger,
	})
}

// Close writes the metrics textfile, if configured, and releases everything
// Open acquired
func (c *Context) Close() error {
	var errs *multierror.Error
	if path := c.Config.MetricsPath(); path != "" {
		if err := c.Metrics.WriteTextfile(path); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := c.Changes.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to close change store: %w", err))
	}
	if err := c.Logger.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}
