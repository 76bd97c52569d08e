package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

const (
	configSection      = "submitq"
	fastForwardOnlyKey = "fastForwardOnly"
)

// FastForwardOnly reports whether the repository restricts a branch to
// fast-forward integration. submitq.<branch>.fastForwardOnly wins over the
// repository-wide submitq.fastForwardOnly.
func (s *Store) FastForwardOnly(_ context.Context, branch string) (bool, error) {
	cfg, err := s.repo.Config()
	if err != nil {
		return false, fmt.Errorf("failed to read repository config: %w", err)
	}

	short := plumbing.ReferenceName(branch).Short()
	section := cfg.Raw.Section(configSection)
	if section.HasSubsection(short) {
		if v := section.Subsection(short).Option(fastForwardOnlyKey); v != "" {
			return parseConfigBool(v), nil
		}
	}
	return parseConfigBool(section.Option(fastForwardOnlyKey)), nil
}

// SetFastForwardOnly writes the policy for a branch, or for the whole
// repository when branch is empty
func (s *Store) SetFastForwardOnly(_ context.Context, branch string, enabled bool) error {
	cfg, err := s.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to read repository config: %w", err)
	}

	value := "false"
	if enabled {
		value = "true"
	}
	if branch == "" {
		cfg.Raw.Section(configSection).SetOption(fastForwardOnlyKey, value)
	} else {
		short := plumbing.ReferenceName(branch).Short()
		cfg.Raw.Section(configSection).Subsection(short).SetOption(fastForwardOnlyKey, value)
	}

	if err := s.repo.Storer.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to write repository config: %w", err)
	}
	return nil
}

// parseConfigBool accepts the spellings git itself treats as true
func parseConfigBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "1":
		return true
	default:
		return false
	}
}
