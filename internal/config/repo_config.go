package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the config file name inside the git directory
const FileName = "submitq.json"

const (
	defaultServiceName  = "Submit Queue"
	defaultServiceEmail = "submitq@localhost"
	defaultDatabase     = "submitq.db"
)

// RepoConfig represents the repository configuration
type RepoConfig struct {
	ServiceName     *string         `json:"serviceName,omitempty"`
	ServiceEmail    *string         `json:"serviceEmail,omitempty"`
	DatabasePath    *string         `json:"databasePath,omitempty"`
	LogFile         *string         `json:"logFile,omitempty"`
	MetricsTextfile *string         `json:"metricsTextfile,omitempty"`
	FastForwardOnly map[string]bool `json:"fastForwardOnly,omitempty"`

	// dir is where relative paths are resolved from
	dir string
}

// Path returns the default config location for a git directory
func Path(gitDir string) string {
	return filepath.Join(gitDir, FileName)
}

// Load reads the configuration file. A missing file yields the defaults.
func Load(configPath string) (*RepoConfig, error) {
	config := &RepoConfig{dir: filepath.Dir(configPath)}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Save writes the configuration file
func (c *RepoConfig) Save(configPath string) error {
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, configJSON, 0600)
}

// Identity returns the name and email merge commits are written as
func (c *RepoConfig) Identity() (name, email string) {
	name, email = defaultServiceName, defaultServiceEmail
	if c.ServiceName != nil && *c.ServiceName != "" {
		name = *c.ServiceName
	}
	if c.ServiceEmail != nil && *c.ServiceEmail != "" {
		email = *c.ServiceEmail
	}
	return name, email
}

// Database returns the change database path
func (c *RepoConfig) Database() string {
	if c.DatabasePath != nil && *c.DatabasePath != "" {
		return c.resolve(*c.DatabasePath)
	}
	return c.resolve(defaultDatabase)
}

// LogFilePath returns the log file path, empty when file logging is off
func (c *RepoConfig) LogFilePath() string {
	if c.LogFile == nil || *c.LogFile == "" {
		return ""
	}
	return c.resolve(*c.LogFile)
}

// MetricsPath returns the metrics textfile path, empty when metrics are off
func (c *RepoConfig) MetricsPath() string {
	if c.MetricsTextfile == nil || *c.MetricsTextfile == "" {
		return ""
	}
	return c.resolve(*c.MetricsTextfile)
}

// IsFastForwardOnly reports whether a branch is restricted to fast-forwards.
// Branches can be given by full ref name or short name.
func (c *RepoConfig) IsFastForwardOnly(branch string) bool {
	if c.FastForwardOnly[branch] {
		return true
	}
	return c.FastForwardOnly[strings.TrimPrefix(branch, "refs/heads/")]
}

// SetFastForwardOnly updates the policy for a branch
func (c *RepoConfig) SetFastForwardOnly(branch string, enabled bool) {
	if c.FastForwardOnly == nil {
		c.FastForwardOnly = make(map[string]bool)
	}
	branch = strings.TrimPrefix(branch, "refs/heads/")
	if enabled {
		c.FastForwardOnly[branch] = true
	} else {
		delete(c.FastForwardOnly, branch)
	}
}

func (c *RepoConfig) resolve(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}
