// Package config manages submitq configuration.
//
// It handles:
//   - The service identity merge commits are written as
//   - Locations of the change database, log file and metrics textfile
//   - Per-branch fast-forward-only policy
package config
