// Package cli implements the submitq command line.
package cli
