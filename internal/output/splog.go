package output

import (
	"fmt"
	"io"
	"os"
)

// Splog writes command output, as opposed to log messages
type Splog struct {
	writer io.Writer
}

// NewSplog creates a splog writing to w, or stdout when w is nil
func NewSplog(w io.Writer) *Splog {
	if w == nil {
		w = os.Stdout
	}
	return &Splog{writer: w}
}

// Info writes a line
func (s *Splog) Info(format string, args ...any) {
	fmt.Fprintf(s.writer, format+"\n", args...)
}

// Lines writes each line
func (s *Splog) Lines(lines []string) {
	for _, line := range lines {
		fmt.Fprintln(s.writer, line)
	}
}

// Tip writes a tip message
func (s *Splog) Tip(format string, args ...any) {
	fmt.Fprintf(s.writer, "💡 "+format+"\n", args...)
}
