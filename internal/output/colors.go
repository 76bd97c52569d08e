package output

import "submitq.dev/submitq/internal/submit"

// statusColors maps each merge status to an ANSI color
var statusColors = map[submit.StatusCode]string{
	submit.StatusCleanMerge:        "2", // green
	submit.StatusAlreadyMerged:     "8", // gray
	submit.StatusPathConflict:      "1", // red
	submit.StatusMissingDependency: "3", // yellow
	submit.StatusNoPatchSet:        "5", // magenta
	submit.StatusRevisionGone:      "5",
}

// statusIcons prefix each change in a run summary
var statusIcons = map[submit.StatusCode]string{
	submit.StatusCleanMerge:        "✓",
	submit.StatusAlreadyMerged:     "=",
	submit.StatusPathConflict:      "✗",
	submit.StatusMissingDependency: "…",
	submit.StatusNoPatchSet:        "?",
	submit.StatusRevisionGone:      "?",
}
