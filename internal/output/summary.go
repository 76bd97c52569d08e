package output

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"submitq.dev/submitq/internal/store"
	"submitq.dev/submitq/internal/submit"
)

// FormatResult renders the outcome of a merge run, one line per queued change
func FormatResult(res *submit.Result) []string {
	branch := ColorBranchName(res.Branch.Name.Short())

	var lines []string
	if res.Branch.Moved() {
		lines = append(lines, fmt.Sprintf("%s: %s → %s %s",
			branch, ColorHash(shortHash(res.Branch.OldTip)), ColorHash(shortHash(res.Branch.NewTip)),
			ColorDim("("+res.RefUpdate.String()+")")))
	} else {
		lines = append(lines, fmt.Sprintf("%s: nothing to merge", branch))
	}

	for _, sc := range res.Submitted {
		label := fmt.Sprintf("change %d (patch set %d)", sc.ChangeID, sc.PatchSetID)
		code, ok := res.Status(sc.ChangeID)
		if !ok {
			lines = append(lines, ColorDim(fmt.Sprintf("  · %s no status", label)))
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			ColorStatus(statusIcons[code], code), label, ColorStatus(code.String(), code)))
	}

	if len(res.Submitted) > 0 {
		lines = append(lines, fmt.Sprintf("%s merged, %d not merged",
			Bold(fmt.Sprint(res.Merged())), len(res.Statuses)-res.Merged()))
	}
	if res.ReconcileErr != nil {
		lines = append(lines, ColorError(fmt.Sprintf("some statuses were not saved: %v", res.ReconcileErr)))
	}
	return lines
}

// FormatRuns renders recorded runs, newest first
func FormatRuns(runs []*store.RunRecord) []string {
	lines := make([]string, 0, len(runs))
	for _, r := range runs {
		tips := ColorDim("no update")
		if r.NewTip != "" && r.NewTip != r.OldTip {
			tips = fmt.Sprintf("%s → %s", ColorHash(shortID(r.OldTip)), ColorHash(shortID(r.NewTip)))
		}
		line := fmt.Sprintf("%s %s %s merged %d, failed %d",
			ColorDim(r.StartedAt.Local().Format(time.DateTime)), shortID(r.RunID), tips, r.Merged, r.Failed)
		if r.Err != "" {
			line += " " + ColorError(r.Err)
		}
		lines = append(lines, line)
	}
	return lines
}

func shortHash(h plumbing.Hash) string {
	if h.IsZero() {
		return "(new)"
	}
	return shortID(h.String())
}

func shortID(s string) string {
	if s == "" {
		return "(new)"
	}
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
