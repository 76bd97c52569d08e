package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"submitq.dev/submitq/internal/submit"
)

// ColorStatus renders text in the color of a merge status
func ColorStatus(text string, code submit.StatusCode) string {
	color, ok := statusColors[code]
	if !ok {
		return text
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Render(text)
}

// ColorBranchName colors a branch name
func ColorBranchName(branchName string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Render(branchName)
}

// ColorHash colors a commit id
func ColorHash(hash string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("3")).
		Render(hash)
}

// ColorDim makes text dim/gray
func ColorDim(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(text)
}

// ColorError colors text red
func ColorError(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("1")).
		Render(text)
}

// Bold renders text bold
func Bold(text string) string {
	return lipgloss.NewStyle().Bold(true).Render(text)
}

// DisableColor renders every style as plain text
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
