package components

import (
	"fmt"

	"finsight/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, user string, activeFilters int, fetching bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	left := " [?]help  [q]uit"
	if fetching {
		left += "  fetching…"
	}

	right := ""
	if activeFilters > 0 {
		right = fmt.Sprintf("%d filters ", activeFilters)
	}
	if user != "" {
		right += user + " "
	}

	// Pad middle
	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	bar := left
	for i := 0; i < padding; i++ {
		bar += " "
	}
	bar += right

	return style.Render(bar)
}
