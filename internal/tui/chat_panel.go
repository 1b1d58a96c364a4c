package tui

import (
	"strings"

	"finsight/internal/model"
	"finsight/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// renderChatPanel draws the Ask Nova overlay: the transcript, a context
// line when a row is attached, and the question input.
func (a App) renderChatPanel(width, height int) string {
	t := theme.Active

	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 2).
		Width(width - 4)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	contextStyle := lipgloss.NewStyle().
		Foreground(t.Yellow).
		Background(t.Surface)

	userStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	novaStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	textStyle := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	innerW := width - 10

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Ask Nova"))
	if a.pendingRow != nil {
		b.WriteString(contextStyle.Render("  · " + truncStr(a.pendingRow.Name(), 40)))
	}
	b.WriteString("\n\n")

	msgs := a.chatSession.Messages()
	if len(msgs) == 0 {
		b.WriteString(dimStyle.Render("Ask about revenue, margins, utilization, or a selected row."))
		b.WriteString("\n")
	}

	// Show only as many turns as fit the panel
	maxLines := height - 10
	transcript := renderTranscript(msgs, innerW, userStyle, novaStyle, textStyle)
	lines := strings.Split(transcript, "\n")
	if len(lines) > maxLines && maxLines > 0 {
		lines = lines[len(lines)-maxLines:]
	}
	b.WriteString(strings.Join(lines, "\n"))

	if a.chatSession.Busy() {
		b.WriteString("\n")
		b.WriteString(a.spinner.View())
		b.WriteString(dimStyle.Render(" thinking…"))
	}

	b.WriteString("\n\n")
	b.WriteString(a.chatInput.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("[enter] send · [esc] close"))

	panel := panelStyle.Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func renderTranscript(msgs []model.ChatMessage, width int, userStyle, novaStyle, textStyle lipgloss.Style) string {
	var b strings.Builder
	for _, m := range msgs {
		switch m.Role {
		case model.RoleUser:
			b.WriteString(userStyle.Render("You"))
		default:
			b.WriteString(novaStyle.Render("Nova"))
		}
		b.WriteString("\n")
		content := m.Content
		if content == "" {
			content = "…"
		}
		b.WriteString(textStyle.Render(wrapText(content, width)))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// wrapText soft-wraps on spaces, breaking overlong words hard.
func wrapText(s string, width int) string {
	if width < 10 {
		width = 10
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			for len(word) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				out = append(out, word[:width])
				word = word[width:]
			}
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
