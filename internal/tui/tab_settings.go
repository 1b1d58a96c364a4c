package tui

import (
	"fmt"
	"strings"

	"finsight/internal/config"
	"finsight/internal/tui/components"
	"finsight/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// settingsState holds the settings tab's editable config copy. Edits are
// written back to disk on each change; connection changes take effect on
// the next launch.
type settingsState struct {
	cfg     config.Config
	cursor  int
	editing bool
	input   textinput.Model
	saveErr error
}

func newSettingsState() settingsState {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	in := textinput.New()
	in.CharLimit = 200
	in.Width = 48
	return settingsState{cfg: cfg, input: in}
}

// settingsField describes one editable line on the settings tab.
type settingsField struct {
	label string
	get   func(*config.Config) string
	set   func(*config.Config, string)
	cycle bool
}

var settingsFields = []settingsField{
	{
		label: "API base URL",
		get:   func(c *config.Config) string { return c.API.BaseURL },
		set:   func(c *config.Config, v string) { c.API.BaseURL = v },
	},
	{
		label: "AI endpoint",
		get:   func(c *config.Config) string { return c.AI.Endpoint },
		set:   func(c *config.Config, v string) { c.AI.Endpoint = v },
	},
	{
		label: "AI model",
		get:   func(c *config.Config) string { return c.AI.Model },
		set:   func(c *config.Config, v string) { c.AI.Model = v },
	},
	{
		label: "Theme",
		get:   func(c *config.Config) string { return c.Appearance.Theme },
		cycle: true,
	},
}

func (a App) updateSettingsKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		if a.settings.cursor < len(settingsFields)-1 {
			a.settings.cursor++
		}
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
	case "enter":
		f := settingsFields[a.settings.cursor]
		if f.cycle {
			a.cycleTheme()
			return a, nil
		}
		a.settings.editing = true
		a.settings.input.SetValue(f.get(&a.settings.cfg))
		a.settings.input.Focus()
		return a, a.settings.input.Cursor.BlinkCmd()
	}
	return a, nil
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.settings.editing = false
		a.settings.input.Blur()
		return a, nil
	case "enter":
		f := settingsFields[a.settings.cursor]
		val := strings.TrimSpace(a.settings.input.Value())
		if val != "" && f.set != nil {
			f.set(&a.settings.cfg, val)
			a.settings.saveErr = config.Save(a.settings.cfg)
		}
		a.settings.editing = false
		a.settings.input.Blur()
		return a, nil
	}
	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// cycleTheme advances to the next theme, applies it live, and persists it.
func (a *App) cycleTheme() {
	current := a.settings.cfg.Appearance.Theme
	next := theme.All[0].Name
	for i, t := range theme.All {
		if t.Name == current {
			next = theme.All[(i+1)%len(theme.All)].Name
			break
		}
	}
	a.settings.cfg.Appearance.Theme = next
	theme.SetActive(next)
	a.settings.saveErr = config.Save(a.settings.cfg)
}

func (a App) renderSettingsTab(width int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	errStyle := lipgloss.NewStyle().Foreground(t.Red)

	var b strings.Builder
	for i, f := range settingsFields {
		value := f.get(&a.settings.cfg)
		if a.settings.editing && i == a.settings.cursor {
			value = a.settings.input.View()
		}
		line := fmt.Sprintf("  %s  %s", padCell(f.label, 14), value)
		if i == a.settings.cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(labelStyle.Render(fmt.Sprintf("  %s  ", padCell(f.label, 14))))
			b.WriteString(valueStyle.Render(value))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  [enter] edit / cycle · [esc] cancel"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Config: " + config.ConfigPath()))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Connection changes apply on next launch."))
	if a.settings.saveErr != nil {
		b.WriteString("\n\n")
		b.WriteString(errStyle.Render("  Save failed: " + truncStr(a.settings.saveErr.Error(), 60)))
	}

	return components.ContentCard("SETTINGS", b.String(), width)
}
