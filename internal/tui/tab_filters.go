package tui

import (
	"fmt"
	"strings"

	"finsight/internal/filter"
	"finsight/internal/model"
	"finsight/internal/tui/components"
	"finsight/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// filtersState holds the filter tab's cursor and margin threshold editor.
type filtersState struct {
	cursor        int
	editingMargin bool
	marginMode    filter.MarginMode
	marginInput   textinput.Model
}

func newFiltersState() filtersState {
	in := textinput.New()
	in.Placeholder = "e.g. 25"
	in.CharLimit = 7
	in.Width = 10
	return filtersState{marginMode: filter.MarginGreater, marginInput: in}
}

// filterEntry is one selectable line on the filter tab. Entries with a
// non-empty section start a new group. Select-all entries toggle the whole
// section: everything when partially selected, back to empty when full.
type filterEntry struct {
	section  string
	field    filter.Field
	label    string
	value    string
	year     int
	isYear   bool
	isAll    bool
	all      []string
	allYears []int
	isMargin bool
	isClear  bool
	selected bool
}

// filterEntries flattens every option group into the cursor order the tab
// renders.
func (a App) filterEntries() []filterEntry {
	var entries []filterEntry

	add := func(section string, field filter.Field, opts []model.FilterOption, selected []string) {
		if len(opts) == 0 {
			return
		}
		keys := make([]string, 0, len(opts))
		allPicked := true
		for _, o := range opts {
			keys = append(keys, o.Key())
			if !containsMatch(selected, o) {
				allPicked = false
			}
		}
		entries = append(entries, filterEntry{
			section:  section,
			field:    field,
			label:    "(select all)",
			isAll:    true,
			all:      keys,
			selected: allPicked,
		})
		for _, o := range opts {
			entries = append(entries, filterEntry{
				field:    field,
				label:    optionLabel(o),
				value:    o.Key(),
				selected: containsMatch(selected, o),
			})
		}
	}

	addPlain := func(section string, field filter.Field, values, selected []string) {
		if len(values) == 0 {
			return
		}
		allPicked := true
		for _, v := range values {
			if !containsVal(selected, v) {
				allPicked = false
				break
			}
		}
		entries = append(entries, filterEntry{
			section:  section,
			field:    field,
			label:    "(select all)",
			isAll:    true,
			all:      values,
			selected: allPicked,
		})
		for _, v := range values {
			entries = append(entries, filterEntry{
				field:    field,
				label:    v,
				value:    v,
				selected: containsVal(selected, v),
			})
		}
	}

	add("Clusters", filter.FieldClusters, a.clusterOpts, a.filters.Clusters)
	add("Accounts", filter.FieldAccounts, a.resolver.AccountOptions(), a.filters.Accounts)
	add("Projects", filter.FieldProjects, a.resolver.ProjectOptions(), a.filters.Projects)

	if years := a.availableYears(); len(years) > 0 {
		allPicked := true
		for _, y := range years {
			if !containsIntVal(a.filters.Years, y) {
				allPicked = false
				break
			}
		}
		entries = append(entries, filterEntry{
			section:  "Years",
			label:    "(select all)",
			isYear:   true,
			isAll:    true,
			allYears: years,
			selected: allPicked,
		})
		for _, y := range years {
			entries = append(entries, filterEntry{
				label:    fmt.Sprintf("%d", y),
				year:     y,
				isYear:   true,
				selected: containsIntVal(a.filters.Years, y),
			})
		}
	}

	addPlain("Months", filter.FieldMonths, model.Months, a.filters.Months)
	addPlain("Analyze By", filter.FieldAnalyzeBy, a.kpiOptionsOrDefault(), a.filters.AnalyzeBy)

	entries = append(entries,
		filterEntry{section: "Margin", isMargin: true, label: marginLabel(a.filters.MarginRange)},
		filterEntry{section: "Actions", isClear: true, label: "Clear all filters"},
	)
	return entries
}

func (a App) kpiOptionsOrDefault() []string {
	if len(a.kpiOpts) > 0 {
		return a.kpiOpts
	}
	return model.KPIOptions
}

func (a App) updateFilterKeys(key string) (tea.Model, tea.Cmd) {
	entries := a.filterEntries()

	switch key {
	case "j", "down":
		if a.fState.cursor < len(entries)-1 {
			a.fState.cursor++
		}
	case "k", "up":
		if a.fState.cursor > 0 {
			a.fState.cursor--
		}
	case " ", "enter":
		if a.fState.cursor >= len(entries) {
			return a, nil
		}
		e := entries[a.fState.cursor]
		switch {
		case e.isClear:
			a.filters = a.filters.ClearAll()
			return a, a.applyFilterChange()
		case e.isAll && e.isYear:
			if e.selected {
				a.filters = a.filters.SetYears(nil)
			} else {
				a.filters = a.filters.SetYears(e.allYears)
			}
			return a, a.applyFilterChange()
		case e.isAll:
			if e.selected {
				a.filters = a.filters.SetAll(e.field, nil)
			} else {
				a.filters = a.filters.SetAll(e.field, e.all)
			}
			return a, a.applyFilterChange()
		case e.isMargin:
			a.fState.editingMargin = true
			a.fState.marginInput.Reset()
			a.fState.marginInput.Focus()
			return a, a.fState.marginInput.Cursor.BlinkCmd()
		case e.isYear:
			a.filters = a.filters.ToggleYear(e.year)
			return a, a.applyFilterChange()
		default:
			a.filters = a.filters.Toggle(e.field, e.value)
			return a, a.applyFilterChange()
		}
	case "C":
		a.filters = a.filters.ClearAll()
		return a, a.applyFilterChange()
	}
	return a, nil
}

func (a App) updateMarginInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.fState.editingMargin = false
		a.fState.marginInput.Blur()
		return a, nil
	case "tab":
		if a.fState.marginMode == filter.MarginGreater {
			a.fState.marginMode = filter.MarginLesser
		} else {
			a.fState.marginMode = filter.MarginGreater
		}
		return a, nil
	case "enter":
		a.filters = a.filters.SetMarginThreshold(a.fState.marginMode, a.fState.marginInput.Value())
		a.fState.editingMargin = false
		a.fState.marginInput.Blur()
		return a, a.applyFilterChange()
	}
	var cmd tea.Cmd
	a.fState.marginInput, cmd = a.fState.marginInput.Update(msg)
	return a, cmd
}

func (a App) renderFiltersTab(width, height int) string {
	t := theme.Active

	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	itemStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	checkedStyle := lipgloss.NewStyle().Foreground(t.GreenBright)

	entries := a.filterEntries()

	var lines []string
	for i, e := range entries {
		if e.section != "" {
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, sectionStyle.Render(" "+e.section))
		}

		mark := "[ ]"
		markStyle := dimStyle
		if e.selected {
			mark = "[x]"
			markStyle = checkedStyle
		}
		if e.isMargin || e.isClear {
			mark = "   "
		}

		label := e.label
		if e.isMargin && a.fState.editingMargin {
			label = fmt.Sprintf("%s threshold (%s, tab flips): %s",
				e.label, a.fState.marginMode, a.fState.marginInput.View())
		}

		line := fmt.Sprintf("  %s %s", markStyle.Render(mark), label)
		if i == a.fState.cursor {
			line = selectedStyle.Render(fmt.Sprintf("  %s %s", mark, label))
		} else {
			line = itemStyle.Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "",
		dimStyle.Render(" [space] toggle · [tab] flip margin side · [C] clear all"))

	// Keep the cursor line visible on short terminals
	body := strings.Join(scrollToCursor(lines, a.fState.cursor, height-6), "\n")
	return components.ContentCard("FILTERS", body, width)
}

// scrollToCursor trims the line list so the cursor's line stays on screen.
func scrollToCursor(lines []string, cursor, visible int) []string {
	if visible <= 0 || len(lines) <= visible {
		return lines
	}
	// The cursor index counts entries, not rendered lines; approximate by
	// scanning for the cursor's rendered position.
	start := cursor - visible/2
	if start < 0 {
		start = 0
	}
	if start+visible > len(lines) {
		start = len(lines) - visible
	}
	return lines[start : start+visible]
}

func marginLabel(r [2]float64) string {
	return fmt.Sprintf("Margin range: %.0f%% to %.0f%%", r[0], r[1])
}

func optionLabel(o model.FilterOption) string {
	if o.Name != "" {
		return o.Name
	}
	return o.Key()
}

func containsMatch(selected []string, o model.FilterOption) bool {
	for _, s := range selected {
		if o.Matches(s) {
			return true
		}
	}
	return false
}

func containsVal(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsIntVal(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}
