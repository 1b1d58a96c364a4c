package tui

import (
	"fmt"
	"strings"

	"finsight/internal/cli"
	"finsight/internal/model"
	"finsight/internal/pipeline"
	"finsight/internal/tui/components"
	"finsight/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab indices, matching components.Tabs order.
const (
	tabGrid = iota
	tabCharts
	tabFilters
	tabSettings
)

// gridColumn pairs a sortable key with its header and cell renderer.
type gridColumn struct {
	key    string
	header string
	width  int
	cell   func(model.GridRow) string
}

func (a App) gridColumns() []gridColumn {
	cols := []gridColumn{
		{key: "name", header: "Name", width: 32, cell: func(r model.GridRow) string {
			return truncStr(r.Name(), 31)
		}},
		{key: "revenue", header: "Revenue", width: 14, cell: func(r model.GridRow) string {
			rev, _, _, _ := r.Metrics()
			return cli.FormatCurrency(rev)
		}},
		{key: "cost", header: "Cost", width: 14, cell: func(r model.GridRow) string {
			_, cost, _, _ := r.Metrics()
			return cli.FormatCurrency(cost)
		}},
		{key: "grossProfit", header: "Gross Profit", width: 14, cell: func(r model.GridRow) string {
			_, _, gp, _ := r.Metrics()
			return cli.FormatCurrency(gp)
		}},
		{key: "margin", header: "Margin", width: 9, cell: func(r model.GridRow) string {
			return cli.FormatMargin(r.Margin())
		}},
	}
	cols = append(cols, a.modeColumn())
	return cols
}

// modeColumn is the level-specific trailing column.
func (a App) modeColumn() gridColumn {
	switch a.mode {
	case model.ModeCluster:
		return gridColumn{key: "", header: "Accounts", width: 9, cell: func(r model.GridRow) string {
			return fmt.Sprintf("%d", r.Cluster.AccountCount)
		}}
	case model.ModeAccount:
		return gridColumn{key: "", header: "Projects", width: 9, cell: func(r model.GridRow) string {
			return fmt.Sprintf("%d", r.Account.ProjectCount)
		}}
	case model.ModeProject:
		return gridColumn{key: "", header: "Util", width: 7, cell: func(r model.GridRow) string {
			return cli.FormatUtilization(r.Project.Utilization)
		}}
	default:
		return gridColumn{key: "", header: "Util", width: 7, cell: func(r model.GridRow) string {
			return cli.FormatUtilization(r.Resource.Utilization)
		}}
	}
}

func (a App) renderGridTab(width, height int) string {
	t := theme.Active

	headerStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true)
	sortedHeaderStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	pickedHeaderStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true).Underline(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	cols := a.gridColumns()
	page := a.pageRows()

	var b strings.Builder

	// Header row with sort indicator on the active column
	var headers []string
	for _, col := range cols {
		label := col.header
		style := headerStyle
		if col.key != "" && col.key == a.sortState.Key {
			if a.sortState.Direction == pipeline.SortDesc {
				label += " ▼"
			} else {
				label += " ▲"
			}
			style = sortedHeaderStyle
		}
		if col.key != "" && col.key == sortColumns[a.sortCol] {
			style = pickedHeaderStyle
		}
		headers = append(headers, style.Render(padCell(label, col.width)))
	}
	b.WriteString(" " + strings.Join(headers, " "))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(" " + strings.Repeat("─", rowWidth(cols))))
	b.WriteString("\n")

	if len(page) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  No rows match the current filters."))
		b.WriteString("\n")
	}

	for i, row := range page {
		var cells []string
		for _, col := range cols {
			cells = append(cells, padCell(col.cell(row), col.width))
		}
		line := " " + strings.Join(cells, " ")
		if i == a.cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	// Footer: pager position and row counts
	b.WriteString("\n")
	footer := fmt.Sprintf(" Page %d/%d · %d of %d rows · [enter] ask nova · [s] sort",
		a.pager.Page(), a.pager.TotalPages(), len(a.visible), len(a.rows))
	b.WriteString(dimStyle.Render(footer))

	return components.ContentCard(strings.ToUpper(string(a.mode))+" VIEW", b.String(), width)
}

func padCell(s string, w int) string {
	if lipgloss.Width(s) > w {
		s = truncStr(s, w)
	}
	return s + strings.Repeat(" ", w-lipgloss.Width(s))
}

func rowWidth(cols []gridColumn) int {
	total := 0
	for _, c := range cols {
		total += c.width + 1
	}
	return total - 1
}
