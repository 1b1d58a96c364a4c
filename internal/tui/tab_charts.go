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

func (a App) renderChartsTab(width int) string {
	t := theme.Active

	rows := pipeline.FilterRows(a.flatRows, a.filters, pipeline.ModeFlat)

	var b strings.Builder
	b.WriteString(a.renderKPICards(width))
	b.WriteString("\n")

	trend := pipeline.MonthlyTrend(rows)
	util := pipeline.UtilizationTrend(rows)

	halfW := width / 2

	revenueCard := components.ContentCard("REVENUE BY MONTH",
		renderTrendChart(trend, t.Accent, components.CardInnerWidth(halfW)), halfW)
	utilCard := components.ContentCard("UTILIZATION TREND",
		renderUtilSparkline(util, components.CardInnerWidth(halfW)), halfW)
	b.WriteString(components.CardRow([]string{revenueCard, utilCard}))
	b.WriteString("\n")

	clusterCard := components.ContentCard("REVENUE BY CLUSTER",
		a.renderClusterBreakdown(rows, components.CardInnerWidth(halfW)), halfW)
	marginCard := components.ContentCard("MARGIN BY ACCOUNT",
		a.renderMarginBreakdown(rows, components.CardInnerWidth(halfW)), halfW)
	b.WriteString(components.CardRow([]string{clusterCard, marginCard}))

	return b.String()
}

// renderKPICards shows the summary metrics for the current filter set,
// with month-over-month deltas where the trend offers two months.
func (a App) renderKPICards(width int) string {
	k := a.kpis

	var dRevenue, dCost, dProfit string
	trend := pipeline.MonthlyTrend(pipeline.FilterRows(a.flatRows, a.filters, pipeline.ModeFlat))
	if len(trend) >= 2 {
		prev, last := trend[len(trend)-2], trend[len(trend)-1]
		dRevenue = cli.FormatDelta(last.Revenue, prev.Revenue)
		dCost = cli.FormatDelta(last.Cost, prev.Cost)
		dProfit = cli.FormatDelta(last.Profit, prev.Profit)
	}

	cards := []struct{ Label, Value, Delta string }{
		{Label: "Revenue", Value: cli.FormatCurrency(k.Revenue), Delta: dRevenue},
		{Label: "Cost", Value: cli.FormatCurrency(k.Cost), Delta: dCost},
		{Label: "Gross Profit", Value: cli.FormatCurrency(k.GrossProfit), Delta: dProfit},
		{Label: "Margin", Value: cli.FormatMargin(k.Margin)},
		{Label: "Headcount", Value: cli.FormatNumber(int64(k.Headcount))},
		{Label: "Utilization", Value: cli.FormatPercent(k.Utilization)},
	}
	return components.MetricCardRow(cards, width)
}

func renderTrendChart(trend []pipeline.TrendPoint, color lipgloss.Color, width int) string {
	if len(trend) == 0 {
		return emptyChartNote()
	}
	values := make([]float64, len(trend))
	labels := make([]string, len(trend))
	for i, p := range trend {
		values[i] = p.Revenue
		labels[i] = shortMonthLabel(p.Month)
	}
	return components.BarChart(values, labels, color, width, 8)
}

func renderUtilSparkline(trend []pipeline.TrendPoint, width int) string {
	t := theme.Active
	if len(trend) == 0 {
		return emptyChartNote()
	}

	values := make([]float64, len(trend))
	for i, p := range trend {
		values[i] = p.Utilization
	}
	// Row utilization is on the 0-100 scale; the bar takes a fraction.
	latest := values[len(values)-1] / 100

	var b strings.Builder
	b.WriteString(components.Sparkline(values, t.Cyan))
	b.WriteString("\n\n")
	b.WriteString(components.UtilizationBar("Current", latest, 10, width-22))
	return b.String()
}

func (a App) renderClusterBreakdown(rows []model.PnLRow, width int) string {
	t := theme.Active
	entries := pipeline.RevenueByCluster(rows, a.clusterNameFor)
	if len(entries) == 0 {
		return emptyChartNote()
	}

	barStyle := lipgloss.NewStyle().Foreground(t.Accent)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	maxVal := entries[0].Value
	barW := width - 36
	if barW < 8 {
		barW = 8
	}

	var b strings.Builder
	for _, e := range entries {
		n := 0
		if maxVal > 0 {
			n = int(e.Value / maxVal * float64(barW))
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			labelStyle.Render(padCell(truncStr(e.Name, 18), 18)),
			barStyle.Render(strings.Repeat("█", n)+strings.Repeat("░", barW-n)),
			valueStyle.Render(cli.FormatCurrency(e.Value)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a App) renderMarginBreakdown(rows []model.PnLRow, width int) string {
	t := theme.Active
	entries := pipeline.MarginByAccount(rows, a.accountNameFor)
	if len(entries) == 0 {
		return emptyChartNote()
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	var b strings.Builder
	for _, e := range entries {
		color := lipgloss.Color(components.ColorForPct(marginHealth(e.Value)))
		valStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
		fmt.Fprintf(&b, "%s %s\n",
			labelStyle.Render(padCell(truncStr(e.Name, 22), 22)),
			valStyle.Render(cli.FormatMargin(e.Value)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// marginHealth maps a 0-100 margin to the 0-1 health scale the progress
// colors use, treating 50% margin as fully healthy.
func marginHealth(margin float64) float64 {
	h := margin / 50
	if h < 0 {
		return 0
	}
	if h > 1 {
		return 1
	}
	return h
}

func (a App) clusterNameFor(id string) string {
	return optionName(a.clusterOpts, id)
}

func (a App) accountNameFor(id string) string {
	return optionName(a.resolver.AccountOptions(), id)
}

func optionName(opts []model.FilterOption, id string) string {
	for _, o := range opts {
		if o.Matches(id) {
			if o.Name != "" {
				return o.Name
			}
			break
		}
	}
	return id
}

func emptyChartNote() string {
	return lipgloss.NewStyle().Foreground(theme.Active.TextDim).
		Render("No data for the current filters.")
}

// shortMonthLabel compresses "Jan 2024" to "Jan" for bar chart axes.
func shortMonthLabel(label string) string {
	if i := strings.IndexByte(label, ' '); i > 0 {
		return label[:i]
	}
	return label
}
