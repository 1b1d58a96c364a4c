package pipeline

import (
	"fmt"
	"sort"

	"finsight/internal/model"
)

// maxTrendGroups caps month/year trend series to the most recent groups
// after chronological sort.
const maxTrendGroups = 12

// maxMarginAccounts caps the account-margin breakdown to the top entries.
const maxMarginAccounts = 10

// TrendPoint is one month bucket of a time series.
type TrendPoint struct {
	Month       string
	Revenue     float64
	Cost        float64
	Profit      float64
	Utilization float64
}

// BreakdownEntry is one named slice of a breakdown chart.
type BreakdownEntry struct {
	Name  string
	Value float64
}

// NameResolver maps a cluster or account id to its display name, falling
// back to the id itself. The dashboard builds these from the loaded option
// lists.
type NameResolver func(id string) string

// IdentityNames is the resolver used when no option list is loaded.
func IdentityNames(id string) string { return id }

// MonthlyTrend groups rows by year-month (zero-padded by calendar index so
// keys sort chronologically), sums revenue, cost, and profit per group, and
// returns the most recent twelve groups oldest-first.
func MonthlyTrend(rows []model.PnLRow) []TrendPoint {
	type bucket struct {
		label                 string
		revenue, cost, profit float64
	}
	grouped := make(map[string]*bucket)

	for _, row := range rows {
		key := monthKey(row)
		b, ok := grouped[key]
		if !ok {
			b = &bucket{label: monthLabel(row)}
			grouped[key] = b
		}
		b.revenue += row.Revenue
		b.cost += row.Cost
		b.profit += row.GrossProfit
	}

	keys := sortedKeys(grouped)
	keys = lastN(keys, maxTrendGroups)

	out := make([]TrendPoint, 0, len(keys))
	for _, k := range keys {
		b := grouped[k]
		out = append(out, TrendPoint{
			Month:   b.label,
			Revenue: b.revenue,
			Cost:    b.cost,
			Profit:  b.profit,
		})
	}
	return out
}

// UtilizationTrend averages utilization per year-month group, most recent
// twelve groups oldest-first.
func UtilizationTrend(rows []model.PnLRow) []TrendPoint {
	type bucket struct {
		label string
		sum   float64
		count int
	}
	grouped := make(map[string]*bucket)

	for _, row := range rows {
		key := monthKey(row)
		b, ok := grouped[key]
		if !ok {
			b = &bucket{label: monthLabel(row)}
			grouped[key] = b
		}
		b.sum += row.Utilization
		b.count++
	}

	keys := sortedKeys(grouped)
	keys = lastN(keys, maxTrendGroups)

	out := make([]TrendPoint, 0, len(keys))
	for _, k := range keys {
		b := grouped[k]
		out = append(out, TrendPoint{
			Month:       b.label,
			Utilization: b.sum / float64(b.count),
		})
	}
	return out
}

// RevenueByCluster sums revenue per cluster display name, sorted descending
// by the summed value.
func RevenueByCluster(rows []model.PnLRow, nameFor NameResolver) []BreakdownEntry {
	grouped := make(map[string]float64)
	for _, row := range rows {
		grouped[nameFor(row.Cluster)] += row.Revenue
	}

	out := make([]BreakdownEntry, 0, len(grouped))
	for name, v := range grouped {
		out = append(out, BreakdownEntry{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MarginByAccount computes profit/revenue*100 per account display name
// (0 when revenue is 0), sorted descending and limited to the top ten.
func MarginByAccount(rows []model.PnLRow, nameFor NameResolver) []BreakdownEntry {
	type bucket struct{ revenue, profit float64 }
	grouped := make(map[string]*bucket)

	for _, row := range rows {
		name := nameFor(row.Account)
		b, ok := grouped[name]
		if !ok {
			b = &bucket{}
			grouped[name] = b
		}
		b.revenue += row.Revenue
		b.profit += row.GrossProfit
	}

	out := make([]BreakdownEntry, 0, len(grouped))
	for name, b := range grouped {
		margin := 0.0
		if b.revenue > 0 {
			margin = b.profit / b.revenue * 100
		}
		out = append(out, BreakdownEntry{Name: name, Value: margin})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})

	if len(out) > maxMarginAccounts {
		out = out[:maxMarginAccounts]
	}
	return out
}

// monthKey builds a chronologically sortable group key. Unknown month names
// land in a -1 bucket ahead of January rather than being dropped.
func monthKey(row model.PnLRow) string {
	return fmt.Sprintf("%04d-%02d", row.Year, model.MonthIndex(row.Month))
}

// monthLabel is the display label of a group, e.g. "Jan 2024".
func monthLabel(row model.PnLRow) string {
	m := row.Month
	if len(m) > 3 {
		m = m[:3]
	}
	return fmt.Sprintf("%s %d", m, row.Year)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lastN(keys []string, n int) []string {
	if len(keys) > n {
		return keys[len(keys)-n:]
	}
	return keys
}
