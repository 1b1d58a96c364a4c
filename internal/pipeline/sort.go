package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"finsight/internal/model"
)

// SortDirection is the current sort order of a column.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

// SortState tracks the single-column sort of the grid. Clicking the same
// column cycles asc to desc to unsorted; clicking a different column starts
// ascending on that column.
type SortState struct {
	Key       string
	Direction SortDirection
}

// Cycle advances the sort state for a click on the given column.
func (s SortState) Cycle(key string) SortState {
	if s.Key != key {
		return SortState{Key: key, Direction: SortAsc}
	}
	switch s.Direction {
	case SortAsc:
		return SortState{Key: key, Direction: SortDesc}
	default:
		return SortState{}
	}
}

// numericColumns are the PnL row fields compared numerically; everything
// else compares as case-folded strings.
var numericColumns = map[string]bool{
	"year":        true,
	"revenue":     true,
	"cost":        true,
	"grossProfit": true,
	"margin":      true,
	"headcount":   true,
	"utilization": true,
}

// Apply returns rows sorted per the state. An unsorted state returns the
// input untouched; otherwise a sorted copy is returned.
func (s SortState) Apply(rows []model.PnLRow) []model.PnLRow {
	if s.Key == "" || s.Direction == SortNone {
		return rows
	}

	sorted := append([]model.PnLRow(nil), rows...)
	asc := s.Direction == SortAsc

	if numericColumns[s.Key] {
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := numericField(sorted[i], s.Key), numericField(sorted[j], s.Key)
			if asc {
				return a < b
			}
			return a > b
		})
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := stringField(sorted[i], s.Key), stringField(sorted[j], s.Key)
		cmp := strings.Compare(strings.ToLower(a), strings.ToLower(b))
		if cmp == 0 {
			cmp = strings.Compare(a, b)
		}
		if asc {
			return cmp < 0
		}
		return cmp > 0
	})
	return sorted
}

func numericField(r model.PnLRow, key string) float64 {
	switch key {
	case "year":
		return float64(r.Year)
	case "revenue":
		return r.Revenue
	case "cost":
		return r.Cost
	case "grossProfit":
		return r.GrossProfit
	case "margin":
		return r.Margin
	case "headcount":
		return float64(r.Headcount)
	case "utilization":
		return r.Utilization
	}
	return 0
}

func stringField(r model.PnLRow, key string) string {
	switch key {
	case "id":
		return r.ID
	case "cluster":
		return r.Cluster
	case "account":
		return r.Account
	case "project":
		return r.Project
	case "month":
		return r.Month
	case "year":
		return strconv.Itoa(r.Year)
	}
	return ""
}

// ApplyGrid sorts hierarchy rows. Grid columns are name plus the rolled-up
// financial metrics; name compares as a case-folded string.
func (s SortState) ApplyGrid(rows []model.GridRow) []model.GridRow {
	if s.Key == "" || s.Direction == SortNone {
		return rows
	}

	sorted := append([]model.GridRow(nil), rows...)
	asc := s.Direction == SortAsc

	if s.Key == "name" {
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := sorted[i].Name(), sorted[j].Name()
			cmp := strings.Compare(strings.ToLower(a), strings.ToLower(b))
			if cmp == 0 {
				cmp = strings.Compare(a, b)
			}
			if asc {
				return cmp < 0
			}
			return cmp > 0
		})
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := gridField(sorted[i], s.Key), gridField(sorted[j], s.Key)
		if asc {
			return a < b
		}
		return a > b
	})
	return sorted
}

func gridField(r model.GridRow, key string) float64 {
	revenue, cost, profit, margin := r.Metrics()
	switch key {
	case "revenue":
		return revenue
	case "cost":
		return cost
	case "grossProfit":
		return profit
	case "margin":
		return margin
	}
	return 0
}
