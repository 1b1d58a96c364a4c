// Package pipeline contains the pure client-side derivation feeding the
// grid, charts, and KPI cards: margin/whitelist filtering, sorting,
// grouping, and pagination. Nothing here performs I/O.
package pipeline

import (
	"finsight/internal/filter"
	"finsight/internal/model"
)

// ViewMode distinguishes the flat (legacy) row view, where every selection
// list acts as a whitelist, from hierarchy views where rows are pre-scoped
// by the backend and only the margin range applies client-side.
type ViewMode int

const (
	ModeFlat ViewMode = iota
	ModeHierarchy
)

// FilterRows returns the subset of rows passing the active filters. All
// modes apply the inclusive margin range; flat mode additionally requires
// membership in every non-empty selection list. An empty list means "no
// constraint at this level", never "exclude all".
func FilterRows(rows []model.PnLRow, f filter.State, mode ViewMode) []model.PnLRow {
	var out []model.PnLRow
	for _, row := range rows {
		if !marginInRange(row.Margin, f.MarginRange) {
			continue
		}
		if mode == ModeFlat && !passesWhitelists(row, f) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// FilterGridRows applies the margin range to hierarchy grid rows.
func FilterGridRows(rows []model.GridRow, f filter.State) []model.GridRow {
	var out []model.GridRow
	for _, row := range rows {
		if marginInRange(row.Margin(), f.MarginRange) {
			out = append(out, row)
		}
	}
	return out
}

func marginInRange(margin float64, r [2]float64) bool {
	return margin >= r[0] && margin <= r[1]
}

func passesWhitelists(row model.PnLRow, f filter.State) bool {
	if len(f.Clusters) > 0 && !containsString(f.Clusters, row.Cluster) {
		return false
	}
	if len(f.Accounts) > 0 && !containsString(f.Accounts, row.Account) {
		return false
	}
	if len(f.Projects) > 0 && !containsString(f.Projects, row.Project) {
		return false
	}
	if len(f.Years) > 0 && !containsInt(f.Years, row.Year) {
		return false
	}
	if len(f.Months) > 0 && !containsString(f.Months, row.Month) {
		return false
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
