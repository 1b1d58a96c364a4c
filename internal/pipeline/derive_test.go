package pipeline

import (
	"testing"

	"finsight/internal/filter"
	"finsight/internal/model"
)

func row(cluster, account, project string, year int, month string, margin float64) model.PnLRow {
	return model.PnLRow{
		ID:      cluster + account + project + month,
		Cluster: cluster, Account: account, Project: project,
		Year: year, Month: month,
		Revenue: 1000, Cost: 1000 - margin*10, GrossProfit: margin * 10,
		Margin: margin,
	}
}

func TestFilterRowsIsSubset(t *testing.T) {
	rows := []model.PnLRow{
		row("NA", "A1", "P1", 2024, "January", 35),
		row("EU", "A2", "P2", 2024, "February", 50),
		row("NA", "A1", "P3", 2025, "March", 10),
	}

	f := filter.New()
	got := FilterRows(rows, f, ModeFlat)

	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		seen[r.ID] = true
	}
	for _, r := range got {
		if !seen[r.ID] {
			t.Fatalf("derived row %q not in input", r.ID)
		}
	}
}

func TestFilterRowsMarginRangeInclusive(t *testing.T) {
	rows := []model.PnLRow{
		row("NA", "A", "P", 2024, "January", 30),
		row("NA", "A", "P", 2024, "February", 100),
		row("NA", "A", "P", 2024, "March", 29.99),
	}

	got := FilterRows(rows, filter.New(), ModeFlat)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2 (bounds are inclusive)", len(got))
	}
}

func TestFilterRowsWhitelists(t *testing.T) {
	rows := []model.PnLRow{
		row("NA", "A1", "P1", 2024, "January", 40),
		row("EU", "A1", "P1", 2024, "January", 40),
		row("NA", "A2", "P1", 2025, "February", 40),
	}

	f := filter.New().Toggle(filter.FieldClusters, "NA")
	if got := FilterRows(rows, f, ModeFlat); len(got) != 2 {
		t.Fatalf("cluster whitelist kept %d rows, want 2", len(got))
	}

	f = f.ToggleYear(2024)
	if got := FilterRows(rows, f, ModeFlat); len(got) != 1 {
		t.Fatalf("cluster+year whitelist kept %d rows, want 1", len(got))
	}

	// Hierarchy mode ignores whitelists; only the margin range applies.
	if got := FilterRows(rows, f, ModeHierarchy); len(got) != 3 {
		t.Fatalf("hierarchy mode kept %d rows, want 3", len(got))
	}
}

func TestFilterRowsEmptyListMeansPassThrough(t *testing.T) {
	rows := []model.PnLRow{row("NA", "A1", "P1", 2024, "January", 40)}

	f := filter.New() // every list empty
	if got := FilterRows(rows, f, ModeFlat); len(got) != 1 {
		t.Fatal("empty selection lists must not exclude anything")
	}
}

func TestSortCycle(t *testing.T) {
	var s SortState

	s = s.Cycle("revenue")
	if s.Key != "revenue" || s.Direction != SortAsc {
		t.Fatalf("first click = %+v, want revenue asc", s)
	}
	s = s.Cycle("revenue")
	if s.Direction != SortDesc {
		t.Fatalf("second click = %+v, want desc", s)
	}
	s = s.Cycle("revenue")
	if s.Key != "" || s.Direction != SortNone {
		t.Fatalf("third click = %+v, want unsorted", s)
	}

	// A different column resets to ascending on that column.
	s = SortState{Key: "revenue", Direction: SortDesc}
	s = s.Cycle("month")
	if s.Key != "month" || s.Direction != SortAsc {
		t.Fatalf("new column click = %+v, want month asc", s)
	}
}

func TestSortApplyNumericAndString(t *testing.T) {
	rows := []model.PnLRow{
		{ID: "1", Cluster: "beta", Revenue: 300},
		{ID: "2", Cluster: "Alpha", Revenue: 100},
		{ID: "3", Cluster: "gamma", Revenue: 200},
	}

	byRevenue := SortState{Key: "revenue", Direction: SortAsc}.Apply(rows)
	if byRevenue[0].Revenue != 100 || byRevenue[2].Revenue != 300 {
		t.Fatalf("numeric asc order wrong: %+v", byRevenue)
	}

	byCluster := SortState{Key: "cluster", Direction: SortAsc}.Apply(rows)
	if byCluster[0].Cluster != "Alpha" || byCluster[2].Cluster != "gamma" {
		t.Fatalf("string sort must fold case: %+v", byCluster)
	}

	// Unsorted state returns the input untouched.
	same := SortState{}.Apply(rows)
	if &same[0] != &rows[0] {
		t.Fatal("unsorted Apply must not copy")
	}
}

func TestPager(t *testing.T) {
	p := NewPager(23)

	if p.TotalPages() != 3 {
		t.Fatalf("TotalPages = %d, want 3", p.TotalPages())
	}

	p = p.Next().Next()
	if p.Page() != 3 {
		t.Fatalf("Page = %d, want 3", p.Page())
	}

	rows := make([]int, 23)
	if got := Slice(rows, p); len(got) != 3 {
		t.Fatalf("page 3 has %d rows, want 3", len(got))
	}

	// Next beyond the last page is a no-op, as is Prev on page 1.
	if p.Next().Page() != 3 {
		t.Fatal("Next past last page must be a no-op")
	}
	if NewPager(23).Prev().Page() != 1 {
		t.Fatal("Prev on first page must be a no-op")
	}
}

func TestPagerResetOnRowCountChange(t *testing.T) {
	p := NewPager(50).Next().Next()
	p = p.Reset(12)
	if p.Page() != 1 {
		t.Fatalf("Page after reset = %d, want 1", p.Page())
	}
	if p.TotalPages() != 2 {
		t.Fatalf("TotalPages after reset = %d, want 2", p.TotalPages())
	}
}
