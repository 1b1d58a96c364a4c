package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"finsight/internal/filter"
	"finsight/internal/model"
)

var errBackend = errors.New("backend down")

func TestWrapTextBreaksLongWords(t *testing.T) {
	got := wrapText("abcdefghijklmnop", 10)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 10 {
			t.Errorf("line %q exceeds width 10", line)
		}
	}
}

func TestWrapTextKeepsShortParagraphs(t *testing.T) {
	got := wrapText("revenue is up", 40)
	if got != "revenue is up" {
		t.Errorf("wrapText = %q, want unchanged", got)
	}
}

func TestTruncStr(t *testing.T) {
	if got := truncStr("short", 10); got != "short" {
		t.Errorf("truncStr(short) = %q", got)
	}
	got := truncStr("a very long label indeed", 10)
	if len([]rune(got)) != 10 {
		t.Errorf("truncStr length = %d, want 10", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncStr = %q, want ellipsis suffix", got)
	}
}

func TestPadHeightAndTruncateHeight(t *testing.T) {
	s := "a\nb"
	padded := padHeight(s, 5)
	if n := len(strings.Split(padded, "\n")); n != 5 {
		t.Errorf("padHeight lines = %d, want 5", n)
	}
	truncated := truncateHeight("a\nb\nc\nd", 2)
	if truncated != "a\nb" {
		t.Errorf("truncateHeight = %q", truncated)
	}
}

func TestMarginHealthClamps(t *testing.T) {
	if got := marginHealth(-10); got != 0 {
		t.Errorf("marginHealth(-10) = %v, want 0", got)
	}
	if got := marginHealth(25); got != 0.5 {
		t.Errorf("marginHealth(25) = %v, want 0.5", got)
	}
	if got := marginHealth(90); got != 1 {
		t.Errorf("marginHealth(90) = %v, want 1", got)
	}
}

func TestFilterEntriesMarksSelections(t *testing.T) {
	a := App{
		filters: filter.New().
			Toggle(filter.FieldClusters, "c1").
			ToggleYear(2024),
		clusterOpts: []model.FilterOption{
			{ID: "c1", Name: "EMEA"},
			{ID: "c2", Name: "APAC"},
		},
		resolver: filter.NewResolver(nil),
		flatRows: []model.PnLRow{{Year: 2024}, {Year: 2023}},
	}

	entries := a.filterEntries()

	var emea, apac, y2024 *filterEntry
	for i := range entries {
		switch entries[i].label {
		case "EMEA":
			emea = &entries[i]
		case "APAC":
			apac = &entries[i]
		case "2024":
			y2024 = &entries[i]
		}
	}
	if emea == nil || !emea.selected {
		t.Error("selected cluster not marked")
	}
	if apac == nil || apac.selected {
		t.Error("unselected cluster marked")
	}
	if y2024 == nil || !y2024.selected {
		t.Error("selected year not marked")
	}
}

func TestSortKeepsCurrentPage(t *testing.T) {
	var rows []model.GridRow
	for i := 0; i < 25; i++ {
		rows = append(rows, model.GridRow{Mode: model.ModeCluster, Cluster: &model.ClusterNode{
			ClusterID:   fmt.Sprintf("c%02d", i),
			ClusterName: fmt.Sprintf("Cluster %02d", i),
			Revenue:     float64(100 * i),
			Margin:      50,
		}})
	}

	a := App{filters: filter.New(), rows: rows}
	a.recompute()
	a.pager = a.pager.Next()
	if a.pager.Page() != 2 {
		t.Fatalf("setup: page = %d, want 2", a.pager.Page())
	}

	m, _ := a.updateGridKeys("s")
	got := m.(App)

	if got.sortState.Key != "name" {
		t.Fatalf("sort key = %q, want name", got.sortState.Key)
	}
	if got.pager.Page() != 2 {
		t.Fatalf("page after re-sort = %d, want 2", got.pager.Page())
	}
}

func TestSelectAllTogglesWholeSection(t *testing.T) {
	a := App{
		filters: filter.New(),
		clusterOpts: []model.FilterOption{
			{ID: "c1", Name: "EMEA"},
			{ID: "c2", Name: "APAC"},
		},
		resolver: filter.NewResolver(nil),
	}
	// Cursor rests on the Clusters "(select all)" entry.

	m, _ := a.updateFilterKeys(" ")
	a = m.(App)
	if got := a.filters.Clusters; len(got) != 2 {
		t.Fatalf("select all picked %v, want both clusters", got)
	}

	// A second press on a fully selected section empties it.
	m, _ = a.updateFilterKeys(" ")
	a = m.(App)
	if got := a.filters.Clusters; len(got) != 0 {
		t.Fatalf("select all on full section = %v, want empty", got)
	}
}

func TestAvailableYearsSortedAndMerged(t *testing.T) {
	a := App{
		filters:  filter.New().ToggleYear(2022),
		flatRows: []model.PnLRow{{Year: 2024}, {Year: 2023}, {Year: 2024}},
	}
	years := a.availableYears()
	want := []int{2022, 2023, 2024}
	if len(years) != len(want) {
		t.Fatalf("years = %v, want %v", years, want)
	}
	for i := range want {
		if years[i] != want[i] {
			t.Errorf("years[%d] = %d, want %d", i, years[i], want[i])
		}
	}
}

func TestUtilizationColumnsUseRowScale(t *testing.T) {
	a := App{mode: model.ModeResource}
	row := model.GridRow{Mode: model.ModeResource, Resource: &model.PnLRow{Utilization: 82.5}}
	if got := a.modeColumn().cell(row); got != "82.5%" {
		t.Fatalf("resource utilization cell = %q, want 82.5%%", got)
	}

	a.mode = model.ModeProject
	row = model.GridRow{Mode: model.ModeProject, Project: &model.ProjectNode{Utilization: 91.25}}
	if got := a.modeColumn().cell(row); got != "91.2%" {
		t.Fatalf("project utilization cell = %q, want 91.2%%", got)
	}
}

func TestCascadeCommitKeepsInterleavedSelections(t *testing.T) {
	// The cascade below was dispatched before the month was toggled, so
	// its state snapshot does not carry the month. Committing it must not
	// revert the toggle; only the pruned entity lists belong to it.
	a := App{
		filters: filter.New().
			Toggle(filter.FieldClusters, "c1").
			Toggle(filter.FieldAccounts, "a1").
			Toggle(filter.FieldAccounts, "a2").
			Toggle(filter.FieldMonths, "Jan"),
		cascadeGen: 3,
	}

	snapshot := filter.New().
		Toggle(filter.FieldClusters, "c1").
		Toggle(filter.FieldAccounts, "a1") // a2 pruned by the cascade

	m, _ := a.Update(CascadeResolvedMsg{Gen: 3, State: snapshot})
	got := m.(App).filters

	if len(got.Months) != 1 || got.Months[0] != "Jan" {
		t.Fatalf("month selection lost after cascade commit: Months = %v", got.Months)
	}
	if len(got.Accounts) != 1 || got.Accounts[0] != "a1" {
		t.Fatalf("pruned accounts not committed: Accounts = %v", got.Accounts)
	}
}

func TestStaleCascadeResultDiscarded(t *testing.T) {
	a := App{
		filters:    filter.New().Toggle(filter.FieldAccounts, "a1"),
		cascadeGen: 5,
	}

	// Generation 4 belongs to a superseded filter change.
	m, _ := a.Update(CascadeResolvedMsg{Gen: 4, State: filter.New()})
	got := m.(App).filters

	if len(got.Accounts) != 1 || got.Accounts[0] != "a1" {
		t.Fatalf("stale cascade overwrote selections: Accounts = %v", got.Accounts)
	}
}

func TestFailedCascadeKeepsSelections(t *testing.T) {
	a := App{
		filters:    filter.New().Toggle(filter.FieldAccounts, "a1"),
		cascadeGen: 1,
	}

	m, _ := a.Update(CascadeResolvedMsg{Gen: 1, State: filter.New(), Err: errBackend})
	got := m.(App).filters

	if len(got.Accounts) != 1 || got.Accounts[0] != "a1" {
		t.Fatalf("failed cascade cleared selections: Accounts = %v", got.Accounts)
	}
}

func TestShortMonthLabel(t *testing.T) {
	if got := shortMonthLabel("Jan 2024"); got != "Jan" {
		t.Errorf("shortMonthLabel = %q", got)
	}
	if got := shortMonthLabel("Jan"); got != "Jan" {
		t.Errorf("shortMonthLabel = %q", got)
	}
}
