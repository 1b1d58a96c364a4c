package filter

import (
	"context"
	"errors"
	"testing"

	"finsight/internal/model"
)

// fakeSource returns canned option lists and records scopes it was asked for.
type fakeSource struct {
	accounts    []model.FilterOption
	projects    []model.FilterOption
	accountErr  error
	projectErr  error
	accountHits int
	projectHits int
	lastScope   []string
}

func (f *fakeSource) ClusterOptions(context.Context) ([]model.FilterOption, error) {
	return nil, nil
}

func (f *fakeSource) AccountOptions(_ context.Context, clusterIDs []string) ([]model.FilterOption, error) {
	f.accountHits++
	f.lastScope = clusterIDs
	return f.accounts, f.accountErr
}

func (f *fakeSource) ProjectOptions(_ context.Context, accountIDs []string) ([]model.FilterOption, error) {
	f.projectHits++
	f.lastScope = accountIDs
	return f.projects, f.projectErr
}

func (f *fakeSource) KPIOptions(context.Context) ([]string, error) {
	return nil, nil
}

func opt(id, name string) model.FilterOption {
	return model.FilterOption{ID: id, Name: name, Value: id}
}

func TestResolveAccountsPrunesStaleSelections(t *testing.T) {
	// Options {A,B} with selections {A,C}; a parent change narrows options
	// to {B,D}, so neither A nor C survives.
	src := &fakeSource{accounts: []model.FilterOption{opt("B", "Beta"), opt("D", "Delta")}}
	r := NewResolver(src)

	st := New()
	st.Clusters = []string{"CL1"}
	st.Accounts = []string{"A", "C"}

	out, changed, err := r.ResolveAccounts(context.Background(), st)
	if err != nil {
		t.Fatalf("ResolveAccounts: %v", err)
	}
	if !changed {
		t.Fatal("expected pruning to report a change")
	}
	if len(out.Accounts) != 0 {
		t.Fatalf("Accounts = %v, want empty", out.Accounts)
	}
}

func TestResolveAccountsNoChangeKeepsState(t *testing.T) {
	src := &fakeSource{accounts: []model.FilterOption{opt("A", "Alpha")}}
	r := NewResolver(src)

	st := New()
	st.Accounts = []string{"A"}

	out, changed, err := r.ResolveAccounts(context.Background(), st)
	if err != nil {
		t.Fatalf("ResolveAccounts: %v", err)
	}
	if changed {
		t.Fatal("no pruning occurred but change was reported")
	}
	if !out.Equal(st) {
		t.Fatalf("state mutated without change: %+v", out)
	}
}

func TestResolveAccountsErrorRetainsPrevious(t *testing.T) {
	src := &fakeSource{accounts: []model.FilterOption{opt("A", "Alpha")}}
	r := NewResolver(src)

	st := New()
	if _, _, err := r.ResolveAccounts(context.Background(), st); err != nil {
		t.Fatalf("seed resolve: %v", err)
	}

	src.accountErr = errors.New("boom")
	st.Accounts = []string{"A"}
	out, changed, err := r.ResolveAccounts(context.Background(), st)
	if err == nil {
		t.Fatal("expected fetch error to propagate")
	}
	if changed || len(out.Accounts) != 1 {
		t.Fatalf("failed fetch must leave selections untouched, got %v", out.Accounts)
	}
	if got := r.AccountOptions(); len(got) != 1 || got[0].ID != "A" {
		t.Fatalf("failed fetch must retain previous options, got %v", got)
	}
}

func TestResolveAccountsMatchesByIDOrValue(t *testing.T) {
	// id and value are interchangeable identity keys.
	src := &fakeSource{accounts: []model.FilterOption{
		{ID: "7", Name: "Seven", Value: "acct-seven"},
	}}
	r := NewResolver(src)

	st := New()
	st.Accounts = []string{"7", "acct-seven", "gone"}

	out, changed, err := r.ResolveAccounts(context.Background(), st)
	if err != nil {
		t.Fatalf("ResolveAccounts: %v", err)
	}
	if !changed {
		t.Fatal("expected the unmatched selection to be pruned")
	}
	if !equalSets(out.Accounts, []string{"7", "acct-seven"}) {
		t.Fatalf("Accounts = %v, want both key forms kept", out.Accounts)
	}
}

func TestResolveProjectsWidensScopeToAvailableAccounts(t *testing.T) {
	src := &fakeSource{
		accounts: []model.FilterOption{opt("A1", "One"), opt("A2", "Two")},
		projects: []model.FilterOption{opt("P1", "Proj")},
	}
	r := NewResolver(src)

	st := New()
	st.Clusters = []string{"CL1"}
	if _, _, err := r.ResolveAccounts(context.Background(), st); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}

	if _, _, err := r.ResolveProjects(context.Background(), st); err != nil {
		t.Fatalf("ResolveProjects: %v", err)
	}
	if !equalSets(src.lastScope, []string{"A1", "A2"}) {
		t.Fatalf("project scope = %v, want all available accounts", src.lastScope)
	}
}

func TestResolveProjectsEmptyScopeSkipsNetwork(t *testing.T) {
	// Clusters selected but no accounts available: clear projects locally.
	src := &fakeSource{}
	r := NewResolver(src)

	st := New()
	st.Clusters = []string{"CL1"}
	st.Projects = []string{"P1"}

	out, changed, err := r.ResolveProjects(context.Background(), st)
	if err != nil {
		t.Fatalf("ResolveProjects: %v", err)
	}
	if src.projectHits != 0 {
		t.Fatalf("expected no network call, got %d", src.projectHits)
	}
	if !changed || len(out.Projects) != 0 {
		t.Fatalf("Projects = %v, want cleared", out.Projects)
	}
	if got := r.ProjectOptions(); len(got) != 0 {
		t.Fatalf("project options = %v, want cleared", got)
	}
}

func TestStaleGenerationIsDiscarded(t *testing.T) {
	src := &fakeSource{accounts: []model.FilterOption{opt("OLD", "Old")}}
	r := NewResolver(src)

	// Take the generation a newer fetch would hold before committing an
	// older result: the older commit must be discarded.
	staleGen := r.accountGen.Add(1)
	r.accountGen.Add(1)

	if r.commitAccounts(staleGen, []model.FilterOption{opt("OLD", "Old")}) {
		t.Fatal("stale generation was committed")
	}
	if len(r.AccountOptions()) != 0 {
		t.Fatalf("stale options applied: %v", r.AccountOptions())
	}
}
