package nova

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finsight/internal/filter"
	"finsight/internal/model"
)

type fakeSource struct {
	lastFilter filter.State
	level      string
	accounts   []model.AccountNode
	err        error
}

func (f *fakeSource) HierarchyClusters(_ context.Context, st filter.State) ([]model.ClusterNode, error) {
	f.level, f.lastFilter = "cluster", st
	if f.err != nil {
		return nil, f.err
	}
	return []model.ClusterNode{{ClusterID: st.Clusters[0], ClusterName: "North America", Revenue: 500}}, nil
}

func (f *fakeSource) HierarchyAccounts(_ context.Context, st filter.State) ([]model.AccountNode, error) {
	f.level, f.lastFilter = "account", st
	return f.accounts, f.err
}

func (f *fakeSource) HierarchyProjects(_ context.Context, st filter.State) ([]model.ProjectNode, error) {
	f.level, f.lastFilter = "project", st
	if f.err != nil {
		return nil, f.err
	}
	return []model.ProjectNode{{ProjectID: st.Projects[0]}}, nil
}

func clusterRow(id, name string) model.GridRow {
	return model.GridRow{Mode: model.ModeCluster, Cluster: &model.ClusterNode{ClusterID: id, ClusterName: name}}
}

func TestPromptScopesToSingleCluster(t *testing.T) {
	src := &fakeSource{}
	a := NewAssembler(src)

	current := filter.New().
		Toggle(filter.FieldClusters, "na").
		Toggle(filter.FieldAccounts, "acme").
		ToggleYear(2024)

	prompt := a.Prompt(context.Background(), clusterRow("na", "North America"), current, "why did margin drop?")

	if got := src.lastFilter.Clusters; len(got) != 1 || got[0] != "na" {
		t.Fatalf("scoped clusters = %v, want [na]", got)
	}
	if len(src.lastFilter.Accounts) != 0 || len(src.lastFilter.Projects) != 0 {
		t.Fatal("entity selections below the row's level must be cleared")
	}
	if got := src.lastFilter.Years; len(got) != 1 || got[0] != 2024 {
		t.Fatalf("year selection must survive scoping, got %v", got)
	}

	if !strings.Contains(prompt, "User Question: why did margin drop?") {
		t.Fatalf("prompt missing question: %q", prompt)
	}
	if !strings.Contains(prompt, "```json") || !strings.Contains(prompt, "North America") {
		t.Fatalf("prompt missing fenced context: %q", prompt)
	}
	if !strings.Contains(prompt, "cluster data") {
		t.Fatalf("prompt missing hierarchy label: %q", prompt)
	}
}

func TestPromptPropagatesParentForAccounts(t *testing.T) {
	src := &fakeSource{accounts: []model.AccountNode{{AccountID: "acme"}}}
	a := NewAssembler(src)

	row := model.GridRow{Mode: model.ModeAccount, Account: &model.AccountNode{
		AccountID: "acme", AccountName: "Acme", ClusterID: "na",
	}}
	a.Prompt(context.Background(), row, filter.New(), "q")

	if src.level != "account" {
		t.Fatalf("queried level = %q", src.level)
	}
	if got := src.lastFilter.Accounts; len(got) != 1 || got[0] != "acme" {
		t.Fatalf("scoped accounts = %v", got)
	}
	if got := src.lastFilter.Clusters; len(got) != 1 || got[0] != "na" {
		t.Fatalf("parent cluster not propagated: %v", got)
	}
}

func TestPromptFallsBackToRawRowOnFetchError(t *testing.T) {
	src := &fakeSource{err: errors.New("backend down")}
	a := NewAssembler(src)

	prompt := a.Prompt(context.Background(), clusterRow("na", "North America"), filter.New(), "still answer me")

	if !strings.Contains(prompt, "still answer me") {
		t.Fatal("question must never be dropped")
	}
	if !strings.Contains(prompt, "North America") {
		t.Fatalf("fallback must embed the raw row, got %q", prompt)
	}
}

func TestPromptFallsBackWhenIDUnresolvable(t *testing.T) {
	src := &fakeSource{}
	a := NewAssembler(src)

	prompt := a.Prompt(context.Background(), clusterRow("", "Mystery"), filter.New(), "q")

	if src.level != "" {
		t.Fatal("unresolvable id must not trigger a fetch")
	}
	if !strings.Contains(prompt, "Mystery") || !strings.Contains(prompt, "User Question: q") {
		t.Fatalf("fallback prompt = %q", prompt)
	}
}

func TestPromptUsesRawRowForResources(t *testing.T) {
	src := &fakeSource{}
	a := NewAssembler(src)

	row := model.GridRow{Mode: model.ModeResource, Resource: &model.PnLRow{
		ID: "r42", Project: "Apollo", Revenue: 1200,
	}}
	prompt := a.Prompt(context.Background(), row, filter.New(), "is this resource profitable?")

	if src.level != "" {
		t.Fatalf("resource rows must not query a hierarchy, queried %q", src.level)
	}
	if !strings.Contains(prompt, "Apollo") || !strings.Contains(prompt, "resource data") {
		t.Fatalf("prompt = %q", prompt)
	}
}

func TestComposeIndentsContext(t *testing.T) {
	prompt := compose("q", "cluster", []byte(`{"clusterId":"na","revenue":500}`))

	if !strings.Contains(prompt, "{\n  \"clusterId\": \"na\",\n  \"revenue\": 500\n}") {
		t.Fatalf("context not indented: %q", prompt)
	}
	// Non-JSON context passes through untouched.
	prompt = compose("q", "cluster", []byte("not json"))
	if !strings.Contains(prompt, "not json") {
		t.Fatalf("malformed context dropped: %q", prompt)
	}
}

func TestResolveIDPrefersGenericID(t *testing.T) {
	row := model.GridRow{Mode: model.ModeResource, Resource: &model.PnLRow{ID: "r42", Project: "Apollo"}}
	if got := resolveID(row); got != "r42" {
		t.Fatalf("resolveID = %q", got)
	}

	// Without a generic id, fall through to the mode-specific field.
	row = model.GridRow{Mode: model.ModeProject, Project: &model.ProjectNode{ProjectID: "p7"}}
	if got := resolveID(row); got != "p7" {
		t.Fatalf("resolveID = %q", got)
	}
}
