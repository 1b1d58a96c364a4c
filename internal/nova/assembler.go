// Package nova builds the context-bearing prompt sent to the assistant
// when the user asks about a selected grid row.
package nova

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"finsight/internal/filter"
	"finsight/internal/model"
)

// ContextSource re-queries a hierarchy level scoped to one entity.
// *api.Client satisfies it.
type ContextSource interface {
	HierarchyClusters(ctx context.Context, f filter.State) ([]model.ClusterNode, error)
	HierarchyAccounts(ctx context.Context, f filter.State) ([]model.AccountNode, error)
	HierarchyProjects(ctx context.Context, f filter.State) ([]model.ProjectNode, error)
}

// Assembler packages a selected row and question into a single prompt.
type Assembler struct {
	src ContextSource
}

// NewAssembler creates an assembler over the given source.
func NewAssembler(src ContextSource) *Assembler {
	return &Assembler{src: src}
}

// Prompt builds the prompt for question about row under the current filter.
// The entity id is resolved from the row, the row's hierarchy level is
// re-queried scoped to just that entity, and the result is embedded as
// indented JSON. Resource rows have no hierarchy endpoint to re-query, so
// the row itself is the context. On an unresolvable id or a failed fetch
// the raw row is embedded instead; the question is never dropped.
func (a *Assembler) Prompt(ctx context.Context, row model.GridRow, current filter.State, question string) string {
	if row.Mode == model.ModeResource {
		return compose(question, string(row.Mode), row.Raw())
	}

	id := resolveID(row)
	if id == "" {
		return compose(question, string(row.Mode), row.Raw())
	}

	data, err := a.fetchScoped(ctx, row, id, current)
	if err != nil {
		return compose(question, string(row.Mode), row.Raw())
	}
	return compose(question, string(row.Mode), data)
}

// resolveID probes the row for its identifying key: the generic id first,
// then the mode-specific id field, then whatever key the row can offer.
func resolveID(row model.GridRow) string {
	var fields map[string]json.RawMessage
	_ = json.Unmarshal(row.Raw(), &fields)

	if s := rawString(fields["id"]); s != "" {
		return s
	}
	if s := row.EntityKey(); s != "" {
		return s
	}
	return rawString(fields["key"])
}

// rawString reads a JSON string or number as a string.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// scopedFilter clears all entity selections from current, then narrows to
// the single resolved entity at the row's level. For account and project
// rows the parent id is propagated too, when the node carries one.
func scopedFilter(row model.GridRow, id string, current filter.State) filter.State {
	scoped := current.Clone()
	scoped.Clusters = nil
	scoped.Accounts = nil
	scoped.Projects = nil

	switch row.Mode {
	case model.ModeAccount:
		scoped.Accounts = []string{id}
		if parent := row.ParentKey(); parent != "" {
			scoped.Clusters = []string{parent}
		}
	case model.ModeProject:
		scoped.Projects = []string{id}
		if parent := row.ParentKey(); parent != "" {
			scoped.Accounts = []string{parent}
		}
	default:
		scoped.Clusters = []string{id}
	}
	return scoped
}

func (a *Assembler) fetchScoped(ctx context.Context, row model.GridRow, id string, current filter.State) (json.RawMessage, error) {
	scoped := scopedFilter(row, id, current)

	var v any
	var err error
	switch row.Mode {
	case model.ModeAccount:
		v, err = a.src.HierarchyAccounts(ctx, scoped)
	case model.ModeProject:
		v, err = a.src.HierarchyProjects(ctx, scoped)
	default:
		v, err = a.src.HierarchyClusters(ctx, scoped)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// compose renders the final prompt: the literal question, then the context
// as indented JSON in a fenced block labeled with the hierarchy level.
func compose(question, level string, data json.RawMessage) string {
	var indented bytes.Buffer
	if err := json.Indent(&indented, data, "", "  "); err != nil {
		indented.Reset()
		indented.Write(data)
	}
	return fmt.Sprintf("User Question: %s\n\nContext (%s data):\n```json\n%s\n```",
		question, level, indented.String())
}
