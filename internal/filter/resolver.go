package filter

import (
	"context"
	"sync"
	"sync/atomic"

	"finsight/internal/model"
)

// OptionSource fetches filter option lists. internal/api implements it; tests
// substitute fakes.
type OptionSource interface {
	ClusterOptions(ctx context.Context) ([]model.FilterOption, error)
	AccountOptions(ctx context.Context, clusterIDs []string) ([]model.FilterOption, error)
	ProjectOptions(ctx context.Context, accountIDs []string) ([]model.FilterOption, error)
	KPIOptions(ctx context.Context) ([]string, error)
}

// Resolver keeps the account and project option lists consistent with
// upstream selections. Each level carries a monotonically increasing request
// generation; a fetch result is applied only if no newer fetch for that
// level has started since, so a slow stale response can never overwrite a
// newer one.
type Resolver struct {
	src OptionSource

	accountGen atomic.Uint64
	projectGen atomic.Uint64

	mu       sync.Mutex
	accounts []model.FilterOption
	projects []model.FilterOption
}

// NewResolver creates a resolver over the given option source.
func NewResolver(src OptionSource) *Resolver {
	return &Resolver{src: src}
}

// AccountOptions returns the current account option list.
func (r *Resolver) AccountOptions() []model.FilterOption {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts
}

// ProjectOptions returns the current project option list.
func (r *Resolver) ProjectOptions() []model.FilterOption {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.projects
}

// ResolveAccounts re-fetches the account option list scoped to the selected
// clusters (empty selection fetches all accounts), then prunes stale account
// selections from st. The returned state is st itself unless pruning changed
// something. On fetch error the previous options and selections are kept.
func (r *Resolver) ResolveAccounts(ctx context.Context, st State) (State, bool, error) {
	gen := r.accountGen.Add(1)

	opts, err := r.src.AccountOptions(ctx, st.Clusters)
	if err != nil {
		return st, false, err
	}
	if !r.commitAccounts(gen, opts) {
		return st, false, nil
	}

	pruned, changed := pruneSelections(st.Accounts, opts)
	if !changed {
		return st, false, nil
	}
	out := st.Clone()
	out.Accounts = pruned
	return out, true, nil
}

// ResolveProjects re-fetches the project option list. The scope is the
// selected accounts; with none selected but clusters active, it widens to
// every currently available account. An empty effective scope clears the
// project options without a network call.
func (r *Resolver) ResolveProjects(ctx context.Context, st State) (State, bool, error) {
	gen := r.projectGen.Add(1)

	scope := st.Accounts
	if len(scope) == 0 && len(st.Clusters) > 0 {
		avail := r.AccountOptions()
		if len(avail) == 0 {
			if !r.commitProjects(gen, nil) {
				return st, false, nil
			}
			return r.pruneProjects(st, nil)
		}
		scope = make([]string, 0, len(avail))
		for _, o := range avail {
			scope = append(scope, o.Key())
		}
	}

	opts, err := r.src.ProjectOptions(ctx, scope)
	if err != nil {
		return st, false, err
	}
	if !r.commitProjects(gen, opts) {
		return st, false, nil
	}
	return r.pruneProjects(st, opts)
}

func (r *Resolver) pruneProjects(st State, opts []model.FilterOption) (State, bool, error) {
	pruned, changed := pruneSelections(st.Projects, opts)
	if !changed {
		return st, false, nil
	}
	out := st.Clone()
	out.Projects = pruned
	return out, true, nil
}

// commitAccounts applies opts if gen is still the newest account fetch.
func (r *Resolver) commitAccounts(gen uint64, opts []model.FilterOption) bool {
	if r.accountGen.Load() != gen {
		return false
	}
	r.mu.Lock()
	r.accounts = opts
	r.mu.Unlock()
	return true
}

func (r *Resolver) commitProjects(gen uint64, opts []model.FilterOption) bool {
	if r.projectGen.Load() != gen {
		return false
	}
	r.mu.Lock()
	r.projects = opts
	r.mu.Unlock()
	return true
}

// pruneSelections drops selections that no option matches by id or value.
func pruneSelections(selected []string, opts []model.FilterOption) ([]string, bool) {
	if len(selected) == 0 {
		return selected, false
	}
	kept := selected[:0:0]
	for _, sel := range selected {
		for _, o := range opts {
			if o.Matches(sel) {
				kept = append(kept, sel)
				break
			}
		}
	}
	return kept, len(kept) != len(selected)
}
