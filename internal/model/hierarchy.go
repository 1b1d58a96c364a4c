package model

import "encoding/json"

// Mode selects the aggregation level shown in the grid and which hierarchy
// endpoint is queried. Resource mode reads flat /pnl rows instead.
type Mode string

const (
	ModeCluster  Mode = "cluster"
	ModeAccount  Mode = "account"
	ModeProject  Mode = "project"
	ModeResource Mode = "resource"
)

// DefaultModeForRole returns the hierarchy level a user lands on.
func DefaultModeForRole(role string) Mode {
	switch role {
	case "project_manager":
		return ModeProject
	case "account_director":
		return ModeAccount
	default:
		return ModeCluster
	}
}

// ClusterNode is one rolled-up cluster from /pnl/hierarchy/cluster.
type ClusterNode struct {
	ClusterID    string        `json:"clusterId"`
	ClusterName  string        `json:"clusterName"`
	Revenue      float64       `json:"revenue"`
	Cost         float64       `json:"cost"`
	GrossProfit  float64       `json:"grossProfit"`
	Margin       float64       `json:"margin"`
	AccountCount int           `json:"accountCount"`
	Accounts     []AccountNode `json:"accounts,omitempty"`
}

// AccountNode is one rolled-up account from /pnl/hierarchy/account.
type AccountNode struct {
	AccountID    string        `json:"accountId"`
	AccountName  string        `json:"accountName"`
	ClusterID    string        `json:"clusterId,omitempty"`
	Revenue      float64       `json:"revenue"`
	Cost         float64       `json:"cost"`
	GrossProfit  float64       `json:"grossProfit"`
	Margin       float64       `json:"margin"`
	ProjectCount int           `json:"projectCount"`
	Projects     []ProjectNode `json:"projects,omitempty"`
}

// ProjectNode is one rolled-up project from /pnl/hierarchy/project.
type ProjectNode struct {
	ProjectID   string         `json:"projectId"`
	ProjectName string         `json:"projectName"`
	AccountID   string         `json:"accountId,omitempty"`
	Revenue     float64        `json:"revenue"`
	Cost        float64        `json:"cost"`
	GrossProfit float64        `json:"grossProfit"`
	Margin      float64        `json:"margin"`
	Headcount   int            `json:"headcount"`
	Utilization float64        `json:"utilization"`
	Resources   []ResourceNode `json:"resources,omitempty"`
}

// ResourceNode is one resource line embedded under a project.
type ResourceNode struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	Role         string  `json:"role"`
	Revenue      float64 `json:"revenue"`
	Cost         float64 `json:"cost"`
	GrossProfit  float64 `json:"grossProfit"`
	Margin       float64 `json:"margin"`
	Hours        float64 `json:"hours,omitempty"`
}

// GridRow is the tagged union over the per-mode row shapes. Exactly one of
// the variant pointers is set, matching Mode.
type GridRow struct {
	Mode     Mode
	Cluster  *ClusterNode
	Account  *AccountNode
	Project  *ProjectNode
	Resource *PnLRow
}

// Name returns the row's display name for its level.
func (r GridRow) Name() string {
	switch r.Mode {
	case ModeCluster:
		return r.Cluster.ClusterName
	case ModeAccount:
		return r.Account.AccountName
	case ModeProject:
		return r.Project.ProjectName
	case ModeResource:
		return r.Resource.Project
	}
	return ""
}

// EntityKey resolves the row's identifying key: the mode-specific id field.
// Ask Nova probes this after the generic id.
func (r GridRow) EntityKey() string {
	switch r.Mode {
	case ModeCluster:
		return r.Cluster.ClusterID
	case ModeAccount:
		return r.Account.AccountID
	case ModeProject:
		return r.Project.ProjectID
	case ModeResource:
		return r.Resource.ID
	}
	return ""
}

// ParentKey returns the id of the row's parent level, when the node carries
// one (clusterId on accounts, accountId on projects).
func (r GridRow) ParentKey() string {
	switch r.Mode {
	case ModeAccount:
		return r.Account.ClusterID
	case ModeProject:
		return r.Project.AccountID
	}
	return ""
}

// Metrics returns the rolled-up financials common to every variant.
func (r GridRow) Metrics() (revenue, cost, grossProfit, margin float64) {
	switch r.Mode {
	case ModeCluster:
		return r.Cluster.Revenue, r.Cluster.Cost, r.Cluster.GrossProfit, r.Cluster.Margin
	case ModeAccount:
		return r.Account.Revenue, r.Account.Cost, r.Account.GrossProfit, r.Account.Margin
	case ModeProject:
		return r.Project.Revenue, r.Project.Cost, r.Project.GrossProfit, r.Project.Margin
	case ModeResource:
		return r.Resource.Revenue, r.Resource.Cost, r.Resource.GrossProfit, r.Resource.Margin
	}
	return 0, 0, 0, 0
}

// Margin returns just the row margin, for range filtering.
func (r GridRow) Margin() float64 {
	_, _, _, m := r.Metrics()
	return m
}

// Raw serializes the underlying variant, used when Ask Nova falls back to
// the selected row as context.
func (r GridRow) Raw() json.RawMessage {
	var v any
	switch r.Mode {
	case ModeCluster:
		v = r.Cluster
	case ModeAccount:
		v = r.Account
	case ModeProject:
		v = r.Project
	case ModeResource:
		v = r.Resource
	}
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}
