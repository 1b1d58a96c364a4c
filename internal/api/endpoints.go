package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"finsight/internal/filter"
	"finsight/internal/model"
)

// resourcePageSize caps the flat row fetch used by resource mode.
const resourcePageSize = 1000

type optionsEnvelope struct {
	Options []model.FilterOption `json:"options"`
}

// ClusterOptions returns the cluster filter options.
func (c *Client) ClusterOptions(ctx context.Context) ([]model.FilterOption, error) {
	return c.options(ctx, "/filters/options/clusters", nil)
}

// AccountOptions returns account options, scoped to the given clusters when
// any are selected.
func (c *Client) AccountOptions(ctx context.Context, clusterIDs []string) ([]model.FilterOption, error) {
	var query map[string]string
	if len(clusterIDs) > 0 {
		query = map[string]string{"clusterId": strings.Join(clusterIDs, ",")}
	}
	return c.options(ctx, "/filters/options/accounts", query)
}

// ProjectOptions returns project options, scoped to the given accounts when
// any are selected.
func (c *Client) ProjectOptions(ctx context.Context, accountIDs []string) ([]model.FilterOption, error) {
	var query map[string]string
	if len(accountIDs) > 0 {
		query = map[string]string{"accountId": strings.Join(accountIDs, ",")}
	}
	return c.options(ctx, "/filters/options/projects", query)
}

// KPIOptions returns the KPI names offered by the analyze-by filter.
func (c *Client) KPIOptions(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/filters/options/kpis", nil)
	if err != nil {
		return nil, err
	}
	var env struct {
		Options []string `json:"options"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("api: parsing kpi options: %w", err)
	}
	return env.Options, nil
}

func (c *Client) options(ctx context.Context, path string, query map[string]string) ([]model.FilterOption, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	var env optionsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("api: parsing options from %s: %w", path, err)
	}
	return env.Options, nil
}

// PnL fetches one page of flat P&L rows matching the filter.
func (c *Client) PnL(ctx context.Context, f filter.State, page, pageSize int) (model.PnLPage, error) {
	query := f.Query()
	query["page"] = strconv.Itoa(page)
	query["pageSize"] = strconv.Itoa(pageSize)

	body, err := c.get(ctx, "/pnl", query)
	if err != nil {
		return model.PnLPage{}, err
	}

	var pageResp model.PnLPage
	if err := json.Unmarshal(body, &pageResp); err != nil {
		return model.PnLPage{}, fmt.Errorf("api: parsing pnl page: %w", err)
	}
	return pageResp, nil
}

// ResourceRows fetches the flat rows backing resource mode in one large page.
func (c *Client) ResourceRows(ctx context.Context, f filter.State) ([]model.PnLRow, error) {
	page, err := c.PnL(ctx, f, 1, resourcePageSize)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// KPISummary fetches the rolled-up KPI figures for the filter.
func (c *Client) KPISummary(ctx context.Context, f filter.State) (model.KPISummary, error) {
	body, err := c.get(ctx, "/pnl/summary/kpis", f.Query())
	if err != nil {
		return model.KPISummary{}, err
	}
	var summary model.KPISummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return model.KPISummary{}, fmt.Errorf("api: parsing kpi summary: %w", err)
	}
	return summary, nil
}

// HierarchyClusters fetches the cluster-level rollup.
func (c *Client) HierarchyClusters(ctx context.Context, f filter.State) ([]model.ClusterNode, error) {
	var nodes []model.ClusterNode
	if err := c.hierarchy(ctx, "cluster", f, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// HierarchyAccounts fetches the account-level rollup.
func (c *Client) HierarchyAccounts(ctx context.Context, f filter.State) ([]model.AccountNode, error) {
	var nodes []model.AccountNode
	if err := c.hierarchy(ctx, "account", f, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// HierarchyProjects fetches the project-level rollup.
func (c *Client) HierarchyProjects(ctx context.Context, f filter.State) ([]model.ProjectNode, error) {
	var nodes []model.ProjectNode
	if err := c.hierarchy(ctx, "project", f, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (c *Client) hierarchy(ctx context.Context, level string, f filter.State, out any) error {
	body, err := c.get(ctx, "/pnl/hierarchy/"+level, f.Query())
	if err != nil {
		return err
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("api: parsing %s hierarchy envelope: %w", level, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("api: parsing %s hierarchy data: %w", level, err)
	}
	return nil
}

// GridRows fetches the rows for the given hierarchy mode, already wrapped in
// the mode's GridRow variant. Resource mode uses the flat /pnl endpoint.
func (c *Client) GridRows(ctx context.Context, mode model.Mode, f filter.State) ([]model.GridRow, error) {
	switch mode {
	case model.ModeAccount:
		nodes, err := c.HierarchyAccounts(ctx, f)
		if err != nil {
			return nil, err
		}
		rows := make([]model.GridRow, len(nodes))
		for i := range nodes {
			rows[i] = model.GridRow{Mode: mode, Account: &nodes[i]}
		}
		return rows, nil
	case model.ModeProject:
		nodes, err := c.HierarchyProjects(ctx, f)
		if err != nil {
			return nil, err
		}
		rows := make([]model.GridRow, len(nodes))
		for i := range nodes {
			rows[i] = model.GridRow{Mode: mode, Project: &nodes[i]}
		}
		return rows, nil
	case model.ModeResource:
		flat, err := c.ResourceRows(ctx, f)
		if err != nil {
			return nil, err
		}
		rows := make([]model.GridRow, len(flat))
		for i := range flat {
			rows[i] = model.GridRow{Mode: mode, Resource: &flat[i]}
		}
		return rows, nil
	default:
		nodes, err := c.HierarchyClusters(ctx, f)
		if err != nil {
			return nil, err
		}
		rows := make([]model.GridRow, len(nodes))
		for i := range nodes {
			rows[i] = model.GridRow{Mode: model.ModeCluster, Cluster: &nodes[i]}
		}
		return rows, nil
	}
}
