// Package model defines domain types for FinSight P&L data and chat.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// PnLRow is one flat profit-and-loss fact as returned by the /pnl endpoint.
// Invariants held by the backend: GrossProfit = Revenue - Cost, and
// Margin = GrossProfit / Revenue * 100 when Revenue > 0, else 0.
type PnLRow struct {
	ID          string  `json:"id"`
	Cluster     string  `json:"cluster"`
	Account     string  `json:"account"`
	Project     string  `json:"project"`
	Year        int     `json:"year"`
	Month       string  `json:"month"`
	Revenue     float64 `json:"revenue"`
	Cost        float64 `json:"cost"`
	GrossProfit float64 `json:"grossProfit"`
	Margin      float64 `json:"margin"`
	Headcount   int     `json:"headcount"`
	Utilization float64 `json:"utilization"`
}

// PnLPage is the paginated /pnl response envelope.
type PnLPage struct {
	Data     []PnLRow `json:"data"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}

// KPISummary is the /pnl/summary/kpis response. Utilization arrives as a
// 0-1 fraction; display code multiplies by 100.
type KPISummary struct {
	Revenue        float64 `json:"revenue"`
	Cost           float64 `json:"cost"`
	GrossProfit    float64 `json:"grossProfit"`
	Margin         float64 `json:"margin"`
	Headcount      float64 `json:"headcount"`
	Utilization    float64 `json:"utilization"`
	RevenuePerHead float64 `json:"revenuePerHead"`
	CostPerHead    float64 `json:"costPerHead"`
}

// FilterOption is one selectable entry in a filter dropdown. The backend is
// inconsistent about whether id or value carries the canonical key, and both
// may arrive as JSON strings or numbers, so all identity fields are
// normalized to strings on unmarshal and lookups must try both.
type FilterOption struct {
	ID        string
	Name      string
	Value     string
	ClusterID string
	AccountID string
}

// Key returns the canonical identity of the option: value when present,
// otherwise id.
func (o FilterOption) Key() string {
	if o.Value != "" {
		return o.Value
	}
	return o.ID
}

// Matches reports whether sel identifies this option by either id or value.
func (o FilterOption) Matches(sel string) bool {
	return sel != "" && (sel == o.ID || sel == o.Value)
}

// UnmarshalJSON accepts id/value/clusterId/accountId as string or number.
func (o *FilterOption) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		Name      string          `json:"name"`
		Value     json.RawMessage `json:"value"`
		ClusterID json.RawMessage `json:"clusterId"`
		AccountID json.RawMessage `json:"accountId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.ID = flexString(raw.ID)
	o.Name = raw.Name
	o.Value = flexString(raw.Value)
	o.ClusterID = flexString(raw.ClusterID)
	o.AccountID = flexString(raw.AccountID)
	return nil
}

// flexString renders a raw JSON scalar (string or number) as a plain string.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Trim(string(raw), `"`)
}

// Months is the canonical month order used for chart grouping keys.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthIndex returns the calendar index (0-11) of a month name, or -1.
func MonthIndex(name string) int {
	for i, m := range Months {
		if m == name {
			return i
		}
	}
	return -1
}

// KPIOptions is the fallback KPI list when /filters/options/kpis is empty.
var KPIOptions = []string{
	"Revenue",
	"Cost",
	"Gross Profit",
	"Margin %",
	"Headcount",
	"Utilization %",
	"Revenue per Head",
	"Cost per Head",
}
