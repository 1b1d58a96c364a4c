// Package filter holds the dashboard FilterState, its reducer operations,
// and the cascading options resolver that keeps dependent option lists
// consistent with upstream selections.
package filter

import (
	"sort"
	"strconv"
	"strings"
)

// Field names a set-valued FilterState field for the generic reducer ops.
type Field string

const (
	FieldClusters  Field = "clusters"
	FieldAccounts  Field = "accounts"
	FieldProjects  Field = "projects"
	FieldAnalyzeBy Field = "analyzeBy"
	FieldMonths    Field = "months"
)

// MarginMode selects which side of the margin range a threshold pins.
type MarginMode string

const (
	MarginGreater MarginMode = "greater"
	MarginLesser  MarginMode = "lesser"
)

// Margin range bounds in percentage units.
const (
	MarginFloor   = -100.0
	MarginCeiling = 100.0
)

// DefaultMarginRange is the range applied at mount and after ClearAll.
func DefaultMarginRange() [2]float64 { return [2]float64{30, MarginCeiling} }

// State is the canonical dashboard query. One instance lives per dashboard
// session; it is created empty at mount and never persisted.
type State struct {
	Clusters    []string
	Accounts    []string
	Projects    []string
	AnalyzeBy   []string
	Years       []int
	Months      []string
	MarginRange [2]float64
}

// New returns a State with empty selections and the default margin range.
func New() State {
	return State{MarginRange: DefaultMarginRange()}
}

// Clone returns a deep copy, so reducer ops never alias the source slices.
func (s State) Clone() State {
	c := s
	c.Clusters = append([]string(nil), s.Clusters...)
	c.Accounts = append([]string(nil), s.Accounts...)
	c.Projects = append([]string(nil), s.Projects...)
	c.AnalyzeBy = append([]string(nil), s.AnalyzeBy...)
	c.Years = append([]int(nil), s.Years...)
	c.Months = append([]string(nil), s.Months...)
	return c
}

func (s State) field(f Field) []string {
	switch f {
	case FieldClusters:
		return s.Clusters
	case FieldAccounts:
		return s.Accounts
	case FieldProjects:
		return s.Projects
	case FieldAnalyzeBy:
		return s.AnalyzeBy
	case FieldMonths:
		return s.Months
	}
	return nil
}

func (s *State) setField(f Field, values []string) {
	switch f {
	case FieldClusters:
		s.Clusters = values
	case FieldAccounts:
		s.Accounts = values
	case FieldProjects:
		s.Projects = values
	case FieldAnalyzeBy:
		s.AnalyzeBy = values
	case FieldMonths:
		s.Months = values
	}
}

// Toggle adds value to the named field if absent, else removes it. Values
// not present in the current option list are still accepted; stale
// selections are the resolver's problem, not the reducer's.
func (s State) Toggle(f Field, value string) State {
	out := s.Clone()
	out.setField(f, toggleString(out.field(f), value))
	return out
}

// ToggleYear is Toggle for the integer-valued years field.
func (s State) ToggleYear(year int) State {
	out := s.Clone()
	cur := out.Years
	for i, y := range cur {
		if y == year {
			out.Years = append(cur[:i:i], cur[i+1:]...)
			return out
		}
	}
	out.Years = append(cur, year)
	return out
}

// SetAll replaces a field wholesale. Select-all passes every option value;
// select-all with everything already selected passes nil.
func (s State) SetAll(f Field, values []string) State {
	out := s.Clone()
	out.setField(f, append([]string(nil), values...))
	return out
}

// SetYears replaces the years field wholesale.
func (s State) SetYears(years []int) State {
	out := s.Clone()
	out.Years = append([]int(nil), years...)
	return out
}

// SetMarginThreshold maps a single threshold to an asymmetric range:
// greater pins [threshold, 100], lesser pins [-100, threshold]. Input that
// does not parse as a number coerces to 0.
func (s State) SetMarginThreshold(mode MarginMode, input string) State {
	value, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		value = 0
	}

	out := s.Clone()
	if mode == MarginLesser {
		out.MarginRange = [2]float64{MarginFloor, value}
	} else {
		out.MarginRange = [2]float64{value, MarginCeiling}
	}
	return out
}

// ClearAll resets every set-valued field to empty and the margin range to
// its default, regardless of prior state.
func (s State) ClearAll() State {
	return New()
}

// ActiveCount returns the number of individual selections across all
// set-valued fields, for the filter badge.
func (s State) ActiveCount() int {
	return len(s.Clusters) + len(s.Accounts) + len(s.Projects) +
		len(s.AnalyzeBy) + len(s.Years) + len(s.Months)
}

// Query renders the state as /pnl query parameters: comma-joined id lists,
// omitting empty fields.
func (s State) Query() map[string]string {
	q := make(map[string]string)
	if len(s.Clusters) > 0 {
		q["clusterIds"] = strings.Join(s.Clusters, ",")
	}
	if len(s.Accounts) > 0 {
		q["accountIds"] = strings.Join(s.Accounts, ",")
	}
	if len(s.Projects) > 0 {
		q["projectIds"] = strings.Join(s.Projects, ",")
	}
	if len(s.Years) > 0 {
		parts := make([]string, len(s.Years))
		for i, y := range s.Years {
			parts[i] = strconv.Itoa(y)
		}
		q["years"] = strings.Join(parts, ",")
	}
	if len(s.Months) > 0 {
		q["months"] = strings.Join(s.Months, ",")
	}
	return q
}

// Equal reports whether two states select the same values, ignoring order
// within each field.
func (s State) Equal(other State) bool {
	return equalSets(s.Clusters, other.Clusters) &&
		equalSets(s.Accounts, other.Accounts) &&
		equalSets(s.Projects, other.Projects) &&
		equalSets(s.AnalyzeBy, other.AnalyzeBy) &&
		equalYears(s.Years, other.Years) &&
		equalSets(s.Months, other.Months) &&
		s.MarginRange == other.MarginRange
}

func toggleString(list []string, value string) []string {
	for i, v := range list {
		if v == value {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, value)
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func equalYears(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]int(nil), a...)
	bs := append([]int(nil), b...)
	sort.Ints(as)
	sort.Ints(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
