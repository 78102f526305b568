// Package summary derives the read-only views of a projection: filtered rows,
// filter options, KPIs, the weekly status pivot and chart series.
package summary

import (
	"sort"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/LotfiJL/Jelo/pkg/domain/services"
	"github.com/shopspring/decimal"
)

// Selection is the chosen values of one filter dimension.
// An empty selection without All matches nothing.
type Selection struct {
	All    bool
	Values []string
}

// SelectAll returns a selection matching every value
func SelectAll() Selection {
	return Selection{All: true}
}

// Select returns a selection matching exactly the given values
func Select(values ...string) Selection {
	return Selection{Values: values}
}

// Matches reports whether value is selected
func (s Selection) Matches(value string) bool {
	if s.All {
		return true
	}
	for _, v := range s.Values {
		if v == value {
			return true
		}
	}
	return false
}

// RowFilter combines the reference, client and week selections
type RowFilter struct {
	References Selection
	Clients    Selection
	Weeks      Selection
}

// AllRows returns a filter selecting everything
func AllRows() RowFilter {
	return RowFilter{References: SelectAll(), Clients: SelectAll(), Weeks: SelectAll()}
}

// Matches reports whether the row passes every dimension
func (f RowFilter) Matches(row *entities.PlanningRow) bool {
	return f.References.Matches(string(row.Reference)) &&
		f.Clients.Matches(row.Client) &&
		f.Weeks.Matches(string(row.Week))
}

// Filter returns the rows matching the filter, preserving order
func Filter(rows []entities.PlanningRow, filter RowFilter) []entities.PlanningRow {
	filtered := make([]entities.PlanningRow, 0, len(rows))
	for i := range rows {
		if filter.Matches(&rows[i]) {
			filtered = append(filtered, rows[i])
		}
	}
	return filtered
}

// ByStatus returns the rows carrying the given status
func ByStatus(rows []entities.PlanningRow, status entities.StockStatus) []entities.PlanningRow {
	var matched []entities.PlanningRow
	for _, row := range rows {
		if row.Status == status {
			matched = append(matched, row)
		}
	}
	return matched
}

// FilterOptions lists the distinct values offered by each filter dimension
type FilterOptions struct {
	References []entities.Reference `json:"references"`
	Clients    []string             `json:"clients"`
	Weeks      []entities.Week      `json:"weeks"`
}

// Options collects distinct references, clients and weeks in first-appearance order
func Options(rows []entities.PlanningRow) FilterOptions {
	opts := FilterOptions{
		References: []entities.Reference{},
		Clients:    []string{},
		Weeks:      []entities.Week{},
	}
	seenRefs := make(map[entities.Reference]bool)
	seenClients := make(map[string]bool)
	seenWeeks := make(map[entities.Week]bool)

	for _, row := range rows {
		if !seenRefs[row.Reference] {
			seenRefs[row.Reference] = true
			opts.References = append(opts.References, row.Reference)
		}
		if !seenClients[row.Client] {
			seenClients[row.Client] = true
			opts.Clients = append(opts.Clients, row.Client)
		}
		if !seenWeeks[row.Week] {
			seenWeeks[row.Week] = true
			opts.Weeks = append(opts.Weeks, row.Week)
		}
	}
	return opts
}

// KPIs are the headline indicators of a set of projected rows
type KPIs struct {
	TotalNeed decimal.Decimal `json:"total_need"`
	// TotalRemaining is the integer part of the summed remaining stock, truncated toward zero
	TotalRemaining int64 `json:"total_remaining"`
	AlertRows      int   `json:"alert_rows"`
	References     int   `json:"references"`
}

// ComputeKPIs aggregates need, remaining stock, alerts and distinct references
func ComputeKPIs(rows []entities.PlanningRow) KPIs {
	totalNeed := decimal.Zero
	totalRemaining := decimal.Zero
	alerts := 0
	refs := make(map[entities.Reference]struct{})

	for i := range rows {
		totalNeed = totalNeed.Add(rows[i].Need)
		totalRemaining = totalRemaining.Add(rows[i].RemainingStock)
		if rows[i].Status != entities.StatusOK {
			alerts++
		}
		refs[rows[i].Reference] = struct{}{}
	}

	return KPIs{
		TotalNeed:      totalNeed,
		TotalRemaining: totalRemaining.IntPart(),
		AlertRows:      alerts,
		References:     len(refs),
	}
}

// WeekStatusCount is one row of the weekly status pivot: distinct references per status
type WeekStatusCount struct {
	Week              entities.Week `json:"week"`
	OK                int           `json:"ok"`
	SafetyStockBreach int           `json:"safety_stock_breach"`
	Shortfall         int           `json:"shortfall"`
}

// Count returns the column of the given status
func (w WeekStatusCount) Count(status entities.StockStatus) int {
	switch status {
	case entities.StatusOK:
		return w.OK
	case entities.StatusSafetyStockBreach:
		return w.SafetyStockBreach
	case entities.StatusShortfall:
		return w.Shortfall
	default:
		return 0
	}
}

// WeeklyStatusCounts pivots distinct reference counts by week and status.
// Weeks follow week order; every status column is present even when zero.
func WeeklyStatusCounts(rows []entities.PlanningRow) []WeekStatusCount {
	type cell struct {
		week   entities.Week
		status entities.StockStatus
	}
	seen := make(map[cell]map[entities.Reference]struct{})
	var weeks []entities.Week
	weekSeen := make(map[entities.Week]bool)

	for _, row := range rows {
		if !weekSeen[row.Week] {
			weekSeen[row.Week] = true
			weeks = append(weeks, row.Week)
		}
		key := cell{row.Week, row.Status}
		if seen[key] == nil {
			seen[key] = make(map[entities.Reference]struct{})
		}
		seen[key][row.Reference] = struct{}{}
	}

	wc := services.NewWeekComparator()
	sort.SliceStable(weeks, func(i, j int) bool {
		return wc.CompareWeeks(weeks[i], weeks[j]) < 0
	})

	pivot := make([]WeekStatusCount, 0, len(weeks))
	for _, week := range weeks {
		pivot = append(pivot, WeekStatusCount{
			Week:              week,
			OK:                len(seen[cell{week, entities.StatusOK}]),
			SafetyStockBreach: len(seen[cell{week, entities.StatusSafetyStockBreach}]),
			Shortfall:         len(seen[cell{week, entities.StatusShortfall}]),
		})
	}
	return pivot
}

// SeriesPoint is one projected balance on a chart line
type SeriesPoint struct {
	Week      entities.Week        `json:"week"`
	Remaining decimal.Decimal      `json:"remaining"`
	Status    entities.StockStatus `json:"status"`
}

// ReferenceSeries is the chart line of one reference
type ReferenceSeries struct {
	Reference entities.Reference `json:"reference"`
	Points    []SeriesPoint      `json:"points"`
}

// Series holds the remaining stock lines and the safety stock threshold
type Series struct {
	Weeks []entities.Week   `json:"weeks"`
	Lines []ReferenceSeries `json:"lines"`
	// Threshold is the largest safety stock among the rows
	Threshold decimal.Decimal `json:"threshold"`
}

// StockSeries builds one line per reference over the week axis of rows
func StockSeries(rows []entities.PlanningRow) Series {
	wc := services.NewWeekComparator()
	series := Series{
		Weeks: []entities.Week{},
		Lines: []ReferenceSeries{},
	}

	weekSeen := make(map[entities.Week]bool)
	lineIndex := make(map[entities.Reference]int)
	for i, row := range rows {
		if i == 0 || row.SafetyStock.GreaterThan(series.Threshold) {
			series.Threshold = row.SafetyStock
		}
		if !weekSeen[row.Week] {
			weekSeen[row.Week] = true
			series.Weeks = append(series.Weeks, row.Week)
		}
		idx, ok := lineIndex[row.Reference]
		if !ok {
			idx = len(series.Lines)
			lineIndex[row.Reference] = idx
			series.Lines = append(series.Lines, ReferenceSeries{Reference: row.Reference})
		}
		series.Lines[idx].Points = append(series.Lines[idx].Points, SeriesPoint{
			Week:      row.Week,
			Remaining: row.RemainingStock,
			Status:    row.Status,
		})
	}

	sort.SliceStable(series.Weeks, func(i, j int) bool {
		return wc.CompareWeeks(series.Weeks[i], series.Weeks[j]) < 0
	})
	for i := range series.Lines {
		points := series.Lines[i].Points
		sort.SliceStable(points, func(a, b int) bool {
			return wc.CompareWeeks(points[a].Week, points[b].Week) < 0
		})
	}
	return series
}
