package models

import (
	"strings"
	"time"
)

// FilterAll is the sentinel meaning "no constraint" for a filter criterion.
const FilterAll = "all"

// ViewContext names one of the two independently filtered views.
type ViewContext string

const (
	ContextSummary ViewContext = "summary"
	ContextDetail  ViewContext = "detail"
)

// ParseViewContext accepts the context names case-insensitively.
func ParseViewContext(raw string) (ViewContext, bool) {
	switch ViewContext(strings.ToLower(strings.TrimSpace(raw))) {
	case ContextSummary:
		return ContextSummary, true
	case ContextDetail:
		return ContextDetail, true
	default:
		return "", false
	}
}

// FilterCriteria is a filter selection. Each field is FilterAll or an exact match value.
type FilterCriteria struct {
	Division string `json:"division"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
}

// AllFilters selects every record.
func AllFilters() FilterCriteria {
	return FilterCriteria{Division: FilterAll, Brand: FilterAll, Category: FilterAll}
}

// Normalize turns blank criteria into FilterAll.
func (f FilterCriteria) Normalize() FilterCriteria {
	norm := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return FilterAll
		}
		return v
	}
	return FilterCriteria{Division: norm(f.Division), Brand: norm(f.Brand), Category: norm(f.Category)}
}

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortState is the current column sort of the detail table. An empty Column means unsorted.
type SortState struct {
	Column    string        `json:"column,omitempty"`
	Direction SortDirection `json:"direction"`
}

// Toggle applies a click on column: same column flips direction, a new column starts ascending.
func (s SortState) Toggle(column string) SortState {
	if s.Column == column {
		if s.Direction == SortAsc {
			return SortState{Column: column, Direction: SortDesc}
		}
		return SortState{Column: column, Direction: SortAsc}
	}
	return SortState{Column: column, Direction: SortAsc}
}

// MetricMode selects the value basis of the summary charts.
type MetricMode string

const (
	MetricUnits MetricMode = "unit"
	MetricCogs  MetricMode = "cog"
)

// ParseMetricMode accepts "unit(s)" and "cog(s)".
func ParseMetricMode(raw string) (MetricMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "unit", "units":
		return MetricUnits, true
	case "cog", "cogs":
		return MetricCogs, true
	default:
		return "", false
	}
}

// NoticeLevel is the tone of a status message.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a dismissible message surfaced after loads and actions.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
	At    time.Time   `json:"at"`
}

// AppState is the serializable UI state that used to live in module globals.
type AppState struct {
	SummaryFilters FilterCriteria `json:"summaryFilters"`
	DetailFilters  FilterCriteria `json:"detailFilters"`
	Sort           SortState      `json:"sort"`
	MetricMode     MetricMode     `json:"metricMode"`
	Notice         *Notice        `json:"notice,omitempty"`
}

// DefaultAppState is the state of a freshly opened grid.
func DefaultAppState() AppState {
	return AppState{
		SummaryFilters: AllFilters(),
		DetailFilters:  AllFilters(),
		Sort:           SortState{Direction: SortAsc},
		MetricMode:     MetricUnits,
	}
}

// Filters returns the selection of the given context.
func (s AppState) Filters(ctx ViewContext) FilterCriteria {
	if ctx == ContextDetail {
		return s.DetailFilters
	}
	return s.SummaryFilters
}
