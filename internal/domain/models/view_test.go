package models

import "testing"

func TestSortState_Toggle(t *testing.T) {
	s := SortState{Direction: SortAsc}

	s = s.Toggle("units")
	if s.Column != "units" || s.Direction != SortAsc {
		t.Fatalf("new column should start ascending, got %+v", s)
	}
	s = s.Toggle("units")
	if s.Direction != SortDesc {
		t.Fatalf("same column should flip to desc, got %+v", s)
	}
	s = s.Toggle("units")
	if s.Direction != SortAsc {
		t.Fatalf("same column should flip back to asc, got %+v", s)
	}
	s = s.Toggle("units").Toggle("name")
	if s.Column != "name" || s.Direction != SortAsc {
		t.Fatalf("switching column resets to asc, got %+v", s)
	}
}

func TestParseCommandType(t *testing.T) {
	tests := []struct {
		raw  string
		want CommandType
	}{
		{"edit", CommandEdit},
		{"/Edit", CommandEdit},
		{"onFilterChange", CommandFilter},
		{"filter", CommandFilter},
		{"onSortRequest", CommandSort},
		{"metric", CommandMetric},
		{"onMetricModeChange", CommandMetric},
		{"dismissNotice", CommandDismiss},
		{"delete", CommandUnknown},
		{"", CommandUnknown},
	}
	for _, tt := range tests {
		if got := ParseCommandType(tt.raw); got != tt.want {
			t.Errorf("ParseCommandType(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestParseViewContextAndMetricMode(t *testing.T) {
	if ctx, ok := ParseViewContext(" Detail "); !ok || ctx != ContextDetail {
		t.Errorf("expected detail, got %q %v", ctx, ok)
	}
	if _, ok := ParseViewContext("overview"); ok {
		t.Errorf("unknown context should be rejected")
	}
	if mode, ok := ParseMetricMode("COGS"); !ok || mode != MetricCogs {
		t.Errorf("expected cog, got %q %v", mode, ok)
	}
	if _, ok := ParseMetricMode("euros"); ok {
		t.Errorf("unknown mode should be rejected")
	}
}

func TestAppState_Defaults(t *testing.T) {
	s := DefaultAppState()
	if s.Filters(ContextSummary) != AllFilters() || s.Filters(ContextDetail) != AllFilters() {
		t.Fatalf("filters should default to all")
	}
	if s.MetricMode != MetricUnits || s.Sort.Column != "" || s.Notice != nil {
		t.Fatalf("unexpected defaults %+v", s)
	}

	s.DetailFilters.Division = "Luxe"
	if s.Filters(ContextSummary).Division != FilterAll {
		t.Fatalf("contexts must be independent")
	}
}
