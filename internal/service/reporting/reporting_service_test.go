package reporting

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
	"github.com/mamadbah2/allocgrid/internal/grid"
	"github.com/mamadbah2/allocgrid/internal/service/allocation"
)

type staticSource struct {
	view allocation.View
}

func (s staticSource) View() allocation.View { return s.view }

func fixtureView() allocation.View {
	records := []models.AllocationRecord{
		{ID: "1", Division: "Luxe", BrandSignature: "YSL", EAN: "100", Units: 100, CogsTotal: decimal.NewFromInt(500), Channels: map[string]int{"A": 60, "B": 50}},
		{ID: "2", Division: "CPD", BrandSignature: "Maybelline", EAN: "200", Units: 40, CogsTotal: decimal.NewFromInt(80), Channels: map[string]int{"A": 40}},
		{ID: "3", Division: "Luxe", BrandSignature: "Lancome", EAN: "300", Units: 10, CogsTotal: decimal.NewFromInt(30), Channels: map[string]int{"B": 2}},
	}
	state := models.DefaultAppState()
	return allocation.View{
		Dataset:    grid.Dataset{Records: records, Channels: []string{"A", "B"}},
		State:      state,
		Validation: grid.ValidateAll(records).Summary(),
		Status:     grid.DeriveStatus(records, ""),
	}
}

func TestSummary(t *testing.T) {
	view := fixtureView()
	view.State.SummaryFilters = models.FilterCriteria{Division: "Luxe", Brand: models.FilterAll, Category: models.FilterAll}
	view.State.MetricMode = models.MetricCogs
	svc := NewService(staticSource{view: view}, nil)

	got := svc.Summary()
	if got.Metrics.TotalUnits != 110 || !got.Metrics.TotalCogs.Equal(decimal.NewFromInt(530)) {
		t.Fatalf("unexpected metrics %+v", got.Metrics)
	}
	if got.Breakdown.Mode != models.MetricCogs {
		t.Fatalf("breakdown should follow the metric mode")
	}
	// A: 500*60/100 = 300, B: 500*50/100 + 30*2/10 = 256.
	if !got.Breakdown.Channels[0].Value.Equal(decimal.NewFromInt(300)) || !got.Breakdown.Channels[1].Value.Equal(decimal.NewFromInt(256)) {
		t.Fatalf("unexpected breakdown %+v", got.Breakdown.Channels)
	}
	if len(got.DivisionChart) != 1 || got.DivisionChart[0].Name != "Luxe" {
		t.Fatalf("unexpected division chart %+v", got.DivisionChart)
	}
	if len(got.BrandChart) != 2 || got.BrandChart[0].Name != "YSL" {
		t.Fatalf("unexpected brand chart %+v", got.BrandChart)
	}
	if got.Status.Status != models.StatusInProgress || got.Status.Label != "Allocation in progress" {
		t.Fatalf("unexpected badge %+v", got.Status)
	}
}

func TestDetail(t *testing.T) {
	view := fixtureView()
	view.State.Sort = models.SortState{Column: grid.ColumnRemaining, Direction: models.SortAsc}
	svc := NewService(staticSource{view: view}, nil)

	got := svc.Detail()
	if len(got.Rows) != 3 || len(got.Columns) != 11 {
		t.Fatalf("expected 3 rows and 11 columns, got %d/%d", len(got.Rows), len(got.Columns))
	}

	first := got.Rows[0]
	if first.ID != "1" || first.Remaining != -10 || first.RemainingClass != RemainingNegative || !first.Invalid || first.PercentText != "110%" {
		t.Fatalf("unexpected first row %+v", first)
	}
	second := got.Rows[1]
	if second.ID != "2" || second.RemainingClass != RemainingZero || second.Invalid {
		t.Fatalf("unexpected second row %+v", second)
	}
	if got.Rows[2].RemainingClass != RemainingPositive {
		t.Fatalf("unexpected third row %+v", got.Rows[2])
	}
	if !got.Validation.BannerActive || got.Validation.Message != grid.OverAllocationMessage {
		t.Fatalf("expected active banner, got %+v", got.Validation)
	}
	if got.Metrics.RowCount != 3 || got.Metrics.TotalUnits != 150 {
		t.Fatalf("unexpected metrics %+v", got.Metrics)
	}
}

func TestExport(t *testing.T) {
	view := fixtureView()
	view.State.DetailFilters = models.FilterCriteria{Division: "Luxe"}
	view.State.Sort = models.SortState{Column: grid.ColumnUnits, Direction: models.SortAsc}
	svc := NewService(staticSource{view: view}, nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }

	detail, err := svc.Export(models.ContextDetail)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if detail.Filename != "allocation_details_2026-05-04.xlsx" {
		t.Fatalf("unexpected filename %q", detail.Filename)
	}
	if len(detail.Rows) != 3 || detail.Rows[1][2] != "300" || detail.Rows[2][2] != "100" {
		t.Fatalf("expected filtered rows sorted by units, got %v", detail.Rows)
	}

	summary, err := svc.Export(models.ContextSummary)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if summary.Filename != "allocation_summary_2026-05-04.xlsx" || len(summary.Rows) != 4 {
		t.Fatalf("unexpected summary export %q with %d rows", summary.Filename, len(summary.Rows))
	}

	if _, err := svc.Export("overview"); !errors.Is(err, allocation.ErrUnknownContext) {
		t.Fatalf("expected ErrUnknownContext, got %v", err)
	}
}
