package grid

import (
	"reflect"
	"testing"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
)

func TestExportHeader(t *testing.T) {
	got := ExportHeader([]string{"Retail", "Online"})
	want := []string{
		"Division", "Brand", "EAN", "Category", "Product Name", "Total Units",
		"Stock Origin", "Allocation %", "Remaining Qty", "Retail", "Online",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExportRow(t *testing.T) {
	r := models.AllocationRecord{
		ID: "7", Division: "Luxe", BrandSignature: "YSL", EAN: "300", Hierarchy: "Makeup",
		Name: "Lipstick", StockOrigin: "FR", Units: 100,
		Channels: map[string]int{"Retail": 60, "Online": 50},
	}

	got := ExportRow(r, []string{"Retail", "Online", "Outlet"})
	want := []any{"Luxe", "YSL", "300", "Makeup", "Lipstick", 100, "FR", "110%", -10, 60, 50, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExportGrid(t *testing.T) {
	records := []models.AllocationRecord{
		{ID: "1", Units: 0, Channels: map[string]int{"A": 5}},
		{ID: "2", Units: 4},
	}
	g := ExportGrid(records, []string{"A"})

	if len(g) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(g))
	}
	if g[0][0] != "Division" || g[0][len(g[0])-1] != "A" {
		t.Fatalf("unexpected header row %v", g[0])
	}
	if g[1][7] != "Infinity%" {
		t.Fatalf("expected Infinity%% for zero-unit row, got %v", g[1][7])
	}
	if g[2][7] != "0%" || g[2][8] != 4 {
		t.Fatalf("unexpected second row %v", g[2])
	}
	for _, row := range g {
		if len(row) != len(g[0]) {
			t.Fatalf("row width %d differs from header width %d", len(row), len(g[0]))
		}
	}
}

func TestTableColumns(t *testing.T) {
	cols := TableColumns([]string{"A"})
	if len(cols) != 10 {
		t.Fatalf("expected 10 columns, got %d", len(cols))
	}
	if cols[0].Header != "Div" || cols[7].Header != "Allocation %" {
		t.Fatalf("unexpected static headers %+v", cols[:9])
	}
	last := cols[9]
	if last.Key != "channels.A" || last.Channel != "A" || last.Header != "A" {
		t.Fatalf("unexpected channel column %+v", last)
	}
	if ch, ok := ChannelFromColumn(last.Key); !ok || ch != "A" {
		t.Fatalf("round trip failed: %q %v", ch, ok)
	}
}
