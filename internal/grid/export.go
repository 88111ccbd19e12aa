package grid

import "github.com/mamadbah2/allocgrid/internal/domain/models"

// ExportHeader returns the header labels of the export grid. The labels and their
// order are a compatibility contract for tools that parse exports.
func ExportHeader(channels []string) []string {
	cols := TableColumns(channels)
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = col.ExportHeader
	}
	return out
}

// ExportRow flattens one record in table column order. The allocation percentage
// is text; every other numeric cell is an int.
func ExportRow(rec models.AllocationRecord, channels []string) []any {
	row := []any{
		rec.Division,
		rec.BrandSignature,
		rec.EAN,
		rec.Hierarchy,
		rec.Name,
		rec.Units,
		rec.StockOrigin,
		rec.AllocationPercent().String(),
		rec.RemainingQuantity(),
	}
	for _, ch := range channels {
		row = append(row, rec.Allocation(ch))
	}
	return row
}

// ExportRows flattens every record of the subset.
func ExportRows(records []models.AllocationRecord, channels []string) [][]any {
	out := make([][]any, 0, len(records))
	for _, rec := range records {
		out = append(out, ExportRow(rec, channels))
	}
	return out
}

// ExportGrid is the header row followed by one row per record.
func ExportGrid(records []models.AllocationRecord, channels []string) [][]any {
	header := ExportHeader(channels)
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}

	grid := make([][]any, 0, len(records)+1)
	grid = append(grid, headerRow)
	return append(grid, ExportRows(records, channels)...)
}
