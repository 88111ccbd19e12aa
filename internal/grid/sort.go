package grid

import (
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
)

type sortValue struct {
	num     float64
	str     string
	numeric bool
}

func (v sortValue) text() string {
	if v.numeric {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// resolveSortValue reads the comparable value of key for rec. Computed columns
// are always derived from the current channel quantities.
func resolveSortValue(rec models.AllocationRecord, key string) sortValue {
	switch key {
	case ColumnDivision:
		return sortValue{str: rec.Division}
	case ColumnSignature:
		return sortValue{str: rec.BrandSignature}
	case ColumnEAN:
		return sortValue{str: rec.EAN}
	case ColumnHierarchy:
		return sortValue{str: rec.Hierarchy}
	case ColumnName:
		return sortValue{str: rec.Name}
	case ColumnStockOrigin:
		return sortValue{str: rec.StockOrigin}
	case ColumnUnits:
		return sortValue{num: float64(rec.Units), numeric: true}
	case ColumnAllocAccu:
		return sortValue{num: rec.AllocationPercent().Float(), numeric: true}
	case ColumnRemaining:
		return sortValue{num: float64(rec.RemainingQuantity()), numeric: true}
	}

	if ch, ok := ChannelFromColumn(key); ok {
		return sortValue{num: float64(rec.Allocation(ch)), numeric: true}
	}
	return sortValue{}
}

// Sort returns a new slice ordered by key. Ties keep their input order in both
// directions. Numbers compare numerically, everything else with a locale collator.
func Sort(records []models.AllocationRecord, key string, dir models.SortDirection) []models.AllocationRecord {
	type keyed struct {
		rec models.AllocationRecord
		val sortValue
	}

	items := make([]keyed, len(records))
	for i, rec := range records {
		items[i] = keyed{rec: rec, val: resolveSortValue(rec, key)}
	}

	col := collate.New(language.Und)
	compare := func(a, b sortValue) int {
		if a.numeric && b.numeric {
			switch {
			case a.num < b.num:
				return -1
			case a.num > b.num:
				return 1
			default:
				return 0
			}
		}
		return col.CompareString(a.text(), b.text())
	}

	sort.SliceStable(items, func(i, j int) bool {
		c := compare(items[i].val, items[j].val)
		if dir == models.SortDesc {
			return c > 0
		}
		return c < 0
	})

	out := make([]models.AllocationRecord, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

// SortByState applies s, leaving the order untouched when no column is selected.
func SortByState(records []models.AllocationRecord, s models.SortState) []models.AllocationRecord {
	if s.Column == "" {
		out := make([]models.AllocationRecord, len(records))
		copy(out, records)
		return out
	}
	return Sort(records, s.Column, s.Direction)
}
