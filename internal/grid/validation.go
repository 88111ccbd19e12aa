package grid

import (
	"sort"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
)

// OverAllocationMessage is the banner text shown while any visible row is over-allocated.
const OverAllocationMessage = "Total allocation exceeds available units for some products."

// IsInvalid applies the row rule: units > 0 and more than units allocated.
// Under-allocation is never an error.
func IsInvalid(rec models.AllocationRecord) bool {
	return rec.OverAllocated()
}

// Validation tracks the invalid flag of every displayed row and the banner derived from them.
type Validation struct {
	rows   map[models.RecordID]bool
	banner bool
}

// ValidationSummary is the serializable view of a Validation.
type ValidationSummary struct {
	InvalidIDs   []models.RecordID `json:"invalidIds"`
	BannerActive bool              `json:"bannerActive"`
	Message      string            `json:"message,omitempty"`
}

// ValidateAll derives the invalid state of every distinct record of the view.
func ValidateAll(view []models.AllocationRecord) *Validation {
	v := &Validation{rows: make(map[models.RecordID]bool, len(view))}
	for _, rec := range view {
		if _, seen := v.rows[rec.ID]; seen {
			continue
		}
		v.rows[rec.ID] = IsInvalid(rec)
	}
	v.rescan()
	return v
}

// ApplyEdit re-evaluates one edited row and rescans the displayed rows for the banner.
// Rows that are not displayed do not affect the state.
func (v *Validation) ApplyEdit(rec models.AllocationRecord) {
	if _, displayed := v.rows[rec.ID]; !displayed {
		return
	}
	v.rows[rec.ID] = IsInvalid(rec)
	v.rescan()
}

func (v *Validation) rescan() {
	v.banner = false
	for _, invalid := range v.rows {
		if invalid {
			v.banner = true
			return
		}
	}
}

// Invalid reports the flag of a displayed row.
func (v *Validation) Invalid(id models.RecordID) bool {
	return v.rows[id]
}

// BannerActive is the logical OR of every displayed row's invalid flag.
func (v *Validation) BannerActive() bool {
	return v.banner
}

// Summary lists invalid ids in sorted order together with the banner state.
func (v *Validation) Summary() ValidationSummary {
	ids := make([]models.RecordID, 0)
	for id, invalid := range v.rows {
		if invalid {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := ValidationSummary{InvalidIDs: ids, BannerActive: v.banner}
	if v.banner {
		out.Message = OverAllocationMessage
	}
	return out
}

// CountOverAllocated counts the invalid rows of records.
func CountOverAllocated(records []models.AllocationRecord) int {
	n := 0
	for _, rec := range records {
		if IsInvalid(rec) {
			n++
		}
	}
	return n
}
