package grid

import "github.com/mamadbah2/allocgrid/internal/domain/models"

// Progress aggregates allocation totals over a whole dataset.
type Progress struct {
	TotalUnits     int  `json:"totalUnits"`
	TotalAllocated int  `json:"totalAllocated"`
	HasPartial     bool `json:"hasPartial"`
}

// ComputeProgress sums units and allocations and notes any partially allocated row.
func ComputeProgress(records []models.AllocationRecord) Progress {
	var p Progress
	for _, rec := range records {
		allocated := rec.TotalAllocated()
		p.TotalUnits += rec.Units
		p.TotalAllocated += allocated
		if allocated > 0 && allocated < rec.Units {
			p.HasPartial = true
		}
	}
	return p
}

// DeriveStatus computes the workflow status from upstream hints and allocation progress.
//
// Upstream VALIDATED wins over everything, then the first ERROR or FAILED found
// (dataset hint first, then records in order). Otherwise the status follows the totals.
// A fully allocated dataset is IN_PROGRESS: there is no separate complete state.
func DeriveStatus(records []models.AllocationRecord, hint models.WorkflowStatus) models.WorkflowStatus {
	hints := make([]models.WorkflowStatus, 0, len(records)+1)
	if hint != "" {
		hints = append(hints, hint)
	}
	for _, rec := range records {
		if st, ok := models.ParseWorkflowStatus(rec.APIStatus); ok {
			hints = append(hints, st)
		}
	}

	for _, h := range hints {
		if h == models.StatusValidated {
			return models.StatusValidated
		}
	}
	for _, h := range hints {
		if h == models.StatusError || h == models.StatusFailed {
			return h
		}
	}

	p := ComputeProgress(records)
	switch {
	case p.TotalUnits == 0:
		return models.StatusNoData
	case p.TotalAllocated == 0:
		return models.StatusToBeDone
	default:
		return models.StatusInProgress
	}
}
