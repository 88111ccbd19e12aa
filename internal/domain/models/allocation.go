package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RecordID is the opaque, server-assigned identifier of an allocation row.
// Upstream may send it as a JSON number or string; both decode to the same value.
type RecordID string

// UnmarshalJSON accepts numeric and string identifiers.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode record id: %w", err)
		}
		*id = RecordID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode record id: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// AllocationRecord is one product/SKU row of the allocation plan.
//
// Only Units and Channels are canonical for the allocation math; every derived
// value (total, remaining, percentage) is recomputed from them on demand.
type AllocationRecord struct {
	ID             RecordID        `json:"id" bson:"id"`
	Division       string          `json:"div,omitempty" bson:"div,omitempty"`
	BrandSignature string          `json:"signature,omitempty" bson:"signature,omitempty"`
	Hierarchy      string          `json:"hierarchy,omitempty" bson:"hierarchy,omitempty"`
	Name           string          `json:"name,omitempty" bson:"name,omitempty"`
	EAN            string          `json:"ean,omitempty" bson:"ean,omitempty"`
	StockOrigin    string          `json:"stockOrigin,omitempty" bson:"stock_origin,omitempty"`
	Units          int             `json:"units" bson:"units"`
	CogsTotal      decimal.Decimal `json:"cogs" bson:"cogs"`
	Channels       map[string]int  `json:"channels" bson:"channels"`
	APIStatus      string          `json:"api_status,omitempty" bson:"api_status,omitempty"`
}

// Allocation returns the quantity assigned to channel, 0 when absent.
func (r AllocationRecord) Allocation(channel string) int {
	return r.Channels[channel]
}

// TotalAllocated sums every channel quantity held by the record.
func (r AllocationRecord) TotalAllocated() int {
	total := 0
	for _, qty := range r.Channels {
		total += qty
	}
	return total
}

// RemainingQuantity is units minus the allocated total. It goes negative on over-allocation.
func (r AllocationRecord) RemainingQuantity() int {
	return r.Units - r.TotalAllocated()
}

// AllocationPercent reports how much of the record's units are allocated.
func (r AllocationRecord) AllocationPercent() Percent {
	return ComputePercent(r.Units, r.TotalAllocated())
}

// OverAllocated holds when the record has units and more than all of them are assigned.
func (r AllocationRecord) OverAllocated() bool {
	return r.Units > 0 && r.TotalAllocated() > r.Units
}

// CogsPerUnit derives the unit cost from the record's total COGS. Zero units yields zero.
func (r AllocationRecord) CogsPerUnit() decimal.Decimal {
	if r.Units <= 0 {
		return decimal.Zero
	}
	return r.CogsTotal.Div(decimal.NewFromInt(int64(r.Units)))
}

// Clone returns a deep copy so callers never share the channel map with the store.
func (r AllocationRecord) Clone() AllocationRecord {
	out := r
	out.Channels = make(map[string]int, len(r.Channels))
	for k, v := range r.Channels {
		out.Channels[k] = v
	}
	return out
}

// Percent is an allocation percentage. Unbounded marks allocation against zero units.
type Percent struct {
	Value     int  `json:"value"`
	Unbounded bool `json:"unbounded"`
}

// ComputePercent rounds allocated/units*100 half-up.
func ComputePercent(units, allocated int) Percent {
	switch {
	case units > 0:
		return Percent{Value: int(math.Floor(float64(allocated)*100/float64(units) + 0.5))}
	case allocated > 0:
		return Percent{Unbounded: true}
	default:
		return Percent{}
	}
}

// Float returns the percentage as a sortable number; unbounded is +Inf.
func (p Percent) Float() float64 {
	if p.Unbounded {
		return math.Inf(1)
	}
	return float64(p.Value)
}

// String renders the percentage the way the grid and exports show it.
func (p Percent) String() string {
	if p.Unbounded {
		return "Infinity%"
	}
	return fmt.Sprintf("%d%%", p.Value)
}

// WorkflowStatus is the dataset-wide allocation progress label.
type WorkflowStatus string

const (
	StatusValidated  WorkflowStatus = "VALIDATED"
	StatusError      WorkflowStatus = "ERROR"
	StatusFailed     WorkflowStatus = "FAILED"
	StatusToBeDone   WorkflowStatus = "TO_BE_DONE"
	StatusInProgress WorkflowStatus = "IN_PROGRESS"
	StatusNoData     WorkflowStatus = "NO_DATA"
)

// Severity classifies a status for display.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNeutral Severity = "neutral"
)

// ParseWorkflowStatus normalizes an upstream status hint ("in progress", "Validated", ...).
func ParseWorkflowStatus(raw string) (WorkflowStatus, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	switch WorkflowStatus(normalized) {
	case StatusValidated, StatusError, StatusFailed, StatusToBeDone, StatusInProgress, StatusNoData:
		return WorkflowStatus(normalized), true
	default:
		return "", false
	}
}

// Label is the human readable badge text.
func (s WorkflowStatus) Label() string {
	switch s {
	case StatusValidated:
		return "Allocation Validated"
	case StatusToBeDone:
		return "Allocation to be done"
	case StatusInProgress:
		return "Allocation in progress"
	case StatusNoData:
		return "No Data"
	default:
		return string(s)
	}
}

// Severity maps the status onto a badge color class.
func (s WorkflowStatus) Severity() Severity {
	switch s {
	case StatusValidated:
		return SeveritySuccess
	case StatusError, StatusFailed:
		return SeverityError
	case StatusToBeDone, StatusInProgress:
		return SeverityWarning
	default:
		return SeverityNeutral
	}
}

// DatasetPayload mirrors the upstream bulk read response.
type DatasetPayload struct {
	AllocationData   []AllocationRecord `json:"allocationData"`
	ChannelColumns   []string           `json:"channelColumns"`
	AllocationStatus string             `json:"allocationStatus,omitempty"`
}

// PersistEntry is one element of the bulk write body.
type PersistEntry struct {
	EAN      string         `json:"ean"`
	Channels map[string]int `json:"channels"`
}
