package models

import "time"

// RunAction names the user action an AllocationRun records.
type RunAction string

const (
	RunSave         RunAction = "save"
	RunAutoAllocate RunAction = "auto_allocate"
	RunValidate     RunAction = "validate"
)

// RunOutcome is how the action ended.
type RunOutcome string

const (
	OutcomeSucceeded RunOutcome = "succeeded"
	OutcomeFailed    RunOutcome = "failed"
	OutcomeRefused   RunOutcome = "refused"
)

// AllocationRun is the history entry stored in MongoDB for every save, solve or validate attempt.
type AllocationRun struct {
	RunID          string         `bson:"run_id" json:"run_id"`
	Action         RunAction      `bson:"action" json:"action"`
	Outcome        RunOutcome     `bson:"outcome" json:"outcome"`
	Status         WorkflowStatus `bson:"status" json:"status"`
	Records        int            `bson:"records" json:"records"`
	TotalUnits     int            `bson:"total_units" json:"total_units"`
	TotalAllocated int            `bson:"total_allocated" json:"total_allocated"`
	OverAllocated  int            `bson:"over_allocated" json:"over_allocated"`
	Error          string         `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
}
