package models

import (
	"encoding/json"
	"strings"
)

// CommandType enumerates the grid commands a UI shell can issue.
type CommandType string

const (
	CommandEdit    CommandType = "edit"
	CommandFilter  CommandType = "filter"
	CommandSort    CommandType = "sort"
	CommandMetric  CommandType = "metric"
	CommandDismiss CommandType = "dismiss"
	CommandUnknown CommandType = "unknown"
)

// Command is the generic wire shape of a grid command. Fields are read according to Type.
type Command struct {
	Type     CommandType     `json:"type"`
	ID       RecordID        `json:"id,omitempty"`
	Channel  string          `json:"channel,omitempty"`
	Quantity json.RawMessage `json:"quantity,omitempty"`
	Context  string          `json:"context,omitempty"`
	Filters  *FilterCriteria `json:"filters,omitempty"`
	Column   string          `json:"column,omitempty"`
	Mode     string          `json:"mode,omitempty"`
}

// ParseCommandType maps free-form type names ("Edit", "/sort", "onSortRequest") to a CommandType.
func ParseCommandType(raw string) CommandType {
	normalized := strings.TrimPrefix(strings.TrimSpace(strings.ToLower(raw)), "/")
	normalized = strings.TrimPrefix(normalized, "on")

	switch normalized {
	case string(CommandEdit):
		return CommandEdit
	case string(CommandFilter), "filterchange":
		return CommandFilter
	case string(CommandSort), "sortrequest":
		return CommandSort
	case string(CommandMetric), "metricmodechange":
		return CommandMetric
	case string(CommandDismiss), "dismissnotice":
		return CommandDismiss
	default:
		return CommandUnknown
	}
}
