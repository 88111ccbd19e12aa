package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
	"github.com/mamadbah2/allocgrid/internal/service/allocation"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// GridAdapter defines the command handlers required by the dispatcher.
type GridAdapter interface {
	OnEdit(id models.RecordID, channel string, quantity any) (allocation.EditResult, error)
	OnFilterChange(ctx models.ViewContext, criteria models.FilterCriteria) error
	OnSortRequest(column string) (models.SortState, error)
	OnMetricModeChange(raw string) (models.MetricMode, error)
	DismissNotice()
}

// Dispatcher executes parsed grid commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command) (Result, error)
}

// Result is what a command changed.
type Result struct {
	Type       models.CommandType     `json:"type"`
	Message    string                 `json:"message"`
	Edit       *allocation.EditResult `json:"edit,omitempty"`
	Sort       *models.SortState      `json:"sort,omitempty"`
	MetricMode models.MetricMode      `json:"metricMode,omitempty"`
}

// Service implements the Dispatcher interface.
type Service struct {
	grid   GridAdapter
	logger *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(grid GridAdapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{grid: grid, logger: logger}
}

// HandleCommand validates the command arguments and forwards it to the grid.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command) (Result, error) {
	cmdType := models.ParseCommandType(string(cmd.Type))
	s.logger.Debug("dispatching command", zap.String("command", string(cmdType)), zap.String("raw_type", string(cmd.Type)))

	switch cmdType {
	case models.CommandEdit:
		if cmd.ID == "" || cmd.Channel == "" {
			return Result{}, fmt.Errorf("edit needs id and channel: %w", ErrInvalidArguments)
		}
		res, err := s.grid.OnEdit(cmd.ID, cmd.Channel, cmd.Quantity)
		if err != nil {
			return Result{}, err
		}
		message := fmt.Sprintf("Record %s not found; nothing changed.", cmd.ID)
		if res.Applied {
			message = fmt.Sprintf("Set %s to %d for record %s.", cmd.Channel, res.Record.Allocation(cmd.Channel), cmd.ID)
		}
		return Result{Type: cmdType, Message: message, Edit: &res}, nil

	case models.CommandFilter:
		viewCtx, ok := models.ParseViewContext(cmd.Context)
		if !ok {
			return Result{}, fmt.Errorf("filter context %q: %w", cmd.Context, ErrInvalidArguments)
		}
		criteria := models.AllFilters()
		if cmd.Filters != nil {
			criteria = *cmd.Filters
		}
		if err := s.grid.OnFilterChange(viewCtx, criteria); err != nil {
			return Result{}, err
		}
		return Result{Type: cmdType, Message: fmt.Sprintf("Filters updated for %s view.", viewCtx)}, nil

	case models.CommandSort:
		if cmd.Column == "" {
			return Result{}, fmt.Errorf("sort needs a column: %w", ErrInvalidArguments)
		}
		state, err := s.grid.OnSortRequest(cmd.Column)
		if err != nil {
			return Result{}, err
		}
		return Result{Type: cmdType, Message: fmt.Sprintf("Sorted by %s (%s).", state.Column, state.Direction), Sort: &state}, nil

	case models.CommandMetric:
		if cmd.Mode == "" {
			return Result{}, fmt.Errorf("metric needs a mode: %w", ErrInvalidArguments)
		}
		mode, err := s.grid.OnMetricModeChange(cmd.Mode)
		if err != nil {
			return Result{}, err
		}
		return Result{Type: cmdType, Message: fmt.Sprintf("Metric mode set to %s.", mode), MetricMode: mode}, nil

	case models.CommandDismiss:
		s.grid.DismissNotice()
		return Result{Type: cmdType, Message: "Notice dismissed."}, nil

	default:
		return Result{}, fmt.Errorf("command %q: %w", cmd.Type, ErrUnsupportedCommand)
	}
}
