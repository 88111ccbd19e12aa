package allocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
	"github.com/mamadbah2/allocgrid/internal/grid"
)

var (
	ErrOverAllocated     = errors.New("total allocation exceeds available units")
	ErrUnknownContext    = errors.New("unknown view context")
	ErrUnknownColumn     = errors.New("unknown sort column")
	ErrUnknownChannel    = errors.New("unknown channel")
	ErrInvalidMetricMode = errors.New("invalid metric mode")
	ErrNoData            = errors.New("no allocation data loaded")
	ErrHistoryDisabled   = errors.New("allocation run history is not configured")
)

const (
	msgLoaded         = "Data loaded successfully."
	msgSaveBlocked    = "Please correct allocation errors before saving."
	msgSaved          = "Allocations saved."
	msgSolved         = "Auto-allocation completed."
	msgValidateBlock  = "Please correct allocation errors before validating."
	msgValidateNoData = "There is no allocation data to validate."
	msgValidated      = "Allocation validated."
	msgValidateStale  = "Allocation validated, but it was edited meanwhile. Validate again to confirm."
)

// Upstream is the data provider owning the dataset and the solver.
type Upstream interface {
	FetchAllocationData(ctx context.Context) (*models.DatasetPayload, error)
	SaveAllocations(ctx context.Context, entries []models.PersistEntry) error
	RunSolver(ctx context.Context) error
	ValidateAllocation(ctx context.Context) error
}

// RunStore keeps the history of save, solve and validate attempts.
type RunStore interface {
	SaveRun(ctx context.Context, run models.AllocationRun) error
	RecentRuns(ctx context.Context, limit int) ([]models.AllocationRun, error)
}

// Observer receives engine activity for metrics.
type Observer interface {
	ObserveLoad(ok bool, took time.Duration)
	ObserveEdit()
	ObserveAction(action models.RunAction, outcome models.RunOutcome)
	SetDataset(records, overAllocated int)
}

// View is a consistent read of the dataset, the application state and the detail validation.
type View struct {
	Dataset    grid.Dataset
	State      models.AppState
	Validation grid.ValidationSummary
	Status     models.WorkflowStatus
}

// EditResult reports the edited row and the refreshed derived state.
type EditResult struct {
	Applied      bool                    `json:"applied"`
	Record       models.AllocationRecord `json:"record"`
	Remaining    int                     `json:"remainingQty"`
	Percent      models.Percent          `json:"allocAccu"`
	Invalid      bool                    `json:"invalid"`
	BannerActive bool                    `json:"bannerActive"`
	Status       models.WorkflowStatus   `json:"status"`
}

// Service owns the dataset store and the application state, and applies grid commands
// one at a time.
type Service struct {
	mu         sync.Mutex
	store      *grid.Store
	state      models.AppState
	validation *grid.Validation

	// validated is the local VALIDATED mark. Applied edits and loads clear it;
	// an upstream status hint is kept by the store instead.
	validated bool
	// generation counts dataset changes so Validate can detect edits made while
	// the upstream call was in flight.
	generation uint64

	upstream Upstream
	runs     RunStore
	observer Observer
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires the allocation service. runs and observer are optional.
func NewService(upstream Upstream, runs RunStore, observer Observer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      grid.NewStore(),
		state:      models.DefaultAppState(),
		validation: grid.ValidateAll(nil),
		upstream:   upstream,
		runs:       runs,
		observer:   observer,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// View returns a detached snapshot of everything the projections need.
func (s *Service) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds := s.store.Snapshot()
	state := s.state
	if state.Notice != nil {
		n := *state.Notice
		state.Notice = &n
	}
	return View{
		Dataset:    ds,
		State:      state,
		Validation: s.validation.Summary(),
		Status:     s.deriveStatusLocked(ds),
	}
}

// State returns the serializable application state.
func (s *Service) State() models.AppState {
	return s.View().State
}

// Status derives the current workflow status.
func (s *Service) Status() models.WorkflowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// FilterOptions lists the distinct values of the unfiltered dataset.
func (s *Service) FilterOptions() grid.FilterOptions {
	return grid.DistinctValues(s.store.Snapshot().Records)
}

// OnEdit applies one channel quantity edit. Unknown ids are a silent no-op.
func (s *Service) OnEdit(id models.RecordID, channel string, quantity any) (EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !containsChannel(s.store.Channels(), channel) {
		return EditResult{}, fmt.Errorf("edit %s: %w", channel, ErrUnknownChannel)
	}

	qty := grid.ParseQuantity(quantity)
	rec, found := s.store.SetAllocation(id, channel, qty)
	if !found {
		s.logger.Debug("edit ignored for unknown record", zap.String("id", string(id)))
		return EditResult{Status: s.statusLocked(), BannerActive: s.validation.BannerActive()}, nil
	}

	s.validation.ApplyEdit(rec)
	s.validated = false
	s.generation++
	if s.observer != nil {
		s.observer.ObserveEdit()
	}
	s.publishDatasetLocked()

	return EditResult{
		Applied:      true,
		Record:       rec,
		Remaining:    rec.RemainingQuantity(),
		Percent:      rec.AllocationPercent(),
		Invalid:      s.validation.Invalid(rec.ID),
		BannerActive: s.validation.BannerActive(),
		Status:       s.statusLocked(),
	}, nil
}

// OnFilterChange replaces the selection of one view context.
func (s *Service) OnFilterChange(ctx models.ViewContext, criteria models.FilterCriteria) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	criteria = criteria.Normalize()
	switch ctx {
	case models.ContextSummary:
		s.state.SummaryFilters = criteria
	case models.ContextDetail:
		s.state.DetailFilters = criteria
		s.revalidateLocked()
	default:
		return fmt.Errorf("filter %q: %w", ctx, ErrUnknownContext)
	}
	return nil
}

// OnSortRequest toggles the detail table sort on column.
func (s *Service) OnSortRequest(column string) (models.SortState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !grid.IsSortableColumn(column, s.store.Channels()) {
		return s.state.Sort, fmt.Errorf("sort %q: %w", column, ErrUnknownColumn)
	}
	s.state.Sort = s.state.Sort.Toggle(column)
	s.revalidateLocked()
	return s.state.Sort, nil
}

// OnMetricModeChange switches the summary value basis between units and COGS.
func (s *Service) OnMetricModeChange(raw string) (models.MetricMode, error) {
	mode, ok := models.ParseMetricMode(raw)
	if !ok {
		return "", fmt.Errorf("metric mode %q: %w", raw, ErrInvalidMetricMode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.MetricMode = mode
	return mode, nil
}

// DismissNotice clears the current status message.
func (s *Service) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Notice = nil
}

// Reload replaces the dataset with a fresh bulk read. On failure the dataset is
// emptied and the status forced to ERROR. Concurrent reloads are not ordered:
// the store reflects whichever completes last.
func (s *Service) Reload(ctx context.Context) error {
	started := s.now()
	payload, err := s.upstream.FetchAllocationData(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		hint, _ := models.ParseWorkflowStatus(payload.AllocationStatus)
		err = s.store.Load(payload.AllocationData, payload.ChannelColumns, hint)
	}
	s.validated = false
	s.generation++
	if s.observer != nil {
		s.observer.ObserveLoad(err == nil, s.now().Sub(started))
	}

	if err != nil {
		s.store.Reset(models.StatusError)
		s.revalidateLocked()
		s.publishDatasetLocked()
		s.noticeLocked(models.NoticeError, fmt.Sprintf("Error loading data: %v", err))
		s.logger.Error("failed to load allocation data", zap.Error(err))
		return fmt.Errorf("reload allocation data: %w", err)
	}

	s.revalidateLocked()
	s.publishDatasetLocked()
	s.noticeLocked(models.NoticeSuccess, msgLoaded)
	s.logger.Info("allocation data loaded",
		zap.Int("records", s.store.Len()),
		zap.Int("channels", len(s.store.Channels())),
		zap.String("status", string(s.statusLocked())),
	)
	return nil
}

// Save persists every record's channel allocations. It is refused while any record
// of the dataset is over-allocated and reloads the dataset on success.
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	if over := grid.CountOverAllocated(s.store.Snapshot().Records); over > 0 {
		s.noticeLocked(models.NoticeError, msgSaveBlocked)
		run := s.runLocked(models.RunSave, models.OutcomeRefused, ErrOverAllocated)
		s.mu.Unlock()

		s.recordRun(ctx, run)
		return fmt.Errorf("save allocations: %d rows: %w", over, ErrOverAllocated)
	}
	entries := s.store.SnapshotForPersist()
	s.mu.Unlock()

	if err := s.upstream.SaveAllocations(ctx, entries); err != nil {
		s.finishAction(ctx, models.RunSave, err, fmt.Sprintf("Failed to save changes: %v", err))
		return fmt.Errorf("save allocations: %w", err)
	}

	text := msgSaved
	if err := s.Reload(ctx); err != nil {
		s.logger.Warn("reload after save failed", zap.Error(err))
		text = fmt.Sprintf("Allocations saved, but reloading failed: %v", err)
	}
	s.finishAction(ctx, models.RunSave, nil, text)
	return nil
}

// AutoAllocate runs the upstream solver and reloads the dataset. It is never
// blocked by validation errors.
func (s *Service) AutoAllocate(ctx context.Context) error {
	if err := s.upstream.RunSolver(ctx); err != nil {
		s.finishAction(ctx, models.RunAutoAllocate, err, fmt.Sprintf("Auto-allocation failed: %v", err))
		return fmt.Errorf("auto allocate: %w", err)
	}

	if err := s.Reload(ctx); err != nil {
		s.finishAction(ctx, models.RunAutoAllocate, err, fmt.Sprintf("Auto-allocation failed: %v", err))
		return fmt.Errorf("auto allocate: %w", err)
	}
	s.finishAction(ctx, models.RunAutoAllocate, nil, msgSolved)
	return nil
}

// Validate marks the allocation as validated upstream. The local status stays
// VALIDATED until the next applied edit or load.
func (s *Service) Validate(ctx context.Context) error {
	s.mu.Lock()
	records := s.store.Snapshot().Records
	var refusal error
	switch {
	case len(records) == 0:
		s.noticeLocked(models.NoticeError, msgValidateNoData)
		refusal = ErrNoData
	case s.validation.BannerActive() || grid.CountOverAllocated(records) > 0:
		s.noticeLocked(models.NoticeError, msgValidateBlock)
		refusal = ErrOverAllocated
	}
	if refusal != nil {
		run := s.runLocked(models.RunValidate, models.OutcomeRefused, refusal)
		s.mu.Unlock()

		s.recordRun(ctx, run)
		return fmt.Errorf("validate allocation: %w", refusal)
	}
	checked := s.generation
	s.mu.Unlock()

	if err := s.upstream.ValidateAllocation(ctx); err != nil {
		s.finishAction(ctx, models.RunValidate, err, fmt.Sprintf("Validation failed: %v", err))
		return fmt.Errorf("validate allocation: %w", err)
	}

	// Edits may have landed while the upstream call was running.
	s.mu.Lock()
	over := grid.CountOverAllocated(s.store.Snapshot().Records)
	unchanged := s.generation == checked
	if over == 0 && unchanged {
		s.validated = true
	}
	s.mu.Unlock()

	switch {
	case over > 0:
		s.finishAction(ctx, models.RunValidate, ErrOverAllocated, msgValidateBlock)
		return fmt.Errorf("validate allocation: %d rows over-allocated after upstream validation: %w", over, ErrOverAllocated)
	case !unchanged:
		s.finishAction(ctx, models.RunValidate, nil, msgValidateStale)
		return nil
	}
	s.finishAction(ctx, models.RunValidate, nil, msgValidated)
	return nil
}

// RecentRuns lists the newest allocation runs.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]models.AllocationRun, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	runs, err := s.runs.RecentRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list allocation runs: %w", err)
	}
	return runs, nil
}

func (s *Service) finishAction(ctx context.Context, action models.RunAction, err error, text string) {
	s.mu.Lock()
	outcome := models.OutcomeSucceeded
	level := models.NoticeSuccess
	if err != nil {
		outcome = models.OutcomeFailed
		level = models.NoticeError
		s.logger.Error("allocation action failed", zap.String("action", string(action)), zap.Error(err))
	}
	s.noticeLocked(level, text)
	run := s.runLocked(action, outcome, err)
	s.mu.Unlock()

	s.recordRun(ctx, run)
}

func (s *Service) runLocked(action models.RunAction, outcome models.RunOutcome, err error) models.AllocationRun {
	records := s.store.Snapshot().Records
	progress := grid.ComputeProgress(records)
	run := models.AllocationRun{
		RunID:          s.newID(),
		Action:         action,
		Outcome:        outcome,
		Status:         s.statusLocked(),
		Records:        len(records),
		TotalUnits:     progress.TotalUnits,
		TotalAllocated: progress.TotalAllocated,
		OverAllocated:  grid.CountOverAllocated(records),
		CreatedAt:      s.now().UTC(),
	}
	if err != nil {
		run.Error = err.Error()
	}
	if s.observer != nil {
		s.observer.ObserveAction(action, outcome)
	}
	return run
}

func (s *Service) recordRun(ctx context.Context, run models.AllocationRun) {
	if s.runs == nil {
		return
	}
	// The action outcome does not depend on the history write.
	if err := s.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("failed to record allocation run", zap.String("run_id", run.RunID), zap.Error(err))
	}
}

func (s *Service) statusLocked() models.WorkflowStatus {
	return s.deriveStatusLocked(s.store.Snapshot())
}

func (s *Service) deriveStatusLocked(ds grid.Dataset) models.WorkflowStatus {
	hint := ds.StatusHint
	if s.validated {
		hint = models.StatusValidated
	}
	return grid.DeriveStatus(ds.Records, hint)
}

// revalidateLocked re-derives the invalid rows of the detail view.
func (s *Service) revalidateLocked() {
	view := grid.Filter(s.store.Snapshot().Records, s.state.DetailFilters)
	s.validation = grid.ValidateAll(view)
}

func (s *Service) publishDatasetLocked() {
	if s.observer == nil {
		return
	}
	records := s.store.Snapshot().Records
	s.observer.SetDataset(len(records), grid.CountOverAllocated(records))
}

func (s *Service) noticeLocked(level models.NoticeLevel, text string) {
	s.state.Notice = &models.Notice{Level: level, Text: text, At: s.now().UTC()}
}

func containsChannel(channels []string, channel string) bool {
	for _, ch := range channels {
		if ch == channel {
			return true
		}
	}
	return false
}
