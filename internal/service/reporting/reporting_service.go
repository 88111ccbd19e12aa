package reporting

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
	"github.com/mamadbah2/allocgrid/internal/grid"
	"github.com/mamadbah2/allocgrid/internal/service/allocation"
)

const (
	brandChartLimit = 5
	dateLayout      = "2006-01-02"
)

// RemainingClass styles the remaining quantity cell.
type RemainingClass string

const (
	RemainingNegative RemainingClass = "negative"
	RemainingZero     RemainingClass = "zero"
	RemainingPositive RemainingClass = "positive"
)

// ViewSource provides a consistent read of the allocation engine.
type ViewSource interface {
	View() allocation.View
}

// StatusBadge is the displayed workflow status.
type StatusBadge struct {
	Status   models.WorkflowStatus `json:"status"`
	Label    string                `json:"label"`
	Severity models.Severity       `json:"severity"`
}

// SummaryView is everything the summary page renders.
type SummaryView struct {
	Filters       models.FilterCriteria `json:"filters"`
	MetricMode    models.MetricMode     `json:"metricMode"`
	Metrics       grid.SummaryMetrics   `json:"metrics"`
	Breakdown     grid.Breakdown        `json:"breakdown"`
	DivisionChart []grid.GroupTotal     `json:"divisionChart"`
	BrandChart    []grid.GroupTotal     `json:"brandChart"`
	Status        StatusBadge           `json:"status"`
	Notice        *models.Notice        `json:"notice,omitempty"`
}

// DetailRow is one table row with its derived cells.
type DetailRow struct {
	models.AllocationRecord
	TotalAllocated int            `json:"totalAllocated"`
	Remaining      int            `json:"remainingQty"`
	RemainingClass RemainingClass `json:"remainingClass"`
	Percent        models.Percent `json:"allocAccu"`
	PercentText    string         `json:"allocAccuText"`
	Invalid        bool           `json:"invalid"`
}

// DetailView is the filtered, sorted and validated table.
type DetailView struct {
	Filters    models.FilterCriteria  `json:"filters"`
	Sort       models.SortState       `json:"sort"`
	Columns    []grid.Column          `json:"columns"`
	Rows       []DetailRow            `json:"rows"`
	Metrics    grid.DetailMetrics     `json:"metrics"`
	Validation grid.ValidationSummary `json:"validation"`
	Status     StatusBadge            `json:"status"`
	Notice     *models.Notice         `json:"notice,omitempty"`
}

// ExportSheet is the cell grid of one context, ready for a spreadsheet writer.
type ExportSheet struct {
	Context  models.ViewContext
	Filename string
	Rows     [][]interface{}
}

// Service projects the allocation engine state into the summary and detail views.
type Service struct {
	source ViewSource
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(source ViewSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger, now: time.Now}
}

// Summary builds the summary page over the summary filter selection.
func (s *Service) Summary() SummaryView {
	view := s.source.View()
	subset := grid.Filter(view.Dataset.Records, view.State.SummaryFilters)
	mode := view.State.MetricMode

	return SummaryView{
		Filters:       view.State.SummaryFilters,
		MetricMode:    mode,
		Metrics:       grid.Summary(subset),
		Breakdown:     grid.ChannelBreakdown(subset, view.Dataset.Channels, mode),
		DivisionChart: grid.DivisionChart(subset, mode),
		BrandChart:    grid.BrandChart(subset, mode, brandChartLimit),
		Status:        badge(view.Status),
		Notice:        view.State.Notice,
	}
}

// Detail builds the detail table over the detail filter selection and sort.
func (s *Service) Detail() DetailView {
	view := s.source.View()
	rows := detailRecords(view)

	invalid := make(map[models.RecordID]bool, len(view.Validation.InvalidIDs))
	for _, id := range view.Validation.InvalidIDs {
		invalid[id] = true
	}

	out := make([]DetailRow, 0, len(rows))
	for _, rec := range rows {
		pct := rec.AllocationPercent()
		remaining := rec.RemainingQuantity()
		out = append(out, DetailRow{
			AllocationRecord: rec,
			TotalAllocated:   rec.TotalAllocated(),
			Remaining:        remaining,
			RemainingClass:   classify(remaining),
			Percent:          pct,
			PercentText:      pct.String(),
			Invalid:          invalid[rec.ID],
		})
	}

	return DetailView{
		Filters:    view.State.DetailFilters,
		Sort:       view.State.Sort,
		Columns:    grid.TableColumns(view.Dataset.Channels),
		Rows:       out,
		Metrics:    grid.Detail(rows),
		Validation: view.Validation,
		Status:     badge(view.Status),
		Notice:     view.State.Notice,
	}
}

// StatusBadge derives the badge of the whole dataset.
func (s *Service) StatusBadge() StatusBadge {
	return badge(s.source.View().Status)
}

// Export flattens the rows of a context in table column order. The summary export
// follows the summary filters; the detail export also follows the table sort.
func (s *Service) Export(ctx models.ViewContext) (ExportSheet, error) {
	view := s.source.View()

	var (
		records []models.AllocationRecord
		prefix  string
	)
	switch ctx {
	case models.ContextSummary:
		records = grid.Filter(view.Dataset.Records, view.State.SummaryFilters)
		prefix = "allocation_summary"
	case models.ContextDetail:
		records = detailRecords(view)
		prefix = "allocation_details"
	default:
		return ExportSheet{}, fmt.Errorf("export %q: %w", ctx, allocation.ErrUnknownContext)
	}

	s.logger.Debug("export prepared", zap.String("context", string(ctx)), zap.Int("rows", len(records)))
	return ExportSheet{
		Context:  ctx,
		Filename: fmt.Sprintf("%s_%s.xlsx", prefix, s.now().Format(dateLayout)),
		Rows:     grid.ExportGrid(records, view.Dataset.Channels),
	}, nil
}

func detailRecords(view allocation.View) []models.AllocationRecord {
	filtered := grid.Filter(view.Dataset.Records, view.State.DetailFilters)
	return grid.SortByState(filtered, view.State.Sort)
}

func classify(remaining int) RemainingClass {
	switch {
	case remaining < 0:
		return RemainingNegative
	case remaining == 0:
		return RemainingZero
	default:
		return RemainingPositive
	}
}

func badge(status models.WorkflowStatus) StatusBadge {
	return StatusBadge{Status: status, Label: status.Label(), Severity: status.Severity()}
}
