package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
	"github.com/mamadbah2/allocgrid/internal/grid"
	"github.com/mamadbah2/allocgrid/internal/service/allocation"
	"github.com/mamadbah2/allocgrid/internal/service/commands"
	"github.com/mamadbah2/allocgrid/internal/service/export"
	"github.com/mamadbah2/allocgrid/internal/service/reporting"
	"github.com/mamadbah2/allocgrid/pkg/clients/allocationapi"
)

// GridService is the allocation engine surface used over HTTP.
type GridService interface {
	State() models.AppState
	FilterOptions() grid.FilterOptions
	OnEdit(id models.RecordID, channel string, quantity any) (allocation.EditResult, error)
	Reload(ctx context.Context) error
	Save(ctx context.Context) error
	AutoAllocate(ctx context.Context) error
	Validate(ctx context.Context) error
	RecentRuns(ctx context.Context, limit int) ([]models.AllocationRun, error)
}

// Reports projects the engine into page views.
type Reports interface {
	Summary() reporting.SummaryView
	Detail() reporting.DetailView
	StatusBadge() reporting.StatusBadge
}

// Exporter writes spreadsheet exports.
type Exporter interface {
	WriteXLSX(w io.Writer, viewCtx models.ViewContext) (string, error)
	PublishToSheets(ctx context.Context, viewCtx models.ViewContext) (int, error)
}

// AllocationHandler exposes the allocation grid over HTTP.
type AllocationHandler struct {
	grid       GridService
	reports    Reports
	dispatcher commands.Dispatcher
	exporter   Exporter
	logger     *zap.Logger
}

// NewAllocationHandler constructs the HTTP handler adapter.
func NewAllocationHandler(gridSvc GridService, reports Reports, dispatcher commands.Dispatcher, exporter Exporter, logger *zap.Logger) *AllocationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationHandler{
		grid:       gridSvc,
		reports:    reports,
		dispatcher: dispatcher,
		exporter:   exporter,
		logger:     logger,
	}
}

// State returns the serializable application state.
func (h *AllocationHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.grid.State())
}

// Status returns the workflow status badge.
func (h *AllocationHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.StatusBadge())
}

// Filters returns the distinct values offered by the filter selectors.
func (h *AllocationHandler) Filters(c *gin.Context) {
	c.JSON(http.StatusOK, h.grid.FilterOptions())
}

// Summary returns the summary page.
func (h *AllocationHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.Summary())
}

// Detail returns the detail table.
func (h *AllocationHandler) Detail(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.Detail())
}

// Command executes a generic grid command.
func (h *AllocationHandler) Command(c *gin.Context) {
	var cmd models.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.logger.Warn("invalid command payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	res, err := h.dispatcher.HandleCommand(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(c, "command failed", err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, res)
}

type editRequest struct {
	Quantity json.RawMessage `json:"quantity"`
}

// Edit sets one channel quantity of one record.
func (h *AllocationHandler) Edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid edit payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	res, err := h.grid.OnEdit(models.RecordID(c.Param("id")), c.Param("channel"), req.Quantity)
	if err != nil {
		h.respondError(c, "edit failed", err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Reload fetches the dataset again.
func (h *AllocationHandler) Reload(c *gin.Context) {
	h.runAction(c, "reload", h.grid.Reload)
}

// Save persists the current allocations.
func (h *AllocationHandler) Save(c *gin.Context) {
	h.runAction(c, "save", h.grid.Save)
}

// AutoAllocate triggers the upstream solver.
func (h *AllocationHandler) AutoAllocate(c *gin.Context) {
	h.runAction(c, "auto-allocate", h.grid.AutoAllocate)
}

// Validate marks the allocation as validated.
func (h *AllocationHandler) Validate(c *gin.Context) {
	h.runAction(c, "validate", h.grid.Validate)
}

func (h *AllocationHandler) runAction(c *gin.Context, name string, action func(context.Context) error) {
	err := action(c.Request.Context())
	body := gin.H{
		"status": h.reports.StatusBadge(),
		"notice": h.grid.State().Notice,
	}
	if err != nil {
		h.logger.Warn("allocation action failed", zap.String("action", name), zap.Error(err))
		body["error"] = err.Error()
		c.JSON(statusFor(err, http.StatusBadGateway), body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// ExportXLSX streams the export grid of a context as a spreadsheet download.
func (h *AllocationHandler) ExportXLSX(c *gin.Context) {
	viewCtx, ok := models.ParseViewContext(c.DefaultQuery("context", string(models.ContextDetail)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "context must be summary or detail"})
		return
	}

	var buf bytes.Buffer
	filename, err := h.exporter.WriteXLSX(&buf, viewCtx)
	if err != nil {
		h.respondError(c, "xlsx export failed", err, http.StatusInternalServerError)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// ExportSheets publishes the export grid of a context to Google Sheets.
func (h *AllocationHandler) ExportSheets(c *gin.Context) {
	viewCtx, ok := models.ParseViewContext(c.DefaultQuery("context", string(models.ContextDetail)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "context must be summary or detail"})
		return
	}

	rows, err := h.exporter.PublishToSheets(c.Request.Context(), viewCtx)
	if err != nil {
		h.respondError(c, "sheets export failed", err, http.StatusBadGateway)
		return
	}
	c.JSON(http.StatusOK, gin.H{"context": viewCtx, "rows": rows})
}

// Runs lists recent allocation runs.
func (h *AllocationHandler) Runs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}

	runs, err := h.grid.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, "listing runs failed", err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *AllocationHandler) respondError(c *gin.Context, msg string, err error, fallback int) {
	status := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	} else {
		h.logger.Warn(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, allocation.ErrOverAllocated), errors.Is(err, allocation.ErrNoData):
		return http.StatusConflict
	case errors.Is(err, allocation.ErrUnknownContext),
		errors.Is(err, allocation.ErrUnknownColumn),
		errors.Is(err, allocation.ErrUnknownChannel),
		errors.Is(err, allocation.ErrInvalidMetricMode),
		errors.Is(err, commands.ErrInvalidArguments),
		errors.Is(err, commands.ErrUnsupportedCommand):
		return http.StatusBadRequest
	case errors.Is(err, allocation.ErrHistoryDisabled), errors.Is(err, export.ErrSheetsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, allocationapi.ErrUpstream):
		return http.StatusBadGateway
	default:
		return fallback
	}
}
