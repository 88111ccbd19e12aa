package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
	"github.com/mamadbah2/allocgrid/internal/service/allocation"
	"github.com/mamadbah2/allocgrid/internal/service/commands"
	"github.com/mamadbah2/allocgrid/internal/service/export"
	"github.com/mamadbah2/allocgrid/internal/service/reporting"
	"github.com/mamadbah2/allocgrid/pkg/clients/allocationapi"
)

type fakeUpstream struct {
	payload  *models.DatasetPayload
	saveErr  error
	saved    []models.PersistEntry
	validate int
}

func (f *fakeUpstream) FetchAllocationData(ctx context.Context) (*models.DatasetPayload, error) {
	return f.payload, nil
}

func (f *fakeUpstream) SaveAllocations(ctx context.Context, entries []models.PersistEntry) error {
	f.saved = entries
	return f.saveErr
}

func (f *fakeUpstream) RunSolver(ctx context.Context) error { return nil }

func (f *fakeUpstream) ValidateAllocation(ctx context.Context) error {
	f.validate++
	return nil
}

func newTestEngine(t *testing.T, up *fakeUpstream) (*gin.Engine, *allocation.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	grid := allocation.NewService(up, nil, nil, nil)
	if err := grid.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	reports := reporting.NewService(grid, nil)
	h := NewAllocationHandler(grid, reports, commands.NewService(grid, nil), export.NewService(reports, nil, "", nil, nil), nil)

	r := gin.New()
	r.GET("/api/state", h.State)
	r.GET("/api/status", h.Status)
	r.GET("/api/detail", h.Detail)
	r.GET("/api/summary", h.Summary)
	r.POST("/api/commands", h.Command)
	r.PUT("/api/records/:id/channels/:channel", h.Edit)
	r.POST("/api/save", h.Save)
	r.POST("/api/validate", h.Validate)
	r.GET("/api/export.xlsx", h.ExportXLSX)
	r.POST("/api/export/sheets", h.ExportSheets)
	r.GET("/api/runs", h.Runs)
	return r, grid
}

func samplePayload() *models.DatasetPayload {
	return &models.DatasetPayload{
		AllocationData: []models.AllocationRecord{
			{ID: "1", Division: "Luxe", EAN: "100", Units: 100, Channels: map[string]int{"A": 40}},
			{ID: "2", Division: "CPD", EAN: "200", Units: 50, Channels: map[string]int{}},
		},
		ChannelColumns: []string{"A", "B"},
	}
}

func perform(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEditThenSaveRefused(t *testing.T) {
	up := &fakeUpstream{payload: samplePayload()}
	r, _ := newTestEngine(t, up)

	w := perform(r, http.MethodPut, "/api/records/1/channels/B", `{"quantity":"70"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var edit allocation.EditResult
	if err := json.Unmarshal(w.Body.Bytes(), &edit); err != nil {
		t.Fatalf("decode edit: %v", err)
	}
	if !edit.Applied || edit.Remaining != -10 || !edit.Invalid || !edit.BannerActive {
		t.Fatalf("unexpected edit result %+v", edit)
	}

	w = perform(r, http.MethodPost, "/api/save", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("save: expected 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Please correct allocation errors before saving.") {
		t.Fatalf("expected blocking notice, got %s", w.Body.String())
	}
	if up.saved != nil {
		t.Fatalf("upstream must not be called on a refused save")
	}
}

func TestEdit_Errors(t *testing.T) {
	r, _ := newTestEngine(t, &fakeUpstream{payload: samplePayload()})

	if w := perform(r, http.MethodPut, "/api/records/1/channels/Z", `{"quantity":1}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown channel: expected 400, got %d", w.Code)
	}
	if w := perform(r, http.MethodPut, "/api/records/1/channels/A", `not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad body: expected 400, got %d", w.Code)
	}
}

func TestSaveSuccess(t *testing.T) {
	up := &fakeUpstream{payload: samplePayload()}
	r, _ := newTestEngine(t, up)

	w := perform(r, http.MethodPost, "/api/save", "")
	if w.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(up.saved) != 2 || up.saved[0].EAN != "100" {
		t.Fatalf("unexpected persisted entries %+v", up.saved)
	}
}

func TestSaveUpstreamFailure(t *testing.T) {
	up := &fakeUpstream{payload: samplePayload(), saveErr: fmt.Errorf("%w: code=500, message=down", allocationapi.ErrUpstream)}
	r, _ := newTestEngine(t, up)

	w := perform(r, http.MethodPost, "/api/save", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Failed to save changes") {
		t.Fatalf("expected failure notice, got %s", w.Body.String())
	}
}

func TestValidateThenStatus(t *testing.T) {
	up := &fakeUpstream{payload: samplePayload()}
	r, _ := newTestEngine(t, up)

	if w := perform(r, http.MethodPost, "/api/validate", ""); w.Code != http.StatusOK {
		t.Fatalf("validate: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w := perform(r, http.MethodGet, "/api/status", "")
	var badge reporting.StatusBadge
	if err := json.Unmarshal(w.Body.Bytes(), &badge); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if badge.Status != models.StatusValidated || up.validate != 1 {
		t.Fatalf("expected validated status, got %+v", badge)
	}
}

func TestCommandEndpoint(t *testing.T) {
	r, grid := newTestEngine(t, &fakeUpstream{payload: samplePayload()})

	w := perform(r, http.MethodPost, "/api/commands", `{"type":"sort","column":"units"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sort: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if grid.State().Sort.Column != "units" {
		t.Fatalf("sort not applied: %+v", grid.State().Sort)
	}

	if w := perform(r, http.MethodPost, "/api/commands", `{"type":"sort","column":"price"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown column: expected 400, got %d", w.Code)
	}
	if w := perform(r, http.MethodPost, "/api/commands", `{"type":"explode"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unsupported: expected 400, got %d", w.Code)
	}
	if w := perform(r, http.MethodPost, "/api/commands", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: expected 400, got %d", w.Code)
	}
}

func TestDetailAndSummary(t *testing.T) {
	r, _ := newTestEngine(t, &fakeUpstream{payload: samplePayload()})

	w := perform(r, http.MethodGet, "/api/detail", "")
	var detail reporting.DetailView
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.Rows) != 2 || detail.Rows[0].Remaining != 60 {
		t.Fatalf("unexpected detail rows %+v", detail.Rows)
	}

	w = perform(r, http.MethodGet, "/api/summary", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"metricMode":"unit"`) {
		t.Fatalf("unexpected summary %d: %s", w.Code, w.Body.String())
	}
}

func TestExportXLSX(t *testing.T) {
	r, _ := newTestEngine(t, &fakeUpstream{payload: samplePayload()})

	w := perform(r, http.MethodGet, "/api/export.xlsx?context=summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != export.ContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "allocation_summary_") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("body is not a zip archive")
	}

	if w := perform(r, http.MethodGet, "/api/export.xlsx?context=sidebar", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad context: expected 400, got %d", w.Code)
	}
}

func TestDisabledIntegrations(t *testing.T) {
	r, _ := newTestEngine(t, &fakeUpstream{payload: samplePayload()})

	if w := perform(r, http.MethodPost, "/api/export/sheets", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("sheets: expected 503, got %d", w.Code)
	}
	if w := perform(r, http.MethodGet, "/api/runs", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("runs: expected 503, got %d", w.Code)
	}
	if w := perform(r, http.MethodGet, "/api/runs?limit=ten", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: expected 400, got %d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("save: %w", allocation.ErrOverAllocated), http.StatusConflict},
		{allocation.ErrNoData, http.StatusConflict},
		{allocation.ErrUnknownChannel, http.StatusBadRequest},
		{commands.ErrInvalidArguments, http.StatusBadRequest},
		{export.ErrSheetsDisabled, http.StatusServiceUnavailable},
		{fmt.Errorf("x: %w", allocationapi.ErrUpstream), http.StatusBadGateway},
		{errors.New("other"), http.StatusTeapot},
	}
	for _, tc := range tests {
		if got := statusFor(tc.err, http.StatusTeapot); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
