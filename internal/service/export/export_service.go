package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
	"github.com/mamadbah2/allocgrid/internal/service/reporting"
)

// SheetName is the worksheet holding the export grid in .xlsx files.
const SheetName = "Allocation Data"

// ContentType is the MIME type of the .xlsx download.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrSheetsDisabled is returned when no Google Sheet export target is configured.
var ErrSheetsDisabled = errors.New("google sheets export is not configured")

// GridSource produces the export grid of a view context.
type GridSource interface {
	Export(ctx models.ViewContext) (reporting.ExportSheet, error)
}

// SheetWriter is the subset of the Google Sheets repository used for publishing.
type SheetWriter interface {
	ClearRange(ctx context.Context, sheetRange string) error
	WriteGrid(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// Observer counts written exports.
type Observer interface {
	ObserveExport(target string)
}

// Service encodes export grids as .xlsx files and publishes them to Google Sheets.
type Service struct {
	source     GridSource
	sheets     SheetWriter
	sheetRange string
	observer   Observer
	logger     *zap.Logger
}

// NewService wires the export service. sheets and observer may be nil.
func NewService(source GridSource, sheets SheetWriter, sheetRange string, observer Observer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:     source,
		sheets:     sheets,
		sheetRange: sheetRange,
		observer:   observer,
		logger:     logger,
	}
}

// SheetsEnabled reports whether PublishToSheets has a target.
func (s *Service) SheetsEnabled() bool {
	return s.sheets != nil
}

// WriteXLSX encodes the grid of viewCtx into w and returns the download filename.
func (s *Service) WriteXLSX(w io.Writer, viewCtx models.ViewContext) (string, error) {
	sheet, err := s.source.Export(viewCtx)
	if err != nil {
		return "", fmt.Errorf("prepare export: %w", err)
	}

	f, err := buildWorkbook(sheet.Rows)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}

	s.observe("xlsx")
	s.logger.Info("xlsx export written",
		zap.String("context", string(viewCtx)),
		zap.String("filename", sheet.Filename),
		zap.Int("rows", len(sheet.Rows)-1),
	)
	return sheet.Filename, nil
}

// PublishToSheets replaces the configured sheet range with the grid of viewCtx and
// returns the number of data rows written.
func (s *Service) PublishToSheets(ctx context.Context, viewCtx models.ViewContext) (int, error) {
	if s.sheets == nil {
		return 0, ErrSheetsDisabled
	}

	sheet, err := s.source.Export(viewCtx)
	if err != nil {
		return 0, fmt.Errorf("prepare export: %w", err)
	}

	if err := s.sheets.ClearRange(ctx, clearRangeOf(s.sheetRange)); err != nil {
		return 0, fmt.Errorf("publish export: %w", err)
	}
	if err := s.sheets.WriteGrid(ctx, s.sheetRange, sheet.Rows); err != nil {
		return 0, fmt.Errorf("publish export: %w", err)
	}

	s.observe("sheets")
	s.logger.Info("export published to google sheets",
		zap.String("context", string(viewCtx)),
		zap.String("range", s.sheetRange),
		zap.Int("rows", len(sheet.Rows)-1),
	)
	return len(sheet.Rows) - 1, nil
}

func (s *Service) observe(target string) {
	if s.observer != nil {
		s.observer.ObserveExport(target)
	}
}

func buildWorkbook(rows [][]interface{}) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("name worksheet: %w", err)
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("resolve cell: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if len(rows) > 0 {
		if err := f.SetPanes(SheetName, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("freeze header: %w", err)
		}
	}
	return f, nil
}

// clearRangeOf widens "Tab!A1" to the whole tab so stale rows of a longer
// previous export are removed.
func clearRangeOf(sheetRange string) string {
	if i := strings.LastIndexByte(sheetRange, '!'); i >= 0 {
		return sheetRange[:i]
	}
	return sheetRange
}
