// Package export produces the session manifest workbook: one row per
// uploaded file with its inferred or corrected date, note, and format.
package export

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Fen1x123/medconsultant/constants"
	"github.com/Fen1x123/medconsultant/internal/session"
)

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ManifestXLSX returns an XLSX workbook (as bytes) listing the session
// files in timeline order alongside the patient snapshot.
func (s *Service) ManifestXLSX(store *session.Store, patient session.PatientContext) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Timeline"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		s.logger.Warn("export.manifest.default_sheet", "error", err)
	}

	headers := []string{
		"Filename",
		"Date",
		"Date Source",
		"Format",
		"Size (bytes)",
		"Clinician Note",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, sf := range store.Files() {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		source := "inferred"
		if sf.DateOverridden {
			source = "corrected"
		}
		format := constants.MapExtToFormat(filepath.Ext(sf.Name))

		write(1, sf.Name)
		write(2, sf.Date.Format("2006-01-02"))
		write(3, source)
		write(4, string(format))
		write(5, len(sf.Data))
		write(6, sf.Note)

		row++
	}

	// Patient snapshot below the table
	row++
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetCellValue(sheet, cell, fmt.Sprintf("Patient: %s", patient.Summary()))

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 40) // filename
	_ = f.SetColWidth(sheet, "B", "C", 14) // date, source
	_ = f.SetColWidth(sheet, "D", "E", 14) // format, size
	_ = f.SetColWidth(sheet, "F", "F", 60) // note

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.manifest.ok",
		"rows", store.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
