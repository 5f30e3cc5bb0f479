package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"worklane/internal/domain"
)

const sheetName = "Tasks"

// WriteXLSX renders the task list as a single-sheet XLSX workbook and writes
// it to w. Numeric columns carry real numbers so spreadsheet formulas work on
// the export.
func WriteXLSX(w io.Writer, tasks []domain.Task) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("resolving header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("writing header cell: %w", err)
		}
	}

	for i := range tasks {
		if err := writeTaskRow(f, i+2, &tasks[i]); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeTaskRow(f *excelize.File, rowNum int, task *domain.Task) error {
	values := []interface{}{
		task.Name,
		task.Description,
		task.Category,
		decimalCell(task.Amount.String()),
		decimalCell(task.EstimatedHours.String()),
		decimalCell(task.ActualHours.String()),
		decimalCell(task.HourlyRate.String()),
	}
	if task.Merge != nil {
		values = append(values,
			string(task.Merge.Decision),
			task.Merge.MatchScore,
			string(task.Merge.Pricing),
			task.Merge.MergedAt.Format(time.RFC3339),
		)
	}

	for col, val := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("resolving cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, val); err != nil {
			return fmt.Errorf("writing cell: %w", err)
		}
	}
	return nil
}

// decimalCell converts a decimal's string form to float64 for numeric cells,
// falling back to the string when it does not parse.
func decimalCell(s string) interface{} {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
