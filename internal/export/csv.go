// Package export renders proposal task lists as CSV and XLSX downloads.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"worklane/internal/domain"
)

// BOM is the UTF-8 byte order mark, written ahead of CSV output for Excel
// compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row.
var columns = []string{
	"Task Name",
	"Description",
	"Category",
	"Amount",
	"Estimated Hours",
	"Actual Hours",
	"Hourly Rate",
	"Merge Decision",
	"Match Score",
	"Pricing Source",
	"Merged At",
}

// CSVWriter wraps csv.Writer for exporting tasks as CSV.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteTasks converts a task list to CSV rows and writes them.
func (w *CSVWriter) WriteTasks(tasks []domain.Task) error {
	for i := range tasks {
		if err := w.csv.Write(taskToRow(&tasks[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

func taskToRow(task *domain.Task) []string {
	row := make([]string, len(columns))
	row[0] = task.Name
	row[1] = task.Description
	row[2] = task.Category
	row[3] = task.Amount.String()
	row[4] = task.EstimatedHours.String()
	row[5] = task.ActualHours.String()
	row[6] = task.HourlyRate.String()
	if task.Merge != nil {
		row[7] = string(task.Merge.Decision)
		row[8] = strconv.Itoa(task.Merge.MatchScore)
		row[9] = string(task.Merge.Pricing)
		row[10] = task.Merge.MergedAt.Format(time.RFC3339)
	}
	return row
}
