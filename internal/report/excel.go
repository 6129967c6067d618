// FilePath: internal/report/excel.go
// Package report builds and delivers spreadsheet exports of stored readings.
package report

import (
	"bytes"
	"fmt"

	"github.com/sensormagics/telemetry-hub/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName      = "Readings"
	timeCellLayout = "2006-01-02 15:04:05"
)

// buildWorkbook renders readings into an xlsx workbook: a heading row, one
// header row, then one row per reading with the timestamp in human-readable
// form and every metric in canonical column order.
func buildWorkbook(job *models.ReportJob, readings []models.Reading) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	title := fmt.Sprintf("Device %s readings %s to %s",
		job.DeviceID,
		job.From.UTC().Format(timeCellLayout),
		job.To.UTC().Format(timeCellLayout))
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, fmt.Errorf("failed to write report title: %w", err)
	}

	headers := append([]string{"timestamp"}, models.MetricNames...)
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header %s: %w", header, err)
		}
	}

	for i, reading := range readings {
		row := i + 3
		if err := setRow(f, row, &reading); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, reading *models.Reading) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, cell, reading.Timestamp.UTC().Format(timeCellLayout)); err != nil {
		return fmt.Errorf("failed to write row %d timestamp: %w", row, err)
	}

	for col, name := range models.MetricNames {
		value := reading.Metric(name)
		if value == nil {
			// Unreported metrics leave the cell empty.
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+2, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, *value); err != nil {
			return fmt.Errorf("failed to write row %d metric %s: %w", row, name, err)
		}
	}
	return nil
}

// reportFilename derives a stable attachment name from the job.
func reportFilename(job *models.ReportJob) string {
	return fmt.Sprintf("readings_%s_%s.xlsx",
		job.DeviceID, job.From.UTC().Format("20060102"))
}
