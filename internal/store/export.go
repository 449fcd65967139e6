package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vishnu-krishna/pump-master/internal/model"
)

var exportHeader = []string{
	"ID", "Name", "Type", "Area", "Latitude", "Longitude",
	"Flow Rate (GPM)", "Offset (s)",
	"Current Pressure (PSI)", "Min Pressure (PSI)", "Max Pressure (PSI)",
	"Status", "Last Updated",
}

// Export renders the whole collection as a downloadable document.
func (l *Local) Export(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	list, err := l.GetAll(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	stamp := l.now().Format("20060102_150405")
	switch format {
	case ExportCSV:
		data, err := renderCSV(list.Pumps)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Data:        data,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("pumps_%s.csv", stamp),
		}, nil
	case ExportExcel:
		data, err := renderExcel(list.Pumps)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Data:        data,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Filename:    fmt.Sprintf("pumps_%s.xlsx", stamp),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func renderCSV(pumps []model.Pump) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range pumps {
		record := []string{
			p.ID,
			p.Name,
			string(p.Type),
			p.Area,
			formatFloat(p.Location.Latitude),
			formatFloat(p.Location.Longitude),
			formatFloat(p.FlowRate),
			formatFloat(p.Offset),
			formatFloat(p.Pressure.Current),
			formatFloat(p.Pressure.Min),
			formatFloat(p.Pressure.Max),
			string(p.Status),
			p.LastUpdated.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row for pump %s: %w", p.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderExcel(pumps []model.Pump) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Pumps"
	f.SetSheetName("Sheet1", sheet)

	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("write excel header: %w", err)
	}
	for i, p := range pumps {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			p.ID, p.Name, string(p.Type), p.Area,
			p.Location.Latitude, p.Location.Longitude,
			p.FlowRate, p.Offset,
			p.Pressure.Current, p.Pressure.Min, p.Pressure.Max,
			string(p.Status), p.LastUpdated.Format(time.RFC3339),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write excel row for pump %s: %w", p.ID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
