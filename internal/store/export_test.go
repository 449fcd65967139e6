package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportCSV(t *testing.T) {
	l, _ := newTestStore(t)

	result, err := l.Export(context.Background(), ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Regexp(t, `^pumps_\d{8}_\d{6}\.csv$`, result.Filename)

	records, err := csv.NewReader(bytes.NewReader(result.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 11) // header + 10 seed pumps

	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "Pump 1", records[1][1])
	assert.Equal(t, "Centrifugal", records[1][2])
	assert.Equal(t, "150", records[1][8])
}

func TestExportExcel(t *testing.T) {
	l, _ := newTestStore(t)

	result, err := l.Export(context.Background(), ExportExcel)
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.ContentType)
	assert.Regexp(t, `^pumps_\d{8}_\d{6}\.xlsx$`, result.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Pumps")
	require.NoError(t, err)
	require.Len(t, rows, 11)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "Pump 10", rows[10][1])
}

func TestExportUnknownFormat(t *testing.T) {
	l, _ := newTestStore(t)

	_, err := l.Export(context.Background(), ExportFormat("pdf"))
	assert.Error(t, err)
}
