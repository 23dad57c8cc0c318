package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"agristats/internal/engine"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("TABLE")
	require.NoError(t, err)
	assert.Equal(t, Table, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestTabulateFDIMatrix(t *testing.T) {
	g, err := Tabulate(&engine.FDIMatrix{
		Receiving: []string{"Egypt", "Morocco"},
		Investing: []string{"France"},
		Matrix:    map[string][]float64{"France": {0, 150}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"investing \\ receiving", "Egypt", "Morocco"}, g.Headers)
	assert.Equal(t, [][]any{{"France", 0.0, 150.0}}, g.Rows)
}

func TestTabulateUnknown(t *testing.T) {
	_, err := Tabulate(42)
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, "ignored", []engine.YearValue{{Year: 2020, Value: 1.5}}))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string]any{{"year": 2020.0, "value": 1.5}}, got)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTable(&buf, "Top producers", []engine.CountryValue{
		{Country: "Morocco", Value: 300},
		{Country: "Tunisia", Value: 150},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "## Top producers\n"))
	assert.Contains(t, out, "country")
	assert.Contains(t, out, "Morocco")
	assert.Contains(t, out, "300.00")
	assert.Contains(t, out, "_2 rows_")
}

func TestWriteTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, "Empty", []engine.YearValue{}))
	assert.Contains(t, buf.String(), "_Columns: year, value_")
	assert.Contains(t, buf.String(), "_No rows_")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf, "land/share", &engine.LandShare{Country: "Tunisia", Year: 2020, SharePct: 25})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"land_share"}, f.GetSheetList())
	rows, err := f.GetRows("land_share")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"country", "year", "share_pct"},
		{"Tunisia", "2020", "25"},
	}, rows)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Results", sheetName(""))
	assert.Len(t, sheetName(strings.Repeat("x", 40)), 31)
}
