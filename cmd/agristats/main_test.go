package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const fixture = "../../testdata/dashboard.json"

func TestRunQueryJSON(t *testing.T) {
	var out bytes.Buffer
	code := runQuery([]string{
		"-source", "memory", "-dsn", fixture,
		"-op", "top_producers", "-product", "Wheat", "-year", "2020", "-n", "2",
	}, &out)

	require.Equal(t, 0, code)
	assert.JSONEq(t, `[{"country":"Egypt","value":9000000},{"country":"Morocco","value":2560000}]`, out.String())
}

func TestRunQueryTable(t *testing.T) {
	var out bytes.Buffer
	code := runQuery([]string{
		"-source", "memory", "-dsn", fixture,
		"-op", "land_share", "-country", "Tunisia", "-year", "2020", "-format", "table",
	}, &out)

	require.Equal(t, 0, code)
	assert.Contains(t, out.String(), "## land_share")
	assert.Contains(t, out.String(), "62.71")
}

func TestRunQueryReadsConfigFromWorkingDirectory(t *testing.T) {
	abs, err := filepath.Abs(fixture)
	require.NoError(t, err)

	dir := t.TempDir()
	config := fmt.Sprintf("source:\n  driver: memory\ndatabases:\n  memory: %q\n", abs)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	var out bytes.Buffer
	code := runQuery([]string{"-op", "top_producers", "-product", "Wheat", "-year", "2020", "-n", "1"}, &out)

	require.Equal(t, 0, code)
	assert.JSONEq(t, `[{"country":"Egypt","value":9000000}]`, out.String())
}

func TestRunQueryExplicitZeroN(t *testing.T) {
	var out bytes.Buffer
	code := runQuery([]string{
		"-source", "memory", "-dsn", fixture,
		"-op", "top_producers", "-product", "Wheat", "-year", "2020", "-n", "0",
	}, &out)

	require.Equal(t, 0, code)
	assert.JSONEq(t, `[]`, out.String())
}

func TestRunQueryXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fdi.xlsx")
	code := runQuery([]string{
		"-source", "memory", "-dsn", fixture,
		"-op", "fdi_stacked", "-year", "2020", "-format", "xlsx", "-out", path,
	}, &bytes.Buffer{})
	require.Equal(t, 0, code)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("fdi_stacked")
	require.NoError(t, err)
	assert.Equal(t, []string{"investing \\ receiving", "Morocco", "Tunisia"}, rows[0])
	assert.Equal(t, []string{"France", "310", "120.5"}, rows[1])
	assert.Equal(t, []string{"Italy", "0", "45"}, rows[2])
}

func TestRunQueryFailures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown op", []string{"-source", "memory", "-dsn", fixture, "-op", "nope"}, 2},
		{"bad format", []string{"-source", "memory", "-dsn", fixture, "-op", "filter_options", "-format", "csv"}, 2},
		{"xlsx without file", []string{"-source", "memory", "-dsn", fixture, "-op", "filter_options", "-format", "xlsx"}, 2},
		{"validation", []string{"-source", "memory", "-dsn", fixture, "-op", "fdi_stacked"}, 2},
		{"missing fixture", []string{"-source", "memory", "-dsn", "missing.json", "-op", "filter_options"}, 1},
		{"unknown driver", []string{"-source", "sqlite", "-dsn", "x", "-op", "filter_options"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, runQuery(tt.args, &bytes.Buffer{}))
		})
	}
}
