package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/xuri/excelize/v2"
)

// Format names an output encoding.
type Format string

const (
	JSON  Format = "json"
	Table Format = "table"
	XLSX  Format = "xlsx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case JSON, Table, XLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json, table or xlsx)", s)
}

// Write encodes v to w. title names the table heading or the worksheet.
func Write(w io.Writer, f Format, title string, v any) error {
	switch f {
	case JSON:
		return WriteJSON(w, v)
	case Table:
		return WriteTable(w, title, v)
	case XLSX:
		return WriteXLSX(w, title, v)
	}
	return fmt.Errorf("unknown output format %q", f)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteTable writes v as a markdown table under a heading. The heading is
// colored when w is a terminal.
func WriteTable(w io.Writer, title string, v any) error {
	g, err := Tabulate(v)
	if err != nil {
		return err
	}

	heading := "## " + title
	if f, ok := w.(*os.File); ok && f == os.Stdout && !color.NoColor {
		heading = color.New(color.FgCyan, color.Bold).Sprint(heading)
	}
	fmt.Fprintf(w, "%s\n\n", heading)

	if len(g.Rows) == 0 {
		_, err := fmt.Fprintf(w, "_Columns: %s_\n\n_No rows_\n", strings.Join(g.Headers, ", "))
		return err
	}

	alignment := make([]tw.Align, len(g.Headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(g.Headers)
	for _, row := range g.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = formatCell(c)
		}
		table.Append(cells)
	}
	table.Render()

	_, err = fmt.Fprintf(w, "\n_%d rows_\n", len(g.Rows))
	return err
}

// WriteXLSX writes v as a single-sheet Excel workbook.
func WriteXLSX(w io.Writer, sheet string, v any) error {
	g, err := Tabulate(v)
	if err != nil {
		return err
	}
	sheet = sheetName(sheet)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	for i, header := range g.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, columnName(i+1), columnName(i+1), 18); err != nil {
			return err
		}
	}
	for r, row := range g.Rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

func columnName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}

// sheetName trims a title to Excel's 31 character limit and strips the
// characters Excel rejects.
func sheetName(title string) string {
	title = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, title)
	if title == "" {
		title = "Results"
	}
	if len(title) > 31 {
		title = title[:31]
	}
	return title
}
