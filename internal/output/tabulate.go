// Package output renders query results as JSON, terminal tables or Excel
// workbooks.
package output

import (
	"fmt"
	"strings"

	"agristats/internal/engine"
)

// Grid is a result flattened into a header row and data rows. Cells hold
// strings, ints or float64s.
type Grid struct {
	Headers []string
	Rows    [][]any
}

// Tabulate flattens any engine result into a Grid.
func Tabulate(v any) (*Grid, error) {
	g := &Grid{}
	switch r := v.(type) {
	case []engine.YearValue:
		g.Headers = []string{"year", "value"}
		for _, p := range r {
			g.Rows = append(g.Rows, []any{p.Year, p.Value})
		}
	case []engine.CountryValue:
		g.Headers = []string{"country", "value"}
		for _, p := range r {
			g.Rows = append(g.Rows, []any{p.Country, p.Value})
		}
	case []engine.ProductionPrice:
		g.Headers = []string{"country", "year", "production_quantity", "price"}
		for _, p := range r {
			g.Rows = append(g.Rows, []any{p.Country, p.Year, p.ProductionQuantity, p.Price})
		}
	case *engine.FertilizerSeries:
		g.Headers = []string{"year", "production", "fertilizer"}
		for i, y := range r.Years {
			g.Rows = append(g.Rows, []any{y, r.Production[i], r.Fertilizer[i]})
		}
	case *engine.FDIMatrix:
		g.Headers = append([]string{"investing \\ receiving"}, r.Receiving...)
		for _, inv := range r.Investing {
			row := []any{inv}
			for _, amount := range r.Matrix[inv] {
				row = append(row, amount)
			}
			g.Rows = append(g.Rows, row)
		}
	case []engine.CountryValues:
		g.Headers = []string{"country", "count", "values"}
		for _, c := range r {
			vals := make([]string, len(c.Values))
			for i, f := range c.Values {
				vals[i] = formatFloat(f)
			}
			g.Rows = append(g.Rows, []any{c.Country, len(c.Values), strings.Join(vals, ", ")})
		}
	case *engine.LandShare:
		g.Headers = []string{"country", "year", "share_pct"}
		g.Rows = append(g.Rows, []any{r.Country, r.Year, r.SharePct})
	case []engine.EmploymentProduction:
		g.Headers = []string{"year", "employment", "production"}
		for _, p := range r {
			g.Rows = append(g.Rows, []any{p.Year, p.Employment, p.Production})
		}
	case *engine.FilterOptions:
		g.Headers = []string{"filter", "values"}
		years := make([]string, len(r.Years))
		for i, y := range r.Years {
			years[i] = fmt.Sprintf("%d", y)
		}
		g.Rows = [][]any{
			{"countries", strings.Join(r.Countries, ", ")},
			{"products", strings.Join(r.Products, ", ")},
			{"years", strings.Join(years, ", ")},
			{"fertilizer_types", strings.Join(r.FertilizerTypes, ", ")},
		}
	default:
		return nil, fmt.Errorf("cannot tabulate %T", v)
	}
	return g, nil
}

// formatCell converts a grid cell to text.
func formatCell(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return fmt.Sprintf("%d", v)
	case float64:
		return formatFloat(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
