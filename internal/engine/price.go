package engine

import (
	"context"
	"sort"

	"agristats/internal/database"
	"agristats/internal/numeric"
)

const unknownCountry = "Unknown"

type PriceTimeseriesParams struct {
	Product string
	Country string
}

// PriceTimeseries averages producer prices per year, ascending by year.
func (e *Engine) PriceTimeseries(ctx context.Context, p PriceTimeseriesParams) ([]YearValue, error) {
	if p.Product == "" {
		return nil, invalid("product required")
	}

	q := database.Query{
		Table:     database.ProducerPrices,
		GroupBy:   []string{"year"},
		Measures:  []string{"price"},
		Aggregate: database.AggregateAvg,
	}.Where("product", p.Product)
	q = optional(q, "country", p.Country)

	rows, err := e.query(ctx, "price_timeseries", q)
	if err != nil {
		return nil, err
	}
	return yearSeries(rows), nil
}

type PriceByCountryParams struct {
	Product string
	Year    int
}

// PriceByCountry averages producer prices per country in the order the source
// returns the groups.
func (e *Engine) PriceByCountry(ctx context.Context, p PriceByCountryParams) ([]CountryValue, error) {
	if p.Product == "" || p.Year == 0 {
		return nil, invalid("product and year required")
	}

	q := database.Query{
		Table:     database.ProducerPrices,
		GroupBy:   []string{"country"},
		Measures:  []string{"price"},
		Aggregate: database.AggregateAvg,
	}.Where("product", p.Product).Where("year", p.Year)

	rows, err := e.query(ctx, "price_by_country", q)
	if err != nil {
		return nil, err
	}
	return countryValues(rows), nil
}

type FDIStackedParams struct {
	Year int
}

// FDIStacked pivots a year's investment amounts into an investing x receiving
// matrix. Unobserved pairs are 0.
func (e *Engine) FDIStacked(ctx context.Context, p FDIStackedParams) (*FDIMatrix, error) {
	if p.Year == 0 {
		return nil, invalid("year required")
	}

	q := database.Query{
		Table:     database.ForeignInvestment,
		GroupBy:   []string{"receiving_country", "investing_country"},
		Measures:  []string{"investment_amount"},
		Aggregate: database.AggregateSum,
	}.Where("year", p.Year)

	rows, err := e.query(ctx, "fdi_stacked", q)
	if err != nil {
		return nil, err
	}

	receiving := sortedUnique(rows, 0)
	investing := sortedUnique(rows, 1)

	column := make(map[string]int, len(receiving))
	for i, c := range receiving {
		column[c] = i
	}
	matrix := make(map[string][]float64, len(investing))
	for _, inv := range investing {
		matrix[inv] = make([]float64, len(receiving))
	}
	for _, r := range rows {
		recv, inv := keyString(r.Keys[0]), keyString(r.Keys[1])
		matrix[inv][column[recv]] = numeric.Float(r.Measures[0])
	}

	return &FDIMatrix{
		Receiving: receiving,
		Investing: investing,
		Matrix:    matrix,
	}, nil
}

type PriceBoxplotParams struct {
	Product string
	Country string
}

// PriceBoxplot groups raw producer prices by country without reducing them.
// Countries appear in first-seen order and values keep row order; a missing
// country is reported as "Unknown".
func (e *Engine) PriceBoxplot(ctx context.Context, p PriceBoxplotParams) ([]CountryValues, error) {
	if p.Product == "" {
		return nil, invalid("product required")
	}

	q := database.Query{
		Table:     database.ProducerPrices,
		GroupBy:   []string{"country"},
		Measures:  []string{"price"},
		Aggregate: database.AggregateNone,
	}.Where("product", p.Product)
	q = optional(q, "country", p.Country)

	rows, err := e.query(ctx, "price_boxplot", q)
	if err != nil {
		return nil, err
	}

	out := make([]CountryValues, 0)
	index := make(map[string]int)
	for _, r := range rows {
		c := keyString(r.Keys[0])
		if c == "" {
			c = unknownCountry
		}
		i, ok := index[c]
		if !ok {
			i = len(out)
			index[c] = i
			out = append(out, CountryValues{Country: c, Values: make([]float64, 0)})
		}
		out[i].Values = append(out[i].Values, numeric.Float(r.Measures[0]))
	}
	return out, nil
}

func sortedUnique(rows []database.Row, key int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range rows {
		s := keyString(r.Keys[key])
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
