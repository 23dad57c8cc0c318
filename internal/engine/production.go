package engine

import (
	"context"
	"sort"

	"agristats/internal/database"
	"agristats/internal/numeric"
)

const defaultTopN = 10

type ProductionTimeseriesParams struct {
	Product string
	Country string
}

// ProductionTimeseries sums production per year, ascending by year.
func (e *Engine) ProductionTimeseries(ctx context.Context, p ProductionTimeseriesParams) ([]YearValue, error) {
	q := database.Query{
		Table:     database.Production,
		GroupBy:   []string{"year"},
		Measures:  []string{"production_quantity"},
		Aggregate: database.AggregateSum,
	}
	q = optional(q, "product", p.Product)
	q = optional(q, "country", p.Country)

	rows, err := e.query(ctx, "production_timeseries", q)
	if err != nil {
		return nil, err
	}
	return yearSeries(rows), nil
}

type TopProducersParams struct {
	Product string
	Year    int
	// N caps the ranking. Nil means 10; an explicit 0 yields no rows.
	N *int
}

// TopProducers ranks countries by total production of a product in a year.
func (e *Engine) TopProducers(ctx context.Context, p TopProducersParams) ([]CountryValue, error) {
	if p.Product == "" || p.Year == 0 {
		return nil, invalid("product and year required")
	}
	n := defaultTopN
	if p.N != nil {
		if *p.N < 0 {
			return nil, invalid("n must not be negative")
		}
		n = *p.N
	}

	q := database.Query{
		Table:     database.Production,
		GroupBy:   []string{"country"},
		Measures:  []string{"production_quantity"},
		Aggregate: database.AggregateSum,
	}.Where("product", p.Product).Where("year", p.Year)

	rows, err := e.query(ctx, "top_producers", q)
	if err != nil {
		return nil, err
	}

	out := countryValues(rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

type ProductionVsPriceParams struct {
	Product string
	Country string
	Year    int
}

// ProductionVsPrice inner-joins summed production with average producer price
// on (country, year). Keys without a price are dropped; the order is that of
// the production grouping.
func (e *Engine) ProductionVsPrice(ctx context.Context, p ProductionVsPriceParams) ([]ProductionPrice, error) {
	if p.Product == "" {
		return nil, invalid("product required")
	}

	prodQ := database.Query{
		Table:     database.Production,
		GroupBy:   []string{"country", "year"},
		Measures:  []string{"production_quantity"},
		Aggregate: database.AggregateSum,
	}.Where("product", p.Product)
	prodQ = optional(prodQ, "country", p.Country)
	prodQ = optional(prodQ, "year", p.Year)

	priceQ := database.Query{
		Table:     database.ProducerPrices,
		GroupBy:   []string{"country", "year"},
		Measures:  []string{"price"},
		Aggregate: database.AggregateAvg,
	}.Where("product", p.Product)
	priceQ = optional(priceQ, "country", p.Country)
	priceQ = optional(priceQ, "year", p.Year)

	prodRows, err := e.query(ctx, "production_vs_price", prodQ)
	if err != nil {
		return nil, err
	}
	priceRows, err := e.query(ctx, "production_vs_price", priceQ)
	if err != nil {
		return nil, err
	}

	type countryYear struct {
		country string
		year    int
	}
	prices := make(map[countryYear]float64, len(priceRows))
	for _, r := range priceRows {
		prices[countryYear{keyString(r.Keys[0]), keyInt(r.Keys[1])}] = numeric.Float(r.Measures[0])
	}

	out := make([]ProductionPrice, 0, len(prodRows))
	for _, r := range prodRows {
		key := countryYear{keyString(r.Keys[0]), keyInt(r.Keys[1])}
		price, ok := prices[key]
		if !ok {
			continue
		}
		out = append(out, ProductionPrice{
			Country:            key.country,
			Year:               key.year,
			ProductionQuantity: numeric.Float(r.Measures[0]),
			Price:              price,
		})
	}
	return out, nil
}

type FertilizerVsProductionParams struct {
	Product        string
	Country        string
	FertilizerType string
}

// FertilizerVsProduction returns yearly production and fertilizer use over the
// union of years seen in either table; a year missing on one side is 0.
// Fertilizer rows without a country never count, even when no country is given.
func (e *Engine) FertilizerVsProduction(ctx context.Context, p FertilizerVsProductionParams) (*FertilizerSeries, error) {
	if p.Product == "" {
		return nil, invalid("product required")
	}

	prodQ := database.Query{
		Table:     database.Production,
		GroupBy:   []string{"year"},
		Measures:  []string{"production_quantity"},
		Aggregate: database.AggregateSum,
	}.Where("product", p.Product)
	prodQ = optional(prodQ, "country", p.Country)

	fertQ := database.Query{
		Table:     database.Fertilizers,
		GroupBy:   []string{"year"},
		Measures:  []string{"quantity"},
		Aggregate: database.AggregateSum,
	}.WhereNotNull("country")
	fertQ = optional(fertQ, "country", p.Country)
	fertQ = optional(fertQ, "fertilizer_type", p.FertilizerType)

	prodRows, err := e.query(ctx, "fertilizer_vs_production", prodQ)
	if err != nil {
		return nil, err
	}
	fertRows, err := e.query(ctx, "fertilizer_vs_production", fertQ)
	if err != nil {
		return nil, err
	}

	prod := yearMap(prodRows)
	fert := yearMap(fertRows)
	years := unionYears(prod, fert)

	out := &FertilizerSeries{
		Years:      years,
		Production: make([]float64, len(years)),
		Fertilizer: make([]float64, len(years)),
	}
	for i, y := range years {
		out.Production[i] = prod[y]
		out.Fertilizer[i] = fert[y]
	}
	return out, nil
}

// yearSeries converts rows keyed by year into a series sorted by year.
func yearSeries(rows []database.Row) []YearValue {
	out := make([]YearValue, 0, len(rows))
	for _, r := range rows {
		out = append(out, YearValue{Year: keyInt(r.Keys[0]), Value: numeric.Float(r.Measures[0])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func countryValues(rows []database.Row) []CountryValue {
	out := make([]CountryValue, 0, len(rows))
	for _, r := range rows {
		out = append(out, CountryValue{Country: keyString(r.Keys[0]), Value: numeric.Float(r.Measures[0])})
	}
	return out
}

// yearMap indexes the first measure of each row by its year key. Later rows
// overwrite earlier ones for the same year.
func yearMap(rows []database.Row) map[int]float64 {
	m := make(map[int]float64, len(rows))
	for _, r := range rows {
		m[keyInt(r.Keys[0])] = numeric.Float(r.Measures[0])
	}
	return m
}

func unionYears(series ...map[int]float64) []int {
	seen := make(map[int]bool)
	years := make([]int, 0)
	for _, s := range series {
		for y := range s {
			if !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
	}
	sort.Ints(years)
	return years
}
