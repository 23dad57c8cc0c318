package engine

import (
	"context"
	"sort"

	"agristats/internal/database"
	"agristats/internal/numeric"
)

type LandShareParams struct {
	Country string
	Year    int
}

// LandShare computes agricultural land as a percentage of total land. When
// several rows match, the one with the lowest id wins. No row, or a zero
// total, yields 0.
func (e *Engine) LandShare(ctx context.Context, p LandShareParams) (*LandShare, error) {
	if p.Country == "" || p.Year == 0 {
		return nil, invalid("country and year required")
	}

	q := database.Query{
		Table:     database.LandUse,
		GroupBy:   []string{"year"},
		Measures:  []string{"land_area_agricultural", "land_area_total"},
		Aggregate: database.AggregateNone,
	}.Where("country", p.Country).Where("year", p.Year)

	rows, err := e.query(ctx, "land_share", q)
	if err != nil {
		return nil, err
	}

	out := &LandShare{Country: p.Country, Year: p.Year}
	if len(rows) == 0 {
		return out, nil
	}
	agricultural := numeric.Float(rows[0].Measures[0])
	total := numeric.Float(rows[0].Measures[1])
	if total != 0 {
		out.SharePct = agricultural / total * 100
	}
	return out, nil
}

type EmploymentTimeseriesParams struct {
	Country string
}

// EmploymentTimeseries sums agricultural employment per year for a country.
func (e *Engine) EmploymentTimeseries(ctx context.Context, p EmploymentTimeseriesParams) ([]YearValue, error) {
	if p.Country == "" {
		return nil, invalid("country required")
	}

	q := database.Query{
		Table:     database.Employment,
		GroupBy:   []string{"year"},
		Measures:  []string{"employment_agriculture"},
		Aggregate: database.AggregateSum,
	}.Where("country", p.Country)

	rows, err := e.query(ctx, "employment_timeseries", q)
	if err != nil {
		return nil, err
	}
	return yearSeries(rows), nil
}

type EmploymentVsProductionParams struct {
	Country string
	Year    int
	Product string
}

// EmploymentVsProduction lines up employment with summed production over the
// union of years present in either table. Unlike ProductionVsPrice this is an
// outer union: a year missing on one side reports 0 for that side.
// Employment is read per row; when a year has several rows the last one wins.
func (e *Engine) EmploymentVsProduction(ctx context.Context, p EmploymentVsProductionParams) ([]EmploymentProduction, error) {
	if p.Country == "" {
		return nil, invalid("country required")
	}

	empQ := database.Query{
		Table:     database.Employment,
		GroupBy:   []string{"year"},
		Measures:  []string{"employment_agriculture"},
		Aggregate: database.AggregateNone,
	}.Where("country", p.Country)
	empQ = optional(empQ, "year", p.Year)

	prodQ := database.Query{
		Table:     database.Production,
		GroupBy:   []string{"year"},
		Measures:  []string{"production_quantity"},
		Aggregate: database.AggregateSum,
	}.Where("country", p.Country)
	prodQ = optional(prodQ, "product", p.Product)
	prodQ = optional(prodQ, "year", p.Year)

	empRows, err := e.query(ctx, "employment_vs_production", empQ)
	if err != nil {
		return nil, err
	}
	prodRows, err := e.query(ctx, "employment_vs_production", prodQ)
	if err != nil {
		return nil, err
	}

	emp := yearMap(empRows)
	prod := yearMap(prodRows)

	years := unionYears(emp, prod)
	out := make([]EmploymentProduction, 0, len(years))
	for _, y := range years {
		out = append(out, EmploymentProduction{
			Year:       y,
			Employment: emp[y],
			Production: prod[y],
		})
	}
	return out, nil
}

// FilterOptions lists the distinct countries, products and years of the
// production table and the fertilizer types of the fertilizer table, each
// sorted ascending. Null values are left out. It carries no default selection.
func (e *Engine) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	distinct := func(t database.Table, column string) ([]database.Row, error) {
		return e.query(ctx, "filter_options", database.Query{
			Table:     t,
			GroupBy:   []string{column},
			Aggregate: database.AggregateSum,
		}.WhereNotNull(column))
	}

	out := &FilterOptions{Years: make([]int, 0)}

	rows, err := distinct(database.Production, "country")
	if err != nil {
		return nil, err
	}
	out.Countries = sortedUnique(rows, 0)

	if rows, err = distinct(database.Production, "product"); err != nil {
		return nil, err
	}
	out.Products = sortedUnique(rows, 0)

	if rows, err = distinct(database.Production, "year"); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out.Years = append(out.Years, keyInt(r.Keys[0]))
	}
	sort.Ints(out.Years)

	if rows, err = distinct(database.Fertilizers, "fertilizer_type"); err != nil {
		return nil, err
	}
	out.FertilizerTypes = sortedUnique(rows, 0)

	return out, nil
}
