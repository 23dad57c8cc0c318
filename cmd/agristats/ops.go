package main

import (
	"context"
	"flag"
	"sort"

	"agristats/internal/engine"
)

type queryFlags struct {
	op             string
	product        string
	country        string
	year           int
	n              int
	nSet           bool
	fertilizerType string
}

func (q *queryFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&q.op, "op", "", "query to run (see -h for the list)")
	fs.StringVar(&q.product, "product", "", "product filter")
	fs.StringVar(&q.country, "country", "", "country filter")
	fs.IntVar(&q.year, "year", 0, "year filter (0 means any)")
	fs.IntVar(&q.n, "n", 0, "number of producers for top_producers (default 10)")
	fs.StringVar(&q.fertilizerType, "fertilizer-type", "", "fertilizer type filter")
}

type queryOp func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error)

var queryOps = map[string]queryOp{
	"production_timeseries": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		return eng.ProductionTimeseries(ctx, engine.ProductionTimeseriesParams{Product: q.product, Country: q.country})
	},
	"top_producers": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		p := engine.TopProducersParams{Product: q.product, Year: q.year}
		if q.nSet {
			p.N = &q.n
		}
		return eng.TopProducers(ctx, p)
	},
	"production_vs_price": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		return eng.ProductionVsPrice(ctx, engine.ProductionVsPriceParams{Product: q.product, Country: q.country, Year: q.year})
	},
	"fertilizer_vs_production": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		return eng.FertilizerVsProduction(ctx, engine.FertilizerVsProductionParams{
			Product:        q.product,
			Country:        q.country,
			FertilizerType: q.fertilizerType,
		})
	},
	"price_timeseries": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		return eng.PriceTimeseries(ctx, engine.PriceTimeseriesParams{Product: q.product, Country: q.country})
	},
	"price_by_country": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		return eng.PriceByCountry(ctx, engine.PriceByCountryParams{Product: q.product, Year: q.year})
	},
	"fdi_stacked": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		return eng.FDIStacked(ctx, engine.FDIStackedParams{Year: q.year})
	},
	"price_boxplot": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		return eng.PriceBoxplot(ctx, engine.PriceBoxplotParams{Product: q.product, Country: q.country})
	},
	"land_share": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		return eng.LandShare(ctx, engine.LandShareParams{Country: q.country, Year: q.year})
	},
	"employment_timeseries": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		return eng.EmploymentTimeseries(ctx, engine.EmploymentTimeseriesParams{Country: q.country})
	},
	"employment_vs_production": func(ctx context.Context, eng *engine.Engine, q queryFlags) (any, error) {
		return eng.EmploymentVsProduction(ctx, engine.EmploymentVsProductionParams{Country: q.country, Year: q.year, Product: q.product})
	},
	"filter_options": func(ctx context.Context, eng *engine.Engine, _ queryFlags) (any, error) {
		return eng.FilterOptions(ctx)
	},
}

func opNames() []string {
	names := make([]string, 0, len(queryOps))
	for name := range queryOps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
