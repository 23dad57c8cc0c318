package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"agristats/internal/engine"
)

// Call is one dashboard query issued by a workload.
type Call struct {
	Name string
	Do   func(ctx context.Context, eng *engine.Engine) error
}

// Workload is a named set of calls.
type Workload struct {
	Name  string
	Calls []Call
}

// Sample holds the filter values the workload queries with.
type Sample struct {
	Product        string
	Country        string
	Year           int
	FertilizerType string
}

// SampleFrom picks the first country, product and fertilizer type and the
// latest year the source knows about.
func SampleFrom(ctx context.Context, eng *engine.Engine) (Sample, error) {
	opts, err := eng.FilterOptions(ctx)
	if err != nil {
		return Sample{}, err
	}
	if len(opts.Countries) == 0 || len(opts.Products) == 0 || len(opts.Years) == 0 {
		return Sample{}, errors.New("source has no production rows to sample")
	}
	s := Sample{
		Product: opts.Products[0],
		Country: opts.Countries[0],
		Year:    opts.Years[len(opts.Years)-1],
	}
	if len(opts.FertilizerTypes) > 0 {
		s.FertilizerType = opts.FertilizerTypes[0]
	}
	return s, nil
}

func call[T any](name string, fn func(context.Context, *engine.Engine) (T, error)) Call {
	return Call{
		Name: name,
		Do: func(ctx context.Context, eng *engine.Engine) error {
			_, err := fn(ctx, eng)
			return err
		},
	}
}

func productionCalls(s Sample) []Call {
	return []Call{
		call("production_timeseries", func(ctx context.Context, eng *engine.Engine) ([]engine.YearValue, error) {
			return eng.ProductionTimeseries(ctx, engine.ProductionTimeseriesParams{Product: s.Product, Country: s.Country})
		}),
		call("top_producers", func(ctx context.Context, eng *engine.Engine) ([]engine.CountryValue, error) {
			return eng.TopProducers(ctx, engine.TopProducersParams{Product: s.Product, Year: s.Year})
		}),
		call("production_vs_price", func(ctx context.Context, eng *engine.Engine) ([]engine.ProductionPrice, error) {
			return eng.ProductionVsPrice(ctx, engine.ProductionVsPriceParams{Product: s.Product, Year: s.Year})
		}),
		call("fertilizer_vs_production", func(ctx context.Context, eng *engine.Engine) (*engine.FertilizerSeries, error) {
			return eng.FertilizerVsProduction(ctx, engine.FertilizerVsProductionParams{
				Product:        s.Product,
				Country:        s.Country,
				FertilizerType: s.FertilizerType,
			})
		}),
	}
}

func priceCalls(s Sample) []Call {
	return []Call{
		call("price_timeseries", func(ctx context.Context, eng *engine.Engine) ([]engine.YearValue, error) {
			return eng.PriceTimeseries(ctx, engine.PriceTimeseriesParams{Product: s.Product, Country: s.Country})
		}),
		call("price_by_country", func(ctx context.Context, eng *engine.Engine) ([]engine.CountryValue, error) {
			return eng.PriceByCountry(ctx, engine.PriceByCountryParams{Product: s.Product, Year: s.Year})
		}),
		call("fdi_stacked", func(ctx context.Context, eng *engine.Engine) (*engine.FDIMatrix, error) {
			return eng.FDIStacked(ctx, engine.FDIStackedParams{Year: s.Year})
		}),
		call("price_boxplot", func(ctx context.Context, eng *engine.Engine) ([]engine.CountryValues, error) {
			return eng.PriceBoxplot(ctx, engine.PriceBoxplotParams{Product: s.Product})
		}),
	}
}

func resourceCalls(s Sample) []Call {
	return []Call{
		call("land_share", func(ctx context.Context, eng *engine.Engine) (*engine.LandShare, error) {
			return eng.LandShare(ctx, engine.LandShareParams{Country: s.Country, Year: s.Year})
		}),
		call("employment_timeseries", func(ctx context.Context, eng *engine.Engine) ([]engine.YearValue, error) {
			return eng.EmploymentTimeseries(ctx, engine.EmploymentTimeseriesParams{Country: s.Country})
		}),
		call("employment_vs_production", func(ctx context.Context, eng *engine.Engine) ([]engine.EmploymentProduction, error) {
			return eng.EmploymentVsProduction(ctx, engine.EmploymentVsProductionParams{Country: s.Country, Product: s.Product})
		}),
	}
}

var workloads = map[string]func(Sample) []Call{
	"production": productionCalls,
	"price":      priceCalls,
	"resources":  resourceCalls,
	"dashboard": func(s Sample) []Call {
		calls := productionCalls(s)
		calls = append(calls, priceCalls(s)...)
		return append(calls, resourceCalls(s)...)
	},
}

// Lookup builds the named workload for s. The dashboard workload covers
// every query; production, price and resources cover one dashboard tab each.
func Lookup(name string, s Sample) (Workload, error) {
	build, ok := workloads[name]
	if !ok {
		return Workload{}, fmt.Errorf("unknown workload %q (want one of %v)", name, Names())
	}
	return Workload{Name: name, Calls: build(s)}, nil
}

// Names lists the known workloads.
func Names() []string {
	names := make([]string, 0, len(workloads))
	for name := range workloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
