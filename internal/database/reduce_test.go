package database

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productionRows() []Record {
	return []Record{
		{"id": 1, "country": "Tunisia", "product": "Wheat", "year": 2020, "production_quantity": 100.0},
		{"id": 2, "country": "Tunisia", "product": "Wheat", "year": 2021, "production_quantity": nil},
		{"id": 3, "country": "Morocco", "product": "Wheat", "year": 2020, "production_quantity": 40.0},
		{"id": 4, "country": "Tunisia", "product": "Wheat", "year": 2020, "production_quantity": 20.0},
		{"id": 5, "country": "Tunisia", "product": "Olives", "year": 2020, "production_quantity": 7.0},
	}
}

func TestReduceSum(t *testing.T) {
	rows, err := Reduce(productionRows(), Query{
		Table:     Production,
		Filters:   []Filter{{Column: "product", Value: "Wheat"}},
		GroupBy:   []string{"year"},
		Measures:  []string{"production_quantity"},
		Aggregate: AggregateSum,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []any{2020}, rows[0].Keys)
	assert.Equal(t, []any{160.0}, rows[0].Measures)
	// A group made only of absent measures sums to zero, not nil.
	assert.Equal(t, []any{2021}, rows[1].Keys)
	assert.Equal(t, []any{0.0}, rows[1].Measures)
}

func TestReduceAverageCountsAbsentAsZero(t *testing.T) {
	records := []Record{
		{"id": 1, "country": "Tunisia", "product": "Wheat", "year": 2020, "price": 10.0},
		{"id": 2, "country": "Tunisia", "product": "Wheat", "year": 2020, "price": nil},
		{"id": 3, "country": "Tunisia", "product": "Wheat", "year": 2020, "price": 20.0},
	}
	rows, err := Reduce(records, Query{
		Table:     ProducerPrices,
		GroupBy:   []string{"country"},
		Measures:  []string{"price"},
		Aggregate: AggregateAvg,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 10.0, rows[0].Measures[0], 1e-9)
}

func TestReduceTwoKeysSortedByTuple(t *testing.T) {
	rows, err := Reduce(productionRows(), Query{
		Table:     Production,
		Filters:   []Filter{{Column: "product", Value: "Wheat"}},
		GroupBy:   []string{"country", "year"},
		Measures:  []string{"production_quantity"},
		Aggregate: AggregateSum,
	})
	require.NoError(t, err)

	var keys [][]any
	for _, r := range rows {
		keys = append(keys, r.Keys)
	}
	assert.Equal(t, [][]any{
		{"Morocco", 2020},
		{"Tunisia", 2020},
		{"Tunisia", 2021},
	}, keys)
}

func TestReduceNoneKeepsRowOrder(t *testing.T) {
	rows, err := Reduce(productionRows(), Query{
		Table:     Production,
		Filters:   []Filter{{Column: "country", Value: "Tunisia"}, {Column: "year", Value: 2020}},
		GroupBy:   []string{"product"},
		Measures:  []string{"production_quantity"},
		Aggregate: AggregateNone,
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Wheat", rows[0].Keys[0])
	assert.Equal(t, 100.0, rows[0].Measures[0])
	assert.Equal(t, 20.0, rows[1].Measures[0])
	assert.Equal(t, "Olives", rows[2].Keys[0])
}

func TestReduceDistinctKeys(t *testing.T) {
	rows, err := Reduce(productionRows(), Query{
		Table:     Production,
		GroupBy:   []string{"country"},
		Aggregate: AggregateSum,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Morocco", rows[0].Keys[0])
	assert.Equal(t, "Tunisia", rows[1].Keys[0])
	assert.Empty(t, rows[0].Measures)
}

func TestReduceFilterIsCaseSensitive(t *testing.T) {
	rows, err := Reduce(productionRows(), Query{
		Table:     Production,
		Filters:   []Filter{{Column: "country", Value: "tunisia"}},
		GroupBy:   []string{"year"},
		Measures:  []string{"production_quantity"},
		Aggregate: AggregateSum,
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReduceNotNullSkipsNullKeys(t *testing.T) {
	records := []Record{
		{"id": 1, "country": "Tunisia", "fertilizer_type": "Nitrogen", "year": 2020, "quantity": 5.0},
		{"id": 2, "country": nil, "fertilizer_type": "Nitrogen", "year": 2020, "quantity": 1000.0},
		{"id": 3, "fertilizer_type": "Nitrogen", "year": 2021, "quantity": 9.0},
	}
	q := Query{
		Table:     Fertilizers,
		GroupBy:   []string{"year"},
		Measures:  []string{"quantity"},
		Aggregate: AggregateSum,
	}

	rows, err := Reduce(records, q)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1005.0, rows[0].Measures[0])

	rows, err = Reduce(records, q.WhereNotNull("country"))
	require.NoError(t, err)
	assert.Equal(t, []Row{{Keys: []any{2020}, Measures: []any{5.0}}}, rows)
}

func TestReduceNormalizesFixtureNumbers(t *testing.T) {
	records := []Record{
		{"id": json.Number("1"), "country": "Tunisia", "year": json.Number("2020"), "employment_agriculture": json.Number("12.5")},
		{"id": json.Number("2"), "country": "Tunisia", "year": json.Number("2020"), "employment_agriculture": "7.5"},
	}
	rows, err := Reduce(records, Query{
		Table:     Employment,
		Filters:   []Filter{{Column: "year", Value: 2020}},
		GroupBy:   []string{"year"},
		Measures:  []string{"employment_agriculture"},
		Aggregate: AggregateSum,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2020, rows[0].Keys[0])
	assert.InDelta(t, 20.0, rows[0].Measures[0], 1e-9)
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name string
		q    Query
	}{
		{"unknown table", Query{Table: "nope", GroupBy: []string{"year"}}},
		{"no grouping", Query{Table: Production, Aggregate: AggregateSum}},
		{"three keys", Query{Table: Production, GroupBy: []string{"country", "product", "year"}, Aggregate: AggregateSum}},
		{"unknown column", Query{Table: Production, GroupBy: []string{"region"}, Aggregate: AggregateSum}},
		{"group by measure", Query{Table: Production, GroupBy: []string{"production_quantity"}, Aggregate: AggregateSum}},
		{"text measure", Query{Table: Production, GroupBy: []string{"year"}, Measures: []string{"unit"}, Aggregate: AggregateSum}},
		{"year as string", Query{Table: Production, GroupBy: []string{"year"}, Filters: []Filter{{Column: "year", Value: "2020"}}, Aggregate: AggregateSum}},
		{"bad aggregate", Query{Table: Production, GroupBy: []string{"year"}, Aggregate: Aggregate(9)}},
		{"unknown not-null column", Query{Table: Production, GroupBy: []string{"year"}, NotNull: []string{"region"}, Aggregate: AggregateSum}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.q.Validate())
		})
	}

	ok := Query{Table: LandUse, GroupBy: []string{"year"}, Measures: []string{"land_area_agricultural", "land_area_total"}}.
		Where("country", "Tunisia").
		Where("year", 2020)
	assert.NoError(t, ok.Validate())
}

func TestWhereDoesNotAlias(t *testing.T) {
	base := Query{Table: Production, GroupBy: []string{"year"}, Filters: make([]Filter, 0, 4)}
	a := base.Where("country", "A")
	b := base.Where("country", "B")
	assert.Equal(t, "A", a.Filters[0].Value)
	assert.Equal(t, "B", b.Filters[0].Value)
	assert.Empty(t, base.Filters)
}
