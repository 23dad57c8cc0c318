package database

import (
	"context"
	"fmt"
)

// Aggregate is the reduction applied to each group of a Query.
type Aggregate int

const (
	// AggregateNone returns raw rows in id order; GroupBy then lists the
	// dimension columns projected on each row.
	AggregateNone Aggregate = iota
	// AggregateSum sums coalesced measures per group.
	AggregateSum
	// AggregateAvg averages coalesced measures over every row of the group.
	AggregateAvg
)

func (a Aggregate) String() string {
	switch a {
	case AggregateNone:
		return "none"
	case AggregateSum:
		return "sum"
	case AggregateAvg:
		return "avg"
	}
	return fmt.Sprintf("Aggregate(%d)", int(a))
}

// Filter is an equality constraint on a dimension column.
// Value is a string for text columns and an int for year.
type Filter struct {
	Column string
	Value  any
}

// Query describes one read against a fact table.
type Query struct {
	Table   Table
	Filters []Filter
	// NotNull lists dimension columns whose null rows are excluded.
	NotNull   []string
	GroupBy   []string
	Measures  []string
	Aggregate Aggregate
}

// Where appends an equality filter and returns the query for chaining.
func (q Query) Where(column string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Value: value})
	return q
}

// WhereNotNull excludes rows whose column is null and returns the query for
// chaining.
func (q Query) WhereNotNull(column string) Query {
	q.NotNull = append(append([]string(nil), q.NotNull...), column)
	return q
}

// Row is one result of a Query. Keys are parallel to Query.GroupBy and hold a
// string, an int or nil. Measures are parallel to Query.Measures and hold the
// raw value produced by the backend.
type Row struct {
	Keys     []any
	Measures []any
}

// Source is a read-only tabular data source. Implementations must be safe for
// concurrent use once connected.
type Source interface {
	Connect(ctx context.Context, dsn string) error
	Close() error
	Query(ctx context.Context, q Query) ([]Row, error)
}

// Validate checks the query against the table catalog.
func (q Query) Validate() error {
	schema, ok := Lookup(q.Table)
	if !ok {
		return fmt.Errorf("unknown table %q", q.Table)
	}
	if len(q.GroupBy) == 0 {
		return fmt.Errorf("query on %s: at least one grouping column required", q.Table)
	}
	if q.Aggregate != AggregateNone && len(q.GroupBy) > 2 {
		return fmt.Errorf("query on %s: at most two grouping columns allowed", q.Table)
	}
	switch q.Aggregate {
	case AggregateNone, AggregateSum, AggregateAvg:
	default:
		return fmt.Errorf("query on %s: unsupported aggregate %s", q.Table, q.Aggregate)
	}
	for _, col := range q.GroupBy {
		kind, ok := schema.Kind(col)
		if !ok {
			return fmt.Errorf("query on %s: unknown column %q", q.Table, col)
		}
		if kind == KindFloat && q.Aggregate != AggregateNone {
			return fmt.Errorf("query on %s: cannot group by measure %q", q.Table, col)
		}
	}
	for _, col := range q.Measures {
		kind, ok := schema.Kind(col)
		if !ok {
			return fmt.Errorf("query on %s: unknown column %q", q.Table, col)
		}
		if kind != KindFloat {
			return fmt.Errorf("query on %s: %q is not a measure", q.Table, col)
		}
	}
	for _, col := range q.NotNull {
		if _, ok := schema.Kind(col); !ok {
			return fmt.Errorf("query on %s: unknown not-null column %q", q.Table, col)
		}
	}
	for _, f := range q.Filters {
		kind, ok := schema.Kind(f.Column)
		if !ok {
			return fmt.Errorf("query on %s: unknown filter column %q", q.Table, f.Column)
		}
		switch f.Value.(type) {
		case string:
			if kind != KindText {
				return fmt.Errorf("query on %s: filter %q expects a %s value", q.Table, f.Column, kind)
			}
		case int:
			if kind != KindInt {
				return fmt.Errorf("query on %s: filter %q expects a %s value", q.Table, f.Column, kind)
			}
		default:
			return fmt.Errorf("query on %s: unsupported filter value %T for %q", q.Table, f.Value, f.Column)
		}
	}
	return nil
}
