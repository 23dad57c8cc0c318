package database

import (
	"fmt"
	"sort"
	"strings"

	"agristats/internal/numeric"
)

// Record is a raw table row keyed by column name.
type Record map[string]any

// Reduce runs q over records held in memory: filter, group, then reduce.
// Records must be in id order; AggregateNone preserves that order. Groups are
// returned ascending by key tuple. Absent measures count as 0 towards sums and
// averages, and every row of a group counts towards the average denominator.
func Reduce(records []Record, q Query) ([]Row, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	schema, _ := Lookup(q.Table)

	filters := make([]Filter, len(q.Filters))
	for i, f := range q.Filters {
		kind, _ := schema.Kind(f.Column)
		v, err := normalizeKey(kind, f.Value)
		if err != nil {
			return nil, fmt.Errorf("%s filter %s: %w", q.Table, f.Column, err)
		}
		filters[i] = Filter{Column: f.Column, Value: v}
	}

	type group struct {
		keys  []any
		sums  []float64
		count int
	}
	var (
		raw    []Row
		groups []*group
		index  = make(map[string]*group)
	)

	for _, rec := range records {
		match, err := matches(schema, rec, q.NotNull, filters)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.Table, err)
		}
		if !match {
			continue
		}

		keys := make([]any, len(q.GroupBy))
		for i, col := range q.GroupBy {
			kind, _ := schema.Kind(col)
			k, err := normalizeKey(kind, rec[col])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", q.Table, col, err)
			}
			keys[i] = k
		}

		if q.Aggregate == AggregateNone {
			measures := make([]any, len(q.Measures))
			for i, m := range q.Measures {
				measures[i] = rec[m]
			}
			raw = append(raw, Row{Keys: keys, Measures: measures})
			continue
		}

		id := tupleID(keys)
		g, ok := index[id]
		if !ok {
			g = &group{keys: keys, sums: make([]float64, len(q.Measures))}
			index[id] = g
			groups = append(groups, g)
		}
		g.count++
		for i, m := range q.Measures {
			g.sums[i] += numeric.Float(rec[m])
		}
	}

	if q.Aggregate == AggregateNone {
		return raw, nil
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return compareTuples(groups[i].keys, groups[j].keys) < 0
	})

	out := make([]Row, 0, len(groups))
	for _, g := range groups {
		measures := make([]any, len(g.sums))
		for i, s := range g.sums {
			if q.Aggregate == AggregateAvg {
				s /= float64(g.count)
			}
			measures[i] = s
		}
		out = append(out, Row{Keys: g.keys, Measures: measures})
	}
	return out, nil
}

func matches(schema *TableSchema, rec Record, notNull []string, filters []Filter) (bool, error) {
	for _, col := range notNull {
		if rec[col] == nil {
			return false, nil
		}
	}
	for _, f := range filters {
		kind, _ := schema.Kind(f.Column)
		v, err := normalizeKey(kind, rec[f.Column])
		if err != nil {
			return false, fmt.Errorf("column %s: %w", f.Column, err)
		}
		if v == nil || compareKeys(v, f.Value) != 0 {
			return false, nil
		}
	}
	return true, nil
}

func tupleID(keys []any) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(0)
		}
		fmt.Fprintf(&b, "%T:%v", k, k)
	}
	return b.String()
}
