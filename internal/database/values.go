package database

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// normalizeKey converts a raw dimension value to the canonical Go type of its
// column kind: string for text, int for integers, nil when absent.
func normalizeKey(kind ColumnKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindInt:
		return toInt(v)
	case KindText:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		default:
			return fmt.Sprint(x), nil
		}
	}
	return v, nil
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case json.Number:
		return parseInt(string(x))
	case string:
		return parseInt(x)
	case []byte:
		return parseInt(string(x))
	}
	return 0, fmt.Errorf("cannot convert %T to an integer", v)
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return floatToInt(f)
}

// compareKeys orders two normalized key values: nil first, then ints
// numerically, then strings lexically.
func compareKeys(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	ai, aInt := a.(int)
	bi, bInt := b.(int)
	if aInt && bInt {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareTuples(a, b []any) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := compareKeys(a[i], b[i]); c != 0 {
			return c
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}

// splitRow turns a flat value list (group columns then measures) into a Row.
func splitRow(q Query, schema *TableSchema, vals []any) (Row, error) {
	if len(vals) != len(q.GroupBy)+len(q.Measures) {
		return Row{}, fmt.Errorf("%s: expected %d columns, got %d", q.Table, len(q.GroupBy)+len(q.Measures), len(vals))
	}
	row := Row{
		Keys:     make([]any, len(q.GroupBy)),
		Measures: make([]any, len(q.Measures)),
	}
	for i, col := range q.GroupBy {
		kind, _ := schema.Kind(col)
		k, err := normalizeKey(kind, vals[i])
		if err != nil {
			return Row{}, fmt.Errorf("%s.%s: %w", q.Table, col, err)
		}
		row.Keys[i] = k
	}
	copy(row.Measures, vals[len(q.GroupBy):])
	return row, nil
}
