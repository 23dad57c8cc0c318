// Package numeric turns loosely typed measure values read from a data source
// into finite float64 values.
package numeric

import (
	"database/sql"
	"encoding/json"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Float converts v to a finite float64. It never fails: nil, non-numeric,
// unparsable, NaN and infinite inputs all map to 0.
func Float(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case *float64:
		if x == nil {
			return 0
		}
		f = *x
	case sql.NullFloat64:
		if !x.Valid {
			return 0
		}
		f = x.Float64
	case decimal.Decimal:
		f = x.InexactFloat64()
	case pgtype.Numeric:
		// NUMERIC columns, and SUM over them, come back from pgx in this form.
		n, err := x.Float64Value()
		if err != nil || !n.Valid {
			return 0
		}
		f = n.Float64
	case json.Number:
		return parse(string(x))
	case string:
		return parse(x)
	case []byte:
		return parse(string(x))
	default:
		return 0
	}
	return finite(f)
}

func parse(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return finite(d.InexactFloat64())
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
