package database

import (
	"fmt"
	"strings"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	placeholder func(n int) string
	quote       func(ident string) string
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	quote:       func(ident string) string { return `"` + ident + `"` },
}

var mysqlDialect = dialect{
	placeholder: func(int) string { return "?" },
	quote:       func(ident string) string { return "`" + ident + "`" },
}

// buildSelect renders q as a single SELECT. Grouped queries order by the
// group columns; raw queries order by id.
func buildSelect(q Query, d dialect) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	cols := make([]string, 0, len(q.GroupBy)+len(q.Measures))
	groupCols := make([]string, len(q.GroupBy))
	for i, c := range q.GroupBy {
		groupCols[i] = d.quote(c)
	}
	cols = append(cols, groupCols...)
	for _, m := range q.Measures {
		switch q.Aggregate {
		case AggregateSum:
			cols = append(cols, fmt.Sprintf("SUM(COALESCE(%s, 0))", d.quote(m)))
		case AggregateAvg:
			cols = append(cols, fmt.Sprintf("AVG(COALESCE(%s, 0))", d.quote(m)))
		default:
			cols = append(cols, d.quote(m))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(cols, ", "), d.quote(string(q.Table)))

	args := make([]any, 0, len(q.Filters))
	conds := make([]string, 0, len(q.Filters)+len(q.NotNull))
	for _, f := range q.Filters {
		args = append(args, f.Value)
		conds = append(conds, fmt.Sprintf("%s = %s", d.quote(f.Column), d.placeholder(len(args))))
	}
	for _, col := range q.NotNull {
		conds = append(conds, d.quote(col)+" IS NOT NULL")
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	if q.Aggregate == AggregateNone {
		fmt.Fprintf(&sb, " ORDER BY %s", d.quote("id"))
	} else {
		g := strings.Join(groupCols, ", ")
		fmt.Fprintf(&sb, " GROUP BY %s ORDER BY %s", g, g)
	}
	return sb.String(), args, nil
}
