package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLSource struct {
	db *sql.DB
}

func (md *MySQLSource) Connect(ctx context.Context, dsn string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}
	md.db = db
	return nil
}

func (md *MySQLSource) Close() error {
	if md.db == nil {
		return nil
	}
	return md.db.Close()
}

func (md *MySQLSource) Query(ctx context.Context, q Query) ([]Row, error) {
	stmt, args, err := buildSelect(q, mysqlDialect)
	if err != nil {
		return nil, err
	}
	schema, _ := Lookup(q.Table)

	rows, err := md.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	defer rows.Close()

	width := len(q.GroupBy) + len(q.Measures)
	var out []Row
	for rows.Next() {
		vals := make([]any, width)
		dest := make([]any, width)
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Table, err)
		}
		row, err := splitRow(q, schema, vals)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	return out, nil
}
