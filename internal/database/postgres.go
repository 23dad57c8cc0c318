package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresSource struct {
	pool *pgxpool.Pool
}

func (ps *PostgresSource) Connect(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}
	ps.pool = pool
	return nil
}

func (ps *PostgresSource) Close() error {
	if ps.pool != nil {
		ps.pool.Close()
	}
	return nil
}

func (ps *PostgresSource) Query(ctx context.Context, q Query) ([]Row, error) {
	stmt, args, err := buildSelect(q, postgresDialect)
	if err != nil {
		return nil, err
	}
	schema, _ := Lookup(q.Table)

	rows, err := ps.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
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
