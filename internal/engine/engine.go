// Package engine implements the aggregation queries behind the agricultural
// statistics dashboard: time series, rankings, joins between two fact tables
// keyed by (country, year) and pivot matrices.
//
// Every operation is a pure function of its parameters and the current content
// of the Source. Nothing is cached; an Engine is safe for concurrent use as
// long as its Source is.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"agristats/internal/database"
)

// Engine answers dashboard queries against a tabular source.
type Engine struct {
	src database.Source
	log zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-query debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates an Engine reading from src.
func New(src database.Source, opts ...Option) *Engine {
	e := &Engine{
		src: src,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// query runs q against the source and logs how long it took.
func (e *Engine) query(ctx context.Context, op string, q database.Query) ([]database.Row, error) {
	start := time.Now()
	rows, err := e.src.Query(ctx, q)
	if err != nil {
		e.log.Error().Err(err).Str("op", op).Str("table", string(q.Table)).Msg("source query failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.log.Debug().
		Str("op", op).
		Str("table", string(q.Table)).
		Stringer("aggregate", q.Aggregate).
		Int("filters", len(q.Filters)).
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("source query")
	return rows, nil
}

// optional adds an equality filter only when value is set.
func optional(q database.Query, column string, value any) database.Query {
	switch v := value.(type) {
	case string:
		if v == "" {
			return q
		}
	case int:
		if v == 0 {
			return q
		}
	}
	return q.Where(column, value)
}

func keyString(v any) string {
	s, _ := v.(string)
	return s
}

func keyInt(v any) int {
	n, _ := v.(int)
	return n
}
