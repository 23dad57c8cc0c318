package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// MemorySource serves queries from tables held in memory. It is loaded from a
// JSON fixture whose top-level keys are table names and whose values are
// arrays of row objects.
type MemorySource struct {
	mu     sync.RWMutex
	tables map[Table][]Record
}

// NewMemorySource creates a source over the given tables. Rows are reordered
// by id when they carry one.
func NewMemorySource(tables map[Table][]Record) (*MemorySource, error) {
	ms := &MemorySource{}
	if err := ms.load(tables); err != nil {
		return nil, err
	}
	return ms, nil
}

func (ms *MemorySource) Connect(ctx context.Context, dsn string) error {
	f, err := os.Open(dsn)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	raw := make(map[string][]Record)
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode fixture %s: %w", dsn, err)
	}

	tables := make(map[Table][]Record, len(raw))
	for name, rows := range raw {
		tables[Table(name)] = rows
	}
	return ms.load(tables)
}

func (ms *MemorySource) load(tables map[Table][]Record) error {
	sorted := make(map[Table][]Record, len(tables))
	for t, rows := range tables {
		if _, ok := Lookup(t); !ok {
			return fmt.Errorf("unknown table %q", t)
		}
		rows = append([]Record(nil), rows...)
		ids := make([]int, len(rows))
		for i, r := range rows {
			if r["id"] == nil {
				ids[i] = i
				continue
			}
			id, err := toInt(r["id"])
			if err != nil {
				return fmt.Errorf("%s row %d: id: %w", t, i, err)
			}
			ids[i] = id
		}
		order := make([]int, len(rows))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return ids[order[a]] < ids[order[b]] })
		out := make([]Record, len(rows))
		for i, idx := range order {
			out[i] = rows[idx]
		}
		sorted[t] = out
	}

	ms.mu.Lock()
	ms.tables = sorted
	ms.mu.Unlock()
	return nil
}

func (ms *MemorySource) Close() error {
	return nil
}

func (ms *MemorySource) Query(ctx context.Context, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms.mu.RLock()
	rows := ms.tables[q.Table]
	ms.mu.RUnlock()
	return Reduce(rows, q)
}
