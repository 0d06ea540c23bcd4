package rowstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memClient is an in-memory row store used by tests and local tooling.
// It applies the same stamping and echo semantics as the gorm client.
type memClient struct {
	mu     sync.RWMutex
	tables map[string][]Row

	// FailTables simulates per-table backend failures.
	failTables map[string]error
}

// NewMemory returns an empty in-memory client.
func NewMemory() *memClient {
	return &memClient{
		tables:     make(map[string][]Row),
		failTables: make(map[string]error),
	}
}

// FailTable makes every operation against a table return err. Passing a
// nil err clears the failure.
func (c *memClient) FailTable(table string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failTables, table)
		return
	}
	c.failTables[table] = err
}

// Count reports the number of rows currently held for a table.
func (c *memClient) Count(table string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables[table])
}

func (c *memClient) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.failTables[table]; err != nil {
		return nil, err
	}

	var out []Row
	for _, r := range c.tables[table] {
		if matches(r, q.Filter) {
			out = append(out, cloneRow(r))
		}
	}
	if q.OrderBy != "" {
		col, desc := q.OrderBy, q.Descending
		sort.SliceStable(out, func(i, j int) bool {
			less := lessValue(out[i][col], out[j][col])
			if desc {
				return !less
			}
			return less
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (c *memClient) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failTables[table]; err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		stored := cloneRow(r)
		if id, ok := stored["id"].(string); !ok || id == "" {
			stored["id"] = uuid.NewString()
		}
		stampRow(table, stored)
		c.tables[table] = append(c.tables[table], stored)
		out = append(out, cloneRow(stored))
	}
	return out, nil
}

func (c *memClient) UpdateByID(ctx context.Context, table, id string, values Row) (Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failTables[table]; err != nil {
		return nil, err
	}

	for _, r := range c.tables[table] {
		if r["id"] == id {
			for k, v := range values {
				if k == "id" {
					continue
				}
				r[k] = v
			}
			if timestamped[table] {
				r["updated_at"] = time.Now().UTC()
			}
			return cloneRow(r), nil
		}
	}
	return nil, ErrNotFound
}

func (c *memClient) DeleteByID(ctx context.Context, table, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failTables[table]; err != nil {
		return err
	}

	rows := c.tables[table]
	for i, r := range rows {
		if r["id"] == id {
			c.tables[table] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (c *memClient) DeleteWhere(ctx context.Context, table string, f Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failTables[table]; err != nil {
		return err
	}

	var kept []Row
	for _, r := range c.tables[table] {
		if !matches(r, f) {
			kept = append(kept, r)
		}
	}
	c.tables[table] = kept
	return nil
}

func (c *memClient) Upsert(ctx context.Context, table string, rows []Row, conflictCols, updateCols []string) ([]Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failTables[table]; err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		incoming := cloneRow(r)
		existing := c.findByConflictKey(table, incoming, conflictCols)
		if existing != nil {
			for _, col := range updateCols {
				if v, ok := incoming[col]; ok {
					existing[col] = v
				}
			}
			if timestamped[table] {
				existing["updated_at"] = time.Now().UTC()
			}
			out = append(out, cloneRow(existing))
			continue
		}
		if id, ok := incoming["id"].(string); !ok || id == "" {
			incoming["id"] = uuid.NewString()
		}
		stampRow(table, incoming)
		c.tables[table] = append(c.tables[table], incoming)
		out = append(out, cloneRow(incoming))
	}
	return out, nil
}

// Transaction runs fn against the same store. Rollback is not simulated;
// tests that care about partial failure inject per-table errors instead.
func (c *memClient) Transaction(ctx context.Context, fn func(Client) error) error {
	return fn(c)
}

func (c *memClient) findByConflictKey(table string, incoming Row, conflictCols []string) Row {
	for _, r := range c.tables[table] {
		match := true
		for _, col := range conflictCols {
			if !valueEqual(r[col], incoming[col]) {
				match = false
				break
			}
		}
		if match {
			return r
		}
	}
	return nil
}

func matches(r Row, f Filter) bool {
	for col, want := range f.Eq {
		if !valueEqual(r[col], want) {
			return false
		}
	}
	for col, vals := range f.In {
		found := false
		for _, want := range vals {
			if valueEqual(r[col], want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func valueEqual(a, b interface{}) bool {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func lessValue(a, b interface{}) bool {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Before(bt)
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af < bf
		}
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	default:
		return 0, false
	}
}

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
