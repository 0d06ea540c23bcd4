package rowstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned for update/delete targets that do not exist.
var ErrNotFound = errors.New("rowstore: row not found")

// gormClient backs the row store with a gorm-managed postgres database.
type gormClient struct {
	db *gorm.DB
}

// NewGorm wraps a gorm DB as a row-store client.
func NewGorm(db *gorm.DB) Client {
	return &gormClient{db: db}
}

func (c *gormClient) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	tx := c.db.WithContext(ctx).Table(table)
	tx = applyFilter(tx, q.Filter)
	if q.OrderBy != "" {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: q.OrderBy},
			Desc:   q.Descending,
		})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []map[string]interface{}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = normalizeOut(r)
	}
	return out, nil
}

func (c *gormClient) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	prepared := make([]map[string]interface{}, len(rows))
	ids := make([]interface{}, len(rows))
	for i, r := range rows {
		p := normalizeIn(r)
		if id, ok := p["id"].(string); !ok || id == "" {
			p["id"] = uuid.NewString()
		}
		stampRow(table, p)
		prepared[i] = p
		ids[i] = p["id"]
	}

	if err := c.db.WithContext(ctx).Table(table).Create(&prepared).Error; err != nil {
		return nil, err
	}

	// Re-read what the backend actually stored so callers never trust
	// their own input shape.
	echoed, err := c.Select(ctx, table, Query{Filter: Filter{In: map[string][]interface{}{"id": ids}}})
	if err != nil {
		return nil, err
	}
	return orderByID(echoed, ids), nil
}

func (c *gormClient) UpdateByID(ctx context.Context, table, id string, values Row) (Row, error) {
	p := normalizeIn(values)
	delete(p, "id")
	if timestamped[table] {
		p["updated_at"] = time.Now().UTC()
	}

	res := c.db.WithContext(ctx).Table(table).Where("id = ?", id).Updates(p)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	rows, err := c.Select(ctx, table, Query{Filter: Filter{Eq: map[string]interface{}{"id": id}}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (c *gormClient) DeleteByID(ctx context.Context, table, id string) error {
	res := c.db.WithContext(ctx).Table(table).Where("id = ?", id).Delete(nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *gormClient) DeleteWhere(ctx context.Context, table string, f Filter) error {
	tx := applyFilter(c.db.WithContext(ctx).Table(table), f)
	return tx.Delete(nil).Error
}

func (c *gormClient) Upsert(ctx context.Context, table string, rows []Row, conflictCols, updateCols []string) ([]Row, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	prepared := make([]map[string]interface{}, len(rows))
	for i, r := range rows {
		p := normalizeIn(r)
		if id, ok := p["id"].(string); !ok || id == "" {
			p["id"] = uuid.NewString()
		}
		stampRow(table, p)
		prepared[i] = p
	}

	cols := make([]clause.Column, len(conflictCols))
	for i, name := range conflictCols {
		cols[i] = clause.Column{Name: name}
	}
	err := c.db.WithContext(ctx).Table(table).
		Clauses(clause.OnConflict{Columns: cols, DoUpdates: clause.AssignmentColumns(updateCols)}).
		Create(&prepared).Error
	if err != nil {
		return nil, err
	}

	// Echo by conflict key: the stored row may be an update of a row
	// whose id differs from the one we generated.
	out := make([]Row, 0, len(prepared))
	for _, p := range prepared {
		eq := make(map[string]interface{}, len(conflictCols))
		for _, col := range conflictCols {
			eq[col] = p[col]
		}
		fresh, err := c.Select(ctx, table, Query{Filter: Filter{Eq: eq}, Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(fresh) > 0 {
			out = append(out, fresh[0])
		}
	}
	return out, nil
}

func (c *gormClient) Transaction(ctx context.Context, fn func(Client) error) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormClient{db: tx})
	})
}

func applyFilter(tx *gorm.DB, f Filter) *gorm.DB {
	if len(f.Eq) > 0 {
		tx = tx.Where(map[string]interface{}(f.Eq))
	}
	for col, vals := range f.In {
		tx = tx.Where(clause.IN{Column: clause.Column{Name: col}, Values: vals})
	}
	return tx
}

func stampRow(table string, p map[string]interface{}) {
	now := time.Now().UTC()
	if timestamped[table] {
		if _, ok := p["created_at"]; !ok {
			p["created_at"] = now
		}
		if _, ok := p["updated_at"]; !ok {
			p["updated_at"] = now
		}
		return
	}
	if _, ok := p["timestamp"]; !ok {
		p["timestamp"] = now
	}
}

// normalizeIn converts app-side values into shapes the SQL driver can
// bind: nested maps/slices become JSON text, string slices become
// postgres arrays.
func normalizeIn(r Row) map[string]interface{} {
	out := make(map[string]interface{}, len(r))
	for k, v := range r {
		if textArrayColumns[k] {
			out[k] = pq.Array(toStringSlice(v))
			continue
		}
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			b, err := json.Marshal(v)
			if err != nil {
				out[k] = v
				continue
			}
			out[k] = string(b)
		default:
			out[k] = v
		}
	}
	return out
}

// normalizeOut decodes driver-level values back into plain wire values:
// jsonb payloads into maps/slices, postgres arrays into string slices,
// raw uuid bytes into their text form.
func normalizeOut(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		if textArrayColumns[k] {
			var arr pq.StringArray
			if err := arr.Scan(v); err == nil {
				out[k] = []string(arr)
				continue
			}
		}
		switch val := v.(type) {
		case []byte:
			var decoded interface{}
			if err := json.Unmarshal(val, &decoded); err == nil {
				out[k] = decoded
			} else {
				out[k] = string(val)
			}
		case [16]byte:
			out[k] = uuid.UUID(val).String()
		default:
			out[k] = v
		}
	}
	return out
}

func toStringSlice(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case pq.StringArray:
		return []string(val)
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func orderByID(rows []Row, ids []interface{}) []Row {
	byID := make(map[interface{}]Row, len(rows))
	for _, r := range rows {
		byID[r["id"]] = r
	}
	out := make([]Row, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
