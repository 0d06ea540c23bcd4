// Package rowstore is the sole wire boundary of the data layer. It
// exposes the backend as a generic tenant-agnostic row store: named
// tables supporting filtered reads, inserts, updates and deletes by id,
// and upserts on a declared conflict key. Rows travel as wire-case
// (snake_case) maps; key-case translation happens above this package.
package rowstore

import "context"

// Table names known to the store.
const (
	TableSchools       = "schools"
	TableUsers         = "users"
	TableClasses       = "classes"
	TableStudents      = "students"
	TableFeeHeads      = "fee_heads"
	TableFeeChallans   = "fee_challans"
	TableAttendance    = "attendances"
	TableResults       = "results"
	TableEvents        = "school_events"
	TableActivityLogs  = "activity_logs"
	TableNotifications = "notifications"
)

// Row is a single wire-case record.
type Row = map[string]interface{}

// Filter restricts a read or delete to matching rows. Eq entries are
// ANDed equality conditions; In entries are batch membership conditions.
type Filter struct {
	Eq map[string]interface{}
	In map[string][]interface{}
}

// Query is a filtered read with optional ordering and limit.
type Query struct {
	Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Client is the row-store contract. Every implementation must echo the
// stored row back from writes so callers can trust server-computed
// defaults instead of their own input.
type Client interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	UpdateByID(ctx context.Context, table, id string, values Row) (Row, error)
	DeleteByID(ctx context.Context, table, id string) error
	DeleteWhere(ctx context.Context, table string, f Filter) error
	Upsert(ctx context.Context, table string, rows []Row, conflictCols, updateCols []string) ([]Row, error)
	Transaction(ctx context.Context, fn func(Client) error) error
}

// tables whose rows carry created_at/updated_at columns. Append-only
// tables (logs, notifications) keep a single timestamp instead.
var timestamped = map[string]bool{
	TableSchools:     true,
	TableUsers:       true,
	TableClasses:     true,
	TableStudents:    true,
	TableFeeHeads:    true,
	TableFeeChallans: true,
	TableAttendance:  true,
	TableResults:     true,
	TableEvents:      true,
}

// columns stored as postgres text[] rather than jsonb.
var textArrayColumns = map[string]bool{
	"child_student_ids":  true,
	"disabled_nav_links": true,
}
