package data

import (
	"context"
	"fmt"

	"github.com/edusuite/backend/internal/rowstore"
)

// backupTables lists every school-scoped collection included in a
// snapshot, in an order that satisfies references on restore.
var backupTables = []string{
	rowstore.TableUsers,
	rowstore.TableClasses,
	rowstore.TableStudents,
	rowstore.TableFeeHeads,
	rowstore.TableFeeChallans,
	rowstore.TableAttendance,
	rowstore.TableResults,
	rowstore.TableEvents,
	rowstore.TableActivityLogs,
}

// Snapshot is a full export of one school's data, one key per table.
type Snapshot map[string][]rowstore.Row

// BackupData exports every school-scoped collection straight from the
// backend, bypassing the cache so the snapshot is complete even when
// the session has only loaded a subset.
func (c *Context) BackupData(ctx context.Context) (Snapshot, error) {
	school, err := c.requireTenant()
	if err != nil {
		return nil, err
	}
	snap := make(Snapshot, len(backupTables))
	for _, table := range backupTables {
		rows, err := c.client.Select(ctx, table, rowstore.Query{
			Filter: rowstore.Filter{Eq: map[string]interface{}{"school_id": school.String()}},
		})
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", table, err)
		}
		if rows == nil {
			rows = []rowstore.Row{}
		}
		snap[table] = rows
	}
	return snap, nil
}

// RestoreData replaces the school's data with the snapshot inside a
// single transaction, so a mid-restore failure rolls back to the
// pre-restore state instead of leaving a half-wiped tenant. The cache
// is reloaded wholesale afterwards.
func (c *Context) RestoreData(ctx context.Context, snap Snapshot) error {
	school, err := c.requireTenant()
	if err != nil {
		return err
	}
	for table := range snap {
		known := false
		for _, t := range backupTables {
			if t == table {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("snapshot contains unknown table %q", table)
		}
	}

	schoolEq := rowstore.Filter{Eq: map[string]interface{}{"school_id": school.String()}}
	err = c.client.Transaction(ctx, func(tx rowstore.Client) error {
		// Delete children first, insert parents first.
		for i := len(backupTables) - 1; i >= 0; i-- {
			if err := tx.DeleteWhere(ctx, backupTables[i], schoolEq); err != nil {
				return err
			}
		}
		for _, table := range backupTables {
			rows := snap[table]
			if len(rows) == 0 {
				continue
			}
			for _, row := range rows {
				row["school_id"] = school.String()
			}
			if _, err := tx.Insert(ctx, table, rows); err != nil {
				return fmt.Errorf("restore %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if report := c.LoadAll(ctx); report.Critical != nil {
		return fmt.Errorf("reload after restore: %w", report.Critical)
	}
	c.logActivity(ctx, "Data Restored", "Restored school data from backup snapshot")
	return nil
}
