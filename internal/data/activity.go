package data

import (
	"context"
	"log"

	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/rowstore"
)

// logActivity appends an audit record for a successful mutation. The
// actor's display name is snapshotted at log time so later renames never
// rewrite history. Failures here must not fail the mutation that
// triggered them.
func (c *Context) logActivity(ctx context.Context, action, details string) {
	entry := models.ActivityLog{
		UserID:   c.session.User.ID,
		UserName: c.session.User.Name,
		SchoolID: c.session.EffectiveSchoolID(),
		Action:   action,
		Details:  details,
	}

	row, err := insertRow(entry)
	if err != nil {
		log.Printf("activity log encode failed: %v", err)
		return
	}
	echoed, err := c.client.Insert(ctx, rowstore.TableActivityLogs, []rowstore.Row{row})
	if err != nil {
		log.Printf("activity log write failed: %v", err)
		return
	}
	if len(echoed) == 0 {
		return
	}
	stored, err := fromRow[models.ActivityLog](echoed[0])
	if err != nil {
		log.Printf("activity log decode failed: %v", err)
		return
	}
	c.store.ActivityLogs.Prepend(stored, activityLogCap)
}
