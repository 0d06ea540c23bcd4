package data

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/rowstore"
)

const (
	// fetchChunkSize bounds the id-list length of student-scoped
	// queries so a large school never exceeds query-parameter limits.
	fetchChunkSize = 500

	// activityLogCap is how many recent log entries a load keeps.
	activityLogCap = 100
)

// LoadReport describes the outcome of a full load. Notices are per-table
// failures the caller can surface without discarding the rest of the
// data; Critical means the load as a whole cannot be trusted.
type LoadReport struct {
	Notices  []string
	Critical error
}

func (r *LoadReport) notice(table string, err error) {
	r.Notices = append(r.Notices, fmt.Sprintf("%s: %v", table, err))
}

// LoadAll clears and repopulates every collection for the session's
// tenant view. An owner with no active school gets the school list (and
// the user roster for administration) only; student-scoped collections
// need a school in focus.
func (c *Context) LoadAll(ctx context.Context) *LoadReport {
	report := &LoadReport{}
	c.store.Reset()
	c.markLoaded(false)

	school := c.session.EffectiveSchoolID()
	if school == nil {
		if c.session.User.Role != models.RoleOwner {
			report.Critical = ErrNoTenant
			return report
		}
		c.loadOwnerOverview(ctx, report)
		c.markLoaded(report.Critical == nil)
		return report
	}

	c.loadLookups(ctx, *school, report)

	students, err := c.fetchStudents(ctx, *school)
	if err != nil {
		// Every student-scoped collection hangs off this list; partial
		// data here is unsafe to operate on.
		report.Critical = fmt.Errorf("students: %w", err)
		return report
	}
	c.store.Students.Replace(students)

	ids := make([]interface{}, len(students))
	for i, s := range students {
		ids[i] = s.ID.String()
	}
	if len(ids) == 0 {
		c.store.FeeChallans.Replace(nil)
		c.store.Attendance.Replace(nil)
		c.store.Results.Replace(nil)
		c.markLoaded(true)
		return report
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.Go(func() error {
		rows, errs := c.fetchByStudentIDs(ctx, rowstore.TableFeeChallans, ids)
		challans, err := fromRows[models.FeeChallan](rows)
		mu.Lock()
		defer mu.Unlock()
		for _, e := range errs {
			report.notice(rowstore.TableFeeChallans, e)
		}
		if err != nil {
			report.notice(rowstore.TableFeeChallans, err)
			return nil
		}
		c.store.FeeChallans.Replace(challans)
		return nil
	})
	g.Go(func() error {
		rows, errs := c.fetchByStudentIDs(ctx, rowstore.TableAttendance, ids)
		attendance, err := fromRows[models.Attendance](rows)
		mu.Lock()
		defer mu.Unlock()
		for _, e := range errs {
			report.notice(rowstore.TableAttendance, e)
		}
		if err != nil {
			report.notice(rowstore.TableAttendance, err)
			return nil
		}
		c.store.Attendance.Replace(attendance)
		return nil
	})
	g.Go(func() error {
		rows, errs := c.fetchByStudentIDs(ctx, rowstore.TableResults, ids)
		results, err := fromRows[models.Result](rows)
		mu.Lock()
		defer mu.Unlock()
		for _, e := range errs {
			report.notice(rowstore.TableResults, e)
		}
		if err != nil {
			report.notice(rowstore.TableResults, err)
			return nil
		}
		c.store.Results.Replace(results)
		return nil
	})
	g.Wait()

	c.markLoaded(true)
	return report
}

func (c *Context) loadOwnerOverview(ctx context.Context, report *LoadReport) {
	var mu sync.Mutex
	var g errgroup.Group
	g.Go(func() error {
		rows, err := c.client.Select(ctx, rowstore.TableSchools, rowstore.Query{})
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.notice(rowstore.TableSchools, err)
			return nil
		}
		schools, err := fromRows[models.School](rows)
		if err != nil {
			report.notice(rowstore.TableSchools, err)
			return nil
		}
		c.store.Schools.Replace(schools)
		return nil
	})
	g.Go(func() error {
		rows, err := c.client.Select(ctx, rowstore.TableUsers, rowstore.Query{})
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.notice(rowstore.TableUsers, err)
			return nil
		}
		users, err := fromRows[models.User](rows)
		if err != nil {
			report.notice(rowstore.TableUsers, err)
			return nil
		}
		c.store.Users.Replace(users)
		return nil
	})
	g.Wait()
}

// loadLookups fetches the tenant-independent and small lookup tables
// concurrently. Any single failure is reported and leaves that one
// collection empty.
func (c *Context) loadLookups(ctx context.Context, school uuid.UUID, report *LoadReport) {
	schoolEq := map[string]interface{}{"school_id": school.String()}

	var mu sync.Mutex
	var g errgroup.Group

	g.Go(func() error {
		q := rowstore.Query{}
		if c.session.User.Role != models.RoleOwner {
			q.Eq = map[string]interface{}{"id": school.String()}
		}
		rows, err := c.client.Select(ctx, rowstore.TableSchools, q)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.notice(rowstore.TableSchools, err)
			return nil
		}
		schools, err := fromRows[models.School](rows)
		if err != nil {
			report.notice(rowstore.TableSchools, err)
			return nil
		}
		c.store.Schools.Replace(schools)
		return nil
	})

	g.Go(func() error {
		rows, err := c.client.Select(ctx, rowstore.TableUsers, rowstore.Query{Filter: rowstore.Filter{Eq: schoolEq}})
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.notice(rowstore.TableUsers, err)
			return nil
		}
		users, err := fromRows[models.User](rows)
		if err != nil {
			report.notice(rowstore.TableUsers, err)
			return nil
		}
		c.store.Users.Replace(users)
		return nil
	})

	g.Go(func() error {
		rows, err := c.client.Select(ctx, rowstore.TableClasses, rowstore.Query{
			Filter:  rowstore.Filter{Eq: schoolEq},
			OrderBy: "sort_order",
		})
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.notice(rowstore.TableClasses, err)
			return nil
		}
		classes, err := fromRows[models.Class](rows)
		if err != nil {
			report.notice(rowstore.TableClasses, err)
			return nil
		}
		c.store.Classes.Replace(classes)
		return nil
	})

	g.Go(func() error {
		rows, err := c.client.Select(ctx, rowstore.TableFeeHeads, rowstore.Query{Filter: rowstore.Filter{Eq: schoolEq}})
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.notice(rowstore.TableFeeHeads, err)
			return nil
		}
		heads, err := fromRows[models.FeeHead](rows)
		if err != nil {
			report.notice(rowstore.TableFeeHeads, err)
			return nil
		}
		c.store.FeeHeads.Replace(heads)
		return nil
	})

	g.Go(func() error {
		rows, err := c.client.Select(ctx, rowstore.TableEvents, rowstore.Query{
			Filter:     rowstore.Filter{Eq: schoolEq},
			OrderBy:    "date",
			Descending: true,
		})
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.notice(rowstore.TableEvents, err)
			return nil
		}
		events, err := fromRows[models.SchoolEvent](rows)
		if err != nil {
			report.notice(rowstore.TableEvents, err)
			return nil
		}
		c.store.Events.Replace(events)
		return nil
	})

	g.Go(func() error {
		rows, err := c.client.Select(ctx, rowstore.TableActivityLogs, rowstore.Query{
			Filter:     rowstore.Filter{Eq: schoolEq},
			OrderBy:    "timestamp",
			Descending: true,
			Limit:      activityLogCap,
		})
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.notice(rowstore.TableActivityLogs, err)
			return nil
		}
		logs, err := fromRows[models.ActivityLog](rows)
		if err != nil {
			report.notice(rowstore.TableActivityLogs, err)
			return nil
		}
		c.store.ActivityLogs.Replace(logs)
		return nil
	})

	g.Go(func() error {
		rows, err := c.client.Select(ctx, rowstore.TableNotifications, rowstore.Query{
			Filter:     rowstore.Filter{Eq: map[string]interface{}{"user_id": c.session.User.ID.String()}},
			OrderBy:    "timestamp",
			Descending: true,
		})
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.notice(rowstore.TableNotifications, err)
			return nil
		}
		notifications, err := fromRows[models.Notification](rows)
		if err != nil {
			report.notice(rowstore.TableNotifications, err)
			return nil
		}
		c.store.Notifications.Replace(notifications)
		return nil
	})

	g.Wait()
}

func (c *Context) fetchStudents(ctx context.Context, school uuid.UUID) ([]models.Student, error) {
	rows, err := c.client.Select(ctx, rowstore.TableStudents, rowstore.Query{
		Filter: rowstore.Filter{Eq: map[string]interface{}{"school_id": school.String()}},
	})
	if err != nil {
		return nil, err
	}
	return fromRows[models.Student](rows)
}

// fetchByStudentIDs reads a student-scoped table in fixed-size id
// batches. Batches are independent: one failing chunk is reported and
// skipped without aborting its siblings.
func (c *Context) fetchByStudentIDs(ctx context.Context, table string, ids []interface{}) ([]rowstore.Row, []error) {
	var rows []rowstore.Row
	var errs []error
	for start := 0; start < len(ids); start += fetchChunkSize {
		end := start + fetchChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk, err := c.client.Select(ctx, table, rowstore.Query{
			Filter: rowstore.Filter{In: map[string][]interface{}{"student_id": ids[start:end]}},
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rows = append(rows, chunk...)
	}
	return rows, errs
}
