package data

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/rowstore"
)

func createOne[T any](c *Context, ctx context.Context, table string, entity T) (T, error) {
	var zero T
	row, err := insertRow(entity)
	if err != nil {
		return zero, err
	}
	echoed, err := c.client.Insert(ctx, table, []rowstore.Row{row})
	if err != nil {
		return zero, err
	}
	if len(echoed) == 0 {
		return zero, fmt.Errorf("backend echoed no row for %s insert", table)
	}
	return fromRow[T](echoed[0])
}

func createMany[T any](c *Context, ctx context.Context, table string, entities []T) ([]T, error) {
	rows := make([]rowstore.Row, 0, len(entities))
	for _, e := range entities {
		row, err := insertRow(e)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	echoed, err := c.client.Insert(ctx, table, rows)
	if err != nil {
		return nil, err
	}
	return fromRows[T](echoed)
}

func updateOne[T any](c *Context, ctx context.Context, table string, id uuid.UUID, entity T) (T, error) {
	var zero T
	row, err := updateRow(entity)
	if err != nil {
		return zero, err
	}
	echoed, err := c.client.UpdateByID(ctx, table, id.String(), row)
	if err != nil {
		return zero, err
	}
	return fromRow[T](echoed)
}

// ---- Schools ----

// School creation is not done here: provisioning a tenant also seeds
// fee heads, classes and the first admin, which SchoolSetupService does
// in one transaction.

func (c *Context) UpdateSchool(ctx context.Context, school models.School) (models.School, error) {
	updated, err := updateOne(c, ctx, rowstore.TableSchools, school.ID, school)
	if err != nil {
		return models.School{}, err
	}
	c.store.Schools.Upsert(updated)
	c.logActivity(ctx, "School Updated", fmt.Sprintf("Updated school %q", updated.Name))
	return updated, nil
}

// DeleteSchool removes a school and every row scoped to it, in one
// transaction so a failure leaves the tenant intact.
func (c *Context) DeleteSchool(ctx context.Context, id uuid.UUID) error {
	schoolEq := rowstore.Filter{Eq: map[string]interface{}{"school_id": id.String()}}
	err := c.client.Transaction(ctx, func(tx rowstore.Client) error {
		for _, table := range []string{
			rowstore.TableFeeChallans,
			rowstore.TableAttendance,
			rowstore.TableResults,
			rowstore.TableStudents,
			rowstore.TableClasses,
			rowstore.TableFeeHeads,
			rowstore.TableEvents,
			rowstore.TableActivityLogs,
			rowstore.TableUsers,
		} {
			if err := tx.DeleteWhere(ctx, table, schoolEq); err != nil {
				return err
			}
		}
		return tx.DeleteByID(ctx, rowstore.TableSchools, id.String())
	})
	if err != nil {
		return err
	}
	c.store.Schools.Remove(id)
	c.logActivity(ctx, "School Deleted", fmt.Sprintf("Deleted school %s and all of its data", id))
	return nil
}

// ---- Users ----

func (c *Context) CreateUser(ctx context.Context, user models.User, passwordHash string) (models.User, error) {
	if user.Email == "" || user.Name == "" {
		return models.User{}, fmt.Errorf("user name and email are required")
	}
	row, err := insertRow(user)
	if err != nil {
		return models.User{}, err
	}
	row["password_hash"] = passwordHash
	echoed, err := c.client.Insert(ctx, rowstore.TableUsers, []rowstore.Row{row})
	if err != nil {
		return models.User{}, err
	}
	created, err := fromRow[models.User](echoed[0])
	if err != nil {
		return models.User{}, err
	}
	c.store.Users.Upsert(created)
	c.logActivity(ctx, "User Created", fmt.Sprintf("Created %s account for %q", created.Role, created.Name))
	return created, nil
}

func (c *Context) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	updated, err := updateOne(c, ctx, rowstore.TableUsers, user.ID, user)
	if err != nil {
		return models.User{}, err
	}
	c.store.Users.Upsert(updated)
	c.logActivity(ctx, "User Updated", fmt.Sprintf("Updated account %q", updated.Name))
	return updated, nil
}

// ApproveUser flips a pending account to active and tells its owner.
func (c *Context) ApproveUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	echoed, err := c.client.UpdateByID(ctx, rowstore.TableUsers, id.String(), rowstore.Row{"status": models.UserActive})
	if err != nil {
		return models.User{}, err
	}
	approved, err := fromRow[models.User](echoed)
	if err != nil {
		return models.User{}, err
	}
	c.store.Users.Upsert(approved)
	c.logActivity(ctx, "User Approved", fmt.Sprintf("Approved account %q", approved.Name))
	c.notify(ctx, []models.User{approved}, "Your account ({name}) has been approved.", approved.Name, models.NotifyAccount, &approved.ID)
	return approved, nil
}

func (c *Context) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := c.client.DeleteByID(ctx, rowstore.TableUsers, id.String()); err != nil {
		return err
	}
	c.store.Users.Remove(id)
	c.logActivity(ctx, "User Deleted", fmt.Sprintf("Deleted account %s", id))
	return nil
}

// UpdateNotificationPrefs is the self-service preference toggle.
func (c *Context) UpdateNotificationPrefs(ctx context.Context, userID uuid.UUID, prefs models.NotificationPrefs) (models.User, error) {
	payload, err := toRow(struct {
		NotificationPrefs models.NotificationPrefs `json:"notificationPreferences"`
	}{prefs})
	if err != nil {
		return models.User{}, err
	}
	echoed, err := c.client.UpdateByID(ctx, rowstore.TableUsers, userID.String(), payload)
	if err != nil {
		return models.User{}, err
	}
	updated, err := fromRow[models.User](echoed)
	if err != nil {
		return models.User{}, err
	}
	c.store.Users.Upsert(updated)
	return updated, nil
}

// BulkCreateUsers inserts many users at once. Ids are generated on the
// client before insertion so linked records in the same import can
// reference them.
func (c *Context) BulkCreateUsers(ctx context.Context, users []models.User, passwordHash string) ([]models.User, error) {
	rows := make([]rowstore.Row, 0, len(users))
	for i := range users {
		if users[i].ID == uuid.Nil {
			users[i].ID = uuid.New()
		}
		row, err := insertRow(users[i])
		if err != nil {
			return nil, err
		}
		row["password_hash"] = passwordHash
		rows = append(rows, row)
	}
	echoed, err := c.client.Insert(ctx, rowstore.TableUsers, rows)
	if err != nil {
		return nil, err
	}
	created, err := fromRows[models.User](echoed)
	if err != nil {
		return nil, err
	}
	c.store.Users.UpsertAll(created)
	c.logActivity(ctx, "Users Imported", fmt.Sprintf("Imported %d user accounts", len(created)))
	return created, nil
}

// ---- Classes ----

func (c *Context) CreateClass(ctx context.Context, class models.Class) (models.Class, error) {
	school, err := c.requireTenant()
	if err != nil {
		return models.Class{}, err
	}
	class.SchoolID = school
	created, err := createOne(c, ctx, rowstore.TableClasses, class)
	if err != nil {
		return models.Class{}, err
	}
	c.store.Classes.Upsert(created)
	c.logActivity(ctx, "Class Created", fmt.Sprintf("Created class %q", created.Name))
	return created, nil
}

func (c *Context) UpdateClass(ctx context.Context, class models.Class) (models.Class, error) {
	updated, err := updateOne(c, ctx, rowstore.TableClasses, class.ID, class)
	if err != nil {
		return models.Class{}, err
	}
	c.store.Classes.Upsert(updated)
	c.logActivity(ctx, "Class Updated", fmt.Sprintf("Updated class %q", updated.Name))
	return updated, nil
}

func (c *Context) DeleteClass(ctx context.Context, id uuid.UUID) error {
	if err := c.client.DeleteByID(ctx, rowstore.TableClasses, id.String()); err != nil {
		return err
	}
	c.store.Classes.Remove(id)
	c.logActivity(ctx, "Class Deleted", fmt.Sprintf("Deleted class %s", id))
	return nil
}

func (c *Context) BulkCreateClasses(ctx context.Context, classes []models.Class) ([]models.Class, error) {
	school, err := c.requireTenant()
	if err != nil {
		return nil, err
	}
	for i := range classes {
		classes[i].SchoolID = school
	}
	created, err := createMany(c, ctx, rowstore.TableClasses, classes)
	if err != nil {
		return nil, err
	}
	c.store.Classes.UpsertAll(created)
	c.logActivity(ctx, "Classes Imported", fmt.Sprintf("Imported %d classes", len(created)))
	return created, nil
}

// ---- Students ----

func (c *Context) CreateStudent(ctx context.Context, student models.Student) (models.Student, error) {
	school, err := c.requireTenant()
	if err != nil {
		return models.Student{}, err
	}
	if student.Name == "" {
		return models.Student{}, fmt.Errorf("student name is required")
	}
	student.SchoolID = school
	if student.Status == "" {
		student.Status = models.StudentActive
	}
	created, err := createOne(c, ctx, rowstore.TableStudents, student)
	if err != nil {
		return models.Student{}, err
	}
	c.store.Students.Upsert(created)
	c.logActivity(ctx, "Student Admitted", fmt.Sprintf("Admitted %q (roll %s)", created.Name, created.RollNumber))
	return created, nil
}

func (c *Context) UpdateStudent(ctx context.Context, student models.Student) (models.Student, error) {
	updated, err := updateOne(c, ctx, rowstore.TableStudents, student.ID, student)
	if err != nil {
		return models.Student{}, err
	}
	c.store.Students.Upsert(updated)
	c.logActivity(ctx, "Student Updated", fmt.Sprintf("Updated student %q", updated.Name))
	return updated, nil
}

func (c *Context) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	if err := c.client.DeleteByID(ctx, rowstore.TableStudents, id.String()); err != nil {
		return err
	}
	c.store.Students.Remove(id)
	c.logActivity(ctx, "Student Deleted", fmt.Sprintf("Deleted student %s", id))
	return nil
}

func (c *Context) BulkCreateStudents(ctx context.Context, students []models.Student) ([]models.Student, error) {
	school, err := c.requireTenant()
	if err != nil {
		return nil, err
	}
	for i := range students {
		students[i].SchoolID = school
		if students[i].Status == "" {
			students[i].Status = models.StudentActive
		}
	}
	created, err := createMany(c, ctx, rowstore.TableStudents, students)
	if err != nil {
		return nil, err
	}
	c.store.Students.UpsertAll(created)
	c.logActivity(ctx, "Students Imported", fmt.Sprintf("Imported %d students", len(created)))
	return created, nil
}

// LeavingDetails is the metadata recorded on a leaving certificate.
type LeavingDetails struct {
	DateOfLeaving    time.Time `json:"dateOfLeaving"`
	ReasonForLeaving string    `json:"reasonForLeaving"`
	Conduct          string    `json:"conduct"`
}

// IssueLeavingCertificate marks a student as left and records the
// certificate details. Re-issuing for an already-left student updates
// the details in place; the operation is deliberately re-enterable so
// certificates can be corrected and reprinted.
func (c *Context) IssueLeavingCertificate(ctx context.Context, studentID uuid.UUID, details LeavingDetails) (models.Student, error) {
	student, ok := c.store.Students.Get(studentID)
	if !ok {
		return models.Student{}, fmt.Errorf("student %s not loaded", studentID)
	}

	payload := rowstore.Row{
		"status":             models.StudentLeft,
		"date_of_leaving":    details.DateOfLeaving,
		"reason_for_leaving": details.ReasonForLeaving,
		"conduct":            details.Conduct,
	}
	echoed, err := c.client.UpdateByID(ctx, rowstore.TableStudents, studentID.String(), payload)
	if err != nil {
		return models.Student{}, err
	}
	updated, err := fromRow[models.Student](echoed)
	if err != nil {
		return models.Student{}, err
	}
	c.store.Students.Upsert(updated)
	c.logActivity(ctx, "Leaving Certificate", fmt.Sprintf("Issued leaving certificate for %q", student.Name))
	return updated, nil
}

// ---- Fee heads ----

func (c *Context) CreateFeeHead(ctx context.Context, head models.FeeHead) (models.FeeHead, error) {
	school, err := c.requireTenant()
	if err != nil {
		return models.FeeHead{}, err
	}
	if head.Name == "" {
		return models.FeeHead{}, fmt.Errorf("fee head name is required")
	}
	head.SchoolID = school
	created, err := createOne(c, ctx, rowstore.TableFeeHeads, head)
	if err != nil {
		return models.FeeHead{}, err
	}
	c.store.FeeHeads.Upsert(created)
	c.logActivity(ctx, "Fee Head Created", fmt.Sprintf("Created fee head %q", created.Name))
	return created, nil
}

func (c *Context) UpdateFeeHead(ctx context.Context, head models.FeeHead) (models.FeeHead, error) {
	updated, err := updateOne(c, ctx, rowstore.TableFeeHeads, head.ID, head)
	if err != nil {
		return models.FeeHead{}, err
	}
	c.store.FeeHeads.Upsert(updated)
	c.logActivity(ctx, "Fee Head Updated", fmt.Sprintf("Updated fee head %q", updated.Name))
	return updated, nil
}

func (c *Context) DeleteFeeHead(ctx context.Context, id uuid.UUID) error {
	if err := c.client.DeleteByID(ctx, rowstore.TableFeeHeads, id.String()); err != nil {
		return err
	}
	c.store.FeeHeads.Remove(id)
	c.logActivity(ctx, "Fee Head Deleted", fmt.Sprintf("Deleted fee head %s", id))
	return nil
}

// ---- Events ----

func (c *Context) CreateEvent(ctx context.Context, event models.SchoolEvent) (models.SchoolEvent, error) {
	school, err := c.requireTenant()
	if err != nil {
		return models.SchoolEvent{}, err
	}
	if event.Title == "" {
		return models.SchoolEvent{}, fmt.Errorf("event title is required")
	}
	event.SchoolID = school
	created, err := createOne(c, ctx, rowstore.TableEvents, event)
	if err != nil {
		return models.SchoolEvent{}, err
	}
	c.store.Events.Upsert(created)
	c.logActivity(ctx, "Event Created", fmt.Sprintf("Scheduled event %q", created.Title))
	c.notify(ctx, c.schoolAudience(), "New event scheduled: {name}", created.Title, models.NotifyEvent, &created.ID)
	return created, nil
}

func (c *Context) UpdateEvent(ctx context.Context, event models.SchoolEvent) (models.SchoolEvent, error) {
	updated, err := updateOne(c, ctx, rowstore.TableEvents, event.ID, event)
	if err != nil {
		return models.SchoolEvent{}, err
	}
	c.store.Events.Upsert(updated)
	c.logActivity(ctx, "Event Updated", fmt.Sprintf("Updated event %q", updated.Title))
	return updated, nil
}

func (c *Context) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := c.client.DeleteByID(ctx, rowstore.TableEvents, id.String()); err != nil {
		return err
	}
	c.store.Events.Remove(id)
	c.logActivity(ctx, "Event Deleted", fmt.Sprintf("Deleted event %s", id))
	return nil
}

// ---- Results ----

// SaveResults upserts a batch of mark entries on the (student, exam,
// subject) key, patches only the touched tuples in the cache, and tells
// each affected student's audience that results for the exam are out.
func (c *Context) SaveResults(ctx context.Context, records []models.Result) ([]models.Result, error) {
	school, err := c.requireTenant()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]rowstore.Row, 0, len(records))
	for i := range records {
		records[i].SchoolID = school
		row, err := insertRow(records[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	echoed, err := c.client.Upsert(ctx, rowstore.TableResults, rows,
		[]string{"student_id", "exam", "subject"},
		[]string{"marks", "total_marks", "class_id"})
	if err != nil {
		return nil, err
	}
	saved, err := fromRows[models.Result](echoed)
	if err != nil {
		return nil, err
	}
	c.store.Results.UpsertAll(saved)

	exam := records[0].Exam
	c.logActivity(ctx, "Results Saved", fmt.Sprintf("Saved %d result entries for %q", len(saved), exam))

	notified := make(map[uuid.UUID]bool)
	for _, r := range saved {
		if notified[r.StudentID] {
			continue
		}
		notified[r.StudentID] = true
		if student, ok := c.store.Students.Get(r.StudentID); ok {
			c.notify(ctx, c.studentAudience(student), "Results for {name} have been published.", exam, models.NotifyResult, &r.StudentID)
		}
	}
	return saved, nil
}

func (c *Context) DeleteResult(ctx context.Context, id uuid.UUID) error {
	if err := c.client.DeleteByID(ctx, rowstore.TableResults, id.String()); err != nil {
		return err
	}
	c.store.Results.Remove(id)
	c.logActivity(ctx, "Result Deleted", fmt.Sprintf("Deleted result entry %s", id))
	return nil
}

// ---- Attendance ----

// AttendanceEntry is one student's status for the day being marked.
type AttendanceEntry struct {
	StudentID uuid.UUID `json:"studentId"`
	Status    string    `json:"status"`
}

// SetAttendance upserts one calendar day's records on the (student,
// date) key. Records already cached for other dates are untouched.
func (c *Context) SetAttendance(ctx context.Context, date time.Time, entries []AttendanceEntry) ([]models.Attendance, error) {
	school, err := c.requireTenant()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	rows := make([]rowstore.Row, 0, len(entries))
	for _, e := range entries {
		row, err := insertRow(models.Attendance{
			SchoolID:  school,
			StudentID: e.StudentID,
			Date:      day,
			Status:    e.Status,
		})
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	echoed, err := c.client.Upsert(ctx, rowstore.TableAttendance, rows,
		[]string{"student_id", "date"},
		[]string{"status"})
	if err != nil {
		return nil, err
	}
	saved, err := fromRows[models.Attendance](echoed)
	if err != nil {
		return nil, err
	}
	c.store.Attendance.UpsertAll(saved)
	c.logActivity(ctx, "Attendance Marked", fmt.Sprintf("Marked attendance for %d students on %s", len(saved), day.Format("2006-01-02")))
	return saved, nil
}

// ---- Notifications ----

func (c *Context) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	echoed, err := c.client.UpdateByID(ctx, rowstore.TableNotifications, id.String(), rowstore.Row{"is_read": true})
	if err != nil {
		return err
	}
	n, err := fromRow[models.Notification](echoed)
	if err != nil {
		return err
	}
	c.store.Notifications.Upsert(n)
	return nil
}

func (c *Context) MarkAllNotificationsRead(ctx context.Context) error {
	for _, n := range c.store.Notifications.All() {
		if n.IsRead {
			continue
		}
		if err := c.MarkNotificationRead(ctx, n.ID); err != nil {
			return err
		}
	}
	return nil
}
