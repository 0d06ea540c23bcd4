package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/finance"
	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/rowstore"
)

// memoryClient is the in-memory row store plus its test hooks.
type memoryClient interface {
	rowstore.Client
	FailTable(table string, err error)
	Count(table string) int
}

type fixture struct {
	mem      memoryClient
	schoolID uuid.UUID
	admin    models.User
	class    models.Class
	ctx      *Context
}

func seedRow[T any](t *testing.T, mem memoryClient, table string, entity T) T {
	t.Helper()
	row, err := insertRow(entity)
	if err != nil {
		t.Fatalf("encode %s row: %v", table, err)
	}
	echoed, err := mem.Insert(context.Background(), table, []rowstore.Row{row})
	if err != nil {
		t.Fatalf("seed %s: %v", table, err)
	}
	stored, err := fromRow[T](echoed[0])
	if err != nil {
		t.Fatalf("decode %s row: %v", table, err)
	}
	return stored
}

// newFixture seeds one school with an admin and a class and returns a
// loaded context for the admin's session.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := rowstore.NewMemory()

	school := seedRow(t, mem, rowstore.TableSchools, models.School{Name: "City Grammar"})
	admin := seedRow(t, mem, rowstore.TableUsers, models.User{
		SchoolID: &school.ID,
		Email:    "admin@citygrammar.example",
		Name:     "Head Admin",
		Role:     models.RoleAdmin,
		Status:   models.UserActive,
	})
	class := seedRow(t, mem, rowstore.TableClasses, models.Class{
		SchoolID: school.ID,
		Name:     "Grade 5",
		Section:  "A",
	})

	f := &fixture{mem: mem, schoolID: school.ID, admin: admin, class: class}
	f.reload(t)
	return f
}

func (f *fixture) reload(t *testing.T) {
	t.Helper()
	f.ctx = NewContext(f.mem, Session{User: f.admin})
	if report := f.ctx.LoadAll(context.Background()); report.Critical != nil {
		t.Fatalf("load: %v", report.Critical)
	}
}

func (f *fixture) seedStudent(t *testing.T, name string, opening float64) models.Student {
	t.Helper()
	return seedRow(t, f.mem, rowstore.TableStudents, models.Student{
		SchoolID:       f.schoolID,
		ClassID:        f.class.ID,
		Name:           name,
		Status:         models.StudentActive,
		OpeningBalance: opening,
	})
}

func boolPtr(b bool) *bool { return &b }

func TestLoadAllPopulatesEveryCollection(t *testing.T) {
	f := newFixture(t)
	student := f.seedStudent(t, "Ayesha Khan", 0)
	seedRow(t, f.mem, rowstore.TableFeeHeads, models.FeeHead{SchoolID: f.schoolID, Name: "Tuition", DefaultAmount: 5000})
	seedRow(t, f.mem, rowstore.TableFeeChallans, models.FeeChallan{
		SchoolID: f.schoolID, StudentID: student.ID, ClassID: f.class.ID,
		Month: 3, Year: 2026, ChallanNumber: "CHN-202603-0001",
		Status: models.ChallanUnpaid, TotalAmount: 5000,
	})
	seedRow(t, f.mem, rowstore.TableAttendance, models.Attendance{
		SchoolID: f.schoolID, StudentID: student.ID,
		Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Status: models.AttendancePresent,
	})
	seedRow(t, f.mem, rowstore.TableResults, models.Result{
		SchoolID: f.schoolID, StudentID: student.ID, ClassID: f.class.ID,
		Exam: "Mid-Term", Subject: "Math", Marks: 88, TotalMarks: 100,
	})
	seedRow(t, f.mem, rowstore.TableEvents, models.SchoolEvent{
		SchoolID: f.schoolID, Title: "Sports Day", Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	f.reload(t)

	s := f.ctx.Store()
	checks := []struct {
		name string
		got  int
		want int
	}{
		{"schools", s.Schools.Len(), 1},
		{"users", s.Users.Len(), 1},
		{"classes", s.Classes.Len(), 1},
		{"students", s.Students.Len(), 1},
		{"fee heads", s.FeeHeads.Len(), 1},
		{"challans", s.FeeChallans.Len(), 1},
		{"attendance", s.Attendance.Len(), 1},
		{"results", s.Results.Len(), 1},
		{"events", s.Events.Len(), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, c.got, c.want)
		}
	}
	if !f.ctx.Loaded() {
		t.Error("context should report loaded")
	}
}

func TestLoadAllCrossesChunkBoundary(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < fetchChunkSize+1; i++ {
		student := f.seedStudent(t, fmt.Sprintf("Student %d", i), 0)
		seedRow(t, f.mem, rowstore.TableFeeChallans, models.FeeChallan{
			SchoolID: f.schoolID, StudentID: student.ID, ClassID: f.class.ID,
			Month: 1, Year: 2026, ChallanNumber: fmt.Sprintf("CHN-202601-%04d", i),
			Status: models.ChallanUnpaid, TotalAmount: 100,
		})
	}
	f.reload(t)

	if got := f.ctx.Store().Students.Len(); got != fetchChunkSize+1 {
		t.Fatalf("students: got %d, want %d", got, fetchChunkSize+1)
	}
	if got := f.ctx.Store().FeeChallans.Len(); got != fetchChunkSize+1 {
		t.Fatalf("challans: got %d, want %d", got, fetchChunkSize+1)
	}
}

func TestLoadAllStudentFailureIsCritical(t *testing.T) {
	f := newFixture(t)
	f.mem.FailTable(rowstore.TableStudents, errors.New("backend down"))

	ctx := NewContext(f.mem, Session{User: f.admin})
	report := ctx.LoadAll(context.Background())
	if report.Critical == nil {
		t.Fatal("expected a critical load failure")
	}
	if ctx.Loaded() {
		t.Error("context must not report loaded after a critical failure")
	}
}

func TestLoadAllLookupFailureIsNotice(t *testing.T) {
	f := newFixture(t)
	f.mem.FailTable(rowstore.TableEvents, errors.New("backend down"))

	ctx := NewContext(f.mem, Session{User: f.admin})
	report := ctx.LoadAll(context.Background())
	if report.Critical != nil {
		t.Fatalf("lookup failure should not be critical: %v", report.Critical)
	}
	if len(report.Notices) == 0 {
		t.Fatal("expected a notice for the failed table")
	}
	if !ctx.Loaded() {
		t.Error("context should still report loaded")
	}
}

func TestLoadAllIsolatesTenants(t *testing.T) {
	f := newFixture(t)
	other := seedRow(t, f.mem, rowstore.TableSchools, models.School{Name: "Other School"})
	seedRow(t, f.mem, rowstore.TableUsers, models.User{
		SchoolID: &other.ID, Email: "there@other.example", Name: "Other Admin", Role: models.RoleAdmin,
	})
	seedRow(t, f.mem, rowstore.TableStudents, models.Student{
		SchoolID: other.ID, ClassID: uuid.New(), Name: "Foreign Student", Status: models.StudentActive,
	})
	f.reload(t)

	s := f.ctx.Store()
	if got := s.Students.Len(); got != 0 {
		t.Errorf("students from another school leaked: got %d", got)
	}
	if got := s.Users.Len(); got != 1 {
		t.Errorf("users from another school leaked: got %d", got)
	}
	if got := s.Schools.Len(); got != 1 {
		t.Errorf("non-owner should only see their own school, got %d", got)
	}
}

func TestOwnerWithoutSchoolGetsOverviewOnly(t *testing.T) {
	f := newFixture(t)
	f.seedStudent(t, "Someone", 0)
	owner := seedRow(t, f.mem, rowstore.TableUsers, models.User{
		Email: "owner@edusuite.example", Name: "Owner", Role: models.RoleOwner, Status: models.UserActive,
	})

	ctx := NewContext(f.mem, Session{User: owner})
	report := ctx.LoadAll(context.Background())
	if report.Critical != nil {
		t.Fatalf("load: %v", report.Critical)
	}
	if got := ctx.Store().Schools.Len(); got != 1 {
		t.Errorf("schools: got %d, want 1", got)
	}
	if got := ctx.Store().Students.Len(); got != 0 {
		t.Errorf("students should not load without a school in focus, got %d", got)
	}
}

func TestGenerateChallansSkipsCoveredStudents(t *testing.T) {
	f := newFixture(t)
	head := seedRow(t, f.mem, rowstore.TableFeeHeads, models.FeeHead{SchoolID: f.schoolID, Name: "Tuition", DefaultAmount: 5000})
	covered := f.seedStudent(t, "Covered", 0)
	f.seedStudent(t, "Eligible One", 0)
	f.seedStudent(t, "Eligible Two", 0)
	seedRow(t, f.mem, rowstore.TableFeeChallans, models.FeeChallan{
		SchoolID: f.schoolID, StudentID: covered.ID, ClassID: f.class.ID,
		Month: 3, Year: 2026, ChallanNumber: "CHN-202603-9999",
		Status: models.ChallanUnpaid, TotalAmount: 5000,
	})
	f.reload(t)

	req := GenerateChallansRequest{
		Month:      3,
		Year:       2026,
		Selections: []finance.Selection{{FeeHeadID: head.ID, Amount: 5000}},
	}
	created, err := f.ctx.GenerateChallansForMonth(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if created != 2 {
		t.Fatalf("created: got %d, want 2", created)
	}

	// A second run over the same period has nothing left to do.
	created, err = f.ctx.GenerateChallansForMonth(context.Background(), req)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if created != 0 {
		t.Fatalf("second run created %d challans, want 0", created)
	}
}

func TestGenerateChallanComposition(t *testing.T) {
	f := newFixture(t)
	tuition := seedRow(t, f.mem, rowstore.TableFeeHeads, models.FeeHead{SchoolID: f.schoolID, Name: "Tuition", DefaultAmount: 5000})
	transport := seedRow(t, f.mem, rowstore.TableFeeHeads, models.FeeHead{SchoolID: f.schoolID, Name: "Transport", DefaultAmount: 1500})
	student := seedRow(t, f.mem, rowstore.TableStudents, models.Student{
		SchoolID: f.schoolID, ClassID: f.class.ID, Name: "Bilal", Status: models.StudentActive,
		OpeningBalance: 1000,
		FeeStructure:   models.FeeOverrideList{{FeeHeadID: tuition.ID, Amount: 4000}},
	})
	f.reload(t)

	created, err := f.ctx.GenerateChallansForMonth(context.Background(), GenerateChallansRequest{
		Month: 6,
		Year:  2026,
		Selections: []finance.Selection{
			{FeeHeadID: tuition.ID, Amount: 5000},
			{FeeHeadID: transport.ID, Amount: 1500},
		},
		StudentIDs: []uuid.UUID{student.ID},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if created != 1 {
		t.Fatalf("created: got %d, want 1", created)
	}

	challans := f.ctx.Store().FeeChallans.All()
	if len(challans) != 1 {
		t.Fatalf("cached challans: got %d, want 1", len(challans))
	}
	ch := challans[0]
	if len(ch.FeeItems) != 2 {
		t.Fatalf("fee items: got %d, want 2", len(ch.FeeItems))
	}
	if ch.FeeItems[0].Description != "Tuition" || ch.FeeItems[0].Amount != 4000 {
		t.Errorf("tuition override should win: got %+v", ch.FeeItems[0])
	}
	if ch.PreviousBalance != 1000 {
		t.Errorf("previousBalance: got %v, want 1000", ch.PreviousBalance)
	}
	// 4000 tuition + 1500 transport + 1000 carried forward.
	if ch.TotalAmount != 6500 {
		t.Errorf("totalAmount: got %v, want 6500", ch.TotalAmount)
	}
	if !strings.HasPrefix(ch.ChallanNumber, "CHN-202606-") {
		t.Errorf("challanNumber: got %q", ch.ChallanNumber)
	}
	want := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	if !ch.DueDate.Equal(want) {
		t.Errorf("dueDate: got %v, want %v", ch.DueDate, want)
	}
}

func TestRecordFeePaymentDerivesStatus(t *testing.T) {
	f := newFixture(t)
	student := f.seedStudent(t, "Sana", 1000)
	challan := seedRow(t, f.mem, rowstore.TableFeeChallans, models.FeeChallan{
		SchoolID: f.schoolID, StudentID: student.ID, ClassID: f.class.ID,
		Month: 2, Year: 2026, ChallanNumber: "CHN-202602-0001",
		Status: models.ChallanUnpaid, TotalAmount: 5000, PreviousBalance: 1000,
	})
	f.reload(t)

	paidDate := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	updated, err := f.ctx.RecordFeePayment(context.Background(), challan.ID, 2000, 500, paidDate)
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if updated.Status != models.ChallanPartial {
		t.Errorf("status after partial payment: got %q, want %q", updated.Status, models.ChallanPartial)
	}
	if updated.PaidAmount != 2000 {
		t.Errorf("paidAmount: got %v, want 2000", updated.PaidAmount)
	}

	balance, err := f.ctx.OutstandingBalanceFor(student.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 2500 {
		t.Errorf("outstanding: got %v, want 2500", balance)
	}

	updated, err = f.ctx.RecordFeePayment(context.Background(), challan.ID, 2500, 500, paidDate)
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if updated.Status != models.ChallanPaid {
		t.Errorf("status after full payment: got %q, want %q", updated.Status, models.ChallanPaid)
	}
}

func TestRecordFeePaymentRejectsUnknownAndCancelled(t *testing.T) {
	f := newFixture(t)
	student := f.seedStudent(t, "Omar", 0)
	challan := seedRow(t, f.mem, rowstore.TableFeeChallans, models.FeeChallan{
		SchoolID: f.schoolID, StudentID: student.ID, ClassID: f.class.ID,
		Month: 2, Year: 2026, ChallanNumber: "CHN-202602-0002",
		Status: models.ChallanCancelled, TotalAmount: 3000,
	})
	f.reload(t)

	if _, err := f.ctx.RecordFeePayment(context.Background(), uuid.New(), 100, 0, time.Now()); !errors.Is(err, ErrUnknownChallan) {
		t.Errorf("unknown challan: got %v, want ErrUnknownChallan", err)
	}
	if _, err := f.ctx.RecordFeePayment(context.Background(), challan.ID, 100, 0, time.Now()); err == nil {
		t.Error("payment on a cancelled challan must fail")
	}
}

func TestCancelChallanExcludesFromBalance(t *testing.T) {
	f := newFixture(t)
	student := f.seedStudent(t, "Hina", 0)
	challan := seedRow(t, f.mem, rowstore.TableFeeChallans, models.FeeChallan{
		SchoolID: f.schoolID, StudentID: student.ID, ClassID: f.class.ID,
		Month: 2, Year: 2026, ChallanNumber: "CHN-202602-0003",
		Status: models.ChallanPartial, TotalAmount: 4000, PaidAmount: 1000,
	})
	f.reload(t)

	if defaulters := f.ctx.Defaulters(); len(defaulters) != 1 || defaulters[0].Balance != 3000 {
		t.Fatalf("defaulters before cancel: %+v", defaulters)
	}

	cancelled, err := f.ctx.CancelChallan(context.Background(), challan.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.ChallanCancelled {
		t.Errorf("status: got %q", cancelled.Status)
	}
	// Paid amount survives for audit.
	if cancelled.PaidAmount != 1000 {
		t.Errorf("paidAmount after cancel: got %v, want 1000", cancelled.PaidAmount)
	}
	if balance, _ := f.ctx.OutstandingBalanceFor(student.ID); balance != 0 {
		t.Errorf("balance after cancel: got %v, want 0", balance)
	}
	if defaulters := f.ctx.Defaulters(); len(defaulters) != 0 {
		t.Errorf("defaulters after cancel: %+v", defaulters)
	}
}

func TestSetAttendanceUpsertsPerDay(t *testing.T) {
	f := newFixture(t)
	student := f.seedStudent(t, "Zara", 0)
	f.reload(t)

	day1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	if _, err := f.ctx.SetAttendance(context.Background(), day1, []AttendanceEntry{{StudentID: student.ID, Status: models.AttendancePresent}}); err != nil {
		t.Fatalf("mark day1: %v", err)
	}
	if _, err := f.ctx.SetAttendance(context.Background(), day2, []AttendanceEntry{{StudentID: student.ID, Status: models.AttendancePresent}}); err != nil {
		t.Fatalf("mark day2: %v", err)
	}
	// Re-marking day1 must replace, not duplicate.
	if _, err := f.ctx.SetAttendance(context.Background(), day1, []AttendanceEntry{{StudentID: student.ID, Status: models.AttendanceAbsent}}); err != nil {
		t.Fatalf("remark day1: %v", err)
	}

	if got := f.mem.Count(rowstore.TableAttendance); got != 2 {
		t.Fatalf("backend rows: got %d, want 2", got)
	}
	if got := f.ctx.Store().Attendance.Len(); got != 2 {
		t.Fatalf("cached rows: got %d, want 2", got)
	}
	statusByDay := make(map[string]string)
	for _, a := range f.ctx.Store().Attendance.All() {
		statusByDay[a.Date.Format("2006-01-02")] = a.Status
	}
	if statusByDay["2026-03-02"] != models.AttendanceAbsent {
		t.Errorf("day1 status: got %q, want %q", statusByDay["2026-03-02"], models.AttendanceAbsent)
	}
	if statusByDay["2026-03-03"] != models.AttendancePresent {
		t.Errorf("day2 status: got %q, want %q", statusByDay["2026-03-03"], models.AttendancePresent)
	}
}

func TestSaveResultsUpsertsOnExamSubject(t *testing.T) {
	f := newFixture(t)
	student := f.seedStudent(t, "Imran", 0)
	f.reload(t)

	first := []models.Result{{StudentID: student.ID, ClassID: f.class.ID, Exam: "Mid-Term", Subject: "Math", Marks: 70, TotalMarks: 100}}
	if _, err := f.ctx.SaveResults(context.Background(), first); err != nil {
		t.Fatalf("save: %v", err)
	}
	corrected := []models.Result{{StudentID: student.ID, ClassID: f.class.ID, Exam: "Mid-Term", Subject: "Math", Marks: 75, TotalMarks: 100}}
	if _, err := f.ctx.SaveResults(context.Background(), corrected); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	if got := f.mem.Count(rowstore.TableResults); got != 1 {
		t.Fatalf("backend rows: got %d, want 1", got)
	}
	results := f.ctx.Store().Results.All()
	if len(results) != 1 {
		t.Fatalf("cached rows: got %d, want 1", len(results))
	}
	if results[0].Marks != 75 {
		t.Errorf("marks: got %v, want 75", results[0].Marks)
	}
}

func TestResultNotificationHonoursOptOut(t *testing.T) {
	f := newFixture(t)
	student := f.seedStudent(t, "Nida", 0)
	optedOut := seedRow(t, f.mem, rowstore.TableUsers, models.User{
		SchoolID: &f.schoolID, Email: "mutedparent@example.com", Name: "Muted Parent",
		Role: models.RoleParent, Status: models.UserActive,
		ChildStudentIDs: []string{student.ID.String()},
		NotificationPrefs: models.NotificationPrefs{
			models.PrefExamResults: {InApp: boolPtr(false)},
		},
	})
	listening := seedRow(t, f.mem, rowstore.TableUsers, models.User{
		SchoolID: &f.schoolID, Email: "parent@example.com", Name: "Listening Parent",
		Role: models.RoleParent, Status: models.UserActive,
		ChildStudentIDs: []string{student.ID.String()},
	})
	f.reload(t)

	records := []models.Result{{StudentID: student.ID, ClassID: f.class.ID, Exam: "Final", Subject: "Science", Marks: 90, TotalMarks: 100}}
	if _, err := f.ctx.SaveResults(context.Background(), records); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, err := f.mem.Select(context.Background(), rowstore.TableNotifications, rowstore.Query{})
	if err != nil {
		t.Fatalf("select notifications: %v", err)
	}
	notifications, err := fromRows[models.Notification](rows)
	if err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("notifications: got %d, want 1", len(notifications))
	}
	n := notifications[0]
	if n.UserID != listening.ID {
		t.Errorf("recipient: got %s, want %s", n.UserID, listening.ID)
	}
	if n.UserID == optedOut.ID {
		t.Error("opted-out parent must not receive a notification")
	}
	if n.Type != models.NotifyResult {
		t.Errorf("type: got %q, want %q", n.Type, models.NotifyResult)
	}
	if !strings.Contains(n.Message, "Final") {
		t.Errorf("message should name the exam: %q", n.Message)
	}
}

func TestApproveUserActivatesAndNotifies(t *testing.T) {
	f := newFixture(t)
	pending := seedRow(t, f.mem, rowstore.TableUsers, models.User{
		SchoolID: &f.schoolID, Email: "new@example.com", Name: "New Teacher",
		Role: models.RoleTeacher, Status: models.UserPendingApproval,
	})
	f.reload(t)

	approved, err := f.ctx.ApproveUser(context.Background(), pending.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.UserActive {
		t.Errorf("status: got %q, want %q", approved.Status, models.UserActive)
	}
	if got := f.mem.Count(rowstore.TableNotifications); got != 1 {
		t.Errorf("notification rows: got %d, want 1", got)
	}
}

func TestMutationsWriteActivityLog(t *testing.T) {
	f := newFixture(t)

	created, err := f.ctx.CreateStudent(context.Background(), models.Student{
		ClassID: f.class.ID,
		Name:    "Logged Student",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != models.StudentActive {
		t.Errorf("default status: got %q", created.Status)
	}

	logs := f.ctx.Store().ActivityLogs.All()
	if len(logs) == 0 {
		t.Fatal("expected an activity log entry")
	}
	if logs[0].Action != "Student Admitted" {
		t.Errorf("most recent action: got %q", logs[0].Action)
	}
	if logs[0].UserName != f.admin.Name {
		t.Errorf("actor snapshot: got %q, want %q", logs[0].UserName, f.admin.Name)
	}
	if f.mem.Count(rowstore.TableActivityLogs) == 0 {
		t.Error("log entry not persisted")
	}
}

func TestIssueLeavingCertificateIsRepeatable(t *testing.T) {
	f := newFixture(t)
	student := f.seedStudent(t, "Leaving Soon", 0)
	f.reload(t)

	details := LeavingDetails{
		DateOfLeaving:    time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		ReasonForLeaving: "Relocation",
		Conduct:          "Good",
	}
	left, err := f.ctx.IssueLeavingCertificate(context.Background(), student.ID, details)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if left.Status != models.StudentLeft {
		t.Errorf("status: got %q, want %q", left.Status, models.StudentLeft)
	}

	// Reissue with corrected details.
	details.Conduct = "Excellent"
	left, err = f.ctx.IssueLeavingCertificate(context.Background(), student.ID, details)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if left.Conduct != "Excellent" {
		t.Errorf("conduct after reissue: got %q", left.Conduct)
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	student := f.seedStudent(t, "Precious Data", 500)
	seedRow(t, f.mem, rowstore.TableFeeChallans, models.FeeChallan{
		SchoolID: f.schoolID, StudentID: student.ID, ClassID: f.class.ID,
		Month: 1, Year: 2026, ChallanNumber: "CHN-202601-0001",
		Status: models.ChallanUnpaid, TotalAmount: 2000,
	})
	f.reload(t)

	snap, err := f.ctx.BackupData(context.Background())
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if len(snap[rowstore.TableStudents]) != 1 {
		t.Fatalf("snapshot students: got %d, want 1", len(snap[rowstore.TableStudents]))
	}

	if err := f.ctx.DeleteStudent(context.Background(), student.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.ctx.Store().Students.Len() != 0 {
		t.Fatal("student should be gone before restore")
	}

	if err := f.ctx.RestoreData(context.Background(), snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	restored, ok := f.ctx.Store().Students.Get(student.ID)
	if !ok {
		t.Fatal("student missing after restore")
	}
	if restored.Name != "Precious Data" || restored.OpeningBalance != 500 {
		t.Errorf("restored student mismatch: %+v", restored)
	}
	if f.ctx.Store().FeeChallans.Len() != 1 {
		t.Errorf("challans after restore: got %d, want 1", f.ctx.Store().FeeChallans.Len())
	}
}

func TestRestoreRejectsUnknownTable(t *testing.T) {
	f := newFixture(t)
	err := f.ctx.RestoreData(context.Background(), Snapshot{"secrets": nil})
	if err == nil {
		t.Fatal("expected an error for an unknown snapshot table")
	}
}

func TestManagerKeysContextsByTenantView(t *testing.T) {
	f := newFixture(t)
	mgr := NewManager(f.mem)

	owner := models.User{BaseModel: models.BaseModel{ID: uuid.New()}, Role: models.RoleOwner, Name: "Owner"}
	schoolA := uuid.New()
	schoolB := uuid.New()

	ctxA := mgr.Context(Session{User: owner, ActiveSchoolID: &schoolA})
	ctxB := mgr.Context(Session{User: owner, ActiveSchoolID: &schoolB})
	if ctxA == ctxB {
		t.Fatal("different tenant views must not share a context")
	}
	if again := mgr.Context(Session{User: owner, ActiveSchoolID: &schoolA}); again != ctxA {
		t.Error("same tenant view should reuse the cached context")
	}

	mgr.Drop(owner.ID)
	if fresh := mgr.Context(Session{User: owner, ActiveSchoolID: &schoolA}); fresh == ctxA {
		t.Error("dropped context should not be reused")
	}
}
