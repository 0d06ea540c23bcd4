package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User roles
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleTeacher    = "teacher"
	RoleParent     = "parent"
	RoleStudent    = "student"
)

// User account statuses
const (
	UserActive          = "Active"
	UserPendingApproval = "Pending Approval"
)

// Student statuses
const (
	StudentActive = "Active"
	StudentLeft   = "Left"
)

// Challan statuses
const (
	ChallanUnpaid    = "Unpaid"
	ChallanPartial   = "Partial"
	ChallanPaid      = "Paid"
	ChallanCancelled = "Cancelled"
)

// Attendance statuses
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLeave   = "Leave"
)

// Notification categories
const (
	NotifyFee     = "fee"
	NotifyResult  = "result"
	NotifyEvent   = "event"
	NotifyAccount = "account"
	NotifyGeneral = "general"
)

// Preference keys consulted by the notification fan-out. Categories
// without a key here are always delivered.
const (
	PrefFeeDeadlines = "feeDeadlines"
	PrefExamResults  = "examResults"
)

// JSONB custom type for JSON fields
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// FeeOverride is a per-student fee amount that replaces a fee head's default.
type FeeOverride struct {
	FeeHeadID uuid.UUID `json:"feeHeadId"`
	Amount    float64   `json:"amount"`
}

type FeeOverrideList []FeeOverride

func (l FeeOverrideList) Value() (driver.Value, error) {
	if l == nil {
		l = FeeOverrideList{}
	}
	return json.Marshal(l)
}

func (l *FeeOverrideList) Scan(value interface{}) error {
	if value == nil {
		*l = FeeOverrideList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// ChallanItem is a snapshot line on an issued challan. It carries no
// fee-head reference, so later fee-head edits leave issued challans
// untouched.
type ChallanItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type ChallanItemList []ChallanItem

func (l ChallanItemList) Value() (driver.Value, error) {
	if l == nil {
		l = ChallanItemList{}
	}
	return json.Marshal(l)
}

func (l *ChallanItemList) Scan(value interface{}) error {
	if value == nil {
		*l = ChallanItemList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// ChannelPref holds delivery flags for one notification category.
// A nil InApp means the user never opted out, which counts as opted in.
type ChannelPref struct {
	InApp *bool `json:"inApp,omitempty"`
}

// NotificationPrefs maps preference keys to per-channel flags.
type NotificationPrefs map[string]ChannelPref

func (p NotificationPrefs) Value() (driver.Value, error) {
	if p == nil {
		p = NotificationPrefs{}
	}
	return json.Marshal(p)
}

func (p *NotificationPrefs) Scan(value interface{}) error {
	if value == nil {
		*p = NotificationPrefs{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// InAppEnabled reports whether in-app delivery is on for a preference key.
// Unknown keys and unset flags default to enabled.
func (p NotificationPrefs) InAppEnabled(key string) bool {
	pref, ok := p[key]
	if !ok || pref.InApp == nil {
		return true
	}
	return *pref.InApp
}

// Base model with UUID
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// School is the tenant boundary; almost every other entity hangs off one.
type School struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Address string `gorm:"type:text" json:"address"`
	LogoURL string `gorm:"type:varchar(500)" json:"logoUrl"`
}

// User represents system users across all roles. SchoolID is nil for the
// owner, who sits above all tenants.
type User struct {
	BaseModel
	SchoolID          *uuid.UUID        `gorm:"type:uuid;index" json:"schoolId"`
	Email             string            `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash      string            `gorm:"type:varchar(255);not null" json:"-"`
	Role              string            `gorm:"type:varchar(20);not null" json:"role"`
	Name              string            `gorm:"type:varchar(255);not null" json:"name"`
	Status            string            `gorm:"type:varchar(20);default:'Active'" json:"status"`
	ChildStudentIDs   pq.StringArray    `gorm:"type:text[]" json:"childStudentIds"`
	NotificationPrefs NotificationPrefs `gorm:"type:jsonb" json:"notificationPreferences"`
	DisabledNavLinks  pq.StringArray    `gorm:"type:text[]" json:"disabledNavLinks"`
	School            *School           `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
}

// Class represents a class/grade within a school
type Class struct {
	BaseModel
	SchoolID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"schoolId"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	Section   string     `gorm:"type:varchar(50)" json:"section"`
	TeacherID *uuid.UUID `gorm:"type:uuid;index" json:"teacherId"`
	SortOrder int        `gorm:"default:0" json:"sortOrder"`
	School    *School    `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
	Teacher   *User      `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

// Student represents an enrolled student
type Student struct {
	BaseModel
	SchoolID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"schoolId"`
	ClassID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"classId"`
	UserID           *uuid.UUID      `gorm:"type:uuid;index" json:"userId"`
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	RollNumber       string          `gorm:"type:varchar(50)" json:"rollNumber"`
	Status           string          `gorm:"type:varchar(20);default:'Active'" json:"status"`
	FatherName       string          `gorm:"type:varchar(255)" json:"fatherName"`
	DateOfBirth      *time.Time      `gorm:"type:date" json:"dateOfBirth"`
	DateOfAdmission  *time.Time      `gorm:"type:date" json:"dateOfAdmission"`
	ContactNumber    string          `gorm:"type:varchar(50)" json:"contactNumber"`
	Address          string          `gorm:"type:text" json:"address"`
	OpeningBalance   float64         `gorm:"type:double precision;default:0" json:"openingBalance"`
	FeeStructure     FeeOverrideList `gorm:"type:jsonb" json:"feeStructure"`
	DateOfLeaving    *time.Time      `gorm:"type:date" json:"dateOfLeaving"`
	ReasonForLeaving string          `gorm:"type:text" json:"reasonForLeaving"`
	Conduct          string          `gorm:"type:varchar(50)" json:"conduct"`
	School           *School         `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
	Class            *Class          `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

// FeeHead is a named charge category with a school-wide default amount.
type FeeHead struct {
	BaseModel
	SchoolID      uuid.UUID `gorm:"type:uuid;not null;index" json:"schoolId"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	DefaultAmount float64   `gorm:"type:double precision;not null" json:"defaultAmount"`
	School        *School   `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
}

// FeeChallan is one billing document for one student and one (month, year).
type FeeChallan struct {
	BaseModel
	SchoolID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"schoolId"`
	StudentID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_challan_student_period" json:"studentId"`
	ClassID         uuid.UUID       `gorm:"type:uuid;not null" json:"classId"`
	Month           int             `gorm:"not null;index:idx_challan_student_period" json:"month"`
	Year            int             `gorm:"not null;index:idx_challan_student_period" json:"year"`
	ChallanNumber   string          `gorm:"type:varchar(50);not null;index" json:"challanNumber"`
	DueDate         time.Time       `gorm:"type:date" json:"dueDate"`
	Status          string          `gorm:"type:varchar(20);not null;default:'Unpaid'" json:"status"`
	FeeItems        ChallanItemList `gorm:"type:jsonb" json:"feeItems"`
	PreviousBalance float64         `gorm:"type:double precision;default:0" json:"previousBalance"`
	TotalAmount     float64         `gorm:"type:double precision;not null" json:"totalAmount"`
	Discount        float64         `gorm:"type:double precision;default:0" json:"discount"`
	PaidAmount      float64         `gorm:"type:double precision;default:0" json:"paidAmount"`
	PaidDate        *time.Time      `gorm:"type:date" json:"paidDate"`
	Student         *Student        `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// Attendance holds one record per (student, calendar day).
type Attendance struct {
	BaseModel
	SchoolID  uuid.UUID `gorm:"type:uuid;not null;index" json:"schoolId"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_student_date" json:"studentId"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_attendance_student_date" json:"date"`
	Status    string    `gorm:"type:varchar(10);not null" json:"status"`
}

// Result holds one mark entry per (student, exam, subject).
type Result struct {
	BaseModel
	SchoolID   uuid.UUID `gorm:"type:uuid;not null;index" json:"schoolId"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_result_student_exam_subject" json:"studentId"`
	ClassID    uuid.UUID `gorm:"type:uuid;not null;index" json:"classId"`
	Exam       string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_result_student_exam_subject" json:"exam"`
	Subject    string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_result_student_exam_subject" json:"subject"`
	Marks      float64   `gorm:"type:double precision;not null" json:"marks"`
	TotalMarks float64   `gorm:"type:double precision;not null" json:"totalMarks"`
}

// SchoolEvent is a calendar entry visible to a school's users.
type SchoolEvent struct {
	BaseModel
	SchoolID    uuid.UUID `gorm:"type:uuid;not null;index" json:"schoolId"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"type:date;not null" json:"date"`
	StartTime   string    `gorm:"type:varchar(10)" json:"startTime"`
	EndTime     string    `gorm:"type:varchar(10)" json:"endTime"`
}

// ActivityLog is an append-only audit record. UserName is a snapshot of
// the actor's display name at log time, so renames never rewrite history.
type ActivityLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index" json:"userId"`
	UserName  string     `gorm:"type:varchar(255)" json:"userName"`
	SchoolID  *uuid.UUID `gorm:"type:uuid;index" json:"schoolId"`
	Action    string     `gorm:"type:varchar(100);not null" json:"action"`
	Details   string     `gorm:"type:text" json:"details"`
	Timestamp time.Time  `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Notification is created only by the fan-out; afterwards the sole legal
// mutation is flipping IsRead.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	Type      string     `gorm:"type:varchar(20);not null" json:"type"`
	IsRead    bool       `gorm:"default:false" json:"isRead"`
	RelatedID *uuid.UUID `gorm:"type:uuid" json:"relatedId"`
	Timestamp time.Time  `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// RefreshToken stores refresh tokens for revocation
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string    `gorm:"type:varchar(500);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Revoked   bool      `gorm:"default:false;index" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
