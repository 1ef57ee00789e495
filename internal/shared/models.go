// ============================================================================
// internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"fmt"
	"math"
	"time"
)

// ============================================================================
// User Models
// ============================================================================

// User represents a user account (student, faculty, or admin)
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"` // Never expose in JSON
	Role         string    `bson:"role" json:"role"`       // student, faculty, admin
	Name         string    `bson:"name" json:"name"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`

	// Student-specific fields
	StudentID    string `bson:"student_id,omitempty" json:"student_id,omitempty"`
	Section      string `bson:"section,omitempty" json:"section,omitempty"`
	Semester     int32  `bson:"semester,omitempty" json:"semester,omitempty"`
	AcademicYear string `bson:"academic_year,omitempty" json:"academic_year,omitempty"`

	// Faculty-specific fields
	FacultyID  string `bson:"faculty_id,omitempty" json:"faculty_id,omitempty"`
	Department string `bson:"department,omitempty" json:"department,omitempty"`

	// Account status
	IsActive bool `bson:"is_active" json:"is_active"`
}

// Session represents an active user session (for JWT tracking)
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsExpired checks if a session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ============================================================================
// Attendance Models
// ============================================================================

// AttendanceEvent records one attendance mark for one student on one day.
// Natural key: (student_id, subject_code, date). Re-marking the same day
// overwrites the existing event, never duplicates it.
type AttendanceEvent struct {
	ID           string    `bson:"_id" json:"id"`
	StudentID    string    `bson:"student_id" json:"student_id"`
	SubjectCode  string    `bson:"subject_code" json:"subjectCode"`
	SubjectName  string    `bson:"subject_name" json:"subjectName"`
	Date         time.Time `bson:"date" json:"date"` // calendar day, normalized to midnight UTC
	Status       string    `bson:"status" json:"status"`
	Session      string    `bson:"session,omitempty" json:"session,omitempty"` // FN / AN
	Semester     int32     `bson:"semester" json:"semester"`
	AcademicYear string    `bson:"academic_year" json:"academic_year"`
	MarkedBy     string    `bson:"marked_by" json:"marked_by"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ============================================================================
// Marks Models
// ============================================================================

// InternalMarks holds the continuous internal assessment component scores.
// TotalInternal is derived: always the sum of the clamped components.
type InternalMarks struct {
	CIA1          int32 `bson:"cia1" json:"cia1"`
	CIA2          int32 `bson:"cia2" json:"cia2"`
	CIA3          int32 `bson:"cia3" json:"cia3"`
	Assignment    int32 `bson:"assignment" json:"assignment"`
	TotalInternal int32 `bson:"total_internal" json:"totalInternal"`
}

// FinalMarks holds the end-of-semester result for one subject.
type FinalMarks struct {
	TheoryMarks int32   `bson:"theory_marks" json:"theoryMarks"`
	Grade       string  `bson:"grade" json:"grade"`
	GradePoint  float64 `bson:"grade_point" json:"gradePoint"`
	Result      string  `bson:"result" json:"result"` // Pass, Fail, Pending, Absent
}

// MarksRecord is one student's marks for one subject in one semester.
// Natural key: (student_id, subject_code, semester). Entering internal marks
// never overwrites an already-graded final block.
type MarksRecord struct {
	ID           string        `bson:"_id" json:"id"`
	StudentID    string        `bson:"student_id" json:"student_id"`
	SubjectCode  string        `bson:"subject_code" json:"subjectCode"`
	SubjectName  string        `bson:"subject_name" json:"subjectName"`
	Semester     int32         `bson:"semester" json:"semester"`
	AcademicYear string        `bson:"academic_year" json:"academic_year"`
	Internal     InternalMarks `bson:"internal" json:"internal"`
	Final        FinalMarks    `bson:"final" json:"final"`
	Credits      int32         `bson:"credits" json:"credits"`
	EnteredBy    string        `bson:"entered_by,omitempty" json:"entered_by,omitempty"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ============================================================================
// Fee Models
// ============================================================================

// FeeStructure is the component breakdown of one semester's fee.
// TotalFee is derived: sum of components minus concession.
type FeeStructure struct {
	TuitionFee int64 `bson:"tuition_fee" json:"tuitionFee"`
	ExamFee    int64 `bson:"exam_fee" json:"examFee"`
	LibraryFee int64 `bson:"library_fee" json:"libraryFee"`
	LabFee     int64 `bson:"lab_fee" json:"labFee"`
	SportsFee  int64 `bson:"sports_fee" json:"sportsFee"`
	HostelFee  int64 `bson:"hostel_fee" json:"hostelFee"`
	BusFee     int64 `bson:"bus_fee" json:"busFee"`
	OtherFees  int64 `bson:"other_fees" json:"otherFees"`
	TotalFee   int64 `bson:"total_fee" json:"totalFee"`
}

// FeePayment is the derived payment state of one fee record.
type FeePayment struct {
	AmountPaid      int64     `bson:"amount_paid" json:"amountPaid"`
	AmountPending   int64     `bson:"amount_pending" json:"amountPending"`
	PaymentStatus   string    `bson:"payment_status" json:"paymentStatus"`
	LastPaymentDate time.Time `bson:"last_payment_date,omitempty" json:"lastPaymentDate,omitempty"`
	DueDate         time.Time `bson:"due_date" json:"dueDate"`
}

// FeeTransaction is one immutable payment entry. Corrections are made by
// appending an offsetting transaction, never by editing.
type FeeTransaction struct {
	TransactionID string    `bson:"transaction_id" json:"transactionId"`
	Amount        int64     `bson:"amount" json:"amount"`
	PaymentMode   string    `bson:"payment_mode" json:"paymentMode"` // Cash, Card, UPI, NetBanking, DD
	PaymentDate   time.Time `bson:"payment_date" json:"paymentDate"`
	ReceiptNumber string    `bson:"receipt_number" json:"receiptNumber"`
	RecordedBy    string    `bson:"recorded_by,omitempty" json:"recordedBy,omitempty"`
}

// FeeRecord is one student's fee ledger for one semester.
// Natural key: (student_id, semester).
type FeeRecord struct {
	ID           string           `bson:"_id" json:"id"`
	StudentID    string           `bson:"student_id" json:"student_id"`
	AcademicYear string           `bson:"academic_year" json:"academicYear"`
	Semester     int32            `bson:"semester" json:"semester"`
	Structure    FeeStructure     `bson:"structure" json:"structure"`
	Payment      FeePayment       `bson:"payment" json:"payment"`
	Transactions []FeeTransaction `bson:"transactions" json:"transactions"`
	Concession   int64            `bson:"concession" json:"concession"`
	CreatedAt    time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ============================================================================
// Schedule Models
// ============================================================================

// ScheduleEntry is one timetable slot for a section.
type ScheduleEntry struct {
	ID          string `bson:"_id" json:"id"`
	Section     string `bson:"section" json:"section"`
	Semester    int32  `bson:"semester" json:"semester"`
	SubjectCode string `bson:"subject_code" json:"subject_code"`
	SubjectName string `bson:"subject_name" json:"subject_name"`
	Day         string `bson:"day" json:"day"` // M, T, W, TH, F, S
	StartTime   string `bson:"start_time" json:"start_time"`
	EndTime     string `bson:"end_time" json:"end_time"`
	Room        string `bson:"room,omitempty" json:"room,omitempty"`
	FacultyID   string `bson:"faculty_id,omitempty" json:"faculty_id,omitempty"`
}

// ============================================================================
// Write Outcome Models
// ============================================================================

// WriteOutcome reports the result of one item in a batch write.
// The contract is one outcome per submitted student, not a single aggregate.
type WriteOutcome struct {
	StudentID string `json:"student_id"`
	Action    string `json:"action,omitempty"` // created or updated
	Error     string `json:"error,omitempty"`
}

// ============================================================================
// Validation Constants
// ============================================================================

const (
	// Attendance statuses
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusLate    = "Late"
	StatusOnDuty  = "OnDuty"

	// Payment statuses
	PaymentPaid    = "Paid"
	PaymentPartial = "Partial"
	PaymentOverdue = "Overdue"
	PaymentPending = "Pending"

	// Subject results
	ResultPass    = "Pass"
	ResultFail    = "Fail"
	ResultPending = "Pending"
	ResultAbsent  = "Absent"

	// User roles
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"

	// Grades produced by the breakpoint table
	GradeO     = "O"
	GradeAPlus = "A+"
	GradeA     = "A"
	GradeBPlus = "B+"
	GradeB     = "B"
	GradeC     = "C"
	GradeF     = "F"

	// Grades settable only through the registrar override path
	GradeP  = "P"
	GradeAB = "AB" // absent
	GradeW  = "W"  // withdrawn
	GradeNA = "N/A"
)

// IsValidAttendanceStatus checks if an attendance status is valid
func IsValidAttendanceStatus(status string) bool {
	switch status {
	case StatusPresent, StatusAbsent, StatusLate, StatusOnDuty:
		return true
	}
	return false
}

// IsValidGrade checks if a grade is valid according to the schema,
// including the override-only states
func IsValidGrade(grade string) bool {
	switch grade {
	case GradeO, GradeAPlus, GradeA, GradeBPlus, GradeB, GradeC, GradeF,
		GradeP, GradeAB, GradeW:
		return true
	}
	return false
}

// IsOverrideGrade checks if a grade can only be set by a registrar override
func IsOverrideGrade(grade string) bool {
	return grade == GradeP || grade == GradeAB || grade == GradeW
}

// IsValidPaymentMode checks if a payment mode is valid
func IsValidPaymentMode(mode string) bool {
	switch mode {
	case "Cash", "Card", "UPI", "NetBanking", "DD", "Cheque":
		return true
	}
	return false
}

// IsValidRole checks if user role is valid
func IsValidRole(role string) bool {
	return role == RoleStudent || role == RoleFaculty || role == RoleAdmin
}

// ============================================================================
// Numeric Formatting Helpers
// ============================================================================

// Round2 rounds a float to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatFixed2 renders a derived ratio (percentage, GPA) as a string with
// exactly 2 decimal places, which is what the frontend expects
func FormatFixed2(v float64) string {
	return fmt.Sprintf("%.2f", Round2(v))
}

// NormalizeDate truncates a timestamp to its calendar day in UTC
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ============================================================================
// Error Models
// ============================================================================

// ValidationError represents a validation error on a write payload
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
