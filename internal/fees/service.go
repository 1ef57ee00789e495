// ============================================================================
// internal/fees/service.go
// Fee record seeding, payment recording, and student-facing ledger views
// ============================================================================

package fees

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studentportal/internal/cache"
	"studentportal/internal/metrics"
	"studentportal/internal/shared"
	"studentportal/internal/store"
)

// Store is the ledger access the fee paths depend on.
// *store.RecordStore satisfies it.
type Store interface {
	FindFeesByStudent(ctx context.Context, studentID string) ([]shared.FeeRecord, error)
	FindFeeByStudentAndSemester(ctx context.Context, studentID string, semester int32) (*shared.FeeRecord, error)
	ReplaceFeeRecord(ctx context.Context, record *shared.FeeRecord) error
	ApplyFeePayment(ctx context.Context, studentID string, semester int32, txn shared.FeeTransaction, now time.Time) (*shared.FeeRecord, error)
	UpdateFeeDerivedState(ctx context.Context, recordID string, totalFee int64, payment shared.FeePayment) error
}

// Service coordinates the fee ledger.
type Service struct {
	store Store
	cache *cache.Cache
	now   func() time.Time
}

// NewService creates a fee service over the injected store.
func NewService(st Store, c *cache.Cache) *Service {
	return &Service{store: st, cache: c, now: time.Now}
}

// StructureRequest seeds or replaces one student's fee structure for a
// semester. Replacing the structure or concession rederives the ledger
// without touching accumulated payments.
type StructureRequest struct {
	StudentID    string              `json:"student_id" validate:"required"`
	AcademicYear string              `json:"academic_year"`
	Semester     int32               `json:"semester" validate:"required,min=1,max=12"`
	Structure    shared.FeeStructure `json:"structure"`
	Concession   int64               `json:"concession" validate:"min=0"`
	DueDate      string              `json:"due_date"` // 2006-01-02
}

// PaymentRequest appends one transaction to a student's semester ledger.
type PaymentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Semester  int32  `json:"semester" validate:"required,min=1,max=12"`
	// Amount may be negative: an offsetting transaction is how a refund or
	// correction enters the ledger.
	Amount      int64  `json:"amount" validate:"required"`
	PaymentMode string `json:"payment_mode" validate:"required"`
	PaymentDate string `json:"payment_date"` // 2006-01-02, defaults to today
}

// LedgerView is one semester's fee state as the student sees it, with the
// derived percentage annotated.
type LedgerView struct {
	shared.FeeRecord
	PercentPaid string `json:"percentPaid"`
}

func ledgerCacheKey(studentID string) string {
	return fmt.Sprintf("fees:ledger:%s", studentID)
}

// GetStudentFees returns every semester ledger for a student, newest first.
// No fee records at all is shared.ErrNotFound.
func (s *Service) GetStudentFees(ctx context.Context, studentID string) ([]LedgerView, error) {
	if studentID == "" {
		return nil, shared.NewValidationError("student_id", "student id is required")
	}

	var cached []LedgerView
	if s.cache.GetJSON(ctx, ledgerCacheKey(studentID), &cached) {
		return cached, nil
	}

	records, err := s.store.FindFeesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, shared.ErrNotFound
	}

	views := make([]LedgerView, 0, len(records))
	for _, rec := range records {
		views = append(views, LedgerView{
			FeeRecord:   rec,
			PercentPaid: PercentPaid(rec.Structure.TotalFee, rec.Payment.AmountPaid),
		})
	}

	s.cache.SetJSON(ctx, ledgerCacheKey(studentID), views)
	return views, nil
}

// GetTransactions flattens all of a student's transactions across semesters,
// most recent payment first.
func (s *Service) GetTransactions(ctx context.Context, studentID string) ([]TransactionView, error) {
	if studentID == "" {
		return nil, shared.NewValidationError("student_id", "student id is required")
	}

	records, err := s.store.FindFeesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, shared.ErrNotFound
	}

	return FlattenTransactions(records), nil
}

// SeedStructure creates or replaces the fee structure for (student, semester)
// and rederives the ledger. Existing transactions and paid amounts survive a
// structure change.
func (s *Service) SeedStructure(ctx context.Context, req StructureRequest) (string, error) {
	if req.StudentID == "" {
		return "", shared.NewValidationError("student_id", "student id is required")
	}
	if req.Semester <= 0 {
		return "", shared.NewValidationError("semester", "semester is required")
	}
	if req.Concession < 0 {
		return "", shared.NewValidationError("concession", "concession cannot be negative")
	}

	var dueDate time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return "", shared.NewValidationError("due_date", "due date must be in YYYY-MM-DD format")
		}
		dueDate = shared.NormalizeDate(parsed)
	}

	now := s.now()
	action := store.ActionUpdated

	record, err := s.store.FindFeeByStudentAndSemester(ctx, req.StudentID, req.Semester)
	if errors.Is(err, shared.ErrNotFound) {
		action = store.ActionCreated
		record = &shared.FeeRecord{
			ID:           shared.GenerateFeeID(),
			StudentID:    req.StudentID,
			Semester:     req.Semester,
			Transactions: []shared.FeeTransaction{},
			CreatedAt:    now,
		}
	} else if err != nil {
		return "", err
	}

	record.AcademicYear = req.AcademicYear
	record.Structure = req.Structure
	record.Concession = req.Concession
	if !dueDate.IsZero() {
		record.Payment.DueDate = dueDate
	}
	record.UpdatedAt = now
	Derive(record, now)

	if err := s.store.ReplaceFeeRecord(ctx, record); err != nil {
		return "", err
	}

	metrics.WriteOutcomesTotal.WithLabelValues("fees", action).Inc()
	s.cache.Invalidate(ctx, ledgerCacheKey(req.StudentID))
	return action, nil
}

// RecordPayment appends an immutable transaction to the semester ledger and
// rederives the payment state. Corrections are made by appending an
// offsetting transaction, never by editing history.
func (s *Service) RecordPayment(ctx context.Context, recordedBy string, req PaymentRequest) (*shared.FeeRecord, error) {
	if req.StudentID == "" {
		return nil, shared.NewValidationError("student_id", "student id is required")
	}
	if req.Semester <= 0 {
		return nil, shared.NewValidationError("semester", "semester is required")
	}
	if req.Amount == 0 {
		return nil, shared.NewValidationError("amount", "amount cannot be zero")
	}
	if !shared.IsValidPaymentMode(req.PaymentMode) {
		return nil, shared.NewValidationError("payment_mode", fmt.Sprintf("invalid payment mode: %s", req.PaymentMode))
	}

	now := s.now()
	paymentDate := shared.NormalizeDate(now)
	if req.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			return nil, shared.NewValidationError("payment_date", "payment date must be in YYYY-MM-DD format")
		}
		paymentDate = shared.NormalizeDate(parsed)
	}

	txn := shared.FeeTransaction{
		TransactionID: uuid.NewString(),
		Amount:        req.Amount,
		PaymentMode:   req.PaymentMode,
		PaymentDate:   paymentDate,
		ReceiptNumber: fmt.Sprintf("RCP-%d-%s", req.Semester, uuid.NewString()[:8]),
		RecordedBy:    recordedBy,
	}

	// The push and the paid-amount increment are one atomic store operation,
	// so a concurrent payment cannot drop this transaction. Only the derived
	// fields are written back afterwards.
	record, err := s.store.ApplyFeePayment(ctx, req.StudentID, req.Semester, txn, now)
	if err != nil {
		return nil, err
	}

	Derive(record, now)
	record.UpdatedAt = now
	if err := s.store.UpdateFeeDerivedState(ctx, record.ID, record.Structure.TotalFee, record.Payment); err != nil {
		return nil, err
	}

	metrics.WriteOutcomesTotal.WithLabelValues("fees", store.ActionUpdated).Inc()
	if req.Amount > 0 {
		metrics.PaymentAmount.Observe(float64(req.Amount))
	}
	s.cache.Invalidate(ctx, ledgerCacheKey(req.StudentID))
	return record, nil
}
