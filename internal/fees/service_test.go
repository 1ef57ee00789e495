package fees

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentportal/internal/shared"
	"studentportal/internal/store"
)

// fakeStore keeps ledgers in memory. ApplyFeePayment mutates under a lock,
// matching the single-operation push-and-increment the real store does.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*shared.FeeRecord // keyed student_id|semester
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*shared.FeeRecord{}}
}

func feeKey(studentID string, semester int32) string {
	return fmt.Sprintf("%s|%d", studentID, semester)
}

func (f *fakeStore) FindFeesByStudent(_ context.Context, studentID string) ([]shared.FeeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shared.FeeRecord
	for _, rec := range f.records {
		if rec.StudentID == studentID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeStore) FindFeeByStudentAndSemester(_ context.Context, studentID string, semester int32) (*shared.FeeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[feeKey(studentID, semester)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (f *fakeStore) ReplaceFeeRecord(_ context.Context, record *shared.FeeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *record
	f.records[feeKey(record.StudentID, record.Semester)] = &clone
	return nil
}

func (f *fakeStore) ApplyFeePayment(_ context.Context, studentID string, semester int32, txn shared.FeeTransaction, now time.Time) (*shared.FeeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[feeKey(studentID, semester)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	rec.Transactions = append(rec.Transactions, txn)
	rec.Payment.AmountPaid += txn.Amount
	if txn.PaymentDate.After(rec.Payment.LastPaymentDate) {
		rec.Payment.LastPaymentDate = txn.PaymentDate
	}
	rec.UpdatedAt = now
	clone := *rec
	clone.Transactions = append([]shared.FeeTransaction{}, rec.Transactions...)
	return &clone, nil
}

func (f *fakeStore) UpdateFeeDerivedState(_ context.Context, recordID string, totalFee int64, payment shared.FeePayment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ID == recordID {
			rec.Structure.TotalFee = totalFee
			rec.Payment.AmountPending = payment.AmountPending
			rec.Payment.PaymentStatus = payment.PaymentStatus
			return nil
		}
	}
	return shared.ErrNotFound
}

func seedRecord(st *fakeStore, studentID string, semester int32, totalFee int64) {
	st.records[feeKey(studentID, semester)] = &shared.FeeRecord{
		ID:        shared.GenerateFeeID(),
		StudentID: studentID,
		Semester:  semester,
		Structure: shared.FeeStructure{TuitionFee: totalFee, TotalFee: totalFee},
		Payment: shared.FeePayment{
			AmountPending: totalFee,
			PaymentStatus: shared.PaymentPending,
		},
		Transactions: []shared.FeeTransaction{},
	}
}

func TestRecordPaymentDerivesState(t *testing.T) {
	st := newFakeStore()
	seedRecord(st, "21CS001", 5, 50000)
	svc := NewService(st, nil)

	record, err := svc.RecordPayment(context.Background(), "admin-001", PaymentRequest{
		StudentID:   "21CS001",
		Semester:    5,
		Amount:      20000,
		PaymentMode: "UPI",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20000), record.Payment.AmountPaid)
	assert.Equal(t, int64(30000), record.Payment.AmountPending)
	assert.Equal(t, shared.PaymentPartial, record.Payment.PaymentStatus)
	require.Len(t, record.Transactions, 1)
	assert.NotEmpty(t, record.Transactions[0].TransactionID)
	assert.NotEmpty(t, record.Transactions[0].ReceiptNumber)
}

func TestRecordPaymentConcurrentKeepsLedgerConsistent(t *testing.T) {
	st := newFakeStore()
	seedRecord(st, "21CS001", 5, 100000)
	svc := NewService(st, nil)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.RecordPayment(context.Background(), "admin-001", PaymentRequest{
				StudentID:   "21CS001",
				Semester:    5,
				Amount:      1000,
				PaymentMode: "Cash",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec := st.records[feeKey("21CS001", 5)]
	require.Len(t, rec.Transactions, workers)

	var sum int64
	for _, txn := range rec.Transactions {
		sum += txn.Amount
	}
	assert.Equal(t, sum, rec.Payment.AmountPaid)
	assert.Equal(t, int64(workers*1000), rec.Payment.AmountPaid)
}

func TestRecordPaymentUnknownLedger(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.RecordPayment(context.Background(), "admin-001", PaymentRequest{
		StudentID:   "21CS099",
		Semester:    3,
		Amount:      1000,
		PaymentMode: "Cash",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordPaymentValidation(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  PaymentRequest
	}{
		{"zero amount", PaymentRequest{StudentID: "21CS001", Semester: 5, Amount: 0, PaymentMode: "Cash"}},
		{"bad payment mode", PaymentRequest{StudentID: "21CS001", Semester: 5, Amount: 100, PaymentMode: "Barter"}},
		{"missing student", PaymentRequest{Semester: 5, Amount: 100, PaymentMode: "Cash"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordPayment(ctx, "admin-001", tt.req)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestSeedStructurePreservesPayments(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st, nil)
	ctx := context.Background()

	action, err := svc.SeedStructure(ctx, StructureRequest{
		StudentID: "21CS001",
		Semester:  5,
		Structure: shared.FeeStructure{TuitionFee: 40000, ExamFee: 5000},
	})
	require.NoError(t, err)
	assert.Equal(t, store.ActionCreated, action)

	_, err = svc.RecordPayment(ctx, "admin-001", PaymentRequest{
		StudentID:   "21CS001",
		Semester:    5,
		Amount:      10000,
		PaymentMode: "Card",
	})
	require.NoError(t, err)

	// Replacing the structure rederives the ledger without losing the payment
	action, err = svc.SeedStructure(ctx, StructureRequest{
		StudentID:  "21CS001",
		Semester:   5,
		Structure:  shared.FeeStructure{TuitionFee: 40000, ExamFee: 5000},
		Concession: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, store.ActionUpdated, action)

	rec := st.records[feeKey("21CS001", 5)]
	assert.Equal(t, int64(40000), rec.Structure.TotalFee)
	assert.Equal(t, int64(10000), rec.Payment.AmountPaid)
	assert.Equal(t, int64(30000), rec.Payment.AmountPending)
	require.Len(t, rec.Transactions, 1)
}
