package fees

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentportal/internal/shared"
)

var testNow = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

func testRecord(dueDate time.Time) shared.FeeRecord {
	return shared.FeeRecord{
		ID:        "FEE_test",
		StudentID: "21CS001",
		Semester:  5,
		Structure: shared.FeeStructure{
			TuitionFee: 60000,
			ExamFee:    1500,
			LibraryFee: 2000,
			LabFee:     5000,
			SportsFee:  1000,
			OtherFees:  10500,
		},
		Payment: shared.FeePayment{DueDate: dueDate},
	}
}

func txn(amount int64, date time.Time) shared.FeeTransaction {
	return shared.FeeTransaction{
		TransactionID: "txn-1",
		Amount:        amount,
		PaymentMode:   "UPI",
		PaymentDate:   date,
	}
}

func TestStructureTotal(t *testing.T) {
	structure := shared.FeeStructure{TuitionFee: 60000, LabFee: 5000, ExamFee: 1500}

	assert.Equal(t, int64(66500), StructureTotal(structure, 0))
	assert.Equal(t, int64(56500), StructureTotal(structure, 10000))
	// Concession larger than the components floors at zero
	assert.Equal(t, int64(0), StructureTotal(structure, 100000))
}

func TestStatusForPriority(t *testing.T) {
	due := testNow.AddDate(0, 0, -10) // already past
	future := testNow.AddDate(0, 1, 0)

	tests := []struct {
		name    string
		pending int64
		paid    int64
		dueDate time.Time
		want    string
	}{
		{"fully paid", 0, 80000, future, shared.PaymentPaid},
		{"fully paid wins even past due", 0, 80000, due, shared.PaymentPaid},
		{"partial before due", 40000, 40000, future, shared.PaymentPartial},
		{"partial past due stays partial", 40000, 40000, due, shared.PaymentPartial},
		{"nothing paid past due", 80000, 0, due, shared.PaymentOverdue},
		{"nothing paid before due", 80000, 0, future, shared.PaymentPending},
		{"zero due date never overdue", 80000, 0, time.Time{}, shared.PaymentPending},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.pending, tc.paid, tc.dueDate, testNow))
		})
	}
}

func TestDeriveOrder(t *testing.T) {
	record := testRecord(testNow.AddDate(0, 1, 0))
	record.Concession = 5000
	record.Payment.AmountPaid = 25000

	Derive(&record, testNow)

	// total = 80000 - 5000 concession
	assert.Equal(t, int64(75000), record.Structure.TotalFee)
	assert.Equal(t, int64(50000), record.Payment.AmountPending)
	assert.Equal(t, shared.PaymentPartial, record.Payment.PaymentStatus)
}

func TestAppendTransaction(t *testing.T) {
	record := testRecord(testNow.AddDate(0, 1, 0))
	Derive(&record, testNow)
	require.Equal(t, int64(80000), record.Structure.TotalFee)
	require.Equal(t, shared.PaymentPending, record.Payment.PaymentStatus)

	Append(&record, txn(30000, testNow.AddDate(0, 0, -2)), testNow)

	assert.Len(t, record.Transactions, 1)
	assert.Equal(t, int64(30000), record.Payment.AmountPaid)
	assert.Equal(t, int64(50000), record.Payment.AmountPending)
	assert.Equal(t, shared.PaymentPartial, record.Payment.PaymentStatus)
	assert.Equal(t, testNow.AddDate(0, 0, -2), record.Payment.LastPaymentDate)

	Append(&record, txn(50000, testNow), testNow)

	assert.Equal(t, int64(0), record.Payment.AmountPending)
	assert.Equal(t, shared.PaymentPaid, record.Payment.PaymentStatus)
	assert.Equal(t, testNow, record.Payment.LastPaymentDate)
}

func TestAppendEarlierPaymentKeepsLastDate(t *testing.T) {
	record := testRecord(testNow.AddDate(0, 1, 0))
	Append(&record, txn(1000, testNow), testNow)
	Append(&record, txn(1000, testNow.AddDate(0, 0, -30)), testNow)

	assert.Equal(t, testNow, record.Payment.LastPaymentDate)
}

func TestRefundTransitionsOutOfPaid(t *testing.T) {
	record := testRecord(testNow.AddDate(0, 1, 0))
	Append(&record, txn(80000, testNow), testNow)
	require.Equal(t, shared.PaymentPaid, record.Payment.PaymentStatus)

	// Offsetting negative transaction reopens the balance
	Append(&record, txn(-20000, testNow), testNow)

	assert.Equal(t, int64(60000), record.Payment.AmountPaid)
	assert.Equal(t, int64(20000), record.Payment.AmountPending)
	assert.Equal(t, shared.PaymentPartial, record.Payment.PaymentStatus)
	assert.Len(t, record.Transactions, 2)
}

func TestPercentPaid(t *testing.T) {
	assert.Equal(t, "50.00", PercentPaid(80000, 40000))
	assert.Equal(t, "100.00", PercentPaid(80000, 80000))
	assert.Equal(t, "33.33", PercentPaid(30000, 10000))
	assert.Equal(t, "0.00", PercentPaid(0, 10000))
	assert.Equal(t, "0.00", PercentPaid(80000, 0))
}

func TestFlattenTransactions(t *testing.T) {
	sem4 := testRecord(testNow)
	sem4.Semester = 4
	sem4.AcademicYear = "2024-2025"
	sem4.Transactions = []shared.FeeTransaction{
		txn(10000, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)),
		txn(20000, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)),
	}

	sem5 := testRecord(testNow)
	sem5.Semester = 5
	sem5.AcademicYear = "2025-2026"
	sem5.Transactions = []shared.FeeTransaction{
		txn(30000, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)),
	}

	views := FlattenTransactions([]shared.FeeRecord{sem4, sem5})

	require.Len(t, views, 3)
	// Payment date descending across semesters
	assert.Equal(t, int64(30000), views[0].Amount)
	assert.Equal(t, int32(5), views[0].Semester)
	assert.Equal(t, int64(20000), views[1].Amount)
	assert.Equal(t, int64(10000), views[2].Amount)
	assert.Equal(t, "2024-2025", views[2].AcademicYear)
}

func TestFlattenTransactionsEmpty(t *testing.T) {
	assert.Empty(t, FlattenTransactions(nil))
	assert.Empty(t, FlattenTransactions([]shared.FeeRecord{testRecord(testNow)}))
}
