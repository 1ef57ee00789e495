// ============================================================================
// internal/fees/ledger.go
// Pure fee ledger derivation: totals, pending amount, status state machine
// ============================================================================

package fees

import (
	"sort"
	"time"

	"studentportal/internal/shared"
)

// StructureTotal sums the fee components minus the concession. A concession
// larger than the components floors the total at zero rather than producing
// a negative fee.
func StructureTotal(structure shared.FeeStructure, concession int64) int64 {
	total := structure.TuitionFee + structure.ExamFee + structure.LibraryFee +
		structure.LabFee + structure.SportsFee + structure.HostelFee +
		structure.BusFee + structure.OtherFees - concession
	if total < 0 {
		return 0
	}
	return total
}

// StatusFor evaluates the payment status state machine in priority order;
// first match wins. Paid is re-evaluated on every derivation, so a
// correction that raises the pending amount transitions back out of it.
func StatusFor(amountPending, amountPaid int64, dueDate, now time.Time) string {
	switch {
	case amountPending == 0:
		return shared.PaymentPaid
	case amountPaid > 0:
		return shared.PaymentPartial
	case !dueDate.IsZero() && now.After(dueDate):
		return shared.PaymentOverdue
	default:
		return shared.PaymentPending
	}
}

// Derive recomputes the record's derived state in the required order:
// total fee from the structure and concession, then the pending amount,
// then the status. Called by the write paths before persistence, never from
// a storage lifecycle hook.
func Derive(record *shared.FeeRecord, now time.Time) {
	record.Structure.TotalFee = StructureTotal(record.Structure, record.Concession)
	record.Payment.AmountPending = record.Structure.TotalFee - record.Payment.AmountPaid
	record.Payment.PaymentStatus = StatusFor(
		record.Payment.AmountPending,
		record.Payment.AmountPaid,
		record.Payment.DueDate,
		now,
	)
}

// Append applies one immutable transaction to the ledger: the paid amount
// grows by the transaction amount, the last payment date advances if this
// payment is the latest, and the derived state is recomputed.
func Append(record *shared.FeeRecord, txn shared.FeeTransaction, now time.Time) {
	record.Transactions = append(record.Transactions, txn)
	record.Payment.AmountPaid += txn.Amount
	if txn.PaymentDate.After(record.Payment.LastPaymentDate) {
		record.Payment.LastPaymentDate = txn.PaymentDate
	}
	Derive(record, now)
}

// PercentPaid reports how much of the total has been paid, as a 2-decimal
// string. A zero total fee (misconfigured structure) reports "0.00" rather
// than propagating a division error.
func PercentPaid(totalFee, amountPaid int64) string {
	if totalFee == 0 {
		return shared.FormatFixed2(0)
	}
	return shared.FormatFixed2(float64(amountPaid) / float64(totalFee) * 100)
}

// TransactionView annotates one transaction with its owning semester for the
// flattened "my transactions" listing.
type TransactionView struct {
	shared.FeeTransaction
	Semester     int32  `json:"semester"`
	AcademicYear string `json:"academicYear"`
}

// FlattenTransactions merges every semester's transactions into a single
// sequence sorted by payment date descending.
func FlattenTransactions(records []shared.FeeRecord) []TransactionView {
	views := []TransactionView{}
	for _, rec := range records {
		for _, txn := range rec.Transactions {
			views = append(views, TransactionView{
				FeeTransaction: txn,
				Semester:       rec.Semester,
				AcademicYear:   rec.AcademicYear,
			})
		}
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].PaymentDate.After(views[j].PaymentDate)
	})
	return views
}
