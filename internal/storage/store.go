// Package storage persists the five record kinds. The reference API server
// and the mirror worker are its only users; clients never touch it directly.
package storage

import (
	"context"
	"errors"

	"kharcha/internal/core"
)

var (
	// ErrNotFound is returned by Get methods and by CreateCommitteePayment
	// when the referenced committee does not exist.
	ErrNotFound = errors.New("record not found")
)

// Store is the record store port. Create methods validate the record,
// assign an ID and return the stored copy.
type Store interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)

	CreateLoan(ctx context.Context, l core.LoanTransaction) (core.LoanTransaction, error)
	ListLoans(ctx context.Context) ([]core.LoanTransaction, error)
	GetLoan(ctx context.Context, id int64) (core.LoanTransaction, error)

	CreateCommittee(ctx context.Context, c core.Committee) (core.Committee, error)
	ListCommittees(ctx context.Context) ([]core.Committee, error)
	GetCommittee(ctx context.Context, id int64) (core.Committee, error)

	CreateCommitteePayment(ctx context.Context, p core.CommitteePayment) (core.CommitteePayment, error)
	ListCommitteePayments(ctx context.Context) ([]core.CommitteePayment, error)
	GetCommitteePayment(ctx context.Context, id int64) (core.CommitteePayment, error)

	CreateIncome(ctx context.Context, i core.IncomeRecord) (core.IncomeRecord, error)
	ListIncome(ctx context.Context) ([]core.IncomeRecord, error)
	GetIncome(ctx context.Context, id int64) (core.IncomeRecord, error)

	Categories(ctx context.Context) ([]string, error)
	PaymentMethods(ctx context.Context) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}

// MirrorLog records which records were already copied to the external
// mirror so redelivered events are not appended twice.
type MirrorLog interface {
	MirrorRef(ctx context.Context, kind core.RecordKind, id int64) (ref string, ok bool, err error)
	MarkMirrored(ctx context.Context, kind core.RecordKind, id int64, ref string) error
}

// Ordering shared by every implementation:
//   expenses          newest date first, then newest ID
//   loans             oldest date first, then ID
//   committees        ID
//   committee payments payment date, then ID
//   income            month, then ID
