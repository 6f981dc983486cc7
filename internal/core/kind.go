package core

import "fmt"

// RecordKind names one of the five record types a user can create.
type RecordKind string

const (
	KindExpense          RecordKind = "expense"
	KindLoan             RecordKind = "loan"
	KindCommittee        RecordKind = "committee"
	KindCommitteePayment RecordKind = "committee_payment"
	KindIncome           RecordKind = "income"
)

var AllRecordKinds = []RecordKind{KindExpense, KindLoan, KindCommittee, KindCommitteePayment, KindIncome}

func (k RecordKind) IsValid() bool {
	for _, v := range AllRecordKinds {
		if k == v {
			return true
		}
	}
	return false
}

func ParseRecordKind(s string) (RecordKind, error) {
	k := RecordKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: record kind %q", ErrInvalidArgument, s)
	}
	return k, nil
}
