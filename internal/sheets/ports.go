// Package sheets mirrors stored records into spreadsheet tabs, one tab per
// record kind.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"kharcha/internal/core"
)

// RecordMirror appends rows to a spreadsheet.
type RecordMirror interface {
	// EnsureTab creates tab with header when it does not exist yet.
	EnsureTab(ctx context.Context, tab string, header []string) error
	// AppendRow appends row to tab and returns a reference to the written
	// range.
	AppendRow(ctx context.Context, tab string, row []any) (ref string, err error)
}

var tabs = map[core.RecordKind]string{
	core.KindExpense:          "Expenses",
	core.KindLoan:             "Loans",
	core.KindCommittee:        "Committees",
	core.KindCommitteePayment: "Committee Payments",
	core.KindIncome:           "Income",
}

var headers = map[core.RecordKind][]string{
	core.KindExpense:          {"ID", "Date", "Month", "Description", "Category", "Amount", "Payment Method", "Location", "Notes", "Tags"},
	core.KindLoan:             {"ID", "Date", "Month", "Person", "Type", "Amount", "Due Date", "Interest Rate", "Description", "Notes"},
	core.KindCommittee:        {"ID", "Name", "Start Date", "End Date", "Monthly Amount", "Expected Amount", "Expected Date"},
	core.KindCommitteePayment: {"ID", "Committee ID", "Payment Date", "Month", "Amount"},
	core.KindIncome:           {"ID", "Month", "Source", "Amount"},
}

// Tab is the tab name records of kind are mirrored to.
func Tab(kind core.RecordKind) string {
	return tabs[kind]
}

func Header(kind core.RecordKind) []string {
	return append([]string(nil), headers[kind]...)
}

// Row renders a record as a sheet row matching Header for its kind.
// Amounts are written as numbers so sheet formulas can sum them.
func Row(record any) (core.RecordKind, []any, error) {
	switch r := record.(type) {
	case core.Expense:
		return core.KindExpense, []any{r.ID, r.Date.String(), r.Date.Key().String(), r.Description, string(r.Category), r.Amount.Float(), r.PaymentMethod, r.Location, r.Notes, strings.Join(r.Tags, ", ")}, nil
	case core.LoanTransaction:
		return core.KindLoan, []any{r.ID, r.Date.String(), r.Date.Key().String(), r.PersonName, string(r.LoanType), r.Amount.Float(), r.DueDate.String(), r.InterestRate.String(), r.Description, r.Notes}, nil
	case core.Committee:
		return core.KindCommittee, []any{r.ID, r.Name, r.StartDate.String(), r.EndDate.String(), r.MonthlyAmount.Float(), r.ExpectedReceivingAmount.Float(), r.ExpectedReceivingDate.String()}, nil
	case core.CommitteePayment:
		return core.KindCommitteePayment, []any{r.ID, r.CommitteeID, r.PaymentDate.String(), r.MonthYear.String(), r.Amount.Float()}, nil
	case core.IncomeRecord:
		return core.KindIncome, []any{r.ID, r.MonthYear.String(), r.Source, r.Amount.Float()}, nil
	default:
		return "", nil, fmt.Errorf("%w: cannot mirror %T", core.ErrInvalidArgument, record)
	}
}
