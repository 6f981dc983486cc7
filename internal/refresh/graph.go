// Package refresh turns "a record of kind K was created" into a refresh of
// the derived views that depend on K.
package refresh

import (
	"fmt"
	"slices"

	"kharcha/internal/core"
)

// View names a derived view a client displays.
type View string

const (
	ViewOverview       View = "overview"
	ViewExpenses       View = "expenses"
	ViewLoans          View = "loans"
	ViewCommittees     View = "committees"
	ViewMonthlySummary View = "monthly_summary"
	ViewLoanTimeline   View = "loan_timeline"
	ViewNetValues      View = "net_values"
	ViewRecentSpending View = "recent_spending"
)

var AllViews = []View{
	ViewOverview, ViewExpenses, ViewLoans, ViewCommittees,
	ViewMonthlySummary, ViewLoanTimeline, ViewNetValues, ViewRecentSpending,
}

// Dependents lists, for each record kind, every view whose content can
// change when a record of that kind is created. Committee payments feed the
// monthly summary and net values but are never counted as expenses, so the
// expenses list is not a dependent.
var Dependents = map[core.RecordKind][]View{
	core.KindExpense:          {ViewOverview, ViewExpenses, ViewMonthlySummary, ViewNetValues, ViewRecentSpending},
	core.KindLoan:             {ViewOverview, ViewLoans, ViewLoanTimeline, ViewNetValues},
	core.KindCommittee:        {ViewCommittees},
	core.KindCommitteePayment: {ViewOverview, ViewCommittees, ViewMonthlySummary, ViewNetValues},
	core.KindIncome:           {ViewOverview, ViewMonthlySummary, ViewNetValues},
}

// ViewsFor returns the dependents of k. It panics on an unknown kind.
func ViewsFor(k core.RecordKind) []View {
	views, ok := Dependents[k]
	if !ok {
		panic(fmt.Sprintf("%v: no refresh edges for record kind %q", core.ErrInvalidArgument, k))
	}
	return slices.Clone(views)
}

func (v View) IsValid() bool {
	return slices.Contains(AllViews, v)
}

func ParseView(s string) (View, error) {
	v := View(s)
	if !v.IsValid() {
		return "", fmt.Errorf("%w: view %q", core.ErrInvalidArgument, s)
	}
	return v, nil
}
