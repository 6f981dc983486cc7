// Package aggregate reduces raw record collections into the derived views
// served by the dashboard: monthly summaries, per-person loan ledgers,
// net values, the dashboard overview and the loan timeline.
//
// Every function is pure. Inputs are only read, never reordered or mutated,
// so callers may share slices across goroutines.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"kharcha/internal/core"
)

// MonthlySummary groups records by month key. Every month that has at least
// one record of any kind appears, and every category is present in each
// month's expense map. An expense with an unknown category is a caller bug
// (ingestion rejects it) and panics with core.ErrInvalidArgument.
func MonthlySummary(expenses []core.Expense, payments []core.CommitteePayment, incomes []core.IncomeRecord) map[core.Month]core.MonthlySummary {
	out := make(map[core.Month]core.MonthlySummary)
	bucket := func(m core.Month) core.MonthlySummary {
		s, ok := out[m]
		if !ok {
			s = core.NewMonthlySummary()
		}
		return s
	}

	for _, e := range expenses {
		if !e.Category.IsValid() {
			panic(fmt.Errorf("%w: expense %d has category %q", core.ErrInvalidArgument, e.ID, e.Category))
		}
		m := e.Date.Key()
		s := bucket(m)
		s.Expenses[e.Category] = s.Expenses[e.Category].Add(e.Amount)
		out[m] = s
	}
	for _, p := range payments {
		s := bucket(p.MonthYear)
		s.CommitteePayments = s.CommitteePayments.Add(p.Amount)
		out[p.MonthYear] = s
	}
	for _, i := range incomes {
		s := bucket(i.MonthYear)
		s.Income = s.Income.Add(i.Amount)
		out[i.MonthYear] = s
	}

	for m, s := range out {
		s.TotalExpenses = s.ExpensesTotal().Add(s.CommitteePayments)
		s.Savings = s.Income.Sub(s.TotalExpenses)
		out[m] = s
	}
	return out
}

// SummaryFor returns the summary for m, or a zero-filled summary when the
// month has no records.
func SummaryFor(summaries map[core.Month]core.MonthlySummary, m core.Month) core.MonthlySummary {
	if s, ok := summaries[m]; ok {
		return s
	}
	return core.NewMonthlySummary()
}

// Months returns the keys of a summary map in chronological order.
func Months(summaries map[core.Month]core.MonthlySummary) []core.Month {
	keys := make([]core.Month, 0, len(summaries))
	for m := range summaries {
		keys = append(keys, m)
	}
	core.SortMonths(keys)
	return keys
}

// LoanSummary groups loan transactions by exact person name. Transactions
// are kept in input order within each ledger.
func LoanSummary(loans []core.LoanTransaction) map[string]core.PersonLoanLedger {
	out := make(map[string]core.PersonLoanLedger)
	for _, l := range loans {
		led := out[l.PersonName]
		if led.Transactions == nil {
			led.Transactions = []core.LoanTransaction{}
		}
		switch l.LoanType {
		case core.LoanGiven:
			led.Given = led.Given.Add(l.Amount)
		case core.LoanTaken:
			led.Taken = led.Taken.Add(l.Amount)
		case core.LoanReceivedBack:
			led.ReceivedBack = led.ReceivedBack.Add(l.Amount)
		default:
			panic(fmt.Errorf("%w: loan %d has type %q", core.ErrInvalidArgument, l.ID, l.LoanType))
		}
		led.Transactions = append(led.Transactions, l)
		out[l.PersonName] = led
	}
	for name, led := range out {
		led.NetAmount = led.Given.Sub(led.Taken).Sub(led.ReceivedBack)
		out[name] = led
	}
	return out
}

// LoanTotals reduces loans without grouping. Its NetAmount always equals
// NetLoan(LoanSummary(loans)).
func LoanTotals(loans []core.LoanTransaction) core.PersonLoanLedger {
	var t core.PersonLoanLedger
	for _, l := range loans {
		switch l.LoanType {
		case core.LoanGiven:
			t.Given = t.Given.Add(l.Amount)
		case core.LoanTaken:
			t.Taken = t.Taken.Add(l.Amount)
		case core.LoanReceivedBack:
			t.ReceivedBack = t.ReceivedBack.Add(l.Amount)
		}
	}
	t.NetAmount = t.Given.Sub(t.Taken).Sub(t.ReceivedBack)
	return t
}

// NetLoan sums the net position over all ledgers.
func NetLoan(ledgers map[string]core.PersonLoanLedger) core.Money {
	var n core.Money
	for _, led := range ledgers {
		n = n.Add(led.NetAmount)
	}
	return n
}

// LoansIn returns the transactions dated within m, preserving order.
func LoansIn(loans []core.LoanTransaction, m core.Month) []core.LoanTransaction {
	var out []core.LoanTransaction
	for _, l := range loans {
		if m.Contains(l.Date) {
			out = append(out, l)
		}
	}
	return out
}

// NetValues combines the loan activity of month with that month's summary.
// Loan figures are month-scoped: loans must already be restricted to
// transactions dated within month (see LoansIn).
func NetValues(month core.Month, loans []core.LoanTransaction, summary core.MonthlySummary) core.NetValuesSnapshot {
	t := LoanTotals(loans)
	savings := summary.Income.Sub(summary.TotalExpenses)
	return core.NetValuesSnapshot{
		Month:            month,
		LoanGiven:        t.Given,
		LoanTaken:        t.Taken,
		LoanReceivedBack: t.ReceivedBack,
		NetLoan:          t.NetAmount,
		Income:           summary.Income,
		TotalExpenses:    summary.TotalExpenses,
		TotalSavings:     savings,
		NetWorth:         savings.Add(t.NetAmount),
	}
}

// NetValuesForMonth is NetValues over unfiltered record sets.
func NetValuesForMonth(month core.Month, loans []core.LoanTransaction, summaries map[core.Month]core.MonthlySummary) core.NetValuesSnapshot {
	return NetValues(month, LoansIn(loans, month), SummaryFor(summaries, month))
}

// DashboardOverview is the "now" snapshot: the current month's summary plus
// the all-time net loan position.
func DashboardOverview(current core.Month, summary core.MonthlySummary, ledgers map[string]core.PersonLoanLedger) core.DashboardOverview {
	net := NetLoan(ledgers)
	return core.DashboardOverview{
		MonthlyIncome:   summary.Income,
		MonthlyExpenses: summary.TotalExpenses,
		TotalSavings:    summary.Savings,
		NetWorth:        summary.Savings.Add(net),
		NetLoan:         net,
		CurrentMonth:    current,
	}
}

// LoanTimeline orders loans by date and tracks the running net position.
// Transactions on the same date keep their input order.
func LoanTimeline(loans []core.LoanTransaction) []core.LoanTimelinePoint {
	sorted := make([]core.LoanTransaction, len(loans))
	copy(sorted, loans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date.Time)
	})

	out := make([]core.LoanTimelinePoint, 0, len(sorted))
	var running core.Money
	for _, l := range sorted {
		running = running.Add(l.Signed())
		out = append(out, core.LoanTimelinePoint{
			Date:          l.Date,
			Month:         l.Date.Key(),
			Type:          l.LoanType,
			Amount:        l.Amount,
			CumulativeNet: running,
			Person:        l.PersonName,
			Description:   l.Description,
		})
	}
	return out
}

// DefaultRecentDays is the trailing window used by the recent spending view.
const DefaultRecentDays = 20

// RecentSpending totals expenses dated within the last days days up to and
// including asOf. The daily average divides by the window length, not by the
// number of days that had spending.
func RecentSpending(expenses []core.Expense, asOf time.Time, days int) core.RecentSpending {
	if days <= 0 {
		days = DefaultRecentDays
	}
	end := core.DateOf(asOf)
	start := end.AddDate(0, 0, -days)
	var r core.RecentSpending
	r.PeriodDays = days
	for _, e := range expenses {
		if e.Date.Before(start) || e.Date.After(end.Time) {
			continue
		}
		r.TotalAmount = r.TotalAmount.Add(e.Amount)
		r.TransactionCount++
	}
	r.DailyAverage = core.Money{Cents: divRound(r.TotalAmount.Cents, int64(days))}
	return r
}

// Status reports all-time totals. NetBalance is given minus taken and does
// not account for repayments.
func Status(expenses []core.Expense, loans []core.LoanTransaction) core.Status {
	var s core.Status
	for _, e := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
	}
	t := LoanTotals(loans)
	s.TotalLoansGiven = t.Given
	s.TotalLoansTaken = t.Taken
	s.NetBalance = t.Given.Sub(t.Taken)
	return s
}

// Committees attaches payments to their committees and derives status.
// Payments are ordered by payment date, ties by input order.
func Committees(committees []core.Committee, payments []core.CommitteePayment, asOf time.Time) []core.Committee {
	byID := make(map[int64][]core.CommitteePayment)
	for _, p := range payments {
		byID[p.CommitteeID] = append(byID[p.CommitteeID], p)
	}
	out := make([]core.Committee, len(committees))
	for i, c := range committees {
		ps := byID[c.ID]
		sort.SliceStable(ps, func(a, b int) bool {
			return ps[a].PaymentDate.Before(ps[b].PaymentDate.Time)
		})
		c.Payments = ps
		out[i] = c.DeriveStatus(asOf)
	}
	return out
}

func divRound(n, d int64) int64 {
	if d == 0 {
		return 0
	}
	q := n / d
	if r := n % d; r*2 >= d {
		q++
	}
	return q
}
