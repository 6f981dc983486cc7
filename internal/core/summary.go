package core

// Derived views. None of these are stored; they are recomputed from records.
type (
	// PersonLoanLedger is the running position with one counterparty.
	PersonLoanLedger struct {
		Given        Money             `json:"given"`
		Taken        Money             `json:"taken"`
		ReceivedBack Money             `json:"received_back"`
		NetAmount    Money             `json:"net_amount"`
		Transactions []LoanTransaction `json:"transactions"`
	}

	// MonthlySummary always carries every category in Expenses.
	MonthlySummary struct {
		Expenses          map[Category]Money `json:"expenses"`
		CommitteePayments Money              `json:"committee_payments"`
		Income            Money              `json:"income"`
		TotalExpenses     Money              `json:"total_expenses"`
		Savings           Money              `json:"savings"`
	}

	NetValuesSnapshot struct {
		Month            Month `json:"month"`
		LoanGiven        Money `json:"loan_given"`
		LoanTaken        Money `json:"loan_taken"`
		LoanReceivedBack Money `json:"loan_received_back"`
		NetLoan          Money `json:"net_loan"`
		Income           Money `json:"income"`
		TotalExpenses    Money `json:"total_expenses"`
		TotalSavings     Money `json:"total_savings"`
		NetWorth         Money `json:"net_worth"`
	}

	DashboardOverview struct {
		MonthlyIncome   Money `json:"monthly_income"`
		MonthlyExpenses Money `json:"monthly_expenses"`
		TotalSavings    Money `json:"total_savings"`
		NetWorth        Money `json:"net_worth"`
		NetLoan         Money `json:"net_loan"`
		CurrentMonth    Month `json:"current_month"`
	}

	LoanTimelinePoint struct {
		Date          Date     `json:"date"`
		Month         Month    `json:"month"`
		Type          LoanType `json:"type"`
		Amount        Money    `json:"amount"`
		CumulativeNet Money    `json:"cumulative_net"`
		Person        string   `json:"person"`
		Description   string   `json:"description,omitempty"`
	}

	// RecentSpending summarizes expenses over a trailing window of days.
	RecentSpending struct {
		TotalAmount      Money `json:"total_amount"`
		TransactionCount int   `json:"transaction_count"`
		DailyAverage     Money `json:"daily_average"`
		PeriodDays       int   `json:"period_days"`
	}

	// Status is the all-time totals view.
	Status struct {
		TotalExpenses   Money `json:"total_expenses"`
		TotalLoansGiven Money `json:"total_loans_given"`
		TotalLoansTaken Money `json:"total_loans_taken"`
		NetBalance      Money `json:"net_balance"`
	}
)

// NewMonthlySummary returns a summary with every category present at zero.
func NewMonthlySummary() MonthlySummary {
	exp := make(map[Category]Money, len(AllCategories))
	for _, c := range AllCategories {
		exp[c] = Zero
	}
	return MonthlySummary{Expenses: exp}
}

// ExpensesTotal sums the per-category amounts.
func (s MonthlySummary) ExpensesTotal() Money {
	var t Money
	for _, v := range s.Expenses {
		t = t.Add(v)
	}
	return t
}
