package gateway

import (
	"strings"

	"kharcha/internal/core"
)

// Form inputs carry the raw strings a UI collects. They are validated and
// converted to typed records before anything is sent.
type (
	ExpenseInput struct {
		Amount        string `json:"amount" validate:"money"`
		Description   string `json:"description" validate:"notblank,max=200"`
		Category      string `json:"category" validate:"category"`
		Date          string `json:"date" validate:"isodate,editable"`
		Location      string `json:"location" validate:"max=200"`
		Notes         string `json:"notes" validate:"max=1000"`
		PaymentMethod string `json:"payment_method" validate:"max=100"`
		Tags          string `json:"tags" validate:"max=200"`
	}

	LoanInput struct {
		PersonName   string `json:"person_name" validate:"notblank,max=200"`
		LoanType     string `json:"loan_type" validate:"loantype"`
		Amount       string `json:"amount" validate:"money"`
		Description  string `json:"description" validate:"max=200"`
		Date         string `json:"date" validate:"isodate"`
		DueDate      string `json:"due_date" validate:"omitempty,isodate"`
		InterestRate string `json:"interest_rate" validate:"omitempty,rate"`
		Notes        string `json:"notes" validate:"max=1000"`
	}

	CommitteeInput struct {
		Name                    string `json:"name" validate:"notblank,max=200"`
		StartDate               string `json:"start_date" validate:"isodate"`
		EndDate                 string `json:"end_date" validate:"isodate"`
		MonthlyAmount           string `json:"monthly_amount" validate:"money"`
		ExpectedReceivingAmount string `json:"expected_receiving_amount" validate:"money"`
		ExpectedReceivingDate   string `json:"expected_receiving_date" validate:"omitempty,isodate"`
	}

	CommitteePaymentInput struct {
		CommitteeID int64  `json:"committee_id" validate:"gt=0"`
		Amount      string `json:"amount" validate:"money"`
		PaymentDate string `json:"payment_date" validate:"isodate"`
		MonthYear   string `json:"month_year" validate:"monthkey,editable"`
	}

	IncomeInput struct {
		Amount    string `json:"amount" validate:"money"`
		Source    string `json:"source" validate:"notblank,max=200"`
		MonthYear string `json:"month_year" validate:"monthkey,editable"`
	}
)

// The record methods assume the input already passed validation; parse
// errors are still surfaced rather than ignored.

func (in ExpenseInput) record() (core.Expense, error) {
	amt, err := core.ParseMoney(in.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Amount:        amt,
		Description:   strings.TrimSpace(in.Description),
		Category:      core.Category(in.Category),
		Date:          d,
		Location:      strings.TrimSpace(in.Location),
		Notes:         strings.TrimSpace(in.Notes),
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Tags:          core.ParseTags(in.Tags),
	}, nil
}

func (in LoanInput) record() (core.LoanTransaction, error) {
	amt, err := core.ParseMoney(in.Amount)
	if err != nil {
		return core.LoanTransaction{}, err
	}
	d, err := core.ParseDate(in.Date)
	if err != nil {
		return core.LoanTransaction{}, err
	}
	var due core.Date
	if in.DueDate != "" {
		if due, err = core.ParseDate(in.DueDate); err != nil {
			return core.LoanTransaction{}, err
		}
	}
	rate, err := core.ParseRate(in.InterestRate)
	if err != nil {
		return core.LoanTransaction{}, err
	}
	return core.LoanTransaction{
		PersonName:   strings.TrimSpace(in.PersonName),
		LoanType:     core.LoanType(in.LoanType),
		Amount:       amt,
		Description:  strings.TrimSpace(in.Description),
		Date:         d,
		DueDate:      due,
		InterestRate: rate,
		Notes:        strings.TrimSpace(in.Notes),
	}, nil
}

func (in CommitteeInput) record() (core.Committee, error) {
	var (
		c   core.Committee
		err error
	)
	c.Name = strings.TrimSpace(in.Name)
	if c.StartDate, err = core.ParseDate(in.StartDate); err != nil {
		return c, err
	}
	if c.EndDate, err = core.ParseDate(in.EndDate); err != nil {
		return c, err
	}
	if c.MonthlyAmount, err = core.ParseMoney(in.MonthlyAmount); err != nil {
		return c, err
	}
	if c.ExpectedReceivingAmount, err = core.ParseMoney(in.ExpectedReceivingAmount); err != nil {
		return c, err
	}
	if in.ExpectedReceivingDate != "" {
		if c.ExpectedReceivingDate, err = core.ParseDate(in.ExpectedReceivingDate); err != nil {
			return c, err
		}
	}
	return c, nil
}

func (in CommitteePaymentInput) record() (core.CommitteePayment, error) {
	amt, err := core.ParseMoney(in.Amount)
	if err != nil {
		return core.CommitteePayment{}, err
	}
	d, err := core.ParseDate(in.PaymentDate)
	if err != nil {
		return core.CommitteePayment{}, err
	}
	m, err := core.ParseMonth(in.MonthYear)
	if err != nil {
		return core.CommitteePayment{}, err
	}
	return core.CommitteePayment{CommitteeID: in.CommitteeID, Amount: amt, PaymentDate: d, MonthYear: m}, nil
}

func (in IncomeInput) record() (core.IncomeRecord, error) {
	amt, err := core.ParseMoney(in.Amount)
	if err != nil {
		return core.IncomeRecord{}, err
	}
	m, err := core.ParseMonth(in.MonthYear)
	if err != nil {
		return core.IncomeRecord{}, err
	}
	return core.IncomeRecord{Amount: amt, Source: strings.TrimSpace(in.Source), MonthYear: m}, nil
}
