package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	CategoryFood      Category = "Food"
	CategoryShopping  Category = "Shopping"
	CategoryHome      Category = "Home"
	CategorySports    Category = "Sports"
	CategoryCommute   Category = "Commute"
	CategoryEducation Category = "Education"
	CategoryTrip      Category = "Trip"
	CategoryCommittee Category = "Committee"
	CategoryOthers    Category = "Others"
)

const (
	LoanGiven        LoanType = "given"
	LoanTaken        LoanType = "taken"
	LoanReceivedBack LoanType = "received_back"
)

const (
	CommitteeActive    CommitteeStatus = "active"
	CommitteeCompleted CommitteeStatus = "completed"
)

// MaxDescriptionLength bounds free-text descriptions and names.
const MaxDescriptionLength = 200

type (
	Category        string
	LoanType        string
	CommitteeStatus string

	Expense struct {
		ID            int64    `json:"id"`
		Amount        Money    `json:"amount"`
		Description   string   `json:"description"`
		Category      Category `json:"category"`
		Date          Date     `json:"date"`
		Location      string   `json:"location,omitempty"`
		Notes         string   `json:"notes,omitempty"`
		PaymentMethod string   `json:"payment_method,omitempty"`
		Tags          []string `json:"tags,omitempty"`
	}

	LoanTransaction struct {
		ID           int64    `json:"id"`
		PersonName   string   `json:"person_name"`
		LoanType     LoanType `json:"loan_type"`
		Amount       Money    `json:"amount"`
		Description  string   `json:"description,omitempty"`
		Date         Date     `json:"date"`
		DueDate      Date     `json:"due_date"`
		InterestRate Rate     `json:"interest_rate"`
		Notes        string   `json:"notes,omitempty"`
	}

	Committee struct {
		ID                      int64              `json:"id"`
		Name                    string             `json:"name"`
		StartDate               Date               `json:"start_date"`
		EndDate                 Date               `json:"end_date"`
		MonthlyAmount           Money              `json:"monthly_amount"`
		ExpectedReceivingAmount Money              `json:"expected_receiving_amount"`
		ExpectedReceivingDate   Date               `json:"expected_receiving_date"`
		Status                  CommitteeStatus    `json:"status"`
		TotalPaid               Money              `json:"total_paid"`
		Payments                []CommitteePayment `json:"payments"`
	}

	CommitteePayment struct {
		ID          int64 `json:"id"`
		CommitteeID int64 `json:"committee_id"`
		Amount      Money `json:"amount"`
		PaymentDate Date  `json:"payment_date"`
		MonthYear   Month `json:"month_year"`
	}

	IncomeRecord struct {
		ID        int64  `json:"id"`
		Amount    Money  `json:"amount"`
		Source    string `json:"source"`
		MonthYear Month  `json:"month_year"`
	}
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrInvalidRate      = errors.New("interest rate must be a non-negative number")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptySource      = errors.New("empty income source")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidLoanType  = errors.New("invalid loan type")
	ErrInvalidPeriod    = errors.New("end date must not be before start date")
	ErrMonthLocked      = errors.New("month is no longer editable")
	ErrTooLong          = fmt.Errorf("text too long (max %d characters)", MaxDescriptionLength)
)

var validationErrors = []error{
	ErrInvalidArgument, ErrInvalidAmount, ErrNegativeAmount, ErrInvalidRate, ErrInvalidDate,
	ErrEmptyDescription, ErrEmptyName, ErrEmptySource, ErrInvalidCategory, ErrInvalidLoanType,
	ErrInvalidPeriod, ErrMonthLocked, ErrTooLong,
}

// IsValidation reports whether err was caused by rejected input rather than
// a failing dependency.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// AllCategories lists the categories in display order.
var AllCategories = []Category{
	CategoryFood, CategoryShopping, CategoryHome, CategorySports, CategoryCommute,
	CategoryEducation, CategoryTrip, CategoryCommittee, CategoryOthers,
}

// AllLoanTypes lists the loan transaction kinds.
var AllLoanTypes = []LoanType{LoanGiven, LoanTaken, LoanReceivedBack}

// DefaultPaymentMethods are the payment methods offered to new installations.
var DefaultPaymentMethods = []string{"Cash", "Credit Card", "Debit Card", "Bank Transfer", "Mobile Wallet", "UPI", "Cheque", "Other"}

// ParseCategory matches s exactly against the known categories.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (c Category) IsValid() bool {
	for _, k := range AllCategories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseLoanType matches s exactly against the known loan types.
func ParseLoanType(s string) (LoanType, error) {
	t := LoanType(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLoanType, s)
	}
	return t, nil
}

func (t LoanType) IsValid() bool {
	switch t {
	case LoanGiven, LoanTaken, LoanReceivedBack:
		return true
	}
	return false
}

// CategoryNames returns the category names as plain strings.
func CategoryNames() []string {
	out := make([]string, len(AllCategories))
	for i, c := range AllCategories {
		out[i] = string(c)
	}
	return out
}

func checkText(s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	if len(s) > MaxDescriptionLength {
		return ErrTooLong
	}
	return nil
}

// MaxTagsLength bounds the comma-joined tag list.
const MaxTagsLength = 200

// ParseTags splits a comma-separated tag list, trimming blanks and
// dropping duplicates while keeping first-seen order.
func ParseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags is the inverse of ParseTags.
func JoinTags(tags []string) string { return strings.Join(tags, ",") }

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := checkText(e.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if !e.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, e.Category)
	}
	if len(JoinTags(e.Tags)) > MaxTagsLength {
		return fmt.Errorf("%w: tags", ErrTooLong)
	}
	return e.Date.Validate()
}

func (l LoanTransaction) Validate() error {
	if err := checkText(l.PersonName, ErrEmptyName); err != nil {
		return err
	}
	if !l.LoanType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidLoanType, l.LoanType)
	}
	if err := l.Amount.Validate(); err != nil {
		return err
	}
	if err := l.InterestRate.Validate(); err != nil {
		return err
	}
	return l.Date.Validate()
}

// Signed returns the transaction's contribution to the net loan position.
func (l LoanTransaction) Signed() Money {
	if l.LoanType == LoanGiven {
		return l.Amount
	}
	return Money{Cents: -l.Amount.Cents}
}

func (c Committee) Validate() error {
	if err := checkText(c.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := c.StartDate.Validate(); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if err := c.EndDate.Validate(); err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if c.EndDate.Before(c.StartDate.Time) {
		return ErrInvalidPeriod
	}
	if err := c.MonthlyAmount.Validate(); err != nil {
		return fmt.Errorf("monthly amount: %w", err)
	}
	if err := c.ExpectedReceivingAmount.Validate(); err != nil {
		return fmt.Errorf("expected receiving amount: %w", err)
	}
	return nil
}

// Months returns the number of monthly contributions between start and end, inclusive.
func (c Committee) Months() int {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return 0
	}
	n := MonthsBetween(c.EndDate.Key(), c.StartDate.Key()) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Target is the total contribution expected over the cycle.
func (c Committee) Target() Money {
	return Money{Cents: c.MonthlyAmount.Cents * int64(c.Months())}
}

// DeriveStatus fills TotalPaid and Status from Payments as of asOf. A
// committee completes once its end date has passed or its target is paid.
func (c Committee) DeriveStatus(asOf time.Time) Committee {
	var paid Money
	for _, p := range c.Payments {
		paid = paid.Add(p.Amount)
	}
	c.TotalPaid = paid
	c.Status = CommitteeActive
	target := c.Target()
	switch {
	case !c.EndDate.IsZero() && DateOf(asOf).After(c.EndDate.Time):
		c.Status = CommitteeCompleted
	case target.Cents > 0 && paid.Cents >= target.Cents:
		c.Status = CommitteeCompleted
	}
	if c.Payments == nil {
		c.Payments = []CommitteePayment{}
	}
	return c
}

func (p CommitteePayment) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := p.PaymentDate.Validate(); err != nil {
		return fmt.Errorf("payment date: %w", err)
	}
	return p.MonthYear.Validate()
}

func (i IncomeRecord) Validate() error {
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if err := checkText(i.Source, ErrEmptySource); err != nil {
		return err
	}
	return i.MonthYear.Validate()
}
