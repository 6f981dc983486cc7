package gateway

import (
	"context"
	"sync"

	"kharcha/internal/core"
)

// State is a submission's position in its lifecycle:
//
//	Idle -> Validating -> Rejected
//	                   -> Submitting -> Succeeded | Failed
//
// Rejected, Succeeded and Failed all accept a new Submit.
type State int

const (
	Idle State = iota
	Validating
	Rejected
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Rejected:
		return "rejected"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Form owns the submission state of one UI form. Each form instance is
// independent; two forms may submit concurrently.
type Form[In, Out any] struct {
	mu      sync.Mutex
	state   State
	lastErr error

	validate func(In) error
	send     func(context.Context, In) (Out, error)

	// OnSuccess runs after a confirmed write, outside the form's lock.
	OnSuccess func(context.Context, Out)
}

// NewForm wires a validation step and a send step into a state machine.
func NewForm[In, Out any](validate func(In) error, send func(context.Context, In) (Out, error)) *Form[In, Out] {
	return &Form[In, Out]{validate: validate, send: send}
}

// State returns the current state.
func (f *Form[In, Out]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error of the last Rejected or Failed submission.
func (f *Form[In, Out]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Submit validates in and, when valid, sends it. A call made while a
// previous submission is still in flight returns ErrSubmitInFlight and sends
// nothing.
func (f *Form[In, Out]) Submit(ctx context.Context, in In) (Out, error) {
	var zero Out

	f.mu.Lock()
	if f.state == Submitting || f.state == Validating {
		f.mu.Unlock()
		return zero, ErrSubmitInFlight
	}
	f.state = Validating
	if err := f.validate(in); err != nil {
		f.state, f.lastErr = Rejected, err
		f.mu.Unlock()
		return zero, err
	}
	f.state = Submitting
	f.mu.Unlock()

	out, err := f.send(ctx, in)

	f.mu.Lock()
	if err != nil {
		f.state, f.lastErr = Failed, err
		f.mu.Unlock()
		return zero, err
	}
	f.state, f.lastErr = Succeeded, nil
	hook := f.OnSuccess
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, out)
	}
	return out, nil
}

// Reset returns a settled form to Idle. It is a no-op while submitting.
func (f *Form[In, Out]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Submitting {
		f.state, f.lastErr = Idle, nil
	}
}

func discard[T any](fn func(T) (any, error)) func(T) error {
	return func(in T) error {
		_, err := fn(in)
		return err
	}
}

func (c *Client) ExpenseForm() *Form[ExpenseInput, core.Expense] {
	return NewForm(
		discard(func(in ExpenseInput) (any, error) { return c.ValidateExpense(in) }),
		c.CreateExpense,
	)
}

func (c *Client) LoanForm() *Form[LoanInput, core.LoanTransaction] {
	return NewForm(
		discard(func(in LoanInput) (any, error) { return c.ValidateLoan(in) }),
		c.CreateLoan,
	)
}

func (c *Client) CommitteeForm() *Form[CommitteeInput, core.Committee] {
	return NewForm(
		discard(func(in CommitteeInput) (any, error) { return c.ValidateCommittee(in) }),
		c.CreateCommittee,
	)
}

func (c *Client) CommitteePaymentForm() *Form[CommitteePaymentInput, core.CommitteePayment] {
	return NewForm(
		discard(func(in CommitteePaymentInput) (any, error) { return c.ValidateCommitteePayment(in) }),
		c.CreateCommitteePayment,
	)
}

func (c *Client) IncomeForm() *Form[IncomeInput, core.IncomeRecord] {
	return NewForm(
		discard(func(in IncomeInput) (any, error) { return c.ValidateIncome(in) }),
		c.CreateIncome,
	)
}
