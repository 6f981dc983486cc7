package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"kharcha/internal/core"
)

// MemoryStore keeps records in process memory. Data is lost on restart.
type MemoryStore struct {
	mu sync.Mutex

	nextID     int64
	expenses   []core.Expense
	loans      []core.LoanTransaction
	committees []core.Committee
	payments   []core.CommitteePayment
	income     []core.IncomeRecord

	categories []string
	methods    []string
	mirrored   map[string]string
}

// NewMemoryStore returns an empty store seeded with the default categories
// and payment methods.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: core.CategoryNames(),
		methods:    dedupe(core.DefaultPaymentMethods),
		mirrored:   make(map[string]string),
	}
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	e.Tags = slices.Clone(e.Tags)
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *MemoryStore) ListExpenses(context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := slices.Clone(s.expenses)
	s.mu.Unlock()
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return nonNil(out), nil
}

func (s *MemoryStore) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.expenses, id, func(e core.Expense) int64 { return e.ID }, "expense")
}

func (s *MemoryStore) CreateLoan(_ context.Context, l core.LoanTransaction) (core.LoanTransaction, error) {
	if err := l.Validate(); err != nil {
		return core.LoanTransaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.id()
	s.loans = append(s.loans, l)
	return l, nil
}

func (s *MemoryStore) ListLoans(context.Context) ([]core.LoanTransaction, error) {
	s.mu.Lock()
	out := slices.Clone(s.loans)
	s.mu.Unlock()
	slices.SortStableFunc(out, func(a, b core.LoanTransaction) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return nonNil(out), nil
}

func (s *MemoryStore) GetLoan(_ context.Context, id int64) (core.LoanTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.loans, id, func(l core.LoanTransaction) int64 { return l.ID }, "loan")
}

func (s *MemoryStore) CreateCommittee(_ context.Context, c core.Committee) (core.Committee, error) {
	if err := c.Validate(); err != nil {
		return core.Committee{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	c.Payments = nil
	c.Status = core.CommitteeActive
	c.TotalPaid = core.Zero
	s.committees = append(s.committees, c)
	return c, nil
}

func (s *MemoryStore) ListCommittees(context.Context) ([]core.Committee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nonNil(slices.Clone(s.committees)), nil
}

func (s *MemoryStore) GetCommittee(_ context.Context, id int64) (core.Committee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.committees, id, func(c core.Committee) int64 { return c.ID }, "committee")
}

func (s *MemoryStore) CreateCommitteePayment(_ context.Context, p core.CommitteePayment) (core.CommitteePayment, error) {
	if err := p.Validate(); err != nil {
		return core.CommitteePayment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := find(s.committees, p.CommitteeID, func(c core.Committee) int64 { return c.ID }, "committee"); err != nil {
		return core.CommitteePayment{}, err
	}
	p.ID = s.id()
	s.payments = append(s.payments, p)
	return p, nil
}

func (s *MemoryStore) ListCommitteePayments(context.Context) ([]core.CommitteePayment, error) {
	s.mu.Lock()
	out := slices.Clone(s.payments)
	s.mu.Unlock()
	slices.SortStableFunc(out, func(a, b core.CommitteePayment) int {
		if c := a.PaymentDate.Compare(b.PaymentDate.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return nonNil(out), nil
}

func (s *MemoryStore) GetCommitteePayment(_ context.Context, id int64) (core.CommitteePayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.payments, id, func(p core.CommitteePayment) int64 { return p.ID }, "committee payment")
}

func (s *MemoryStore) CreateIncome(_ context.Context, i core.IncomeRecord) (core.IncomeRecord, error) {
	if err := i.Validate(); err != nil {
		return core.IncomeRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = s.id()
	s.income = append(s.income, i)
	return i, nil
}

func (s *MemoryStore) ListIncome(context.Context) ([]core.IncomeRecord, error) {
	s.mu.Lock()
	out := slices.Clone(s.income)
	s.mu.Unlock()
	slices.SortStableFunc(out, func(a, b core.IncomeRecord) int {
		if c := strings.Compare(a.MonthYear.String(), b.MonthYear.String()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return nonNil(out), nil
}

func (s *MemoryStore) GetIncome(_ context.Context, id int64) (core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.income, id, func(i core.IncomeRecord) int64 { return i.ID }, "income")
}

func (s *MemoryStore) Categories(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.categories), nil
}

func (s *MemoryStore) PaymentMethods(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.methods), nil
}

func (s *MemoryStore) MirrorRef(_ context.Context, kind core.RecordKind, id int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.mirrored[mirrorKey(kind, id)]
	return ref, ok, nil
}

func (s *MemoryStore) MarkMirrored(_ context.Context, kind core.RecordKind, id int64, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrored[mirrorKey(kind, id)] = ref
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error               { return nil }

func mirrorKey(kind core.RecordKind, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func find[T any](items []T, id int64, key func(T) int64, what string) (T, error) {
	for _, it := range items {
		if key(it) == id {
			return it, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// dedupe trims and drops blanks and repeats, keeping first-seen order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
