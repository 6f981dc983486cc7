package services

import (
	"context"
	"errors"
	"testing"

	"kharcha/internal/core"
	"kharcha/internal/storage"
)

type published struct {
	kind  core.RecordKind
	id    int64
	month string
}

type fakePublisher struct {
	got    []published
	err    error
	closed bool
}

func (f *fakePublisher) PublishRecordCreated(_ context.Context, kind core.RecordKind, id int64, month core.Month) error {
	f.got = append(f.got, published{kind, id, month.String()})
	return f.err
}

func (f *fakePublisher) Close() error { f.closed = true; return nil }

func TestRecordService_PublishesAfterWrite(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewRecordService(storage.NewMemoryStore(), pub, nil)
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, core.Expense{Amount: core.NewMoney(5, 0), Description: "Tea", Category: core.CategoryFood, Date: core.NewDate(2024, 5, 2)})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	c, err := svc.CreateCommittee(ctx, core.Committee{Name: "ROSCA", StartDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 6, 30), MonthlyAmount: core.NewMoney(100, 0), ExpectedReceivingAmount: core.NewMoney(600, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateCommitteePayment(ctx, core.CommitteePayment{CommitteeID: c.ID, Amount: core.NewMoney(100, 0), PaymentDate: core.NewDate(2024, 5, 1), MonthYear: core.MustParseMonth("2024-05")}); err != nil {
		t.Fatal(err)
	}

	want := []published{
		{core.KindExpense, e.ID, "2024-05"},
		{core.KindCommittee, c.ID, "2024-01"},
		{core.KindCommitteePayment, 3, "2024-05"},
	}
	if len(pub.got) != len(want) {
		t.Fatalf("published %v, want %v", pub.got, want)
	}
	for i := range want {
		if pub.got[i] != want[i] {
			t.Errorf("published[%d] = %+v, want %+v", i, pub.got[i], want[i])
		}
	}

	expenses, _ := svc.Store().ListExpenses(ctx)
	if len(expenses) != 1 {
		t.Errorf("committee payment leaked into expenses: %d expenses", len(expenses))
	}
}

func TestRecordService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: errors.New("circuit breaker is open")}
	svc := NewRecordService(storage.NewMemoryStore(), pub, nil)

	inc, err := svc.CreateIncome(context.Background(), core.IncomeRecord{Amount: core.NewMoney(900, 0), Source: "Salary", MonthYear: core.MustParseMonth("2024-05")})
	if err != nil || inc.ID == 0 {
		t.Fatalf("CreateIncome() = %+v, %v", inc, err)
	}
}

func TestRecordService_InvalidRecordNotPublished(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewRecordService(storage.NewMemoryStore(), pub, nil)

	_, err := svc.CreateLoan(context.Background(), core.LoanTransaction{PersonName: "", LoanType: core.LoanGiven, Amount: core.NewMoney(1, 0), Date: core.NewDate(2024, 1, 1)})
	if !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("CreateLoan() error = %v, want ErrEmptyName", err)
	}
	if len(pub.got) != 0 {
		t.Errorf("published %v for a rejected record", pub.got)
	}
}

func TestRecordService_WithoutPublisher(t *testing.T) {
	svc := NewRecordService(storage.NewMemoryStore(), nil, nil)
	if _, err := svc.CreateLoan(context.Background(), core.LoanTransaction{PersonName: "Alice", LoanType: core.LoanGiven, Amount: core.NewMoney(1, 0), Date: core.NewDate(2024, 1, 1)}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRecordService_CloseClosesPublisher(t *testing.T) {
	pub := &fakePublisher{}
	if err := NewRecordService(storage.NewMemoryStore(), pub, nil).Close(); err != nil {
		t.Fatal(err)
	}
	if !pub.closed {
		t.Error("publisher not closed")
	}
}
