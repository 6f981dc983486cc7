package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"kharcha/internal/core"
)

func stores(t *testing.T) map[string]func(*testing.T) Store {
	t.Helper()
	return map[string]func(*testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "kharcha.db"), nil)
			if err != nil {
				t.Fatalf("NewSQLiteRepository() error = %v", err)
			}
			t.Cleanup(func() { repo.Close() })
			return repo
		},
	}
}

func TestStore_Expenses(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			older, err := s.CreateExpense(ctx, core.Expense{Amount: core.NewMoney(10, 0), Description: "Bus", Category: core.CategoryCommute, Date: core.NewDate(2024, 1, 5)})
			if err != nil {
				t.Fatalf("CreateExpense() error = %v", err)
			}
			newer, err := s.CreateExpense(ctx, core.Expense{
				Amount: core.NewMoney(12, 50), Description: "Lunch", Category: core.CategoryFood,
				Date: core.NewDate(2024, 1, 20), Location: "Cafe", PaymentMethod: "UPI",
				Tags: []string{"work", "team lunch"},
			})
			if err != nil {
				t.Fatalf("CreateExpense() error = %v", err)
			}
			if older.ID == 0 || newer.ID == older.ID {
				t.Fatalf("IDs not assigned: %d %d", older.ID, newer.ID)
			}

			list, err := s.ListExpenses(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 2 || list[0].ID != newer.ID {
				t.Errorf("ListExpenses() = %+v, want newest first", list)
			}

			got, err := s.GetExpense(ctx, newer.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.Amount.Cents != 1250 || got.Location != "Cafe" || got.Date.String() != "2024-01-20" || got.Category != core.CategoryFood {
				t.Errorf("GetExpense() = %+v", got)
			}
			if core.JoinTags(got.Tags) != "work,team lunch" {
				t.Errorf("GetExpense() tags = %q, want [work team lunch]", got.Tags)
			}
			if list[1].Tags != nil {
				t.Errorf("untagged expense tags = %#v, want nil", list[1].Tags)
			}

			if _, err := s.GetExpense(ctx, 999); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetExpense(999) error = %v, want ErrNotFound", err)
			}
			if _, err := s.CreateExpense(ctx, core.Expense{Amount: core.Money{Cents: -1}, Description: "x", Category: core.CategoryFood, Date: core.NewDate(2024, 1, 1)}); err == nil {
				t.Error("negative expense accepted")
			}
		})
	}
}

func TestStore_Loans(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			rate, _ := core.ParseRate("7.5")

			in := []core.LoanTransaction{
				{PersonName: "Alice", LoanType: core.LoanGiven, Amount: core.NewMoney(200, 0), Date: core.NewDate(2024, 2, 1), InterestRate: rate, DueDate: core.NewDate(2024, 6, 1)},
				{PersonName: "Alice", LoanType: core.LoanReceivedBack, Amount: core.NewMoney(80, 0), Date: core.NewDate(2024, 1, 1)},
			}
			for _, l := range in {
				if _, err := s.CreateLoan(ctx, l); err != nil {
					t.Fatalf("CreateLoan() error = %v", err)
				}
			}
			list, err := s.ListLoans(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 2 || list[0].LoanType != core.LoanReceivedBack {
				t.Fatalf("ListLoans() = %+v, want oldest first", list)
			}
			given := list[1]
			if !given.InterestRate.Equal(rate.Decimal) || given.DueDate.String() != "2024-06-01" {
				t.Errorf("given loan = %+v", given)
			}
			if !list[0].DueDate.IsZero() {
				t.Errorf("missing due date round-tripped as %v", list[0].DueDate)
			}
			if _, err := s.CreateLoan(ctx, core.LoanTransaction{PersonName: "Bob", LoanType: "lent", Amount: core.NewMoney(1, 0), Date: core.NewDate(2024, 1, 1)}); !errors.Is(err, core.ErrInvalidLoanType) {
				t.Errorf("CreateLoan(lent) error = %v", err)
			}
		})
	}
}

func TestStore_CommitteesAndPayments(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			c, err := s.CreateCommittee(ctx, core.Committee{
				Name: "Family ROSCA", StartDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 12, 31),
				MonthlyAmount: core.NewMoney(100, 0), ExpectedReceivingAmount: core.NewMoney(1200, 0),
			})
			if err != nil {
				t.Fatalf("CreateCommittee() error = %v", err)
			}
			if c.Status != core.CommitteeActive {
				t.Errorf("new committee status = %s", c.Status)
			}

			p, err := s.CreateCommitteePayment(ctx, core.CommitteePayment{
				CommitteeID: c.ID, Amount: core.NewMoney(100, 0), PaymentDate: core.NewDate(2024, 1, 3), MonthYear: core.MustParseMonth("2024-01"),
			})
			if err != nil {
				t.Fatalf("CreateCommitteePayment() error = %v", err)
			}
			got, err := s.GetCommitteePayment(ctx, p.ID)
			if err != nil || got.MonthYear.String() != "2024-01" || got.CommitteeID != c.ID {
				t.Errorf("GetCommitteePayment() = %+v, %v", got, err)
			}

			_, err = s.CreateCommitteePayment(ctx, core.CommitteePayment{
				CommitteeID: 4242, Amount: core.NewMoney(1, 0), PaymentDate: core.NewDate(2024, 1, 3), MonthYear: core.MustParseMonth("2024-01"),
			})
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("payment to unknown committee error = %v, want ErrNotFound", err)
			}

			// Payments are never mirrored into expenses.
			exp, _ := s.ListExpenses(ctx)
			if len(exp) != 0 {
				t.Errorf("ListExpenses() = %d records after a committee payment", len(exp))
			}

			cs, _ := s.ListCommittees(ctx)
			ps, _ := s.ListCommitteePayments(ctx)
			if len(cs) != 1 || len(ps) != 1 {
				t.Errorf("committees=%d payments=%d", len(cs), len(ps))
			}
		})
	}
}

func TestStore_IncomeAndReferenceData(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			for _, m := range []string{"2024-03", "2024-01"} {
				if _, err := s.CreateIncome(ctx, core.IncomeRecord{Amount: core.NewMoney(1000, 0), Source: "Salary", MonthYear: core.MustParseMonth(m)}); err != nil {
					t.Fatal(err)
				}
			}
			list, _ := s.ListIncome(ctx)
			if len(list) != 2 || list[0].MonthYear.String() != "2024-01" {
				t.Errorf("ListIncome() = %+v", list)
			}
			if _, err := s.CreateIncome(ctx, core.IncomeRecord{Amount: core.NewMoney(1, 0), Source: " ", MonthYear: core.MustParseMonth("2024-01")}); !errors.Is(err, core.ErrEmptySource) {
				t.Errorf("CreateIncome(blank source) error = %v", err)
			}

			cats, err := s.Categories(ctx)
			if err != nil || len(cats) != len(core.AllCategories) || cats[0] != "Food" {
				t.Errorf("Categories() = %v, %v", cats, err)
			}
			methods, err := s.PaymentMethods(ctx)
			if err != nil || len(methods) != len(core.DefaultPaymentMethods) {
				t.Errorf("PaymentMethods() = %v, %v", methods, err)
			}
			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestMirrorLog(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			log, ok := open(t).(MirrorLog)
			if !ok {
				t.Fatal("store does not implement MirrorLog")
			}
			ctx := context.Background()
			if _, found, err := log.MirrorRef(ctx, core.KindExpense, 1); err != nil || found {
				t.Fatalf("MirrorRef() before mark = %v, %v", found, err)
			}
			if err := log.MarkMirrored(ctx, core.KindExpense, 1, "Expenses!A2:H2"); err != nil {
				t.Fatal(err)
			}
			ref, found, err := log.MirrorRef(ctx, core.KindExpense, 1)
			if err != nil || !found || ref != "Expenses!A2:H2" {
				t.Errorf("MirrorRef() = %q, %v, %v", ref, found, err)
			}
			if _, found, _ := log.MirrorRef(ctx, core.KindIncome, 1); found {
				t.Error("mirror log must be keyed by kind")
			}
		})
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil || v2 != v1 || v1 != 1 {
		t.Errorf("RunMigrations() second run = %d, %v (first %d)", v2, err, v1)
	}
}
