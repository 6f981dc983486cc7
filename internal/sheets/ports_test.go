package sheets

import (
	"errors"
	"testing"

	"kharcha/internal/core"
)

func TestEveryKindHasTabAndHeader(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range core.AllRecordKinds {
		tab := Tab(k)
		if tab == "" {
			t.Errorf("Tab(%s) is empty", k)
		}
		if seen[tab] {
			t.Errorf("tab %q used twice", tab)
		}
		seen[tab] = true
		if len(Header(k)) == 0 {
			t.Errorf("Header(%s) is empty", k)
		}
	}
}

func TestRow(t *testing.T) {
	tests := []struct {
		name   string
		record any
		kind   core.RecordKind
	}{
		{"expense", core.Expense{ID: 1, Amount: core.NewMoney(12, 50), Description: "Lunch", Category: core.CategoryFood, Date: core.NewDate(2024, 5, 3)}, core.KindExpense},
		{"loan", core.LoanTransaction{ID: 2, PersonName: "Alice", LoanType: core.LoanGiven, Amount: core.NewMoney(100, 0), Date: core.NewDate(2024, 5, 1)}, core.KindLoan},
		{"committee", core.Committee{ID: 3, Name: "ROSCA", StartDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 6, 30)}, core.KindCommittee},
		{"payment", core.CommitteePayment{ID: 4, CommitteeID: 3, Amount: core.NewMoney(100, 0), PaymentDate: core.NewDate(2024, 5, 1), MonthYear: core.MustParseMonth("2024-05")}, core.KindCommitteePayment},
		{"income", core.IncomeRecord{ID: 5, Amount: core.NewMoney(900, 0), Source: "Salary", MonthYear: core.MustParseMonth("2024-05")}, core.KindIncome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, row, err := Row(tt.record)
			if err != nil {
				t.Fatalf("Row() error = %v", err)
			}
			if kind != tt.kind {
				t.Errorf("Row() kind = %s, want %s", kind, tt.kind)
			}
			if len(row) != len(Header(kind)) {
				t.Errorf("Row() has %d cells, header has %d", len(row), len(Header(kind)))
			}
		})
	}

	_, row, _ := Row(core.Expense{ID: 1, Amount: core.NewMoney(12, 50), Date: core.NewDate(2024, 5, 3), Tags: []string{"work", "lunch"}})
	if row[1] != "2024-05-03" || row[2] != "2024-05" || row[5] != 12.5 || row[9] != "work, lunch" {
		t.Errorf("expense row = %v", row)
	}

	if _, _, err := Row("nope"); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("Row(string) error = %v, want ErrInvalidArgument", err)
	}
}
