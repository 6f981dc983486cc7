// Package export writes derived dashboard views to an XLSX workbook.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"kharcha/internal/core"
)

const (
	SheetSummary  = "Monthly Summary"
	SheetLoans    = "Loans"
	SheetTimeline = "Loan Timeline"
)

// Data is the set of views exported together.
type Data struct {
	Summaries map[core.Month]core.MonthlySummary
	Ledgers   map[string]core.PersonLoanLedger
	Timeline  []core.LoanTimelinePoint
	// AsOf decides the Editable column of the summary sheet.
	AsOf time.Time
}

// Build lays out one sheet per view. Amounts are numeric cells in base
// units.
func Build(d Data) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetLoans, SheetTimeline} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	for _, fill := range []func(*excelize.File, Data, int) error{summarySheet, loansSheet, timelineSheet} {
		if err := fill(f, d, bold); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// XLSX renders the workbook to bytes.
func XLSX(d Data) ([]byte, error) {
	f, err := Build(d)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func header(f *excelize.File, sheet string, style int, cols ...string) error {
	values := make([]any, len(cols))
	for i, c := range cols {
		values[i] = c
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func summarySheet(f *excelize.File, d Data, style int) error {
	cols := []string{"Month"}
	for _, c := range core.AllCategories {
		cols = append(cols, string(c))
	}
	cols = append(cols, "Committee Payments", "Total Expenses", "Income", "Savings", "Editable")
	if err := header(f, SheetSummary, style, cols...); err != nil {
		return err
	}

	months := make([]core.Month, 0, len(d.Summaries))
	for m := range d.Summaries {
		months = append(months, m)
	}
	core.SortMonths(months)

	for i, m := range months {
		s := d.Summaries[m]
		row := []any{m.String()}
		for _, c := range core.AllCategories {
			row = append(row, s.Expenses[c].Float())
		}
		row = append(row, s.CommitteePayments.Float(), s.TotalExpenses.Float(), s.Income.Float(), s.Savings.Float(), core.MonthEditable(m, d.AsOf))
		if err := writeRow(f, SheetSummary, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 10)
}

func loansSheet(f *excelize.File, d Data, style int) error {
	if err := header(f, SheetLoans, style, "Person", "Given", "Taken", "Received Back", "Net", "Transactions"); err != nil {
		return err
	}
	people := make([]string, 0, len(d.Ledgers))
	for p := range d.Ledgers {
		people = append(people, p)
	}
	sort.Strings(people)

	for i, p := range people {
		l := d.Ledgers[p]
		row := []any{p, l.Given.Float(), l.Taken.Float(), l.ReceivedBack.Float(), l.NetAmount.Float(), len(l.Transactions)}
		if err := writeRow(f, SheetLoans, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetLoans, "A", "A", 24)
}

func timelineSheet(f *excelize.File, d Data, style int) error {
	if err := header(f, SheetTimeline, style, "Date", "Month", "Person", "Type", "Amount", "Cumulative Net", "Description"); err != nil {
		return err
	}
	for i, p := range d.Timeline {
		row := []any{p.Date.String(), p.Month.String(), p.Person, string(p.Type), p.Amount.Float(), p.CumulativeNet.Float(), p.Description}
		if err := writeRow(f, SheetTimeline, i+2, row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetTimeline, "A", "B", 12)
	_ = f.SetColWidth(SheetTimeline, "C", "C", 24)
	return f.SetColWidth(SheetTimeline, "G", "G", 40)
}
