package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kharcha/internal/core"
	"kharcha/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the Store backed by a SQLite file.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it to the latest schema.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("SQLite store ready", "db_path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) insert(ctx context.Context, what, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", what, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", what, err)
	}
	return id, nil
}

// --- expenses

const expenseColumns = `id, amount_cents, description, category, date, location, notes, payment_method, tags`

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	id, err := r.insert(ctx, "expense",
		`INSERT INTO expenses (amount_cents, description, category, date, location, notes, payment_method, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Amount.Cents, e.Description, string(e.Category), e.Date.String(), e.Location, e.Notes, e.PaymentMethod, core.JoinTags(e.Tags))
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = id
	r.logger.InfoContext(ctx, "Expense stored", log.FieldRecordID, id, log.FieldAmountCents, e.Amount.Cents, log.FieldCategory, string(e.Category))
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return collect(rows, scanExpense)
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	return e, notFound(err, "expense", id)
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e              core.Expense
		cat, day, tags string
	)
	if err := s.Scan(&e.ID, &e.Amount.Cents, &e.Description, &cat, &day, &e.Location, &e.Notes, &e.PaymentMethod, &tags); err != nil {
		return e, err
	}
	e.Category = core.Category(cat)
	e.Tags = core.ParseTags(tags)
	d, err := core.ParseDate(day)
	if err != nil {
		return e, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.Date = d
	return e, nil
}

// --- loans

const loanColumns = `id, person_name, loan_type, amount_cents, description, date, due_date, interest_rate, notes`

func (r *SQLiteRepository) CreateLoan(ctx context.Context, l core.LoanTransaction) (core.LoanTransaction, error) {
	if err := l.Validate(); err != nil {
		return core.LoanTransaction{}, err
	}
	id, err := r.insert(ctx, "loan",
		`INSERT INTO loans (person_name, loan_type, amount_cents, description, date, due_date, interest_rate, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.PersonName, string(l.LoanType), l.Amount.Cents, l.Description, l.Date.String(),
		nullDate(l.DueDate), l.InterestRate.String(), l.Notes)
	if err != nil {
		return core.LoanTransaction{}, err
	}
	l.ID = id
	r.logger.InfoContext(ctx, "Loan stored", log.FieldRecordID, id, log.FieldPerson, l.PersonName, log.FieldAmountCents, l.Amount.Cents)
	return l, nil
}

func (r *SQLiteRepository) ListLoans(ctx context.Context) ([]core.LoanTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return collect(rows, scanLoan)
}

func (r *SQLiteRepository) GetLoan(ctx context.Context, id int64) (core.LoanTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
	l, err := scanLoan(row)
	return l, notFound(err, "loan", id)
}

func scanLoan(s scanner) (core.LoanTransaction, error) {
	var (
		l              core.LoanTransaction
		typ, day, rate string
		due            sql.NullString
	)
	if err := s.Scan(&l.ID, &l.PersonName, &typ, &l.Amount.Cents, &l.Description, &day, &due, &rate, &l.Notes); err != nil {
		return l, err
	}
	l.LoanType = core.LoanType(typ)
	var err error
	if l.Date, err = core.ParseDate(day); err != nil {
		return l, fmt.Errorf("loan %d: %w", l.ID, err)
	}
	if l.DueDate, err = parseNullDate(due); err != nil {
		return l, fmt.Errorf("loan %d: %w", l.ID, err)
	}
	if l.InterestRate, err = core.ParseRate(rate); err != nil {
		return l, fmt.Errorf("loan %d: %w", l.ID, err)
	}
	return l, nil
}

// --- committees

const committeeColumns = `id, name, start_date, end_date, monthly_amount_cents, expected_receiving_amount_cents, expected_receiving_date`

func (r *SQLiteRepository) CreateCommittee(ctx context.Context, c core.Committee) (core.Committee, error) {
	if err := c.Validate(); err != nil {
		return core.Committee{}, err
	}
	id, err := r.insert(ctx, "committee",
		`INSERT INTO committees (name, start_date, end_date, monthly_amount_cents, expected_receiving_amount_cents, expected_receiving_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.StartDate.String(), c.EndDate.String(), c.MonthlyAmount.Cents,
		c.ExpectedReceivingAmount.Cents, nullDate(c.ExpectedReceivingDate))
	if err != nil {
		return core.Committee{}, err
	}
	c.ID = id
	c.Payments = nil
	c.Status = core.CommitteeActive
	c.TotalPaid = core.Zero
	r.logger.InfoContext(ctx, "Committee stored", log.FieldRecordID, id)
	return c, nil
}

func (r *SQLiteRepository) ListCommittees(ctx context.Context) ([]core.Committee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+committeeColumns+` FROM committees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list committees: %w", err)
	}
	return collect(rows, scanCommittee)
}

func (r *SQLiteRepository) GetCommittee(ctx context.Context, id int64) (core.Committee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+committeeColumns+` FROM committees WHERE id = ?`, id)
	c, err := scanCommittee(row)
	return c, notFound(err, "committee", id)
}

func scanCommittee(s scanner) (core.Committee, error) {
	var (
		c          core.Committee
		start, end string
		recv       sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Name, &start, &end, &c.MonthlyAmount.Cents, &c.ExpectedReceivingAmount.Cents, &recv); err != nil {
		return c, err
	}
	var err error
	if c.StartDate, err = core.ParseDate(start); err != nil {
		return c, fmt.Errorf("committee %d: %w", c.ID, err)
	}
	if c.EndDate, err = core.ParseDate(end); err != nil {
		return c, fmt.Errorf("committee %d: %w", c.ID, err)
	}
	if c.ExpectedReceivingDate, err = parseNullDate(recv); err != nil {
		return c, fmt.Errorf("committee %d: %w", c.ID, err)
	}
	return c, nil
}

// --- committee payments

const paymentColumns = `id, committee_id, amount_cents, payment_date, month_year`

func (r *SQLiteRepository) CreateCommitteePayment(ctx context.Context, p core.CommitteePayment) (core.CommitteePayment, error) {
	if err := p.Validate(); err != nil {
		return core.CommitteePayment{}, err
	}
	if _, err := r.GetCommittee(ctx, p.CommitteeID); err != nil {
		return core.CommitteePayment{}, err
	}
	id, err := r.insert(ctx, "committee payment",
		`INSERT INTO committee_payments (committee_id, amount_cents, payment_date, month_year) VALUES (?, ?, ?, ?)`,
		p.CommitteeID, p.Amount.Cents, p.PaymentDate.String(), p.MonthYear.String())
	if err != nil {
		return core.CommitteePayment{}, err
	}
	p.ID = id
	r.logger.InfoContext(ctx, "Committee payment stored", log.FieldRecordID, id, "committee_id", p.CommitteeID, log.FieldMonthKey, p.MonthYear.String())
	return p, nil
}

func (r *SQLiteRepository) ListCommitteePayments(ctx context.Context) ([]core.CommitteePayment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentColumns+` FROM committee_payments ORDER BY payment_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list committee payments: %w", err)
	}
	return collect(rows, scanPayment)
}

func (r *SQLiteRepository) GetCommitteePayment(ctx context.Context, id int64) (core.CommitteePayment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM committee_payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	return p, notFound(err, "committee payment", id)
}

func scanPayment(s scanner) (core.CommitteePayment, error) {
	var (
		p          core.CommitteePayment
		day, month string
	)
	if err := s.Scan(&p.ID, &p.CommitteeID, &p.Amount.Cents, &day, &month); err != nil {
		return p, err
	}
	var err error
	if p.PaymentDate, err = core.ParseDate(day); err != nil {
		return p, fmt.Errorf("committee payment %d: %w", p.ID, err)
	}
	if p.MonthYear, err = core.ParseMonth(month); err != nil {
		return p, fmt.Errorf("committee payment %d: %w", p.ID, err)
	}
	return p, nil
}

// --- income

const incomeColumns = `id, amount_cents, source, month_year`

func (r *SQLiteRepository) CreateIncome(ctx context.Context, i core.IncomeRecord) (core.IncomeRecord, error) {
	if err := i.Validate(); err != nil {
		return core.IncomeRecord{}, err
	}
	id, err := r.insert(ctx, "income",
		`INSERT INTO monthly_income (amount_cents, source, month_year) VALUES (?, ?, ?)`,
		i.Amount.Cents, i.Source, i.MonthYear.String())
	if err != nil {
		return core.IncomeRecord{}, err
	}
	i.ID = id
	r.logger.InfoContext(ctx, "Income stored", log.FieldRecordID, id, log.FieldMonthKey, i.MonthYear.String())
	return i, nil
}

func (r *SQLiteRepository) ListIncome(ctx context.Context) ([]core.IncomeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+incomeColumns+` FROM monthly_income ORDER BY month_year, id`)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return collect(rows, scanIncome)
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.IncomeRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+incomeColumns+` FROM monthly_income WHERE id = ?`, id)
	i, err := scanIncome(row)
	return i, notFound(err, "income", id)
}

func scanIncome(s scanner) (core.IncomeRecord, error) {
	var (
		i     core.IncomeRecord
		month string
	)
	if err := s.Scan(&i.ID, &i.Amount.Cents, &i.Source, &month); err != nil {
		return i, err
	}
	m, err := core.ParseMonth(month)
	if err != nil {
		return i, fmt.Errorf("income %d: %w", i.ID, err)
	}
	i.MonthYear = m
	return i, nil
}

// --- reference data

func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, error) {
	return r.names(ctx, `SELECT name FROM categories ORDER BY id`)
}

func (r *SQLiteRepository) PaymentMethods(ctx context.Context) ([]string, error) {
	return r.names(ctx, `SELECT name FROM payment_methods WHERE is_active = 1 ORDER BY id`)
}

func (r *SQLiteRepository) names(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	return collect(rows, func(s scanner) (string, error) {
		var n string
		err := s.Scan(&n)
		return n, err
	})
}

// --- mirror log

func (r *SQLiteRepository) MirrorRef(ctx context.Context, kind core.RecordKind, id int64) (string, bool, error) {
	var ref string
	err := r.db.QueryRowContext(ctx,
		`SELECT sheets_ref FROM mirror_log WHERE kind = ? AND record_id = ?`, string(kind), id).Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read mirror log: %w", err)
	}
	return ref, true, nil
}

func (r *SQLiteRepository) MarkMirrored(ctx context.Context, kind core.RecordKind, id int64, ref string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mirror_log (kind, record_id, sheets_ref) VALUES (?, ?, ?)
		 ON CONFLICT (kind, record_id) DO UPDATE SET sheets_ref = excluded.sheets_ref, mirrored_at = CURRENT_TIMESTAMP`,
		string(kind), id, ref)
	if err != nil {
		return fmt.Errorf("write mirror log: %w", err)
	}
	r.logger.DebugContext(ctx, "Record marked as mirrored", log.FieldRecordKind, string(kind), log.FieldRecordID, id, log.FieldSheetsRef, ref)
	return nil
}

// --- helpers

type scanner interface {
	Scan(dest ...any) error
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}

func nullDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s.String)
}
