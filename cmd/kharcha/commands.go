package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/core"
	"kharcha/internal/export"
	"kharcha/internal/gateway"
	"kharcha/internal/log"
	"kharcha/internal/refresh"
)

var errUsage = errors.New("usage")

type app struct {
	client    *gateway.Client
	refresher *refresh.Refresher
	out       io.Writer
	logger    *log.Logger
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"view":          {"print derived views: view [overview|expenses|loans|committees|monthly_summary|loan_timeline|net_values|recent_spending]...", runView},
	"status":        {"print all-time totals", runStatus},
	"categories":    {"print categories and payment methods", runCategories},
	"editable":      {"report whether a month still accepts records: editable [-month YYYY-MM]", runEditable},
	"add-expense":   {"record an expense", runAddExpense},
	"add-loan":      {"record a loan transaction", runAddLoan},
	"add-committee": {"create a committee", runAddCommittee},
	"pay-committee": {"record a committee payment", runPayCommittee},
	"add-income":    {"record income for a month", runAddIncome},
	"export":        {"write summaries and loans to an XLSX workbook: export -o file.xlsx", runExport},
}

// clientConfig is what run needs from the environment.
type clientConfig struct {
	BaseURL  string
	CacheTTL time.Duration
	Logger   *log.Logger
	Gateway  []gateway.Option
}

func run(ctx context.Context, args []string, out io.Writer, cc clientConfig) error {
	if len(args) == 0 {
		usage(out)
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}

	logger := cc.Logger
	if logger == nil {
		logger = log.Discard()
	}
	client := gateway.New(cc.BaseURL, append([]gateway.Option{gateway.WithLogger(logger)}, cc.Gateway...)...)
	ropts := []refresh.Option{refresh.WithLogger(logger)}
	if cc.CacheTTL > 0 {
		ropts = append(ropts, refresh.WithTTL(cc.CacheTTL))
	}
	a := &app{
		client:    client,
		refresher: refresh.New(client, ropts...),
		out:       out,
		logger:    logger,
	}
	return cmd.run(ctx, a, args[1:])
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: kharcha <command> [flags]")
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func runView(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		all, err := a.refresher.RefreshAll(ctx)
		if err != nil {
			return err
		}
		out := make(map[refresh.View]any, len(all))
		for v, s := range all {
			out[v] = s.Data
		}
		return a.print(out)
	}
	for _, name := range args {
		v, err := refresh.ParseView(name)
		if err != nil {
			return err
		}
		s, err := a.refresher.Get(ctx, v)
		if err != nil {
			return err
		}
		if err := a.print(s.Data); err != nil {
			return err
		}
	}
	return nil
}

func runStatus(ctx context.Context, a *app, _ []string) error {
	s, err := a.client.Status(ctx)
	if err != nil {
		return err
	}
	return a.print(s)
}

func runCategories(ctx context.Context, a *app, _ []string) error {
	var cats, methods []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { cats, err = a.client.Categories(gctx); return })
	g.Go(func() (err error) { methods, err = a.client.PaymentMethods(gctx); return })
	if err := g.Wait(); err != nil {
		return err
	}
	return a.print(map[string][]string{"categories": cats, "payment_methods": methods})
}

func runEditable(_ context.Context, a *app, args []string) error {
	fs := newFlags("editable")
	month := fs.String("month", core.MonthOf(a.client.Now()).String(), "month key, YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ok, err := core.IsEditable(*month, a.client.Now())
	if err != nil {
		return err
	}
	state := "locked"
	if ok {
		state = "editable"
	}
	_, err = fmt.Fprintf(a.out, "%s: %s\n", *month, state)
	return err
}

// submit sends in through form and refreshes the views fed by kind once the
// server confirmed the write.
func submit[In, Out any](ctx context.Context, a *app, kind core.RecordKind, form *gateway.Form[In, Out], in In) error {
	form.OnSuccess = func(ctx context.Context, _ Out) {
		refreshed, err := a.refresher.RecordCreated(ctx, kind)
		if err != nil {
			a.logger.WarnContext(ctx, "Some views failed to refresh", log.FieldRecordKind, string(kind), log.FieldError, err)
		}
		a.logger.DebugContext(ctx, "Views refreshed", log.FieldRecordKind, string(kind), "views", fmt.Sprint(refreshed))
	}
	out, err := form.Submit(ctx, in)
	if err != nil {
		return err
	}
	return a.print(out)
}

func runAddExpense(ctx context.Context, a *app, args []string) error {
	var in gateway.ExpenseInput
	fs := newFlags("add-expense")
	fs.StringVar(&in.Amount, "amount", "", "amount, e.g. 12.50")
	fs.StringVar(&in.Description, "description", "", "what it was for")
	fs.StringVar(&in.Category, "category", "", "one of "+strings.Join(core.CategoryNames(), ", "))
	fs.StringVar(&in.Date, "date", core.DateOf(a.client.Now()).String(), "YYYY-MM-DD")
	fs.StringVar(&in.Location, "location", "", "optional")
	fs.StringVar(&in.Notes, "notes", "", "optional")
	fs.StringVar(&in.PaymentMethod, "payment-method", "", "optional")
	fs.StringVar(&in.Tags, "tags", "", "optional, comma separated")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return submit(ctx, a, core.KindExpense, a.client.ExpenseForm(), in)
}

func runAddLoan(ctx context.Context, a *app, args []string) error {
	var in gateway.LoanInput
	fs := newFlags("add-loan")
	fs.StringVar(&in.PersonName, "person", "", "counterparty")
	fs.StringVar(&in.LoanType, "type", string(core.LoanGiven), "given, taken or received_back")
	fs.StringVar(&in.Amount, "amount", "", "amount")
	fs.StringVar(&in.Date, "date", core.DateOf(a.client.Now()).String(), "YYYY-MM-DD")
	fs.StringVar(&in.DueDate, "due", "", "optional due date")
	fs.StringVar(&in.InterestRate, "rate", "", "optional interest rate, percent per annum")
	fs.StringVar(&in.Description, "description", "", "optional")
	fs.StringVar(&in.Notes, "notes", "", "optional")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return submit(ctx, a, core.KindLoan, a.client.LoanForm(), in)
}

func runAddCommittee(ctx context.Context, a *app, args []string) error {
	var in gateway.CommitteeInput
	fs := newFlags("add-committee")
	fs.StringVar(&in.Name, "name", "", "committee name")
	fs.StringVar(&in.StartDate, "start", "", "YYYY-MM-DD")
	fs.StringVar(&in.EndDate, "end", "", "YYYY-MM-DD")
	fs.StringVar(&in.MonthlyAmount, "monthly", "", "monthly contribution")
	fs.StringVar(&in.ExpectedReceivingAmount, "expected", "", "payout amount")
	fs.StringVar(&in.ExpectedReceivingDate, "expected-date", "", "optional payout date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return submit(ctx, a, core.KindCommittee, a.client.CommitteeForm(), in)
}

func runPayCommittee(ctx context.Context, a *app, args []string) error {
	var in gateway.CommitteePaymentInput
	now := a.client.Now()
	fs := newFlags("pay-committee")
	fs.Int64Var(&in.CommitteeID, "committee", 0, "committee ID")
	fs.StringVar(&in.Amount, "amount", "", "amount paid")
	fs.StringVar(&in.PaymentDate, "date", core.DateOf(now).String(), "YYYY-MM-DD")
	fs.StringVar(&in.MonthYear, "month", core.MonthOf(now).String(), "month the payment counts for, YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return submit(ctx, a, core.KindCommitteePayment, a.client.CommitteePaymentForm(), in)
}

func runAddIncome(ctx context.Context, a *app, args []string) error {
	var in gateway.IncomeInput
	fs := newFlags("add-income")
	fs.StringVar(&in.Amount, "amount", "", "amount")
	fs.StringVar(&in.Source, "source", "", "e.g. Salary")
	fs.StringVar(&in.MonthYear, "month", core.MonthOf(a.client.Now()).String(), "YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return submit(ctx, a, core.KindIncome, a.client.IncomeForm(), in)
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := newFlags("export")
	path := fs.String("o", "kharcha.xlsx", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d := export.Data{AsOf: a.client.Now()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { d.Summaries, err = a.client.MonthlySummary(gctx); return })
	g.Go(func() (err error) { d.Ledgers, err = a.client.Loans(gctx); return })
	g.Go(func() (err error) { d.Timeline, err = a.client.LoanTimeline(gctx); return })
	if err := g.Wait(); err != nil {
		return err
	}

	b, err := export.XLSX(d)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if err := os.WriteFile(*path, b, 0644); err != nil {
		return fmt.Errorf("write %s: %w", *path, err)
	}
	a.logger.InfoContext(ctx, "Workbook exported", log.FieldOperation, log.OpExport, "path", *path, "months", len(d.Summaries))
	_, err = fmt.Fprintln(a.out, *path)
	return err
}
