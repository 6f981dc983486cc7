// Package gateway is the typed client for the dashboard REST API.
//
// Submissions are validated locally first; a ValidationError never causes a
// request. Any network failure or non-2xx response becomes a TransportError.
// The client keeps no local state, so a failed submission leaves nothing to
// roll back. Refreshing dependent views after a successful write is the
// caller's job (see the refresh package and Form.OnSuccess).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kharcha/internal/core"
	"kharcha/internal/log"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second
	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 4 << 10
)

// Client talks to the API rooted at baseURL (e.g. http://localhost:8081/api).
type Client struct {
	baseURL   string
	http      *http.Client
	validator *Validator
	now       func() time.Time
	logger    *log.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock sets the clock used by editability checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client. baseURL must include the /api prefix.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		now:     time.Now,
		logger:  log.FromSlog(nil, log.ComponentGateway),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.validator = NewValidator(c.now)
	return c
}

// Now returns the client's notion of the current time.
func (c *Client) Now() time.Time { return c.now() }

// do sends one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	c.logger.DebugContext(ctx, "API request", log.FieldMethod, method, log.FieldPath, path, log.FieldRequestID, reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "API request failed", log.FieldMethod, method, log.FieldPath, path, log.FieldError, err)
		return &TransportError{Method: method, Path: path, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "API response",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds(),
		log.FieldRequestID, reqID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		te := &TransportError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
		c.logger.WarnContext(ctx, "API error response", log.FieldMethod, method, log.FieldPath, path, log.FieldStatusCode, resp.StatusCode, log.FieldError, te.Message)
		return te
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: "malformed response body", Err: err}
	}
	return nil
}

// errorMessage extracts {"error": "..."} bodies, falling back to raw text.
func errorMessage(raw []byte, status string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return status
}

func (c *Client) Overview(ctx context.Context) (core.DashboardOverview, error) {
	var out core.DashboardOverview
	err := c.do(ctx, http.MethodGet, "/dashboard/overview", nil, &out)
	return out, err
}

func (c *Client) Expenses(ctx context.Context) ([]core.Expense, error) {
	var out []core.Expense
	if err := c.do(ctx, http.MethodGet, "/expenses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Loans(ctx context.Context) (map[string]core.PersonLoanLedger, error) {
	out := map[string]core.PersonLoanLedger{}
	if err := c.do(ctx, http.MethodGet, "/loans", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Committees(ctx context.Context) ([]core.Committee, error) {
	var out []core.Committee
	if err := c.do(ctx, http.MethodGet, "/committees", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PaymentMethods(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/payment-methods", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MonthlySummary fetches all monthly summaries. Categories the server left
// out are filled with zero so every month covers every category.
func (c *Client) MonthlySummary(ctx context.Context) (map[core.Month]core.MonthlySummary, error) {
	out := map[core.Month]core.MonthlySummary{}
	if err := c.do(ctx, http.MethodGet, "/analytics/monthly-summary", nil, &out); err != nil {
		return nil, err
	}
	for m, s := range out {
		full := core.NewMonthlySummary()
		for cat, v := range s.Expenses {
			full.Expenses[cat] = v
		}
		s.Expenses = full.Expenses
		out[m] = s
	}
	return out, nil
}

func (c *Client) LoanTimeline(ctx context.Context) ([]core.LoanTimelinePoint, error) {
	var out []core.LoanTimelinePoint
	if err := c.do(ctx, http.MethodGet, "/analytics/loan-timeline", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) NetValues(ctx context.Context, m core.Month) (core.NetValuesSnapshot, error) {
	var out core.NetValuesSnapshot
	err := c.do(ctx, http.MethodGet, "/analytics/net-values/"+url.PathEscape(m.String()), nil, &out)
	if err == nil && out.Month.IsZero() {
		out.Month = m
	}
	return out, err
}

// NetValuesTrailing fetches snapshots for the n months ending at last,
// oldest first. Requests run concurrently; the first failure cancels the rest.
func (c *Client) NetValuesTrailing(ctx context.Context, last core.Month, n int) ([]core.NetValuesSnapshot, error) {
	months := core.TrailingMonths(last, n)
	out := make([]core.NetValuesSnapshot, len(months))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, m := range months {
		g.Go(func() error {
			snap, err := c.NetValues(gctx, m)
			if err != nil {
				return err
			}
			out[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecentSpending(ctx context.Context) (core.RecentSpending, error) {
	var out core.RecentSpending
	err := c.do(ctx, http.MethodGet, "/analytics/last-20-days", nil, &out)
	return out, err
}

func (c *Client) Status(ctx context.Context) (core.Status, error) {
	var out core.Status
	err := c.do(ctx, http.MethodGet, "/status", nil, &out)
	return out, err
}

// ValidateExpense checks in and returns the record that would be sent.
func (c *Client) ValidateExpense(in ExpenseInput) (core.Expense, error) {
	if err := c.validator.Struct(in); err != nil {
		return core.Expense{}, err
	}
	return in.record()
}

func (c *Client) ValidateLoan(in LoanInput) (core.LoanTransaction, error) {
	if err := c.validator.Struct(in); err != nil {
		return core.LoanTransaction{}, err
	}
	return in.record()
}

func (c *Client) ValidateCommittee(in CommitteeInput) (core.Committee, error) {
	if err := c.validator.Struct(in); err != nil {
		return core.Committee{}, err
	}
	rec, err := in.record()
	if err != nil {
		return rec, err
	}
	if err := rec.Validate(); errors.Is(err, core.ErrInvalidPeriod) {
		return rec, &ValidationError{Fields: []FieldError{{Field: "end_date", Tag: "period", Message: err.Error()}}}
	}
	return rec, nil
}

func (c *Client) ValidateCommitteePayment(in CommitteePaymentInput) (core.CommitteePayment, error) {
	if err := c.validator.Struct(in); err != nil {
		return core.CommitteePayment{}, err
	}
	return in.record()
}

func (c *Client) ValidateIncome(in IncomeInput) (core.IncomeRecord, error) {
	if err := c.validator.Struct(in); err != nil {
		return core.IncomeRecord{}, err
	}
	return in.record()
}

// CreateExpense validates in and posts it.
func (c *Client) CreateExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	rec, err := c.ValidateExpense(in)
	if err != nil {
		return core.Expense{}, err
	}
	var out core.Expense
	if err := c.do(ctx, http.MethodPost, "/expenses", rec, &out); err != nil {
		return core.Expense{}, err
	}
	return out, nil
}

func (c *Client) CreateLoan(ctx context.Context, in LoanInput) (core.LoanTransaction, error) {
	rec, err := c.ValidateLoan(in)
	if err != nil {
		return core.LoanTransaction{}, err
	}
	var out core.LoanTransaction
	if err := c.do(ctx, http.MethodPost, "/loans", rec, &out); err != nil {
		return core.LoanTransaction{}, err
	}
	return out, nil
}

// committeeBody omits the derived fields the server computes.
type committeeBody struct {
	Name                    string     `json:"name"`
	StartDate               core.Date  `json:"start_date"`
	EndDate                 core.Date  `json:"end_date"`
	MonthlyAmount           core.Money `json:"monthly_amount"`
	ExpectedReceivingAmount core.Money `json:"expected_receiving_amount"`
	ExpectedReceivingDate   core.Date  `json:"expected_receiving_date"`
}

func (c *Client) CreateCommittee(ctx context.Context, in CommitteeInput) (core.Committee, error) {
	rec, err := c.ValidateCommittee(in)
	if err != nil {
		return core.Committee{}, err
	}
	body := committeeBody{
		Name:                    rec.Name,
		StartDate:               rec.StartDate,
		EndDate:                 rec.EndDate,
		MonthlyAmount:           rec.MonthlyAmount,
		ExpectedReceivingAmount: rec.ExpectedReceivingAmount,
		ExpectedReceivingDate:   rec.ExpectedReceivingDate,
	}
	var out core.Committee
	if err := c.do(ctx, http.MethodPost, "/committees", body, &out); err != nil {
		return core.Committee{}, err
	}
	return out, nil
}

func (c *Client) CreateCommitteePayment(ctx context.Context, in CommitteePaymentInput) (core.CommitteePayment, error) {
	rec, err := c.ValidateCommitteePayment(in)
	if err != nil {
		return core.CommitteePayment{}, err
	}
	var out core.CommitteePayment
	path := fmt.Sprintf("/committees/%d/payment", rec.CommitteeID)
	if err := c.do(ctx, http.MethodPost, path, rec, &out); err != nil {
		return core.CommitteePayment{}, err
	}
	return out, nil
}

func (c *Client) CreateIncome(ctx context.Context, in IncomeInput) (core.IncomeRecord, error) {
	rec, err := c.ValidateIncome(in)
	if err != nil {
		return core.IncomeRecord{}, err
	}
	var out core.IncomeRecord
	if err := c.do(ctx, http.MethodPost, "/income", rec, &out); err != nil {
		return core.IncomeRecord{}, err
	}
	return out, nil
}
