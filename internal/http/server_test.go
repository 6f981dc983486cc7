package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/refresh"
	"kharcha/internal/services"
	"kharcha/internal/storage"
)

func fixedClock() time.Time { return time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T, store storage.Store, opts ...Option) *Server {
	t.Helper()
	if store == nil {
		store = storage.NewMemoryStore()
	}
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	srv := NewServer(":0", services.NewRecordService(store, nil, nil), opts...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T from %q: %v", v, rr.Body.String(), err)
	}
	return v
}

const (
	expenseBody   = `{"amount": 12.50, "description": "Lunch", "category": "Food", "date": "2024-05-10"}`
	loanGivenBody = `{"person_name": "Alice", "loan_type": "given", "amount": 100, "date": "2024-05-01"}`
	loanTakenBody = `{"person_name": "Bob", "loan_type": "taken", "amount": 40, "date": "2024-05-03"}`
	committeeBody = `{"name": "ROSCA", "start_date": "2024-01-01", "end_date": "2024-06-30", "monthly_amount": 100, "expected_receiving_amount": 600, "expected_receiving_date": "2024-06-30"}`
	paymentBody   = `{"amount": 100, "payment_date": "2024-05-02", "month_year": "2024-05"}`
	incomeBody    = `{"amount": 1000, "source": "Salary", "month_year": "2024-05"}`
)

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv.Handler, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rr.Code)
		}
	}
}

type failingStore struct {
	storage.Store
}

func (failingStore) Ping(context.Context) error { return errors.New("database is closed") }
func (failingStore) ListExpenses(context.Context) ([]core.Expense, error) {
	return nil, errors.New("database is closed")
}

func TestStoreFailures(t *testing.T) {
	srv := newTestServer(t, failingStore{storage.NewMemoryStore()})

	if rr := do(t, srv.Handler, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /readyz status = %d, want 503", rr.Code)
	}

	rr := do(t, srv.Handler, http.MethodGet, "/api/expenses", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("GET /api/expenses status = %d, want 500", rr.Code)
	}
	if body := decode[errorBody](t, rr); body.Error != "internal server error" {
		t.Errorf("error body = %q, want a generic message", body.Error)
	}
}

func TestCreateRecords_StatusCodes(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		committee bool
		want      int
		wantErr   string
	}{
		{name: "expense", path: "/api/expenses", body: expenseBody, want: http.StatusCreated},
		{name: "expense malformed json", path: "/api/expenses", body: `{"amount": `, want: http.StatusBadRequest},
		{name: "expense negative amount", path: "/api/expenses", body: `{"amount": -1, "description": "x", "category": "Food", "date": "2024-05-10"}`, want: http.StatusUnprocessableEntity, wantErr: "negative"},
		{name: "expense unknown category", path: "/api/expenses", body: `{"amount": 1, "description": "x", "category": "Gadgets", "date": "2024-05-10"}`, want: http.StatusUnprocessableEntity, wantErr: "category"},
		{name: "expense bad amount", path: "/api/expenses", body: `{"amount": "lots", "description": "x", "category": "Food", "date": "2024-05-10"}`, want: http.StatusUnprocessableEntity},
		{name: "expense huge exponent", path: "/api/expenses", body: `{"amount": 1e999999999, "description": "x", "category": "Food", "date": "2024-05-10"}`, want: http.StatusUnprocessableEntity, wantErr: "invalid amount"},
		{name: "expense above max amount", path: "/api/expenses", body: `{"amount": 92233720368547758.07, "description": "x", "category": "Food", "date": "2024-05-10"}`, want: http.StatusUnprocessableEntity, wantErr: "invalid amount"},
		{name: "loan huge rate exponent", path: "/api/loans", body: `{"person_name": "Alice", "loan_type": "given", "amount": 1, "date": "2024-05-01", "interest_rate": 1e999999999}`, want: http.StatusUnprocessableEntity},
		{name: "expense in locked month", path: "/api/expenses", body: `{"amount": 1, "description": "x", "category": "Food", "date": "2024-02-29"}`, want: http.StatusUnprocessableEntity, wantErr: "no longer editable"},
		{name: "expense in future month", path: "/api/expenses", body: `{"amount": 1, "description": "x", "category": "Food", "date": "2024-06-01"}`, want: http.StatusUnprocessableEntity, wantErr: "no longer editable"},
		{name: "expense oldest editable month", path: "/api/expenses", body: `{"amount": 1, "description": "x", "category": "Food", "date": "2024-03-01"}`, want: http.StatusCreated},
		{name: "loan", path: "/api/loans", body: loanGivenBody, want: http.StatusCreated},
		{name: "old loan is accepted", path: "/api/loans", body: `{"person_name": "Alice", "loan_type": "received_back", "amount": 5, "date": "2023-01-01"}`, want: http.StatusCreated},
		{name: "loan without person", path: "/api/loans", body: `{"person_name": " ", "loan_type": "given", "amount": 1, "date": "2024-05-01"}`, want: http.StatusUnprocessableEntity},
		{name: "loan bad type", path: "/api/loans", body: `{"person_name": "Alice", "loan_type": "lent", "amount": 1, "date": "2024-05-01"}`, want: http.StatusUnprocessableEntity},
		{name: "committee", path: "/api/committees", body: committeeBody, want: http.StatusCreated},
		{name: "committee ends before start", path: "/api/committees", body: `{"name": "x", "start_date": "2024-06-01", "end_date": "2024-01-01", "monthly_amount": 1, "expected_receiving_amount": 1}`, want: http.StatusUnprocessableEntity},
		{name: "payment", path: "/api/committees/1/payment", body: paymentBody, committee: true, want: http.StatusCreated},
		{name: "payment to unknown committee", path: "/api/committees/99/payment", body: paymentBody, want: http.StatusNotFound},
		{name: "payment with bad committee id", path: "/api/committees/abc/payment", body: paymentBody, want: http.StatusBadRequest},
		{name: "payment in locked month", path: "/api/committees/1/payment", body: `{"amount": 100, "payment_date": "2024-01-02", "month_year": "2024-01"}`, committee: true, want: http.StatusUnprocessableEntity},
		{name: "income", path: "/api/income", body: incomeBody, want: http.StatusCreated},
		{name: "income without source", path: "/api/income", body: `{"amount": 1, "source": "", "month_year": "2024-05"}`, want: http.StatusUnprocessableEntity},
		{name: "income in locked month", path: "/api/income", body: `{"amount": 1, "source": "Bonus", "month_year": "2023-12"}`, want: http.StatusUnprocessableEntity, wantErr: "2023-12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, nil)
			if tt.committee {
				if rr := do(t, srv.Handler, http.MethodPost, "/api/committees", committeeBody); rr.Code != http.StatusCreated {
					t.Fatalf("create committee status = %d: %s", rr.Code, rr.Body)
				}
			}

			rr := do(t, srv.Handler, http.MethodPost, tt.path, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("POST %s status = %d, want %d: %s", tt.path, rr.Code, tt.want, rr.Body)
			}
			if tt.want >= 400 {
				body := decode[errorBody](t, rr)
				if body.Error == "" {
					t.Errorf("error response without message: %s", rr.Body)
				}
				if tt.wantErr != "" && !strings.Contains(body.Error, tt.wantErr) {
					t.Errorf("error = %q, want it to contain %q", body.Error, tt.wantErr)
				}
			}
		})
	}
}

func TestCreateRecords_WrongMethod(t *testing.T) {
	srv := newTestServer(t, nil)
	if rr := do(t, srv.Handler, http.MethodDelete, "/api/expenses", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /api/expenses status = %d, want 405", rr.Code)
	}
}

func TestCreateCommittee_IgnoresDerivedFields(t *testing.T) {
	srv := newTestServer(t, nil)
	body := `{"id": 42, "name": "ROSCA", "start_date": "2024-01-01", "end_date": "2024-06-30", "monthly_amount": 100,
		"expected_receiving_amount": 600, "status": "completed", "total_paid": 600, "payments": [{"amount": 600}]}`

	rr := do(t, srv.Handler, http.MethodPost, "/api/committees", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}
	got := decode[core.Committee](t, rr)
	if got.ID != 1 || got.Status != core.CommitteeActive || !got.TotalPaid.IsZero() || len(got.Payments) != 0 {
		t.Errorf("created committee = %+v, want fresh active committee", got)
	}
}

func seed(t *testing.T, h http.Handler) {
	t.Helper()
	for _, req := range []struct{ path, body string }{
		{"/api/committees", committeeBody},
		{"/api/committees/1/payment", paymentBody},
		{"/api/expenses", expenseBody},
		{"/api/loans", loanGivenBody},
		{"/api/loans", loanTakenBody},
		{"/api/income", incomeBody},
	} {
		if rr := do(t, h, http.MethodPost, req.path, req.body); rr.Code != http.StatusCreated {
			t.Fatalf("POST %s status = %d: %s", req.path, rr.Code, rr.Body)
		}
	}
}

func TestViews(t *testing.T) {
	srv := newTestServer(t, nil)
	seed(t, srv.Handler)
	may := core.MustParseMonth("2024-05")

	get := func(path string) *httptest.ResponseRecorder {
		rr := do(t, srv.Handler, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d: %s", path, rr.Code, rr.Body)
		}
		return rr
	}

	t.Run("overview", func(t *testing.T) {
		got := decode[core.DashboardOverview](t, get("/api/dashboard/overview"))
		want := core.DashboardOverview{
			MonthlyIncome:   core.NewMoney(1000, 0),
			MonthlyExpenses: core.NewMoney(112, 50),
			TotalSavings:    core.NewMoney(887, 50),
			NetWorth:        core.NewMoney(947, 50),
			NetLoan:         core.NewMoney(60, 0),
			CurrentMonth:    may,
		}
		if got != want {
			t.Errorf("overview = %+v, want %+v", got, want)
		}
	})

	t.Run("monthly summary", func(t *testing.T) {
		got := decode[map[core.Month]core.MonthlySummary](t, get("/api/analytics/monthly-summary"))
		s, ok := got[may]
		if !ok || len(got) != 1 {
			t.Fatalf("monthly summary = %+v, want one entry for 2024-05", got)
		}
		if s.Expenses[core.CategoryFood] != core.NewMoney(12, 50) {
			t.Errorf("Food = %v, want 12.50", s.Expenses[core.CategoryFood])
		}
		if !s.Expenses[core.CategoryCommittee].IsZero() {
			t.Errorf("Committee category = %v, want 0: payments are not expenses", s.Expenses[core.CategoryCommittee])
		}
		if len(s.Expenses) != len(core.AllCategories) {
			t.Errorf("summary has %d categories, want %d", len(s.Expenses), len(core.AllCategories))
		}
		if s.CommitteePayments != core.NewMoney(100, 0) || s.TotalExpenses != core.NewMoney(112, 50) || s.Savings != core.NewMoney(887, 50) {
			t.Errorf("summary = %+v", s)
		}
	})

	t.Run("net values", func(t *testing.T) {
		got := decode[core.NetValuesSnapshot](t, get("/api/analytics/net-values/2024-05"))
		if got.Month != may || got.LoanGiven != core.NewMoney(100, 0) || got.LoanTaken != core.NewMoney(40, 0) ||
			got.NetLoan != core.NewMoney(60, 0) || got.NetWorth != core.NewMoney(947, 50) {
			t.Errorf("net values = %+v", got)
		}

		empty := decode[core.NetValuesSnapshot](t, get("/api/analytics/net-values/2023-01"))
		if !empty.NetWorth.IsZero() || !empty.Income.IsZero() {
			t.Errorf("net values for a month without records = %+v, want zeros", empty)
		}
	})

	t.Run("net values bad month", func(t *testing.T) {
		if rr := do(t, srv.Handler, http.MethodGet, "/api/analytics/net-values/May", ""); rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("loans", func(t *testing.T) {
		got := decode[map[string]core.PersonLoanLedger](t, get("/api/loans"))
		if got["Alice"].NetAmount != core.NewMoney(100, 0) || got["Bob"].NetAmount != core.NewMoney(-40, 0) {
			t.Errorf("ledgers = %+v", got)
		}
	})

	t.Run("loan timeline", func(t *testing.T) {
		got := decode[[]core.LoanTimelinePoint](t, get("/api/analytics/loan-timeline"))
		if len(got) != 2 || got[0].CumulativeNet != core.NewMoney(100, 0) || got[1].CumulativeNet != core.NewMoney(60, 0) {
			t.Errorf("timeline = %+v", got)
		}
	})

	t.Run("committees", func(t *testing.T) {
		got := decode[[]core.Committee](t, get("/api/committees"))
		if len(got) != 1 {
			t.Fatalf("committees = %+v, want 1", got)
		}
		if got[0].TotalPaid != core.NewMoney(100, 0) || got[0].Status != core.CommitteeActive || len(got[0].Payments) != 1 {
			t.Errorf("committee = %+v", got[0])
		}
	})

	t.Run("expenses exclude committee payments", func(t *testing.T) {
		got := decode[[]core.Expense](t, get("/api/expenses"))
		if len(got) != 1 || got[0].Description != "Lunch" {
			t.Errorf("expenses = %+v, want only the lunch", got)
		}
	})

	t.Run("recent spending", func(t *testing.T) {
		got := decode[core.RecentSpending](t, get("/api/analytics/last-20-days"))
		if got.TotalAmount != core.NewMoney(12, 50) || got.TransactionCount != 1 || got.PeriodDays != 20 {
			t.Errorf("recent spending = %+v", got)
		}
	})

	t.Run("status", func(t *testing.T) {
		got := decode[core.Status](t, get("/api/status"))
		want := core.Status{
			TotalExpenses:   core.NewMoney(12, 50),
			TotalLoansGiven: core.NewMoney(100, 0),
			TotalLoansTaken: core.NewMoney(40, 0),
			NetBalance:      core.NewMoney(60, 0),
		}
		if got != want {
			t.Errorf("status = %+v, want %+v", got, want)
		}
	})

	t.Run("taxonomies", func(t *testing.T) {
		cats := decode[[]string](t, get("/api/categories"))
		if len(cats) != len(core.AllCategories) {
			t.Errorf("categories = %v", cats)
		}
		if methods := decode[[]string](t, get("/api/payment-methods")); len(methods) == 0 {
			t.Error("no payment methods")
		}
	})
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/api/expenses", "/api/committees", "/api/analytics/loan-timeline"} {
		rr := do(t, srv.Handler, http.MethodGet, path, "")
		if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
			t.Errorf("GET %s = %s, want []", path, got)
		}
	}
}

// heldListStore reads the expense list, then holds the first ListExpenses
// call until release is closed.
type heldListStore struct {
	storage.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *heldListStore) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	list, err := s.Store.ListExpenses(ctx)
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return list, err
}

func TestViewCache_ReadBeforeWriteIsNotCached(t *testing.T) {
	store := &heldListStore{Store: storage.NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	srv := newTestServer(t, store)

	held := make(chan *httptest.ResponseRecorder)
	go func() { held <- do(t, srv.Handler, http.MethodGet, "/api/expenses", "") }()
	<-store.entered

	if rr := do(t, srv.Handler, http.MethodPost, "/api/expenses", expenseBody); rr.Code != http.StatusCreated {
		t.Fatalf("POST /api/expenses status = %d: %s", rr.Code, rr.Body)
	}
	close(store.release)
	if got := decode[[]core.Expense](t, <-held); len(got) != 0 {
		t.Fatalf("held GET saw %d expenses, want the pre-write 0", len(got))
	}

	if got := decode[[]core.Expense](t, do(t, srv.Handler, http.MethodGet, "/api/expenses", "")); len(got) != 1 {
		t.Errorf("GET after write = %d expenses, want 1", len(got))
	}
}

func TestViewCache_InvalidatedByWrites(t *testing.T) {
	store := storage.NewMemoryStore()
	srv := newTestServer(t, store)
	ctx := context.Background()

	count := func() int {
		return len(decode[[]core.Expense](t, do(t, srv.Handler, http.MethodGet, "/api/expenses", "")))
	}
	if n := count(); n != 0 {
		t.Fatalf("expenses = %d, want 0", n)
	}

	// A write that bypasses the server is invisible until the view expires.
	if _, err := store.CreateExpense(ctx, core.Expense{Amount: core.NewMoney(1, 0), Description: "Direct", Category: core.CategoryOthers, Date: core.NewDate(2024, 5, 1)}); err != nil {
		t.Fatal(err)
	}
	if n := count(); n != 0 {
		t.Errorf("expenses = %d, want the cached 0", n)
	}

	// A loan does not feed the expense list.
	do(t, srv.Handler, http.MethodPost, "/api/loans", loanGivenBody)
	if n := count(); n != 0 {
		t.Errorf("expenses after a loan = %d, want the cached 0", n)
	}

	do(t, srv.Handler, http.MethodPost, "/api/expenses", expenseBody)
	if n := count(); n != 2 {
		t.Errorf("expenses after POST = %d, want 2", n)
	}
}

func TestViewCache_NetValuesPerMonth(t *testing.T) {
	srv := newTestServer(t, nil)
	get := func(m string) core.NetValuesSnapshot {
		return decode[core.NetValuesSnapshot](t, do(t, srv.Handler, http.MethodGet, "/api/analytics/net-values/"+m, ""))
	}
	get("2024-04")
	get("2024-05")

	do(t, srv.Handler, http.MethodPost, "/api/income", `{"amount": 50, "source": "Refund", "month_year": "2024-04"}`)

	if got := get("2024-04").Income; got != core.NewMoney(50, 0) {
		t.Errorf("April income = %v, want 50", got)
	}
	if got := get("2024-05").Income; !got.IsZero() {
		t.Errorf("May income = %v, want 0", got)
	}
}

func TestRateLimit_OnlyWrites(t *testing.T) {
	srv := newTestServer(t, nil, WithRateLimit(2))

	for i := 0; i < 2; i++ {
		if rr := do(t, srv.Handler, http.MethodPost, "/api/loans", loanGivenBody); rr.Code != http.StatusCreated {
			t.Fatalf("POST %d status = %d", i, rr.Code)
		}
	}
	rr := do(t, srv.Handler, http.MethodPost, "/api/loans", loanGivenBody)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third POST status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("429 without Retry-After")
	}
	if decode[errorBody](t, rr).Error == "" {
		t.Error("429 without error message")
	}

	for i := 0; i < 5; i++ {
		if rr := do(t, srv.Handler, http.MethodGet, "/api/loans", ""); rr.Code != http.StatusOK {
			t.Fatalf("GET %d status = %d, want 200", i, rr.Code)
		}
	}
}

func TestMiddleware_Headers(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "client-supplied-id" {
		t.Errorf("X-Request-ID = %q, want the client's", got)
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("Content-Type = %q, want JSON", got)
	}
}

func TestMiddleware_CORS(t *testing.T) {
	srv := newTestServer(t, nil, WithAllowedOrigins("http://localhost:3000"))

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed origin", "http://localhost:3000", "http://localhost:3000"},
		{"other origin", "https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rr := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
			if tt.want != "" && rr.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want 204", rr.Code)
			}
		})
	}
}

func TestEvents_StreamsRecordCreated(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != ": connected" {
		t.Fatalf("first line = %q, want the connected comment", lines.Text())
	}

	post, err := ts.Client().Post(ts.URL+"/api/income", "application/json", strings.NewReader(incomeBody))
	if err != nil {
		t.Fatal(err)
	}
	post.Body.Close()

	for lines.Scan() {
		data, ok := strings.CutPrefix(lines.Text(), "data: ")
		if !ok {
			continue
		}
		var e refresh.Event
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			t.Fatalf("event %q: %v", data, err)
		}
		if e.Type != refresh.EventRecordCreated || e.Kind != string(core.KindIncome) || e.RecordID != 1 || e.Month != "2024-05" {
			t.Errorf("event = %+v", e)
		}
		return
	}
	t.Fatalf("stream ended without an event: %v", lines.Err())
}
