package http

import (
	"context"
	"net/http"
	"strconv"

	"kharcha/internal/aggregate"
	"kharcha/internal/core"
	"kharcha/internal/refresh"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, viewKey(refresh.ViewExpenses, "all"), func(ctx context.Context) (any, error) {
		rec, err := s.load(ctx, core.KindExpense)
		if err != nil {
			return nil, err
		}
		return nonNil(rec.expenses), nil
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if !decodeJSON(w, r, &e) {
		return
	}
	e.ID = 0
	if err := e.Validate(); err != nil {
		s.fail(w, r, "create expense", err)
		return
	}
	if err := core.CheckEditable(e.Date.Key(), s.now()); err != nil {
		s.fail(w, r, "create expense", err)
		return
	}
	out, err := s.svc.CreateExpense(r.Context(), e)
	if err != nil {
		s.fail(w, r, "create expense", err)
		return
	}
	s.created(w, core.KindExpense, out.ID, out.Date.Key(), out)
}

// handleListLoans answers the per-person ledgers.
func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, viewKey(refresh.ViewLoans, "all"), func(ctx context.Context) (any, error) {
		rec, err := s.load(ctx, core.KindLoan)
		if err != nil {
			return nil, err
		}
		return aggregate.LoanSummary(rec.loans), nil
	})
}

// Loans carry no month window: repayments are often recorded late.
func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var l core.LoanTransaction
	if !decodeJSON(w, r, &l) {
		return
	}
	l.ID = 0
	out, err := s.svc.CreateLoan(r.Context(), l)
	if err != nil {
		s.fail(w, r, "create loan", err)
		return
	}
	s.created(w, core.KindLoan, out.ID, out.Date.Key(), out)
}

func (s *Server) handleListCommittees(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	s.serveView(w, r, viewKey(refresh.ViewCommittees, core.DateOf(now).String()), func(ctx context.Context) (any, error) {
		rec, err := s.load(ctx, core.KindCommittee, core.KindCommitteePayment)
		if err != nil {
			return nil, err
		}
		return aggregate.Committees(rec.committees, rec.payments, now), nil
	})
}

// handleCreateCommittee ignores any derived fields in the body.
func (s *Server) handleCreateCommittee(w http.ResponseWriter, r *http.Request) {
	var c core.Committee
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = 0
	c.Status = ""
	c.TotalPaid = core.Zero
	c.Payments = nil
	out, err := s.svc.CreateCommittee(r.Context(), c)
	if err != nil {
		s.fail(w, r, "create committee", err)
		return
	}
	s.created(w, core.KindCommittee, out.ID, out.StartDate.Key(), out.DeriveStatus(s.now()))
}

// handleCreateCommitteePayment takes the committee from the path; a
// committee_id in the body is overridden.
func (s *Server) handleCreateCommitteePayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid committee id "+strconv.Quote(r.PathValue("id")))
		return
	}
	var p core.CommitteePayment
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = 0
	p.CommitteeID = id
	if err := p.Validate(); err != nil {
		s.fail(w, r, "create committee payment", err)
		return
	}
	if err := core.CheckEditable(p.MonthYear, s.now()); err != nil {
		s.fail(w, r, "create committee payment", err)
		return
	}
	out, err := s.svc.CreateCommitteePayment(r.Context(), p)
	if err != nil {
		s.fail(w, r, "create committee payment", err)
		return
	}
	s.created(w, core.KindCommitteePayment, out.ID, out.MonthYear, out)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.IncomeRecord
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ID = 0
	if err := in.Validate(); err != nil {
		s.fail(w, r, "create income", err)
		return
	}
	if err := core.CheckEditable(in.MonthYear, s.now()); err != nil {
		s.fail(w, r, "create income", err)
		return
	}
	out, err := s.svc.CreateIncome(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create income", err)
		return
	}
	s.created(w, core.KindIncome, out.ID, out.MonthYear, out)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Store().Categories(r.Context())
	if err != nil {
		s.fail(w, r, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

func (s *Server) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.svc.Store().PaymentMethods(r.Context())
	if err != nil {
		s.fail(w, r, "list payment methods", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(methods))
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
