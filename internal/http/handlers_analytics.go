package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kharcha/internal/aggregate"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/refresh"
)

var summaryKinds = []core.RecordKind{core.KindExpense, core.KindCommitteePayment, core.KindIncome}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	current := core.MonthOf(s.now())
	s.serveView(w, r, viewKey(refresh.ViewOverview, current.String()), func(ctx context.Context) (any, error) {
		rec, err := s.load(ctx, append(summaryKinds, core.KindLoan)...)
		if err != nil {
			return nil, err
		}
		summaries := aggregate.MonthlySummary(rec.expenses, rec.payments, rec.income)
		return aggregate.DashboardOverview(current, aggregate.SummaryFor(summaries, current), aggregate.LoanSummary(rec.loans)), nil
	})
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, viewKey(refresh.ViewMonthlySummary, "all"), func(ctx context.Context) (any, error) {
		rec, err := s.load(ctx, summaryKinds...)
		if err != nil {
			return nil, err
		}
		return aggregate.MonthlySummary(rec.expenses, rec.payments, rec.income), nil
	})
}

func (s *Server) handleLoanTimeline(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, viewKey(refresh.ViewLoanTimeline, "all"), func(ctx context.Context) (any, error) {
		rec, err := s.load(ctx, core.KindLoan)
		if err != nil {
			return nil, err
		}
		return aggregate.LoanTimeline(rec.loans), nil
	})
}

func (s *Server) handleNetValues(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonth(r.PathValue("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.serveView(w, r, viewKey(refresh.ViewNetValues, month.String()), func(ctx context.Context) (any, error) {
		rec, err := s.load(ctx, append(summaryKinds, core.KindLoan)...)
		if err != nil {
			return nil, err
		}
		summaries := aggregate.MonthlySummary(rec.expenses, rec.payments, rec.income)
		return aggregate.NetValuesForMonth(month, rec.loans, summaries), nil
	})
}

func (s *Server) handleRecentSpending(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	s.serveView(w, r, viewKey(refresh.ViewRecentSpending, core.DateOf(now).String()), func(ctx context.Context) (any, error) {
		rec, err := s.load(ctx, core.KindExpense)
		if err != nil {
			return nil, err
		}
		return aggregate.RecentSpending(rec.expenses, now, aggregate.DefaultRecentDays), nil
	})
}

// handleStatus is uncached; it is not part of any client view.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := s.load(r.Context(), core.KindExpense, core.KindLoan)
	if err != nil {
		s.fail(w, r, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, aggregate.Status(rec.expenses, rec.loans))
}

// handleEvents streams hub events as server-sent events until the client
// goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	events, cancel := s.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Event stream not flushable", log.FieldError, err)
		return
	}

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
		case e, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
