package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/refresh"
	"kharcha/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads one JSON document into dst. Syntax errors answer 400;
// values the domain types reject while decoding answer 422.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if core.IsValidation(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed JSON body: %v", err))
		}
		return false
	}
	return true
}

// fail maps err onto a status. Store failures are logged and reported
// without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case core.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func viewKey(v refresh.View, param string) string {
	return string(v) + ":" + param
}

// serveView answers from the view cache or computes, caches and answers.
// A result is not cached when a write invalidated views while it was built.
func (s *Server) serveView(w http.ResponseWriter, r *http.Request, key string, build func(context.Context) (any, error)) {
	if v, ok := s.views.Get(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}
	epoch := s.views.Epoch()
	v, err := build(r.Context())
	if err != nil {
		s.fail(w, r, "view "+key, err)
		return
	}
	if !s.views.SetIfUnchanged(key, v, epoch) {
		log.FromContext(r.Context()).DebugContext(r.Context(), "View invalidated while building, not cached", log.FieldView, key)
	}
	writeJSON(w, http.StatusOK, v)
}

// created invalidates the views fed by kind, announces the record on the
// hub and answers 201.
func (s *Server) created(w http.ResponseWriter, kind core.RecordKind, id int64, month core.Month, body any) {
	for _, v := range refresh.ViewsFor(kind) {
		s.views.DeletePrefix(viewKey(v, ""))
	}
	s.hub.Publish(refresh.Event{
		Type:     refresh.EventRecordCreated,
		Kind:     string(kind),
		RecordID: id,
		Month:    month.String(),
	})
	writeJSON(w, http.StatusCreated, body)
}

// records is a read of the record kinds a view needs.
type records struct {
	expenses   []core.Expense
	loans      []core.LoanTransaction
	committees []core.Committee
	payments   []core.CommitteePayment
	income     []core.IncomeRecord
}

// load lists the requested kinds concurrently.
func (s *Server) load(ctx context.Context, kinds ...core.RecordKind) (records, error) {
	var rec records
	store := s.svc.Store()
	g, ctx := errgroup.WithContext(ctx)
	for _, k := range kinds {
		switch k {
		case core.KindExpense:
			g.Go(func() (err error) { rec.expenses, err = store.ListExpenses(ctx); return })
		case core.KindLoan:
			g.Go(func() (err error) { rec.loans, err = store.ListLoans(ctx); return })
		case core.KindCommittee:
			g.Go(func() (err error) { rec.committees, err = store.ListCommittees(ctx); return })
		case core.KindCommitteePayment:
			g.Go(func() (err error) { rec.payments, err = store.ListCommitteePayments(ctx); return })
		case core.KindIncome:
			g.Go(func() (err error) { rec.income, err = store.ListIncome(ctx); return })
		}
	}
	if err := g.Wait(); err != nil {
		return records{}, err
	}
	return rec, nil
}
