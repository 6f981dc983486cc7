// Package services orchestrates record writes across the store and the
// event bus.
package services

import (
	"context"
	"errors"
	"fmt"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/storage"
)

// RecordService saves records and announces them. The store is the source
// of truth: a failed publish is logged and never fails the write.
type RecordService struct {
	store     storage.Store
	publisher amqp.Publisher
	logger    *log.Logger
}

// NewRecordService wires a store with an optional publisher.
func NewRecordService(store storage.Store, publisher amqp.Publisher, logger *log.Logger) *RecordService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)
	return &RecordService{store: store, publisher: publisher, logger: logger}
}

func (s *RecordService) Store() storage.Store { return s.store }

func (s *RecordService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	out, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.announce(ctx, core.KindExpense, out.ID, out.Date.Key(), out.Amount)
	return out, nil
}

func (s *RecordService) CreateLoan(ctx context.Context, l core.LoanTransaction) (core.LoanTransaction, error) {
	out, err := s.store.CreateLoan(ctx, l)
	if err != nil {
		return core.LoanTransaction{}, fmt.Errorf("save loan: %w", err)
	}
	s.announce(ctx, core.KindLoan, out.ID, out.Date.Key(), out.Amount)
	return out, nil
}

func (s *RecordService) CreateCommittee(ctx context.Context, c core.Committee) (core.Committee, error) {
	out, err := s.store.CreateCommittee(ctx, c)
	if err != nil {
		return core.Committee{}, fmt.Errorf("save committee: %w", err)
	}
	s.announce(ctx, core.KindCommittee, out.ID, out.StartDate.Key(), out.MonthlyAmount)
	return out, nil
}

// CreateCommitteePayment records a contribution. It is stored only as a
// committee payment; no expense row is derived from it.
func (s *RecordService) CreateCommitteePayment(ctx context.Context, p core.CommitteePayment) (core.CommitteePayment, error) {
	out, err := s.store.CreateCommitteePayment(ctx, p)
	if err != nil {
		return core.CommitteePayment{}, fmt.Errorf("save committee payment: %w", err)
	}
	s.announce(ctx, core.KindCommitteePayment, out.ID, out.MonthYear, out.Amount)
	return out, nil
}

func (s *RecordService) CreateIncome(ctx context.Context, i core.IncomeRecord) (core.IncomeRecord, error) {
	out, err := s.store.CreateIncome(ctx, i)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("save income: %w", err)
	}
	s.announce(ctx, core.KindIncome, out.ID, out.MonthYear, out.Amount)
	return out, nil
}

func (s *RecordService) announce(ctx context.Context, kind core.RecordKind, id int64, month core.Month, amount core.Money) {
	s.logger.InfoContext(ctx, "Record created", log.FieldOperation, log.OpCreate,
		log.FieldRecordKind, string(kind), log.FieldRecordID, id,
		log.FieldMonthKey, month.String(), log.FieldAmountCents, amount.Cents)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordCreated(ctx, kind, id, month); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record created message",
			log.FieldRecordKind, string(kind), log.FieldRecordID, id, log.FieldError, err)
	}
}

// Close releases the store and, when it has one, the publisher.
func (s *RecordService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
