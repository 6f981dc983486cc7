// Package worker consumes RecordCreated events and mirrors the records into
// a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/sheets"
	"kharcha/internal/storage"
)

// Records is what the worker reads: the store plus its mirror bookkeeping.
type Records interface {
	storage.Store
	storage.MirrorLog
}

type MirrorWorker struct {
	records Records
	mirror  sheets.RecordMirror
	logger  *log.Logger
}

func NewMirrorWorker(records Records, mirror sheets.RecordMirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{records: records, mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

// Handler adapts the worker to amqp.Client.Consume.
func (w *MirrorWorker) Handler() amqp.Handler {
	return w.HandleRecordCreated
}

// HandleRecordCreated mirrors one record. Redelivered events for records
// already mirrored are skipped. Events for records that no longer exist are
// dropped; every other failure is returned so the message is requeued.
func (w *MirrorWorker) HandleRecordCreated(ctx context.Context, msg *amqp.RecordCreatedMessage) error {
	logger := w.logger.With(log.FieldRecordKind, string(msg.Kind), log.FieldRecordID, msg.ID)

	if ref, ok, err := w.records.MirrorRef(ctx, msg.Kind, msg.ID); err != nil {
		return fmt.Errorf("check mirror log: %w", err)
	} else if ok {
		logger.InfoContext(ctx, "Record already mirrored, skipping", log.FieldSheetsRef, ref)
		return nil
	}

	record, err := w.load(ctx, msg.Kind, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		logger.WarnContext(ctx, "Record not found, dropping event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s %d: %w", msg.Kind, msg.ID, err)
	}

	kind, row, err := sheets.Row(record)
	if err != nil {
		return err
	}
	tab := sheets.Tab(kind)
	if err := w.mirror.EnsureTab(ctx, tab, sheets.Header(kind)); err != nil {
		return fmt.Errorf("ensure tab %q: %w", tab, err)
	}
	ref, err := w.mirror.AppendRow(ctx, tab, row)
	if err != nil {
		return fmt.Errorf("append %s %d: %w", msg.Kind, msg.ID, err)
	}
	if err := w.records.MarkMirrored(ctx, msg.Kind, msg.ID, ref); err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}

	logger.InfoContext(ctx, "Record mirrored", log.FieldSheetsRef, ref)
	return nil
}

func (w *MirrorWorker) load(ctx context.Context, kind core.RecordKind, id int64) (any, error) {
	switch kind {
	case core.KindExpense:
		return w.records.GetExpense(ctx, id)
	case core.KindLoan:
		return w.records.GetLoan(ctx, id)
	case core.KindCommittee:
		return w.records.GetCommittee(ctx, id)
	case core.KindCommitteePayment:
		return w.records.GetCommitteePayment(ctx, id)
	case core.KindIncome:
		return w.records.GetIncome(ctx, id)
	default:
		return nil, fmt.Errorf("%w: record kind %q", core.ErrInvalidArgument, kind)
	}
}
