package audit

import (
	"context"
	"log/slog"

	"hotel/internal/domain"

	"github.com/riverqueue/river"
)

// EntryStore persists delivered entries. Inserting an event id twice is a no-op.
type EntryStore interface {
	Insert(ctx context.Context, entries ...domain.AuditLog) error
}

// EntryWorker moves queued entries into audit_logs.
type EntryWorker struct {
	river.WorkerDefaults[EntryArgs]
	store EntryStore
}

func NewEntryWorker(store EntryStore) *EntryWorker {
	return &EntryWorker{store: store}
}

func (w *EntryWorker) Work(ctx context.Context, job *river.Job[EntryArgs]) error {
	if err := w.store.Insert(ctx, job.Args.entry()); err != nil {
		slog.WarnContext(ctx, "audit entry delivery failed",
			"event_id", job.Args.EventID,
			"attempt", job.Attempt,
			"error", err,
		)
		return err
	}

	slog.DebugContext(ctx, "audit entry delivered",
		"event_id", job.Args.EventID,
		"action", job.Args.Action,
		"model_type", job.Args.ModelType,
		"object_id", job.Args.ObjectID,
	)
	return nil
}
