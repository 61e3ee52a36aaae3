package audit

import (
	"context"
	"errors"
	"fmt"

	"hotel/internal/domain"
	"hotel/internal/repository"

	"gorm.io/gorm"
)

var ErrMalformedEntry = errors.New("audit: malformed entry")

// Recorder accepts audit entries as part of an open transaction: they become
// durable exactly when the transaction commits.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entries ...domain.AuditLog) error
}

// DirectRecorder writes entries straight into audit_logs inside tx.
type DirectRecorder struct{}

func NewDirectRecorder() *DirectRecorder {
	return &DirectRecorder{}
}

func (DirectRecorder) Record(ctx context.Context, tx *gorm.DB, entries ...domain.AuditLog) error {
	if err := validate(entries); err != nil {
		return err
	}
	if err := repository.NewAuditRepository(tx).Insert(ctx, entries...); err != nil {
		return fmt.Errorf("writing audit entries: %w", err)
	}
	return nil
}

func validate(entries []domain.AuditLog) error {
	for _, e := range entries {
		if !e.WellFormed() {
			return fmt.Errorf("%w: action=%q model=%q", ErrMalformedEntry, e.Action, e.ModelType)
		}
	}
	return nil
}

// RecordNow runs a single-entry transaction, for actions that have no other
// writes to join (logins, for instance).
func RecordNow(ctx context.Context, db *gorm.DB, rec Recorder, entry domain.AuditLog) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return rec.Record(ctx, tx, entry)
	})
}
