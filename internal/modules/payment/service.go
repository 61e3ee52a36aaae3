package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel/internal/authz"
	"hotel/internal/domain"
	"hotel/internal/modules/audit"
	"hotel/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	bookings *repository.BookingRepository
	payments *repository.PaymentRepository
	recorder audit.Recorder
	newTxnID func() string
}

func NewService(db *gorm.DB, recorder audit.Recorder) *Service {
	return &Service{
		db:       db,
		bookings: repository.NewBookingRepository(db),
		payments: repository.NewPaymentRepository(db),
		recorder: recorder,
		newTxnID: transactionID,
	}
}

// transactionID is the first 16 hex digits of a random UUID, upper-cased.
func transactionID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
}

// Create records a completed payment for a confirmed or checked-in booking.
// The booking row stays locked until the payment and its audit entry commit,
// so two concurrent payments for one booking cannot both succeed.
func (s *Service) Create(ctx context.Context, actor authz.Actor, req CreatePaymentRequest) (*domain.Payment, error) {
	if err := authz.Authorize(actor, authz.OpCreatePayment); err != nil {
		return nil, err
	}
	if req.BookingID <= 0 {
		return nil, ErrInvalidBookingID
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !req.Method.Valid() {
		return nil, ErrInvalidMethod
	}

	var out *domain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.bookings.WithTx(tx).GetByIDForUpdate(ctx, req.BookingID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if err := authz.AuthorizeOwner(actor, authz.OpCreatePayment, b.GuestID); err != nil {
			return err
		}

		if b.Status != domain.BookingConfirmed && b.Status != domain.BookingCheckedIn {
			return ErrBookingNotPayable
		}
		if !req.Amount.Equal(b.TotalPrice) {
			return errAmountMismatch(b.TotalPrice)
		}

		payments := s.payments.WithTx(tx)
		paid, err := payments.HasCompleted(ctx, b.ID)
		if err != nil {
			return err
		}
		if paid {
			return ErrAlreadyPaid
		}

		now := time.Now().UTC()
		p := &domain.Payment{
			BookingID:     b.ID,
			Amount:        req.Amount,
			Method:        req.Method,
			Status:        domain.PaymentCompleted,
			TransactionID: s.newTxnID(),
			PaidAt:        &now,
		}
		if err := payments.Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		entry := domain.NewAuditLog(actor.ID, domain.AuditCreate, domain.ModelPayment, p.ID,
			fmt.Sprintf("Recorded %s payment %s of %s for booking %d", p.Method, p.TransactionID, p.Amount.StringFixed(2), b.ID))
		if err := s.recorder.Record(ctx, tx, entry); err != nil {
			return fmt.Errorf("recording audit entry: %w", err)
		}
		out = p
		return nil
	})
	if errors.Is(err, ErrBookingNotFound) && actor.IsGuest() {
		return nil, authz.ErrNotPermitted
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListForBooking returns a booking's payments, newest first.
func (s *Service) ListForBooking(ctx context.Context, actor authz.Actor, bookingID int64) ([]domain.Payment, error) {
	if err := authz.Authorize(actor, authz.OpListPayments); err != nil {
		return nil, err
	}
	if bookingID <= 0 {
		return nil, ErrInvalidBookingID
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		if actor.IsGuest() {
			return nil, authz.ErrNotPermitted
		}
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeOwner(actor, authz.OpListPayments, b.GuestID); err != nil {
		return nil, err
	}

	return s.payments.ListByBooking(ctx, b.ID)
}
