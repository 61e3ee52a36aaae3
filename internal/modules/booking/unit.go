package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel/internal/authz"
	"hotel/internal/domain"
	"hotel/internal/modules/booking/internal/ledger"
	"hotel/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// unit is one coordinator transaction. Every read and write inside it goes
// through tx; audit entries and room changes are collected until commit.
type unit struct {
	actor    authz.Actor
	users    *repository.UserRepository
	rooms    *repository.RoomRepository
	bookings *repository.BookingRepository
	ledger   *ledger.Writer
	entries  []domain.AuditLog
	changes  []domain.RoomStatusChange
}

func (u *unit) audit(action domain.AuditAction, modelType string, objectID int64, format string, args ...any) {
	u.entries = append(u.entries, domain.NewAuditLog(u.actor.ID, action, modelType, objectID, fmt.Sprintf(format, args...)))
}

// run executes fn as one unit of work: booking writes, room writes and the
// audit hand-off commit together or not at all. Room changes are published
// only after commit.
func (s *Service) run(ctx context.Context, op string, actor authz.Actor, fn func(ctx context.Context, u *unit) error) error {
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer span.End()

	var committed []domain.RoomStatusChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u := &unit{
			actor:    actor,
			users:    s.users.WithTx(tx),
			rooms:    s.rooms.WithTx(tx),
			bookings: s.bookings.WithTx(tx),
			ledger:   ledger.New(tx),
		}
		if err := fn(ctx, u); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, u.entries...); err != nil {
			return fmt.Errorf("recording audit entries: %w", err)
		}
		committed = u.changes
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, change := range committed {
		s.feed.RoomStatusChanged(ctx, change)
	}
	return nil
}

func (s *Service) lockRoom(ctx context.Context, u *unit, roomID int64) (*domain.Room, error) {
	room, err := u.rooms.GetByIDForUpdate(ctx, roomID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// lockBooking locks the booking's room, then the booking itself, and returns
// both as of the lock. Room before booking everywhere keeps lock order fixed.
func (s *Service) lockBooking(ctx context.Context, u *unit, bookingID int64) (*domain.Booking, *domain.Room, error) {
	b, err := u.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	room, err := s.lockRoom(ctx, u, b.RoomID)
	if err != nil {
		return nil, nil, err
	}

	b, err = u.bookings.GetByIDForUpdate(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return b, room, nil
}

// settleRoom moves the room to the status its live bookings imply.
// Maintenance is left alone. With note set, an unchanged room still gets an
// audit line so each booking step shows its room consequence.
func (s *Service) settleRoom(ctx context.Context, u *unit, room *domain.Room, reason string, note bool) error {
	if room.Status == domain.RoomMaintenance {
		if note {
			u.audit(domain.AuditRoomStatusChange, domain.ModelRoom, room.ID,
				"Room %s stays under maintenance (%s)", room.Number, reason)
		}
		return nil
	}

	live, err := u.bookings.LiveStatuses(ctx, room.ID)
	if err != nil {
		return err
	}
	target := domain.OccupancyFor(live)

	if target == room.Status {
		if note {
			u.audit(domain.AuditRoomStatusChange, domain.ModelRoom, room.ID,
				"Room %s status remains %s (%s)", room.Number, target, reason)
		}
		return nil
	}

	event, _ := domain.RoomEventFor(target)
	return s.moveRoom(ctx, u, room, event, reason)
}

func (s *Service) moveRoom(ctx context.Context, u *unit, room *domain.Room, event domain.RoomEvent, reason string) error {
	from := room.Status
	next, err := s.roomFSM.Apply(ctx, from, event)
	if err != nil {
		return fmt.Errorf("room %s: %w", room.Number, err)
	}
	if err := u.ledger.SetRoomStatus(ctx, room, next); err != nil {
		return err
	}

	u.audit(domain.AuditRoomStatusChange, domain.ModelRoom, room.ID,
		"Changed room %s status from %s to %s (%s)", room.Number, from, next, reason)
	u.changes = append(u.changes, domain.RoomStatusChange{
		RoomID:     room.ID,
		RoomNumber: room.Number,
		From:       from,
		To:         next,
		Reason:     reason,
		ChangedAt:  time.Now().UTC(),
	})
	return nil
}
