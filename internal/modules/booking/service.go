package booking

import (
	"context"
	"errors"
	"strings"

	"hotel/internal/authz"
	"hotel/internal/domain"
	"hotel/internal/modules/audit"
	"hotel/internal/pkg/statemachine"
	"hotel/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Service is the state coordinator: the single writer of booking and room
// status. Each operation authorizes first, then runs as one transaction.
type Service struct {
	db         *gorm.DB
	users      *repository.UserRepository
	rooms      *repository.RoomRepository
	bookings   *repository.BookingRepository
	recorder   audit.Recorder
	feed       RoomFeed
	bookingFSM *statemachine.Machine[domain.BookingStatus, domain.BookingEvent]
	roomFSM    *statemachine.Machine[domain.RoomStatus, domain.RoomEvent]
	tracer     trace.Tracer
}

func NewService(db *gorm.DB, recorder audit.Recorder, feed RoomFeed) *Service {
	if feed == nil {
		feed = noopFeed{}
	}
	return &Service{
		db:         db,
		users:      repository.NewUserRepository(db),
		rooms:      repository.NewRoomRepository(db),
		bookings:   repository.NewBookingRepository(db),
		recorder:   recorder,
		feed:       feed,
		bookingFSM: newBookingMachine(),
		roomFSM:    newRoomMachine(),
		tracer:     otel.Tracer("hotel/internal/modules/booking"),
	}
}

func newBookingMachine() *statemachine.Machine[domain.BookingStatus, domain.BookingEvent] {
	edges := make([]statemachine.Edge[domain.BookingStatus, domain.BookingEvent], 0, len(domain.BookingTransitions))
	for _, t := range domain.BookingTransitions {
		edges = append(edges, statemachine.Edge[domain.BookingStatus, domain.BookingEvent]{Event: t.Event, Src: t.Src, Dst: t.Dst})
	}
	return statemachine.New(edges)
}

func newRoomMachine() *statemachine.Machine[domain.RoomStatus, domain.RoomEvent] {
	edges := make([]statemachine.Edge[domain.RoomStatus, domain.RoomEvent], 0, len(domain.RoomTransitions))
	for _, t := range domain.RoomTransitions {
		edges = append(edges, statemachine.Edge[domain.RoomStatus, domain.RoomEvent]{Event: t.Event, Src: t.Src, Dst: t.Dst})
	}
	return statemachine.New(edges)
}

// CreateGuestBooking books a room for the acting guest. The booking starts
// pending and does not hold the dates until confirmed.
func (s *Service) CreateGuestBooking(ctx context.Context, actor authz.Actor, req CreateBookingRequest) (*domain.Booking, error) {
	if err := authz.Authorize(actor, authz.OpCreateGuestBooking); err != nil {
		return nil, err
	}
	if err := validateCreate(req); err != nil {
		return nil, err
	}
	return s.create(ctx, "booking.CreateGuestBooking", actor, actor.ID, req, domain.BookingPending)
}

// CreateReceptionBooking books a room on behalf of an existing guest account,
// confirmed straight away.
func (s *Service) CreateReceptionBooking(ctx context.Context, actor authz.Actor, req ReceptionBookingRequest) (*domain.Booking, error) {
	if err := authz.Authorize(actor, authz.OpCreateReceptionBooking); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.GuestEmail)
	if email == "" {
		return nil, ErrGuestEmailRequired
	}
	if err := validateCreate(req.CreateBookingRequest); err != nil {
		return nil, err
	}

	guest, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errGuestNotFound(email)
	}
	if err != nil {
		return nil, err
	}

	return s.create(ctx, "booking.CreateReceptionBooking", actor, guest.ID, req.CreateBookingRequest, domain.BookingConfirmed)
}

func validateCreate(req CreateBookingRequest) error {
	if req.RoomID <= 0 {
		return ErrInvalidID
	}
	if err := ValidateStay(req.CheckIn, req.CheckOut); err != nil {
		return err
	}
	if req.NumGuests < 1 {
		return ErrInvalidGuestCount
	}
	return nil
}

func (s *Service) create(ctx context.Context, op string, actor authz.Actor, guestID int64, req CreateBookingRequest, status domain.BookingStatus) (*domain.Booking, error) {
	var out *domain.Booking
	err := s.run(ctx, op, actor, func(ctx context.Context, u *unit) error {
		room, err := s.lockRoom(ctx, u, req.RoomID)
		if err != nil {
			return err
		}
		// The account may be gone while its token is still valid.
		if _, err := u.users.GetByID(ctx, guestID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if guestID == actor.ID {
				return authz.ErrNotPermitted
			}
			return ErrGuestNotFound
		}
		if room.Status == domain.RoomMaintenance {
			return ErrRoomInMaintenance
		}
		if req.NumGuests > room.Capacity {
			return ErrCapacityExceeded
		}

		available, err := IsAvailable(ctx, u.bookings, room.ID, req.CheckIn, req.CheckOut, 0)
		if err != nil {
			return err
		}
		if !available {
			return ErrRoomNotAvailable
		}

		b := &domain.Booking{
			GuestID:    guestID,
			RoomID:     room.ID,
			CheckIn:    req.CheckIn,
			CheckOut:   req.CheckOut,
			NumGuests:  req.NumGuests,
			TotalPrice: domain.TotalFor(room.PricePerNight, req.CheckIn, req.CheckOut),
			Status:     status,
		}
		if err := u.ledger.InsertBooking(ctx, b); err != nil {
			return err
		}

		if status == domain.BookingConfirmed {
			u.audit(domain.AuditCreate, domain.ModelBooking, b.ID,
				"Reception created booking %d for room %s (%s to %s)", b.ID, room.Number, b.CheckIn, b.CheckOut)
		} else {
			u.audit(domain.AuditCreate, domain.ModelBooking, b.ID,
				"Created booking %d for room %s (%s to %s)", b.ID, room.Number, b.CheckIn, b.CheckOut)
		}

		if err := s.settleRoom(ctx, u, room, "booking created", true); err != nil {
			return err
		}
		b.Room = room
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateBookingStatus moves a booking to the requested status, provided the
// transition table has an edge from its current status.
func (s *Service) UpdateBookingStatus(ctx context.Context, actor authz.Actor, bookingID int64, status domain.BookingStatus) (*domain.Booking, error) {
	if err := authz.Authorize(actor, authz.OpUpdateBookingStatus); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, errInvalidBookingStatus(status)
	}
	return s.transition(ctx, "booking.UpdateBookingStatus", actor, authz.OpUpdateBookingStatus, bookingID, status, nil)
}

func (s *Service) CheckIn(ctx context.Context, actor authz.Actor, bookingID int64) (*domain.Booking, error) {
	return s.transition(ctx, "booking.CheckIn", actor, authz.OpCheckIn, bookingID, domain.BookingCheckedIn, ErrMustBeConfirmed)
}

func (s *Service) CheckOut(ctx context.Context, actor authz.Actor, bookingID int64) (*domain.Booking, error) {
	return s.transition(ctx, "booking.CheckOut", actor, authz.OpCheckOut, bookingID, domain.BookingCheckedOut, ErrMustBeCheckedIn)
}

// CancelBooking is open to the booking's guest and to staff.
func (s *Service) CancelBooking(ctx context.Context, actor authz.Actor, bookingID int64) (*domain.Booking, error) {
	return s.transition(ctx, "booking.CancelBooking", actor, authz.OpCancelBooking, bookingID, domain.BookingCancelled, ErrNotCancellable)
}

// transition drives a booking to target through the transition table and
// settles its room. rejected replaces the generic error for a disallowed move.
func (s *Service) transition(ctx context.Context, op string, actor authz.Actor, permission authz.Operation, bookingID int64, target domain.BookingStatus, rejected error) (*domain.Booking, error) {
	if err := authz.Authorize(actor, permission); err != nil {
		return nil, err
	}
	if bookingID <= 0 {
		return nil, ErrInvalidID
	}

	var out *domain.Booking
	err := s.run(ctx, op, actor, func(ctx context.Context, u *unit) error {
		b, room, err := s.lockBooking(ctx, u, bookingID)
		if err != nil {
			return err
		}
		if err := authz.AuthorizeOwner(actor, permission, b.GuestID); err != nil {
			return err
		}

		from := b.Status
		event, ok := domain.BookingEventFor(target)
		if !ok {
			return errIllegalTransition(from, target)
		}
		next, err := s.bookingFSM.Apply(ctx, from, event)
		if statemachine.IsTransitionError(err) {
			if rejected != nil {
				return rejected
			}
			return errIllegalTransition(from, target)
		}
		if err != nil {
			return err
		}

		switch event {
		case domain.EventConfirm:
			if room.Status == domain.RoomMaintenance {
				return ErrRoomInMaintenance
			}
			available, err := IsAvailable(ctx, u.bookings, room.ID, b.CheckIn, b.CheckOut, b.ID)
			if err != nil {
				return err
			}
			if !available {
				return ErrDatesTaken
			}
		case domain.EventCheckIn:
			if room.Status == domain.RoomMaintenance {
				return ErrRoomInMaintenance
			}
		}

		if err := u.ledger.SetBookingStatus(ctx, b, next); err != nil {
			return err
		}
		u.audit(auditActionFor(event), domain.ModelBooking, b.ID,
			"Changed booking %d status from %s to %s", b.ID, from, next)

		note := event == domain.EventCheckIn || event == domain.EventCheckOut
		if err := s.settleRoom(ctx, u, room, string(event), note); err != nil {
			return err
		}
		b.Room = room
		out = b
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

func auditActionFor(event domain.BookingEvent) domain.AuditAction {
	switch event {
	case domain.EventCheckIn:
		return domain.AuditCheckIn
	case domain.EventCheckOut:
		return domain.AuditCheckOut
	default:
		return domain.AuditBookingStatusChange
	}
}

// DeleteBooking physically removes a booking. Unlike cancellation nothing is kept.
func (s *Service) DeleteBooking(ctx context.Context, actor authz.Actor, bookingID int64) error {
	if err := authz.Authorize(actor, authz.OpDeleteBooking); err != nil {
		return err
	}
	if bookingID <= 0 {
		return ErrInvalidID
	}

	return s.run(ctx, "booking.DeleteBooking", actor, func(ctx context.Context, u *unit) error {
		b, room, err := s.lockBooking(ctx, u, bookingID)
		if err != nil {
			return err
		}
		if err := u.ledger.DeleteBooking(ctx, b.ID); err != nil {
			return err
		}
		u.audit(domain.AuditDelete, domain.ModelBooking, b.ID,
			"Deleted %s booking %d for room %s", b.Status, b.ID, room.Number)
		return s.settleRoom(ctx, u, room, "booking deleted", false)
	})
}

func (s *Service) MarkRoomMaintenance(ctx context.Context, actor authz.Actor, roomID int64) (*domain.Room, error) {
	if err := authz.Authorize(actor, authz.OpMarkRoomMaintenance); err != nil {
		return nil, err
	}
	return s.startMaintenance(ctx, actor, roomID)
}

func (s *Service) startMaintenance(ctx context.Context, actor authz.Actor, roomID int64) (*domain.Room, error) {
	if roomID <= 0 {
		return nil, ErrInvalidID
	}

	var out *domain.Room
	err := s.run(ctx, "booking.MarkRoomMaintenance", actor, func(ctx context.Context, u *unit) error {
		room, err := s.lockRoom(ctx, u, roomID)
		if err != nil {
			return err
		}
		out = room
		if room.Status == domain.RoomMaintenance {
			return nil
		}
		return s.moveRoom(ctx, u, room, domain.EventStartMaintenance, "maintenance started")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FinishRoomMaintenance releases the room, then lets any live bookings
// claim it again.
func (s *Service) FinishRoomMaintenance(ctx context.Context, actor authz.Actor, roomID int64) (*domain.Room, error) {
	if err := authz.Authorize(actor, authz.OpFinishRoomMaintenance); err != nil {
		return nil, err
	}
	return s.finishMaintenance(ctx, actor, roomID)
}

func (s *Service) finishMaintenance(ctx context.Context, actor authz.Actor, roomID int64) (*domain.Room, error) {
	if roomID <= 0 {
		return nil, ErrInvalidID
	}

	var out *domain.Room
	err := s.run(ctx, "booking.FinishRoomMaintenance", actor, func(ctx context.Context, u *unit) error {
		room, err := s.lockRoom(ctx, u, roomID)
		if err != nil {
			return err
		}
		if room.Status != domain.RoomMaintenance {
			return ErrNotInMaintenance
		}
		out = room
		return s.releaseRoom(ctx, u, room)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// releaseRoom ends maintenance on a locked room, then lets any live bookings
// claim it again.
func (s *Service) releaseRoom(ctx context.Context, u *unit, room *domain.Room) error {
	if err := s.moveRoom(ctx, u, room, domain.EventFinishMaintenance, "maintenance finished"); err != nil {
		return err
	}
	return s.settleRoom(ctx, u, room, "maintenance finished", false)
}

// UpdateRoomStatus is the manual room switch. Only maintenance can be set by
// hand; occupancy statuses always follow the room's bookings.
func (s *Service) UpdateRoomStatus(ctx context.Context, actor authz.Actor, roomID int64, status domain.RoomStatus) (*domain.Room, error) {
	if err := authz.Authorize(actor, authz.OpUpdateRoomStatus); err != nil {
		return nil, err
	}

	switch status {
	case domain.RoomMaintenance:
		return s.startMaintenance(ctx, actor, roomID)
	case domain.RoomAvailable:
		return s.makeAvailable(ctx, actor, roomID)
	default:
		return nil, ErrInvalidRoomStatus
	}
}

func (s *Service) makeAvailable(ctx context.Context, actor authz.Actor, roomID int64) (*domain.Room, error) {
	if roomID <= 0 {
		return nil, ErrInvalidID
	}

	var out *domain.Room
	err := s.run(ctx, "booking.UpdateRoomStatus", actor, func(ctx context.Context, u *unit) error {
		room, err := s.lockRoom(ctx, u, roomID)
		if err != nil {
			return err
		}
		out = room
		switch room.Status {
		case domain.RoomMaintenance:
			return s.releaseRoom(ctx, u, room)
		case domain.RoomAvailable:
			return nil
		default:
			return ErrRoomOccupied
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckAvailability answers the availability question outside any booking.
func (s *Service) CheckAvailability(ctx context.Context, actor authz.Actor, roomID int64, checkIn, checkOut domain.Date) (*AvailabilityResponse, error) {
	room, err := s.GetRoom(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}
	available, err := IsAvailable(ctx, s.bookings, room.ID, checkIn, checkOut, 0)
	if err != nil {
		return nil, err
	}
	return &AvailabilityResponse{
		RoomID:    room.ID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Available: available && room.Status != domain.RoomMaintenance,
	}, nil
}

func (s *Service) ListOwnBookings(ctx context.Context, actor authz.Actor, limit, offset int) ([]domain.Booking, error) {
	if err := authz.Authorize(actor, authz.OpListOwnBookings); err != nil {
		return nil, err
	}
	return s.bookings.List(ctx, repository.BookingFilter{GuestID: actor.ID, Limit: limit, Offset: offset})
}

func (s *Service) ListAllBookings(ctx context.Context, actor authz.Actor, f repository.BookingFilter) ([]domain.Booking, error) {
	if err := authz.Authorize(actor, authz.OpListAllBookings); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, errInvalidBookingStatus(f.Status)
	}
	return s.bookings.List(ctx, f)
}

// GetBooking hides other guests' bookings behind the generic permission error.
func (s *Service) GetBooking(ctx context.Context, actor authz.Actor, bookingID int64) (*domain.Booking, error) {
	if err := authz.Authorize(actor, authz.OpViewBooking); err != nil {
		return nil, err
	}
	if bookingID <= 0 {
		return nil, ErrInvalidID
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
	if err := authz.AuthorizeOwner(actor, authz.OpViewBooking, b.GuestID); err != nil {
		return nil, err
	}

	if room, err := s.rooms.GetByID(ctx, b.RoomID); err == nil {
		b.Room = room
	}
	return b, nil
}

func (s *Service) ListRooms(ctx context.Context, actor authz.Actor, f repository.RoomFilter) ([]domain.Room, error) {
	if err := authz.Authorize(actor, authz.OpListRooms); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidRoomStatus
	}
	return s.rooms.List(ctx, f)
}

func (s *Service) GetRoom(ctx context.Context, actor authz.Actor, roomID int64) (*domain.Room, error) {
	if err := authz.Authorize(actor, authz.OpListRooms); err != nil {
		return nil, err
	}
	if roomID <= 0 {
		return nil, ErrInvalidID
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	return room, err
}
