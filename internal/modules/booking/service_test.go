package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hotel/internal/authz"
	"hotel/internal/database/dbtest"
	"hotel/internal/domain"
	"hotel/internal/modules/audit"
	"hotel/internal/pkg/apperror"
	"hotel/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockFeed struct {
	mock.Mock
}

func (m *mockFeed) RoomStatusChanged(ctx context.Context, change domain.RoomStatusChange) {
	m.Called(ctx, change)
}

type fixture struct {
	db        *gorm.DB
	svc       *Service
	feed      *mockFeed
	guest     authz.Actor
	other     authz.Actor
	reception authz.Actor
	admin     authz.Actor
	room101   *domain.Room
	room102   *domain.Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t).Gorm
	ctx := context.Background()

	users := repository.NewUserRepository(db)
	mkUser := func(email string, role domain.UserRole) authz.Actor {
		u := &domain.User{Email: email, Username: email, PasswordHash: "x", Role: role}
		require.NoError(t, users.Create(ctx, u))
		return authz.Actor{ID: u.ID, Role: role, Email: u.Email}
	}

	rooms := repository.NewRoomRepository(db)
	mkRoom := func(number string, price int64) *domain.Room {
		r := &domain.Room{Number: number, Name: "Standard " + number, Floor: 1, Capacity: 2, PricePerNight: decimal.NewFromInt(price)}
		require.NoError(t, rooms.Create(ctx, r))
		return r
	}

	feed := &mockFeed{}
	feed.On("RoomStatusChanged", mock.Anything, mock.Anything).Return().Maybe()

	return &fixture{
		db:        db,
		svc:       NewService(db, audit.NewDirectRecorder(), feed),
		feed:      feed,
		guest:     mkUser("guest@example.com", domain.RoleGuest),
		other:     mkUser("other@example.com", domain.RoleGuest),
		reception: mkUser("desk@example.com", domain.RoleReception),
		admin:     mkUser("admin@example.com", domain.RoleAdmin),
		room101:   mkRoom("101", 100),
		room102:   mkRoom("102", 150),
	}
}

func (f *fixture) roomStatus(t *testing.T, id int64) domain.RoomStatus {
	t.Helper()
	r, err := repository.NewRoomRepository(f.db).GetByID(context.Background(), id)
	require.NoError(t, err)
	return r.Status
}

func (f *fixture) bookingStatus(t *testing.T, id int64) domain.BookingStatus {
	t.Helper()
	b, err := repository.NewBookingRepository(f.db).GetByID(context.Background(), id)
	require.NoError(t, err)
	return b.Status
}

func (f *fixture) auditCount(t *testing.T) int {
	t.Helper()
	logs, err := repository.NewAuditRepository(f.db).List(context.Background(), repository.AuditFilter{Limit: 200})
	require.NoError(t, err)
	return len(logs)
}

func stay(roomID int64, in, out string) CreateBookingRequest {
	return CreateBookingRequest{RoomID: roomID, CheckIn: domain.MustParseDate(in), CheckOut: domain.MustParseDate(out), NumGuests: 2}
}

func desk(email string, req CreateBookingRequest) ReceptionBookingRequest {
	return ReceptionBookingRequest{GuestEmail: email, CreateBookingRequest: req}
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, kind), "want %s, got %v", kind, err)
}

func TestCreateGuestBooking_PendingReservesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, f.guest.ID, b.GuestID)
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(200)), "got %s", b.TotalPrice)
	assert.Equal(t, domain.RoomReserved, f.roomStatus(t, f.room101.ID))
	assert.Equal(t, 2, f.auditCount(t))

	f.feed.AssertCalled(t, "RoomStatusChanged", mock.Anything, mock.MatchedBy(func(c domain.RoomStatusChange) bool {
		return c.RoomID == f.room101.ID && c.From == domain.RoomAvailable && c.To == domain.RoomReserved
	}))
}

func TestCreateReceptionBooking_ConfirmedBooksRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateReceptionBooking(ctx, f.reception, desk("GUEST@example.com", stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, f.guest.ID, b.GuestID)
	assert.Equal(t, domain.RoomBooked, f.roomStatus(t, f.room101.ID))
}

func TestCreateReceptionBooking_OverlapRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.guest.Email, stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	require.NoError(t, err)
	before := f.auditCount(t)

	_, err = f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.other.Email, stay(f.room101.ID, "2025-06-02", "2025-06-04")))
	assert.ErrorIs(t, err, ErrRoomNotAvailable)
	assertKind(t, err, apperror.KindValidation)
	assert.Equal(t, before, f.auditCount(t), "rejected booking leaves no audit trail")

	// Same dates on another room are fine; so is the adjacent stay starting on check-out day.
	_, err = f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.other.Email, stay(f.room102.ID, "2025-06-02", "2025-06-04")))
	require.NoError(t, err)
	_, err = f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.other.Email, stay(f.room101.ID, "2025-06-03", "2025-06-05")))
	require.NoError(t, err)
}

func TestCreateReceptionBooking_UnknownGuest(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateReceptionBooking(context.Background(), f.reception, desk("nobody@example.com", stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	assertKind(t, err, apperror.KindValidation)
	assert.Contains(t, err.Error(), "nobody@example.com")
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateBookingRequest
		want error
	}{
		{"reversed dates", stay(f.room101.ID, "2025-06-03", "2025-06-01"), ErrInvalidDates},
		{"zero nights", stay(f.room101.ID, "2025-06-03", "2025-06-03"), ErrInvalidDates},
		{"missing dates", CreateBookingRequest{RoomID: f.room101.ID, NumGuests: 1}, ErrDatesRequired},
		{"no guests", CreateBookingRequest{RoomID: f.room101.ID, CheckIn: domain.MustParseDate("2025-06-01"), CheckOut: domain.MustParseDate("2025-06-02")}, ErrInvalidGuestCount},
		{"bad room id", stay(0, "2025-06-01", "2025-06-02"), ErrInvalidID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateGuestBooking(ctx, f.guest, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	over := stay(f.room101.ID, "2025-06-01", "2025-06-02")
	over.NumGuests = 3
	_, err := f.svc.CreateGuestBooking(ctx, f.guest, over)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = f.svc.CreateGuestBooking(ctx, f.guest, stay(9999, "2025-06-01", "2025-06-02"))
	assert.ErrorIs(t, err, ErrRoomNotFound)

	assert.Equal(t, 0, f.auditCount(t))
}

func TestCreate_RoleGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateGuestBooking(ctx, f.reception, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	assert.ErrorIs(t, err, authz.ErrNotPermitted)

	_, err = f.svc.CreateReceptionBooking(ctx, f.guest, desk(f.other.Email, stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	assert.ErrorIs(t, err, authz.ErrNotPermitted)

	_, err = f.svc.CreateGuestBooking(ctx, authz.Actor{}, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	assert.ErrorIs(t, err, authz.ErrNotPermitted)
}

func TestPendingDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)
	_, err = f.svc.CreateGuestBooking(ctx, f.other, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)

	b, err := f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.other.Email, stay(f.room101.ID, "2025-06-02", "2025-06-04")))
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, domain.RoomBooked, f.roomStatus(t, f.room101.ID))
}

func TestFullStayLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)

	b, err = f.svc.UpdateBookingStatus(ctx, f.reception, b.ID, domain.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, domain.RoomBooked, f.roomStatus(t, f.room101.ID))

	before := f.auditCount(t)
	b, err = f.svc.CheckIn(ctx, f.reception, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedIn, b.Status)
	assert.Equal(t, domain.RoomBooked, f.roomStatus(t, f.room101.ID))
	assert.Equal(t, before+2, f.auditCount(t), "check-in logs the booking and its room")

	before = f.auditCount(t)
	b, err = f.svc.CheckOut(ctx, f.reception, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedOut, b.Status)
	assert.Equal(t, domain.RoomAvailable, f.roomStatus(t, f.room101.ID))
	assert.Equal(t, before+2, f.auditCount(t))

	again, err := f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.other.Email, stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, again.Status)
}

func TestCheckInOut_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)
	before := f.auditCount(t)

	_, err = f.svc.CheckIn(ctx, f.reception, b.ID)
	assert.ErrorIs(t, err, ErrMustBeConfirmed)
	_, err = f.svc.CheckOut(ctx, f.reception, b.ID)
	assert.ErrorIs(t, err, ErrMustBeCheckedIn)

	assert.Equal(t, domain.BookingPending, f.bookingStatus(t, b.ID))
	assert.Equal(t, domain.RoomReserved, f.roomStatus(t, f.room101.ID))
	assert.Equal(t, before, f.auditCount(t))

	_, err = f.svc.CheckIn(ctx, f.guest, b.ID)
	assert.ErrorIs(t, err, authz.ErrNotPermitted)

	_, err = f.svc.CheckIn(ctx, f.reception, 424242)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestConfirm_DatesTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)
	_, err = f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.other.Email, stay(f.room101.ID, "2025-06-02", "2025-06-04")))
	require.NoError(t, err)

	_, err = f.svc.UpdateBookingStatus(ctx, f.reception, pending.ID, domain.BookingConfirmed)
	assert.ErrorIs(t, err, ErrDatesTaken)
	assertKind(t, err, apperror.KindConflict)
	assert.Equal(t, domain.BookingPending, f.bookingStatus(t, pending.ID))
}

func TestUpdateBookingStatus_Illegal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)

	_, err = f.svc.UpdateBookingStatus(ctx, f.reception, b.ID, domain.BookingCheckedOut)
	assertKind(t, err, apperror.KindConflict)

	_, err = f.svc.UpdateBookingStatus(ctx, f.reception, b.ID, domain.BookingPending)
	assertKind(t, err, apperror.KindConflict)

	_, err = f.svc.UpdateBookingStatus(ctx, f.reception, b.ID, "lost")
	assertKind(t, err, apperror.KindValidation)

	_, err = f.svc.UpdateBookingStatus(ctx, f.guest, b.ID, domain.BookingConfirmed)
	assert.ErrorIs(t, err, authz.ErrNotPermitted)
}

func TestCancelBooking_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(ctx, f.other, b.ID)
	assert.ErrorIs(t, err, authz.ErrNotPermitted)
	_, err = f.svc.CancelBooking(ctx, f.other, 424242)
	assert.ErrorIs(t, err, authz.ErrNotPermitted, "missing bookings look the same as foreign ones to guests")

	b, err = f.svc.CancelBooking(ctx, f.guest, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, b.Status)
	assert.Equal(t, domain.RoomAvailable, f.roomStatus(t, f.room101.ID))

	_, err = f.svc.CancelBooking(ctx, f.guest, b.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestCancel_KeepsRoomBookedByOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-07-01", "2025-07-03"))
	require.NoError(t, err)
	_, err = f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.other.Email, stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(ctx, f.guest, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomBooked, f.roomStatus(t, f.room101.ID))
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.guest.Email, stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteBooking(ctx, f.guest, b.ID), authz.ErrNotPermitted)

	require.NoError(t, f.svc.DeleteBooking(ctx, f.reception, b.ID))
	assert.Equal(t, domain.RoomAvailable, f.roomStatus(t, f.room101.ID))

	_, err = f.svc.GetBooking(ctx, f.reception, b.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.ErrorIs(t, f.svc.DeleteBooking(ctx, f.reception, b.ID), ErrBookingNotFound)
}

func TestMaintenance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)

	room, err := f.svc.MarkRoomMaintenance(ctx, f.reception, f.room101.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomMaintenance, room.Status)

	// Idempotent.
	_, err = f.svc.MarkRoomMaintenance(ctx, f.reception, f.room101.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateGuestBooking(ctx, f.other, stay(f.room101.ID, "2025-08-01", "2025-08-03"))
	assert.ErrorIs(t, err, ErrRoomInMaintenance)
	_, err = f.svc.UpdateBookingStatus(ctx, f.reception, pending.ID, domain.BookingConfirmed)
	assert.ErrorIs(t, err, ErrRoomInMaintenance)

	// Cancelling does not lift maintenance.
	_, err = f.svc.CancelBooking(ctx, f.guest, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomMaintenance, f.roomStatus(t, f.room101.ID))

	room, err = f.svc.FinishRoomMaintenance(ctx, f.reception, f.room101.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomAvailable, room.Status)

	_, err = f.svc.FinishRoomMaintenance(ctx, f.reception, f.room101.ID)
	assert.ErrorIs(t, err, ErrNotInMaintenance)

	_, err = f.svc.MarkRoomMaintenance(ctx, f.guest, f.room101.ID)
	assert.ErrorIs(t, err, authz.ErrNotPermitted)
}

func TestFinishMaintenance_RestoresOccupancy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.guest.Email, stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	require.NoError(t, err)
	_, err = f.svc.MarkRoomMaintenance(ctx, f.reception, f.room101.ID)
	require.NoError(t, err)

	room, err := f.svc.FinishRoomMaintenance(ctx, f.reception, f.room101.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomBooked, room.Status)
	assert.Equal(t, domain.RoomBooked, f.roomStatus(t, f.room101.ID))
}

func TestUpdateRoomStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateRoomStatus(ctx, f.reception, f.room101.ID, domain.RoomBooked)
	assert.ErrorIs(t, err, ErrInvalidRoomStatus)

	room, err := f.svc.UpdateRoomStatus(ctx, f.reception, f.room101.ID, domain.RoomAvailable)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomAvailable, room.Status)

	_, err = f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)
	_, err = f.svc.UpdateRoomStatus(ctx, f.reception, f.room101.ID, domain.RoomAvailable)
	assert.ErrorIs(t, err, ErrRoomOccupied)

	room, err = f.svc.UpdateRoomStatus(ctx, f.reception, f.room101.ID, domain.RoomMaintenance)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomMaintenance, room.Status)

	room, err = f.svc.UpdateRoomStatus(ctx, f.reception, f.room101.ID, domain.RoomAvailable)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomReserved, room.Status)
}

func TestGetBooking_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)

	got, err := f.svc.GetBooking(ctx, f.guest, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Room)
	assert.Equal(t, "101", got.Room.Number)

	_, err = f.svc.GetBooking(ctx, f.other, b.ID)
	assert.ErrorIs(t, err, authz.ErrNotPermitted)
	_, err = f.svc.GetBooking(ctx, f.other, 424242)
	assert.ErrorIs(t, err, authz.ErrNotPermitted)

	_, err = f.svc.GetBooking(ctx, f.admin, b.ID)
	require.NoError(t, err)
}

func TestListBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)
	_, err = f.svc.CreateGuestBooking(ctx, f.other, stay(f.room102.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)

	mine, err := f.svc.ListOwnBookings(ctx, f.guest, 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.guest.ID, mine[0].GuestID)

	all, err := f.svc.ListAllBookings(ctx, f.reception, repository.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListAllBookings(ctx, f.guest, repository.BookingFilter{})
	assert.ErrorIs(t, err, authz.ErrNotPermitted)

	_, err = f.svc.ListAllBookings(ctx, f.reception, repository.BookingFilter{Status: "lost"})
	assertKind(t, err, apperror.KindValidation)
}

func TestListRoomsAndAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.guest.Email, stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	require.NoError(t, err)

	booked, err := f.svc.ListRooms(ctx, f.guest, repository.RoomFilter{Status: domain.RoomBooked})
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, "101", booked[0].Number)

	res, err := f.svc.CheckAvailability(ctx, f.guest, f.room101.ID, domain.MustParseDate("2025-06-02"), domain.MustParseDate("2025-06-04"))
	require.NoError(t, err)
	assert.False(t, res.Available)

	res, err = f.svc.CheckAvailability(ctx, f.guest, f.room101.ID, domain.MustParseDate("2025-06-03"), domain.MustParseDate("2025-06-04"))
	require.NoError(t, err)
	assert.True(t, res.Available)

	_, err = f.svc.CheckAvailability(ctx, f.guest, f.room101.ID, domain.MustParseDate("2025-06-04"), domain.MustParseDate("2025-06-03"))
	assert.ErrorIs(t, err, ErrInvalidDates)
}

func TestConcurrentReceptionBookings_OneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.guest.Email, stay(f.room101.ID, "2025-06-01", "2025-06-03")))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperror.IsKind(err, apperror.KindValidation):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, rejected)

	confirmed, err := f.svc.ListAllBookings(ctx, f.reception, repository.BookingFilter{Status: domain.BookingConfirmed})
	require.NoError(t, err)
	assert.Len(t, confirmed, 1)
}

func TestConcurrentConfirms_OneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []int64
	for _, guest := range []authz.Actor{f.guest, f.other} {
		b, err := f.svc.CreateGuestBooking(ctx, guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.UpdateBookingStatus(ctx, f.reception, id, domain.BookingConfirmed)
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrDatesTaken)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, domain.RoomBooked, f.roomStatus(t, f.room101.ID))
}

func TestRoomChangesPublishedOnlyAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	feed := &mockFeed{}
	svc := NewService(f.db, audit.NewDirectRecorder(), feed)

	_, err := svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-03", "2025-06-01"))
	require.Error(t, err)
	feed.AssertNotCalled(t, "RoomStatusChanged", mock.Anything, mock.Anything)

	feed.On("RoomStatusChanged", mock.Anything, mock.Anything).Return().Once()
	_, err = svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)
	feed.AssertExpectations(t)
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, *gorm.DB, ...domain.AuditLog) error {
	return errors.New("audit store unavailable")
}

func (f *fixture) bookingCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Table("bookings").Count(&n).Error)
	return n
}

func TestCreateGuestBooking_AuditFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	feed := &mockFeed{}
	svc := NewService(f.db, failingRecorder{}, feed)

	_, err := svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	require.Error(t, err)

	assert.Zero(t, f.bookingCount(t))
	assert.Equal(t, domain.RoomAvailable, f.roomStatus(t, f.room101.ID))
	assert.Zero(t, f.auditCount(t))
	feed.AssertNotCalled(t, "RoomStatusChanged", mock.Anything, mock.Anything)
}

func TestCheckIn_AuditFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.guest.Email, stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	require.NoError(t, err)
	require.Equal(t, domain.BookingConfirmed, b.Status)
	before := f.auditCount(t)

	feed := &mockFeed{}
	svc := NewService(f.db, failingRecorder{}, feed)

	_, err = svc.CheckIn(ctx, f.reception, b.ID)
	require.Error(t, err)

	assert.Equal(t, domain.BookingConfirmed, f.bookingStatus(t, b.ID))
	assert.Equal(t, domain.RoomBooked, f.roomStatus(t, f.room101.ID))
	assert.Equal(t, int64(1), f.bookingCount(t))
	assert.Equal(t, before, f.auditCount(t))
	feed.AssertNotCalled(t, "RoomStatusChanged", mock.Anything, mock.Anything)
}

func TestCreateGuestBooking_DeletedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, repository.NewUserRepository(f.db).Delete(ctx, f.guest.ID))

	_, err := f.svc.CreateGuestBooking(ctx, f.guest, stay(f.room101.ID, "2025-06-01", "2025-06-03"))
	assert.ErrorIs(t, err, authz.ErrNotPermitted)
	assertKind(t, err, apperror.KindPermission)

	assert.Zero(t, f.bookingCount(t))
	assert.Equal(t, domain.RoomAvailable, f.roomStatus(t, f.room101.ID))
}

func TestCheckOut_OtherPendingKeepsRoomReserved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateReceptionBooking(ctx, f.reception, desk(f.guest.Email, stay(f.room101.ID, "2025-06-01", "2025-06-03")))
	require.NoError(t, err)
	_, err = f.svc.CreateGuestBooking(ctx, f.other, stay(f.room101.ID, "2025-06-10", "2025-06-12"))
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, f.reception, b.ID)
	require.NoError(t, err)
	_, err = f.svc.CheckOut(ctx, f.reception, b.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingCheckedOut, f.bookingStatus(t, b.ID))
	assert.Equal(t, domain.RoomReserved, f.roomStatus(t, f.room101.ID))
}

func TestUpdateRoomStatus_ConcurrentRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateRoomStatus(ctx, f.reception, f.room101.ID, domain.RoomMaintenance)
	require.NoError(t, err)

	feed := &mockFeed{}
	feed.On("RoomStatusChanged", mock.Anything, mock.Anything).Return().Maybe()
	svc := NewService(f.db, audit.NewDirectRecorder(), feed)

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.UpdateRoomStatus(ctx, f.reception, f.room101.ID, domain.RoomAvailable)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, domain.RoomAvailable, f.roomStatus(t, f.room101.ID))

	var released int
	for _, c := range feed.Calls {
		if change := c.Arguments.Get(1).(domain.RoomStatusChange); change.From == domain.RoomMaintenance {
			released++
		}
	}
	assert.Equal(t, 1, released)

	_, err = svc.UpdateRoomStatus(ctx, f.reception, 9999, domain.RoomAvailable)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
