package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel/internal/database/dbtest"
	"hotel/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedGuestAndRoom(t *testing.T, db *gorm.DB) (*domain.User, *domain.Room) {
	t.Helper()
	ctx := context.Background()

	u := &domain.User{Email: " Guest@Example.com ", Username: "guest", PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).Create(ctx, u))

	room := &domain.Room{Number: "101", Name: "Standard", Floor: 1, Capacity: 2, PricePerNight: decimal.NewFromInt(100), Status: domain.RoomMaintenance}
	require.NoError(t, NewRoomRepository(db).Create(ctx, room))
	return u, room
}

func insertBooking(t *testing.T, db *gorm.DB, guestID, roomID int64, in, out string, status domain.BookingStatus) int64 {
	t.Helper()
	m := bookingModel{
		GuestID:    guestID,
		RoomID:     roomID,
		CheckIn:    domain.MustParseDate(in),
		CheckOut:   domain.MustParseDate(out),
		NumGuests:  1,
		TotalPrice: decimal.NewFromInt(100),
		Status:     string(status),
	}
	require.NoError(t, db.Create(&m).Error)
	return m.ID
}

func TestUserRepository_NormalizesEmail(t *testing.T) {
	db := dbtest.New(t).Gorm
	u, _ := seedGuestAndRoom(t, db)

	assert.Equal(t, "guest@example.com", u.Email)
	assert.Equal(t, domain.RoleGuest, u.Role)

	got, err := NewUserRepository(db).GetByEmail(context.Background(), "GUEST@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = NewUserRepository(db).GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := dbtest.New(t).Gorm
	seedGuestAndRoom(t, db)

	err := NewUserRepository(db).Create(context.Background(), &domain.User{Email: "guest@example.com", Username: "other", PasswordHash: "x"})
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)
}

func TestRoomRepository_CreateStartsAvailable(t *testing.T) {
	db := dbtest.New(t).Gorm
	_, room := seedGuestAndRoom(t, db)

	assert.Equal(t, domain.RoomAvailable, room.Status)

	got, err := NewRoomRepository(db).GetByIDForUpdate(context.Background(), room.ID)
	require.NoError(t, err)
	assert.True(t, got.PricePerNight.Equal(decimal.NewFromInt(100)))
}

func TestBookingRepository_HasOverlap(t *testing.T) {
	db := dbtest.New(t).Gorm
	u, room := seedGuestAndRoom(t, db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	confirmed := insertBooking(t, db, u.ID, room.ID, "2025-06-01", "2025-06-03", domain.BookingConfirmed)
	insertBooking(t, db, u.ID, room.ID, "2025-06-10", "2025-06-12", domain.BookingPending)
	insertBooking(t, db, u.ID, room.ID, "2025-06-20", "2025-06-22", domain.BookingCheckedOut)

	cases := []struct {
		in, out string
		exclude int64
		want    bool
	}{
		{"2025-06-02", "2025-06-04", 0, true},
		{"2025-06-03", "2025-06-05", 0, false},
		{"2025-05-30", "2025-06-01", 0, false},
		{"2025-06-10", "2025-06-12", 0, false},
		{"2025-06-20", "2025-06-22", 0, false},
		{"2025-06-02", "2025-06-04", confirmed, false},
	}
	for _, tc := range cases {
		got, err := repo.HasOverlap(ctx, room.ID, domain.MustParseDate(tc.in), domain.MustParseDate(tc.out), tc.exclude)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s..%s exclude=%d", tc.in, tc.out, tc.exclude)
	}
}

func TestBookingRepository_LiveStatusesAndDates(t *testing.T) {
	db := dbtest.New(t).Gorm
	u, room := seedGuestAndRoom(t, db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	id := insertBooking(t, db, u.ID, room.ID, "2025-06-01", "2025-06-03", domain.BookingPending)
	insertBooking(t, db, u.ID, room.ID, "2025-07-01", "2025-07-03", domain.BookingCancelled)

	live, err := repo.LiveStatuses(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.BookingStatus{domain.BookingPending}, live)

	b, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", b.CheckIn.String())
	assert.Equal(t, 2, b.Nights())

	n, err := repo.CountLiveByGuest(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAuditRepository_InsertIsIdempotent(t *testing.T) {
	db := dbtest.New(t).Gorm
	repo := NewAuditRepository(db)
	ctx := context.Background()

	first := domain.NewAuditLog(1, domain.AuditCreate, domain.ModelBooking, 1, "Created booking")
	first.CreatedAt = time.Now().UTC().Add(-time.Minute)
	second := domain.NewAuditLog(0, domain.AuditRoomStatusChange, domain.ModelRoom, 1, "Room 101 available -> reserved")

	require.NoError(t, repo.Insert(ctx, first, second))
	require.NoError(t, repo.Insert(ctx, first))

	logs, err := repo.List(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, second.EventID, logs[0].EventID, "newest first")
	assert.Nil(t, logs[0].ActorID)
	require.NotNil(t, logs[1].ActorID)
	assert.Equal(t, int64(1), *logs[1].ActorID)

	rooms, err := repo.List(ctx, AuditFilter{ModelType: domain.ModelRoom})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}
