package repository

import (
	"context"
	"time"

	"hotel/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingRepository is the read side of the booking ledger. Inserts and
// status writes belong to the booking coordinator.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

type bookingModel struct {
	ID         int64           `gorm:"column:id;primaryKey"`
	GuestID    int64           `gorm:"column:guest_id"`
	RoomID     int64           `gorm:"column:room_id"`
	CheckIn    domain.Date     `gorm:"column:check_in"`
	CheckOut   domain.Date     `gorm:"column:check_out"`
	NumGuests  int             `gorm:"column:num_guests"`
	TotalPrice decimal.Decimal `gorm:"column:total_price"`
	Status     string          `gorm:"column:status"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	return &domain.Booking{
		ID:         m.ID,
		GuestID:    m.GuestID,
		RoomID:     m.RoomID,
		CheckIn:    m.CheckIn,
		CheckOut:   m.CheckOut,
		NumGuests:  m.NumGuests,
		TotalPrice: m.TotalPrice,
		Status:     domain.BookingStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainBooking(m), nil
}

type BookingFilter struct {
	GuestID int64
	RoomID  int64
	Status  domain.BookingStatus
	Limit   int
	Offset  int
}

func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{})
	if f.GuestID > 0 {
		q = q.Where("guest_id = ?", f.GuestID)
	}
	if f.RoomID > 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var rows []bookingModel
	if err := paginate(q, f.Limit, f.Offset).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// HasOverlap reports whether a blocking booking of the room overlaps
// [checkIn, checkOut). excludeID > 0 leaves that booking out.
func (r *BookingRepository) HasOverlap(ctx context.Context, roomID int64, checkIn, checkOut domain.Date, excludeID int64) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("room_id = ?", roomID).
		Where("status IN ?", statusStrings(domain.BlockingBookingStatuses)).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// LiveStatuses returns the statuses of the room's bookings that still affect it.
func (r *BookingRepository) LiveStatuses(ctx context.Context, roomID int64) ([]domain.BookingStatus, error) {
	var raw []string
	err := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("room_id = ? AND status IN ?", roomID, statusStrings(domain.LiveBookingStatuses)).
		Pluck("status", &raw).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.BookingStatus, 0, len(raw))
	for _, s := range raw {
		out = append(out, domain.BookingStatus(s))
	}
	return out, nil
}

func (r *BookingRepository) CountLiveByGuest(ctx context.Context, guestID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("guest_id = ? AND status IN ?", guestID, statusStrings(domain.LiveBookingStatuses)).
		Count(&cnt).Error
	return cnt, err
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
