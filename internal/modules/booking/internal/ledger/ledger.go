// Package ledger holds the only writes to booking and room status. Living
// under booking/internal, it can be imported by the booking coordinator alone.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrNoRows = errors.New("ledger: no rows affected")

// Writer mutates bookings and rooms inside one open transaction.
type Writer struct {
	tx *gorm.DB
}

func New(tx *gorm.DB) *Writer {
	return &Writer{tx: tx}
}

type bookingRow struct {
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

func (bookingRow) TableName() string { return "bookings" }

func (w *Writer) InsertBooking(ctx context.Context, b *domain.Booking) error {
	row := bookingRow{
		GuestID:    b.GuestID,
		RoomID:     b.RoomID,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		NumGuests:  b.NumGuests,
		TotalPrice: b.TotalPrice,
		Status:     string(b.Status),
	}
	if err := w.tx.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID = row.ID
	b.CreatedAt = row.CreatedAt
	b.UpdatedAt = row.UpdatedAt
	return nil
}

func (w *Writer) SetBookingStatus(ctx context.Context, b *domain.Booking, status domain.BookingStatus) error {
	now := time.Now()
	if err := w.update(ctx, "bookings", b.ID, status, now); err != nil {
		return fmt.Errorf("set booking %d status: %w", b.ID, err)
	}
	b.Status = status
	b.UpdatedAt = now
	return nil
}

func (w *Writer) DeleteBooking(ctx context.Context, id int64) error {
	res := w.tx.WithContext(ctx).Delete(&bookingRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete booking %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (w *Writer) SetRoomStatus(ctx context.Context, r *domain.Room, status domain.RoomStatus) error {
	now := time.Now()
	if err := w.update(ctx, "rooms", r.ID, status, now); err != nil {
		return fmt.Errorf("set room %d status: %w", r.ID, err)
	}
	r.Status = status
	r.UpdatedAt = now
	return nil
}

func (w *Writer) update(ctx context.Context, table string, id int64, status any, now time.Time) error {
	res := w.tx.WithContext(ctx).
		Table(table).
		Where("id = ?", id).
		Updates(map[string]any{"status": fmt.Sprint(status), "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}
