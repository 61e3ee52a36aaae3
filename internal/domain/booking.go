package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingCheckedIn  BookingStatus = "checked_in"
	BookingCheckedOut BookingStatus = "checked_out"
	BookingCancelled  BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCheckedIn, BookingCheckedOut, BookingCancelled:
		return true
	}
	return false
}

// Blocking statuses hold the room's dates against any overlapping booking.
var BlockingBookingStatuses = []BookingStatus{BookingConfirmed, BookingCheckedIn}

// Live statuses still have a say in the room's status.
var LiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCheckedIn}

type Booking struct {
	ID         int64           `json:"id"`
	GuestID    int64           `json:"guest_id"`
	RoomID     int64           `json:"room_id"`
	CheckIn    Date            `json:"check_in"`
	CheckOut   Date            `json:"check_out"`
	NumGuests  int             `json:"num_guests"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     BookingStatus   `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Guest *User `json:"guest,omitempty"`
	Room  *Room `json:"room,omitempty"`
}

func (b *Booking) Nights() int {
	return b.CheckIn.DaysUntil(b.CheckOut)
}

// Overlaps applies the half-open rule: back-to-back stays do not overlap.
func (b *Booking) Overlaps(checkIn, checkOut Date) bool {
	return b.CheckIn.Before(checkOut) && checkIn.Before(b.CheckOut)
}

// TotalFor prices a stay at the nightly rate.
func TotalFor(pricePerNight decimal.Decimal, checkIn, checkOut Date) decimal.Decimal {
	return pricePerNight.Mul(decimal.NewFromInt(int64(checkIn.DaysUntil(checkOut))))
}
