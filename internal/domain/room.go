package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomReserved    RoomStatus = "reserved"
	RoomBooked      RoomStatus = "booked"
	RoomMaintenance RoomStatus = "maintenance"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomReserved, RoomBooked, RoomMaintenance:
		return true
	}
	return false
}

// Room is read-only outside the booking coordinator: Status is only ever
// written by room transitions.
type Room struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description,omitempty"`
	Floor         int             `json:"floor"`
	Capacity      int             `json:"capacity" validate:"required,gt=0"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	Status        RoomStatus      `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RoomStatusChange describes a committed room status transition.
type RoomStatusChange struct {
	RoomID     int64      `json:"room_id"`
	RoomNumber string     `json:"room_number"`
	From       RoomStatus `json:"from"`
	To         RoomStatus `json:"to"`
	Reason     string     `json:"reason"`
	ChangedAt  time.Time  `json:"changed_at"`
}
