package booking

import "hotel/internal/domain"

type CreateBookingRequest struct {
	RoomID    int64       `json:"room_id" binding:"required,gt=0"`
	CheckIn   domain.Date `json:"check_in"`
	CheckOut  domain.Date `json:"check_out"`
	NumGuests int         `json:"num_guests" binding:"required,gte=1"`
}

// ReceptionBookingRequest books on behalf of an existing guest account.
type ReceptionBookingRequest struct {
	GuestEmail string `json:"guest_email" binding:"required"`
	CreateBookingRequest
}

type UpdateBookingStatusRequest struct {
	Status domain.BookingStatus `json:"status" binding:"required"`
}

type UpdateRoomStatusRequest struct {
	Status domain.RoomStatus `json:"status" binding:"required"`
}

type AvailabilityResponse struct {
	RoomID    int64       `json:"room_id"`
	CheckIn   domain.Date `json:"check_in"`
	CheckOut  domain.Date `json:"check_out"`
	Available bool        `json:"available"`
}
