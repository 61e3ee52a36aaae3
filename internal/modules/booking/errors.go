package booking

import (
	"fmt"

	"hotel/internal/domain"
	"hotel/internal/pkg/apperror"
)

var (
	ErrInvalidID          = apperror.Validation("ID must be a positive integer")
	ErrDatesRequired      = apperror.Validation("Check-in and check-out dates are required")
	ErrInvalidDates       = apperror.Validation("Check-out date must be after check-in date")
	ErrInvalidGuestCount  = apperror.Validation("Number of guests must be at least 1")
	ErrCapacityExceeded   = apperror.Validation("Number of guests exceeds room capacity")
	ErrGuestEmailRequired = apperror.Validation("Guest email is required")
	ErrRoomNotAvailable   = apperror.Validation("Room is not available for the selected dates")
	ErrInvalidRoomStatus  = apperror.Validation("Room status can only be set to maintenance or available")

	ErrDatesTaken        = apperror.Conflict("Room is not available for the selected dates")
	ErrRoomInMaintenance = apperror.Conflict("Room is under maintenance")
	ErrNotInMaintenance  = apperror.Conflict("Room is not currently under maintenance")
	ErrRoomOccupied      = apperror.Conflict("Room has active bookings; its status follows them")
	ErrMustBeConfirmed   = apperror.Conflict("Booking must be confirmed to check-in")
	ErrMustBeCheckedIn   = apperror.Conflict("Booking must be checked-in to check-out")
	ErrNotCancellable    = apperror.Conflict("Only pending or confirmed bookings can be cancelled")

	ErrBookingNotFound = apperror.NotFound("Booking not found")
	ErrRoomNotFound    = apperror.NotFound("Room not found")
	ErrGuestNotFound   = apperror.NotFound("Guest account not found")
)

func errGuestNotFound(email string) error {
	return apperror.Validationf("No user found with email %s. Please register the guest first.", email)
}

func errInvalidBookingStatus(status domain.BookingStatus) error {
	return apperror.Validationf("Invalid booking status %q", status)
}

func errIllegalTransition(from, to domain.BookingStatus) error {
	return apperror.Conflict(fmt.Sprintf("Booking cannot move from %s to %s", from, to))
}
