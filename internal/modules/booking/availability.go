package booking

import (
	"context"

	"hotel/internal/domain"
)

// ValidateStay rejects missing dates and stays of zero or negative nights.
func ValidateStay(checkIn, checkOut domain.Date) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return ErrDatesRequired
	}
	if !checkIn.Before(checkOut) {
		return ErrInvalidDates
	}
	return nil
}

// IsAvailable reports whether no confirmed or checked-in booking of the room
// overlaps [checkIn, checkOut). Pending bookings never block. Run it inside
// the transaction that holds the room lock, or the answer may be stale.
func IsAvailable(ctx context.Context, q OverlapQuerier, roomID int64, checkIn, checkOut domain.Date, excludeBookingID int64) (bool, error) {
	if err := ValidateStay(checkIn, checkOut); err != nil {
		return false, err
	}
	overlap, err := q.HasOverlap(ctx, roomID, checkIn, checkOut, excludeBookingID)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}
