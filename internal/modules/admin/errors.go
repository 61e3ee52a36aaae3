package admin

import (
	"maps"
	"slices"

	"hotel/internal/pkg/apperror"
)

var (
	ErrInvalidID         = apperror.Validation("ID must be a positive integer")
	ErrInvalidRole       = apperror.Validation("Role must be one of admin, reception, guest")
	ErrInvalidPrice      = apperror.Validation("Price per night must not be negative")
	ErrCannotChangeSelf  = apperror.Conflict("You cannot change your own role")
	ErrCannotDeleteSelf  = apperror.Conflict("You cannot delete your own account")
	ErrCannotDeleteAdmin = apperror.Conflict("Admin accounts cannot be deleted")
	ErrUserHasBookings   = apperror.Conflict("User has active bookings; cancel them first")
	ErrRoomNumberTaken   = apperror.Conflict("A room with this number already exists")
	ErrUserNotFound      = apperror.NotFound("User not found")
)

func errInvalidRoom(fields map[string]string) error {
	names := slices.Sorted(maps.Keys(fields))
	if len(names) == 0 {
		return apperror.Validation("Invalid room")
	}
	return apperror.Validationf("Invalid room field %s (%s)", names[0], fields[names[0]])
}
