// Package authz is the single authorization gate: every operation declares the
// roles allowed to run it, and the gate is consulted before any mutation.
package authz

import (
	"hotel/internal/domain"
	"hotel/internal/pkg/apperror"
)

type Operation string

const (
	OpCreateGuestBooking     Operation = "booking.create_guest"
	OpCreateReceptionBooking Operation = "booking.create_reception"
	OpUpdateBookingStatus    Operation = "booking.update_status"
	OpCheckIn                Operation = "booking.check_in"
	OpCheckOut               Operation = "booking.check_out"
	OpCancelBooking          Operation = "booking.cancel"
	OpDeleteBooking          Operation = "booking.delete"
	OpListOwnBookings        Operation = "booking.list_own"
	OpListAllBookings        Operation = "booking.list_all"
	OpViewBooking            Operation = "booking.view"

	OpListRooms             Operation = "room.list"
	OpMarkRoomMaintenance   Operation = "room.mark_maintenance"
	OpFinishRoomMaintenance Operation = "room.finish_maintenance"
	OpUpdateRoomStatus      Operation = "room.update_status"
	OpCreateRoom            Operation = "room.create"
	OpWatchRooms            Operation = "room.watch"

	OpCreatePayment Operation = "payment.create"
	OpListPayments  Operation = "payment.list"

	OpListUsers     Operation = "user.list"
	OpChangeRole    Operation = "user.change_role"
	OpDeleteUser    Operation = "user.delete"
	OpListAuditLogs Operation = "audit.list"
)

var (
	anyRole   = []domain.UserRole{domain.RoleAdmin, domain.RoleReception, domain.RoleGuest}
	staff     = []domain.UserRole{domain.RoleAdmin, domain.RoleReception}
	reception = []domain.UserRole{domain.RoleReception}
	admin     = []domain.UserRole{domain.RoleAdmin}
	guest     = []domain.UserRole{domain.RoleGuest}
)

// policy is keyed by operation; an operation missing here is denied to everyone.
var policy = map[Operation][]domain.UserRole{
	OpCreateGuestBooking:     guest,
	OpCreateReceptionBooking: staff,
	OpUpdateBookingStatus:    staff,
	OpCheckIn:                reception,
	OpCheckOut:               reception,
	OpCancelBooking:          anyRole,
	OpDeleteBooking:          reception,
	OpListOwnBookings:        anyRole,
	OpListAllBookings:        staff,
	OpViewBooking:            anyRole,

	OpListRooms:             anyRole,
	OpMarkRoomMaintenance:   reception,
	OpFinishRoomMaintenance: reception,
	OpUpdateRoomStatus:      reception,
	OpCreateRoom:            admin,
	OpWatchRooms:            staff,

	OpCreatePayment: anyRole,
	OpListPayments:  anyRole,

	OpListUsers:     admin,
	OpChangeRole:    admin,
	OpDeleteUser:    admin,
	OpListAuditLogs: admin,
}

// ErrNotPermitted never says whether the target exists.
var ErrNotPermitted = apperror.Permission("You are not permitted to perform this action")

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    int64
	Role  domain.UserRole
	Email string
}

func (a Actor) IsGuest() bool { return a.Role == domain.RoleGuest }

func Allowed(role domain.UserRole, op Operation) bool {
	for _, r := range policy[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize checks the actor's role against the policy table.
func Authorize(actor Actor, op Operation) error {
	if actor.ID <= 0 || !Allowed(actor.Role, op) {
		return ErrNotPermitted
	}
	return nil
}

// AuthorizeOwner additionally restricts guests to resources they own.
// Staff roles pass through once the role check succeeds.
func AuthorizeOwner(actor Actor, op Operation, ownerID int64) error {
	if err := Authorize(actor, op); err != nil {
		return err
	}
	if actor.IsGuest() && actor.ID != ownerID {
		return ErrNotPermitted
	}
	return nil
}
