package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditCreate              AuditAction = "create"
	AuditUpdate              AuditAction = "update"
	AuditDelete              AuditAction = "delete"
	AuditLogin               AuditAction = "login"
	AuditLogout              AuditAction = "logout"
	AuditCheckIn             AuditAction = "check_in"
	AuditCheckOut            AuditAction = "check_out"
	AuditRoomStatusChange    AuditAction = "room_status_change"
	AuditBookingStatusChange AuditAction = "booking_status_change"
)

const (
	ModelBooking = "Booking"
	ModelRoom    = "Room"
	ModelUser    = "User"
	ModelPayment = "Payment"
)

// AuditLog is append-only. EventID makes redelivery of the same entry a no-op.
type AuditLog struct {
	ID          int64       `json:"id"`
	EventID     string      `json:"event_id"`
	ActorID     *int64      `json:"actor_id,omitempty"`
	Action      AuditAction `json:"action"`
	ModelType   string      `json:"model_type"`
	ObjectID    int64       `json:"object_id"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewAuditLog builds an entry stamped now. actorID 0 means a system action.
func NewAuditLog(actorID int64, action AuditAction, modelType string, objectID int64, description string) AuditLog {
	entry := AuditLog{
		EventID:     uuid.NewString(),
		Action:      action,
		ModelType:   modelType,
		ObjectID:    objectID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if actorID > 0 {
		id := actorID
		entry.ActorID = &id
	}
	return entry
}

func (e AuditLog) WellFormed() bool {
	return e.EventID != "" && e.Action != "" && e.ModelType != ""
}
