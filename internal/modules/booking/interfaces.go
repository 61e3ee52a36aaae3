package booking

import (
	"context"

	"hotel/internal/domain"
)

// RoomFeed is told about room status changes once they are committed.
type RoomFeed interface {
	RoomStatusChanged(ctx context.Context, change domain.RoomStatusChange)
}

type noopFeed struct{}

func (noopFeed) RoomStatusChanged(context.Context, domain.RoomStatusChange) {}

// OverlapQuerier is the slice of the booking ledger the availability check reads.
type OverlapQuerier interface {
	HasOverlap(ctx context.Context, roomID int64, checkIn, checkOut domain.Date, excludeID int64) (bool, error)
}
