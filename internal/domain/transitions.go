package domain

type BookingEvent string

const (
	EventConfirm  BookingEvent = "confirm"
	EventCheckIn  BookingEvent = "check_in"
	EventCheckOut BookingEvent = "check_out"
	EventCancel   BookingEvent = "cancel"
)

type BookingTransition struct {
	Event BookingEvent
	Src   BookingStatus
	Dst   BookingStatus
}

// BookingTransitions is the only source of permitted booking status changes.
var BookingTransitions = []BookingTransition{
	{Event: EventConfirm, Src: BookingPending, Dst: BookingConfirmed},
	{Event: EventCheckIn, Src: BookingConfirmed, Dst: BookingCheckedIn},
	{Event: EventCheckOut, Src: BookingCheckedIn, Dst: BookingCheckedOut},
	{Event: EventCancel, Src: BookingPending, Dst: BookingCancelled},
	{Event: EventCancel, Src: BookingConfirmed, Dst: BookingCancelled},
}

// BookingEventFor maps a requested target status onto the event reaching it.
// Pending has no inbound event.
func BookingEventFor(target BookingStatus) (BookingEvent, bool) {
	for _, t := range BookingTransitions {
		if t.Dst == target {
			return t.Event, true
		}
	}
	return "", false
}

type RoomEvent string

const (
	EventReserve           RoomEvent = "reserve"
	EventBook              RoomEvent = "book"
	EventRelease           RoomEvent = "release"
	EventStartMaintenance  RoomEvent = "start_maintenance"
	EventFinishMaintenance RoomEvent = "finish_maintenance"
)

type RoomTransition struct {
	Event RoomEvent
	Src   RoomStatus
	Dst   RoomStatus
}

var RoomTransitions = []RoomTransition{
	{Event: EventReserve, Src: RoomAvailable, Dst: RoomReserved},
	{Event: EventReserve, Src: RoomBooked, Dst: RoomReserved},
	{Event: EventBook, Src: RoomAvailable, Dst: RoomBooked},
	{Event: EventBook, Src: RoomReserved, Dst: RoomBooked},
	{Event: EventRelease, Src: RoomReserved, Dst: RoomAvailable},
	{Event: EventRelease, Src: RoomBooked, Dst: RoomAvailable},
	{Event: EventStartMaintenance, Src: RoomAvailable, Dst: RoomMaintenance},
	{Event: EventStartMaintenance, Src: RoomReserved, Dst: RoomMaintenance},
	{Event: EventStartMaintenance, Src: RoomBooked, Dst: RoomMaintenance},
	{Event: EventFinishMaintenance, Src: RoomMaintenance, Dst: RoomAvailable},
}

// RoomEventFor returns the occupancy event that moves a room to target.
func RoomEventFor(target RoomStatus) (RoomEvent, bool) {
	switch target {
	case RoomReserved:
		return EventReserve, true
	case RoomBooked:
		return EventBook, true
	case RoomAvailable:
		return EventRelease, true
	case RoomMaintenance:
		return EventStartMaintenance, true
	}
	return "", false
}

// OccupancyFor derives a room's status from the statuses of its live bookings.
// Confirmed or checked-in stays win over pending requests.
func OccupancyFor(live []BookingStatus) RoomStatus {
	status := RoomAvailable
	for _, s := range live {
		switch s {
		case BookingConfirmed, BookingCheckedIn:
			return RoomBooked
		case BookingPending:
			status = RoomReserved
		}
	}
	return status
}
