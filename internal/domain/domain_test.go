package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSONRoundTrip(t *testing.T) {
	var payload struct {
		CheckIn Date `json:"check_in"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"check_in":"2025-06-01"}`), &payload))
	assert.Equal(t, NewDate(2025, time.June, 1), payload.CheckIn)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"check_in":"2025-06-01"}`, string(out))
}

func TestDate_RejectsTimeComponent(t *testing.T) {
	var d Date
	err := json.Unmarshal([]byte(`"2025-06-01T10:00:00Z"`), &d)
	assert.Error(t, err)
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2025-06-03"))
	assert.Equal(t, "2025-06-03", d.String())

	require.NoError(t, d.Scan(time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-06-04", d.String())

	require.NoError(t, d.Scan([]byte("2025-06-05 00:00:00+00:00")))
	assert.Equal(t, "2025-06-05", d.String())

	assert.Error(t, d.Scan(42))
}

func TestBooking_OverlapIsHalfOpen(t *testing.T) {
	b := Booking{CheckIn: MustParseDate("2025-06-01"), CheckOut: MustParseDate("2025-06-03")}

	assert.True(t, b.Overlaps(MustParseDate("2025-06-02"), MustParseDate("2025-06-04")))
	assert.True(t, b.Overlaps(MustParseDate("2025-05-30"), MustParseDate("2025-06-02")))
	assert.False(t, b.Overlaps(MustParseDate("2025-06-03"), MustParseDate("2025-06-05")), "back-to-back stays")
	assert.False(t, b.Overlaps(MustParseDate("2025-05-30"), MustParseDate("2025-06-01")))
}

func TestTotalFor(t *testing.T) {
	total := TotalFor(decimal.RequireFromString("100.00"), MustParseDate("2025-06-01"), MustParseDate("2025-06-03"))
	assert.True(t, total.Equal(decimal.RequireFromString("200")), "got %s", total)
}

func TestOccupancyFor(t *testing.T) {
	assert.Equal(t, RoomAvailable, OccupancyFor(nil))
	assert.Equal(t, RoomReserved, OccupancyFor([]BookingStatus{BookingPending}))
	assert.Equal(t, RoomBooked, OccupancyFor([]BookingStatus{BookingPending, BookingConfirmed}))
	assert.Equal(t, RoomBooked, OccupancyFor([]BookingStatus{BookingCheckedIn}))
}

func TestBookingEventFor(t *testing.T) {
	ev, ok := BookingEventFor(BookingCheckedIn)
	require.True(t, ok)
	assert.Equal(t, EventCheckIn, ev)

	_, ok = BookingEventFor(BookingPending)
	assert.False(t, ok, "nothing transitions back to pending")
}

func TestNewAuditLog_SystemActor(t *testing.T) {
	entry := NewAuditLog(0, AuditCreate, ModelRoom, 7, "Created room 101")
	assert.Nil(t, entry.ActorID)
	assert.NotEmpty(t, entry.EventID)
	assert.True(t, entry.WellFormed())
}
