package conflict_test

import (
	"innkeep/internal/domains/availability/conflict"
	availabilityModel "innkeep/internal/domains/availability/model"
	bookingModel "innkeep/internal/domains/booking/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()

	d, err := time.Parse(time.DateOnly, value)
	require.NoError(t, err)

	return d
}

func stay(t *testing.T, checkIn, checkOut string) availabilityModel.Stay {
	t.Helper()

	return availabilityModel.Stay{CheckIn: date(t, checkIn), CheckOut: date(t, checkOut)}
}

func booking(t *testing.T, roomID, checkIn, checkOut string, status bookingModel.Status) bookingModel.Booking {
	t.Helper()

	return bookingModel.Booking{
		ID:           roomID + ":" + checkIn,
		RoomID:       roomID,
		CheckInDate:  date(t, checkIn),
		CheckOutDate: date(t, checkOut),
		Status:       status,
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a        [2]string
		b        [2]string
		expected bool
	}{
		{name: "identical", a: [2]string{"2026-03-01", "2026-03-05"}, b: [2]string{"2026-03-01", "2026-03-05"}, expected: true},
		{name: "contained", a: [2]string{"2026-03-01", "2026-03-10"}, b: [2]string{"2026-03-03", "2026-03-04"}, expected: true},
		{name: "partial tail", a: [2]string{"2026-03-01", "2026-03-05"}, b: [2]string{"2026-03-04", "2026-03-08"}, expected: true},
		{name: "back to back", a: [2]string{"2026-03-05", "2026-03-10"}, b: [2]string{"2026-03-10", "2026-03-12"}, expected: false},
		{name: "back to back reversed", a: [2]string{"2026-03-10", "2026-03-12"}, b: [2]string{"2026-03-05", "2026-03-10"}, expected: false},
		{name: "disjoint", a: [2]string{"2026-03-01", "2026-03-02"}, b: [2]string{"2026-04-01", "2026-04-02"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aIn, aOut := date(t, tt.a[0]), date(t, tt.a[1])
			bIn, bOut := date(t, tt.b[0]), date(t, tt.b[1])

			assert.Equal(t, tt.expected, conflict.Overlaps(aIn, aOut, bIn, bOut))
			assert.Equal(t, tt.expected, conflict.Overlaps(bIn, bOut, aIn, aOut), "overlap must be symmetric")
		})
	}
}

func TestIsBlocked_OnlyActiveBookingsBlock(t *testing.T) {
	request := stay(t, "2026-03-07", "2026-03-09")

	for _, status := range []bookingModel.Status{bookingModel.StatusPending, bookingModel.StatusConfirmed} {
		bookings := []bookingModel.Booking{booking(t, "r1", "2026-03-05", "2026-03-10", status)}
		assert.True(t, conflict.IsBlocked(bookings, request), "status %s must block", status)
	}

	for _, status := range []bookingModel.Status{bookingModel.StatusCancelled, bookingModel.StatusCompleted} {
		bookings := []bookingModel.Booking{booking(t, "r1", "2026-03-05", "2026-03-10", status)}
		assert.False(t, conflict.IsBlocked(bookings, request), "status %s must not block", status)
	}
}

func TestIsBlocked_BackToBackBoundary(t *testing.T) {
	bookings := []bookingModel.Booking{booking(t, "r1", "2026-03-05", "2026-03-10", bookingModel.StatusConfirmed)}

	assert.False(t, conflict.IsBlocked(bookings, stay(t, "2026-03-10", "2026-03-12")))
	assert.False(t, conflict.IsBlocked(bookings, stay(t, "2026-03-01", "2026-03-05")))
	assert.True(t, conflict.IsBlocked(bookings, stay(t, "2026-03-09", "2026-03-11")))
}

func TestIsBlocked_Empty(t *testing.T) {
	assert.False(t, conflict.IsBlocked(nil, stay(t, "2026-03-01", "2026-03-02")))
}

func TestBlockedRooms(t *testing.T) {
	bookings := []bookingModel.Booking{
		booking(t, "r1", "2026-03-01", "2026-03-04", bookingModel.StatusPending),
		booking(t, "r1", "2026-03-04", "2026-03-06", bookingModel.StatusConfirmed),
		booking(t, "r2", "2026-03-02", "2026-03-03", bookingModel.StatusCancelled),
		booking(t, "r3", "2026-02-20", "2026-03-02", bookingModel.StatusConfirmed),
		booking(t, "r4", "2026-03-05", "2026-03-09", bookingModel.StatusPending),
	}

	blocked := conflict.BlockedRooms(bookings, stay(t, "2026-03-01", "2026-03-05"))

	assert.Equal(t, map[string]struct{}{"r1": {}, "r3": {}}, blocked)
}
