// Package conflict decides whether existing bookings block a requested stay.
//
// Ranges are half-open: a booking checking out on a date does not block a
// stay checking in on that same date. Only pending and confirmed bookings
// block; cancelled and completed ones are history.
package conflict

import (
	availabilityModel "innkeep/internal/domains/availability/model"
	bookingModel "innkeep/internal/domains/booking/model"
	"time"
)

// Overlaps reports whether [aIn, aOut) and [bIn, bOut) share at least one night.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}

// Blocks reports whether a single booking prevents stay on its room.
func Blocks(booking bookingModel.Booking, stay availabilityModel.Stay) bool {
	return booking.Active() && Overlaps(booking.CheckInDate, booking.CheckOutDate, stay.CheckIn, stay.CheckOut)
}

// IsBlocked reports whether any of a room's bookings prevents stay.
func IsBlocked(bookings []bookingModel.Booking, stay availabilityModel.Stay) bool {
	for _, booking := range bookings {
		if Blocks(booking, stay) {
			return true
		}
	}

	return false
}

// BlockedRooms collects the ids of rooms that have a blocking booking for stay.
// Bookings may belong to any number of rooms.
func BlockedRooms(bookings []bookingModel.Booking, stay availabilityModel.Stay) map[string]struct{} {
	blocked := make(map[string]struct{})

	for _, booking := range bookings {
		if Blocks(booking, stay) {
			blocked[booking.RoomID] = struct{}{}
		}
	}

	return blocked
}
