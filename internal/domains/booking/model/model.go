package model

import (
	availabilityModel "innkeep/internal/domains/availability/model"
	"innkeep/shared/model"
	"time"

	"github.com/lib/pq"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID           = "id"
	FieldRoomID       = "room_id"
	FieldUserID       = "user_id"
	FieldCheckInDate  = "check_in_date"
	FieldCheckOutDate = "check_out_date"
	FieldAdults       = "adults"
	FieldChildrenAges = "children_ages"
	FieldTotalAmount  = "total_amount"
	FieldStatus       = "status"
	FieldCancelReason = "cancel_reason"
	FieldCreatedAt    = "created_at"
)

type Booking struct {
	ID           string        `db:"id"`
	RoomID       string        `db:"room_id"`
	UserID       string        `db:"user_id"`
	CheckInDate  time.Time     `db:"check_in_date"`
	CheckOutDate time.Time     `db:"check_out_date"`
	Adults       int           `db:"adults"`
	ChildrenAges pq.Int64Array `db:"children_ages"`
	TotalAmount  float64       `db:"total_amount"`
	Status       Status        `db:"status"`
	CancelReason CancelReason  `db:"cancel_reason"`
	model.Metadata
}

func (b Booking) Stay() availabilityModel.Stay {
	return availabilityModel.Stay{CheckIn: b.CheckInDate, CheckOut: b.CheckOutDate}
}

func (b Booking) Guests() availabilityModel.Guests {
	return availabilityModel.GuestsFromAges(b.Adults, b.ChildrenAges)
}

// Active bookings hold their room for their date range.
func (b Booking) Active() bool {
	return b.Status.Active()
}

// Expired reports whether the booking was released by the pending TTL.
func (b Booking) Expired() bool {
	return b.Status == StatusCancelled && b.CancelReason == CancelReasonExpired
}
