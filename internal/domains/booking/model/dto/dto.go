package dto

import (
	availabilityModel "innkeep/internal/domains/availability/model"
	"innkeep/internal/domains/booking/model"
	"innkeep/shared"
	gDto "innkeep/shared/dto"
	gModel "innkeep/shared/model"
	"innkeep/shared/timezone"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ChildRequest struct {
	Age int `json:"age" validate:"gte=0"`
}

type CreateBookingRequest struct {
	RoomID      string         `json:"room_id"      validate:"required"`
	CheckIn     string         `json:"check_in"     validate:"required,dateonly"`
	CheckOut    string         `json:"check_out"    validate:"required,dateonly"`
	Adults      int            `json:"adults"       validate:"gte=1"`
	Children    []ChildRequest `json:"children"     validate:"omitempty,dive"`
	TotalAmount float64        `json:"total_amount" validate:"gte=0"`
}

func (c *CreateBookingRequest) Stay() (availabilityModel.Stay, error) {
	return availabilityModel.ParseStay(c.CheckIn, c.CheckOut)
}

func (c *CreateBookingRequest) Guests() availabilityModel.Guests {
	guests := availabilityModel.Guests{Adults: c.Adults}

	for _, child := range c.Children {
		guests.Children = append(guests.Children, availabilityModel.Child{Age: child.Age})
	}

	return guests
}

// ToModel builds a new pending booking for user over stay.
func (c *CreateBookingRequest) ToModel(user string, stay availabilityModel.Stay, now time.Time) model.Booking {
	return model.Booking{
		ID:           uuid.NewString(),
		RoomID:       c.RoomID,
		UserID:       user,
		CheckInDate:  stay.CheckIn,
		CheckOutDate: stay.CheckOut,
		Adults:       c.Adults,
		ChildrenAges: pq.Int64Array(c.Guests().Ages()),
		TotalAmount:  c.TotalAmount,
		Status:       model.StatusPending,
		CancelReason: model.CancelReasonNone,
		Metadata:     gModel.NewMetadata(user, now),
	}
}

// TransitionRequest carries an external lifecycle event, as sent by the
// payment collaborator.
type TransitionRequest struct {
	Event string `json:"event" validate:"required,oneof=confirm fail cancel expire complete"`
}

type ChildResponse struct {
	Age int64 `json:"age"`
}

type BookingResponse struct {
	ID           string          `json:"id"`
	RoomID       string          `json:"room_id"`
	UserID       string          `json:"user_id"`
	CheckIn      string          `json:"check_in"`
	CheckOut     string          `json:"check_out"`
	Nights       int             `json:"nights"`
	Adults       int             `json:"adults"`
	Children     []ChildResponse `json:"children"`
	TotalAmount  float64         `json:"total_amount"`
	Status       string          `json:"status"`
	CancelReason string          `json:"cancel_reason,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.RoomID = model.RoomID
	r.UserID = model.UserID
	r.CheckIn = timezone.FormatDate(model.CheckInDate)
	r.CheckOut = timezone.FormatDate(model.CheckOutDate)
	r.Nights = model.Stay().Nights()
	r.Adults = model.Adults
	r.TotalAmount = model.TotalAmount
	r.Status = string(model.Status)
	r.CancelReason = string(model.CancelReason)

	r.Children = make([]ChildResponse, len(model.ChildrenAges))
	for i, age := range model.ChildrenAges {
		r.Children[i] = ChildResponse{Age: age}
	}

	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

// Event is a committed lifecycle change, published keyed by room.
type Event struct {
	BookingID    string `json:"booking_id"`
	RoomID       string `json:"room_id"`
	UserID       string `json:"user_id"`
	Event        string `json:"event"`
	Status       string `json:"status"`
	CancelReason string `json:"cancel_reason,omitempty"`
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	OccurredAt   string `json:"occurred_at"`
}

func NewEvent(booking model.Booking, event string) Event {
	return Event{
		BookingID:    booking.ID,
		RoomID:       booking.RoomID,
		UserID:       booking.UserID,
		Event:        event,
		Status:       string(booking.Status),
		CancelReason: string(booking.CancelReason),
		CheckIn:      timezone.FormatDate(booking.CheckInDate),
		CheckOut:     timezone.FormatDate(booking.CheckOutDate),
		OccurredAt:   timezone.Format(booking.ModifiedAt, time.RFC3339),
	}
}

// PaymentResult is the payment collaborator's verdict on a pending booking.
type PaymentResult struct {
	BookingID string `json:"booking_id"`
	Outcome   string `json:"outcome"`
}

const (
	PaymentOutcomeCaptured = "captured"
	PaymentOutcomeFailed   = "failed"
)

// Event maps the outcome to the lifecycle event it triggers.
func (p PaymentResult) Event() (model.Event, bool) {
	switch p.Outcome {
	case PaymentOutcomeCaptured:
		return model.EventConfirm, true
	case PaymentOutcomeFailed:
		return model.EventFail, true
	}

	return "", false
}
