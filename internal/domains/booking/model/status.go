package model

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ActiveStatuses are the statuses that block a room.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Event is an external stimulus that may move a booking.
type Event string

const (
	EventConfirm  Event = "confirm"
	EventFail     Event = "fail"
	EventCancel   Event = "cancel"
	EventExpire   Event = "expire"
	EventComplete Event = "complete"
)

func (e Event) Valid() bool {
	switch e {
	case EventConfirm, EventFail, EventCancel, EventExpire, EventComplete:
		return true
	}

	return false
}

// CancelReason records which event cancelled a booking.
type CancelReason string

const (
	CancelReasonNone          CancelReason = ""
	CancelReasonCancelled     CancelReason = "cancelled"
	CancelReasonPaymentFailed CancelReason = "payment_failed"
	CancelReasonExpired       CancelReason = "expired"
)

var ErrInvalidTransition = errors.New("invalid state transition")

type transition struct {
	from  Status
	event Event
}

type outcome struct {
	to     Status
	reason CancelReason
}

var transitions = map[transition]outcome{
	{StatusPending, EventConfirm}:    {StatusConfirmed, CancelReasonNone},
	{StatusPending, EventFail}:       {StatusCancelled, CancelReasonPaymentFailed},
	{StatusPending, EventCancel}:     {StatusCancelled, CancelReasonCancelled},
	{StatusPending, EventExpire}:     {StatusCancelled, CancelReasonExpired},
	{StatusConfirmed, EventCancel}:   {StatusCancelled, CancelReasonCancelled},
	{StatusConfirmed, EventComplete}: {StatusCompleted, CancelReasonNone},
}

// Next returns the status a booking in from moves to on event, and the cancel
// reason to record when the move lands in cancelled. Every pair missing from
// the table, including anything out of a terminal status, is rejected with
// ErrInvalidTransition.
func Next(from Status, event Event) (Status, CancelReason, error) {
	out, ok := transitions[transition{from, event}]
	if !ok {
		return from, CancelReasonNone, fmt.Errorf("%w: %s on %s booking", ErrInvalidTransition, event, from)
	}

	return out.to, out.reason, nil
}
