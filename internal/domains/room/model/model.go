package model

import "innkeep/shared/model"

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID                     = "id"
	FieldPropertyID             = "property_id"
	FieldName                   = "name"
	FieldRoomNumber             = "room_number"
	FieldCapacity               = "capacity"
	FieldMaxAdultCount          = "max_adult_count"
	FieldMaxChildrenUnder3Count = "max_children_under_3_count"
	FieldMaxChildren3To12Count  = "max_children_3_to_12_count"
	FieldMaxChildren13To17Count = "max_children_13_to_17_count"
	FieldStatus                 = "status"
)

// Status is the catalog's own label for a room. It is a display hint only;
// whether a room is free for a range is decided from the booking ledger.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusBooked      Status = "booked"
	StatusMaintenance Status = "maintenance"
	StatusPending     Status = "pending"
)

type Room struct {
	ID                     string `db:"id"`
	PropertyID             string `db:"property_id"`
	Name                   string `db:"name"`
	RoomNumber             string `db:"room_number"`
	Capacity               int    `db:"capacity"`
	MaxAdultCount          int    `db:"max_adult_count"`
	MaxChildrenUnder3Count int    `db:"max_children_under_3_count"`
	MaxChildren3To12Count  int    `db:"max_children_3_to_12_count"`
	MaxChildren13To17Count int    `db:"max_children_13_to_17_count"`
	Status                 Status `db:"status"`
	model.Metadata
}

// Offered reports whether the catalog currently puts the room on sale.
func (r Room) Offered() bool {
	return r.Status == StatusAvailable
}
