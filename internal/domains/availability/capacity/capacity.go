// Package capacity checks a guest party against a room's occupancy ceilings.
package capacity

import (
	availabilityModel "innkeep/internal/domains/availability/model"
	roomModel "innkeep/internal/domains/room/model"
)

// Age brackets. A child of AdultAge or older counts as an adult.
const (
	ToddlerAgeLimit = 3
	ChildAgeLimit   = 13
	AdultAge        = 18
)

// Party is a guest party sorted into the room's ceilings.
type Party struct {
	Adults         int
	ChildrenUnder3 int
	Children3To12  int
	Children13To17 int
}

func (p Party) Total() int {
	return p.Adults + p.ChildrenUnder3 + p.Children3To12 + p.Children13To17
}

// Partition sorts guests into brackets: under 3, 3 to 12, 13 to 17, and
// adults. Children aged 18 or more are counted as adults.
func Partition(guests availabilityModel.Guests) Party {
	party := Party{Adults: guests.Adults}

	for _, child := range guests.Children {
		switch {
		case child.Age < ToddlerAgeLimit:
			party.ChildrenUnder3++
		case child.Age < ChildAgeLimit:
			party.Children3To12++
		case child.Age < AdultAge:
			party.Children13To17++
		default:
			party.Adults++
		}
	}

	return party
}

// Fits reports whether every ceiling of room holds the party. Each ceiling is
// checked on its own; one bracket never borrows room from another.
func Fits(room roomModel.Room, guests availabilityModel.Guests) bool {
	party := Partition(guests)

	return party.Adults <= room.MaxAdultCount &&
		party.ChildrenUnder3 <= room.MaxChildrenUnder3Count &&
		party.Children3To12 <= room.MaxChildren3To12Count &&
		party.Children13To17 <= room.MaxChildren13To17Count &&
		party.Total() <= room.Capacity
}

// Filter keeps the rooms that fit guests, preserving input order.
func Filter(rooms []roomModel.Room, guests availabilityModel.Guests) []roomModel.Room {
	fitting := make([]roomModel.Room, 0, len(rooms))

	for _, room := range rooms {
		if Fits(room, guests) {
			fitting = append(fitting, room)
		}
	}

	return fitting
}
