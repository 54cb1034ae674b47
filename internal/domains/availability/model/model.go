package model

import (
	"fmt"
	"innkeep/shared/failure"
	"innkeep/shared/timezone"
	"time"
)

const hoursPerDay = 24

// Stay is a half-open range of calendar dates: the guest occupies the room
// from CheckIn up to, but not including, CheckOut.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// ParseStay builds a Stay from two YYYY-MM-DD dates and validates it.
func ParseStay(checkIn, checkOut string) (Stay, error) {
	in, err := timezone.ParseDate(checkIn)
	if err != nil {
		return Stay{}, failure.Validation(fmt.Sprintf("invalid check_in date %q", checkIn)) // nolint:wrapcheck
	}

	out, err := timezone.ParseDate(checkOut)
	if err != nil {
		return Stay{}, failure.Validation(fmt.Sprintf("invalid check_out date %q", checkOut)) // nolint:wrapcheck
	}

	stay := Stay{CheckIn: in, CheckOut: out}

	return stay, stay.Validate()
}

func (s Stay) Validate() error {
	if !s.CheckOut.After(s.CheckIn) {
		return failure.Validation("check_out must be after check_in") // nolint:wrapcheck
	}

	return nil
}

// Nights is the number of nights covered by the stay.
func (s Stay) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / hoursPerDay)
}

func (s Stay) String() string {
	return fmt.Sprintf("[%s, %s)", s.CheckIn.Format(time.DateOnly), s.CheckOut.Format(time.DateOnly))
}

type Child struct {
	Age int `json:"age"`
}

// Guests is the party a room has to hold.
type Guests struct {
	Adults   int     `json:"adults"`
	Children []Child `json:"children"`
}

func (g Guests) Validate() error {
	if g.Adults < 1 {
		return failure.Validation("at least one adult is required") // nolint:wrapcheck
	}

	for _, child := range g.Children {
		if child.Age < 0 {
			return failure.Validation(fmt.Sprintf("child age must not be negative, got %d", child.Age)) // nolint:wrapcheck
		}
	}

	return nil
}

// Total counts every guest regardless of age.
func (g Guests) Total() int {
	return g.Adults + len(g.Children)
}

// Ages lists the children's ages in input order.
func (g Guests) Ages() []int64 {
	ages := make([]int64, len(g.Children))
	for i, child := range g.Children {
		ages[i] = int64(child.Age)
	}

	return ages
}

// GuestsFromAges rebuilds a party from a stored adult count and age list.
func GuestsFromAges(adults int, ages []int64) Guests {
	children := make([]Child, len(ages))
	for i, age := range ages {
		children[i] = Child{Age: int(age)}
	}

	return Guests{Adults: adults, Children: children}
}
