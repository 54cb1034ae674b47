package dto

import (
	"innkeep/internal/domains/availability/model"
)

type ChildRequest struct {
	Age int `json:"age" validate:"gte=0"`
}

type SearchRequest struct {
	CheckIn    string         `json:"check_in"    validate:"required,dateonly"`
	CheckOut   string         `json:"check_out"   validate:"required,dateonly"`
	Adults     int            `json:"adults"      validate:"gte=1"`
	Children   []ChildRequest `json:"children"    validate:"omitempty,dive"`
	PropertyID string         `json:"property_id" validate:"omitempty"`
}

func (r *SearchRequest) Stay() (model.Stay, error) {
	return model.ParseStay(r.CheckIn, r.CheckOut)
}

func (r *SearchRequest) Guests() model.Guests {
	guests := model.Guests{Adults: r.Adults}

	for _, child := range r.Children {
		guests.Children = append(guests.Children, model.Child{Age: child.Age})
	}

	return guests
}

type SearchResponse struct {
	RoomIDs []string `json:"room_ids"`
}
