package dto

import (
	"innkeep/internal/domains/room/model"
	"innkeep/shared"
	gDto "innkeep/shared/dto"
)

type RoomResponse struct {
	ID                     string `json:"id"`
	PropertyID             string `json:"property_id"`
	Name                   string `json:"name"`
	RoomNumber             string `json:"room_number"`
	Capacity               int    `json:"capacity"`
	MaxAdultCount          int    `json:"max_adult_count"`
	MaxChildrenUnder3Count int    `json:"max_children_under_3_count"`
	MaxChildren3To12Count  int    `json:"max_children_3_to_12_count"`
	MaxChildren13To17Count int    `json:"max_children_13_to_17_count"`
	Status                 string `json:"status"`
	gDto.Metadata
}

func (r *RoomResponse) FromModel(model model.Room) {
	r.ID = model.ID
	r.PropertyID = model.PropertyID
	r.Name = model.Name
	r.RoomNumber = model.RoomNumber
	r.Capacity = model.Capacity
	r.MaxAdultCount = model.MaxAdultCount
	r.MaxChildrenUnder3Count = model.MaxChildrenUnder3Count
	r.MaxChildren3To12Count = model.MaxChildren3To12Count
	r.MaxChildren13To17Count = model.MaxChildren13To17Count
	r.Status = string(model.Status)
	r.Metadata.FromModel(model.Metadata)
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod)
	}
}
