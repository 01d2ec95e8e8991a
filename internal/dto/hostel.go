package dto

import "github.com/hms-go/hms-api/internal/allocation"

// CreateHostelRequest defines a hostel and its room structure. Either
// explicit blocks or a flat room count must be present; the service rejects
// definitions carrying neither.
type CreateHostelRequest struct {
	Name            string             `json:"name" validate:"required"`
	CapacityPerRoom int                `json:"capacityPerRoom" validate:"omitempty,min=1"`
	NumberOfRooms   int                `json:"numberOfRooms" validate:"omitempty,min=1"`
	NumberOfBlocks  int                `json:"numberOfBlocks" validate:"omitempty,min=1"`
	Blocks          []allocation.Block `json:"blocks" validate:"omitempty,dive"`
}

// UpdateHostelRequest carries partial hostel updates; nil fields are left
// untouched.
type UpdateHostelRequest struct {
	Name            *string             `json:"name,omitempty"`
	CapacityPerRoom *int                `json:"capacityPerRoom,omitempty" validate:"omitempty,min=1"`
	NumberOfRooms   *int                `json:"numberOfRooms,omitempty" validate:"omitempty,min=1"`
	NumberOfBlocks  *int                `json:"numberOfBlocks,omitempty" validate:"omitempty,min=1"`
	Blocks          *[]allocation.Block `json:"blocks,omitempty" validate:"omitempty,dive"`
}

// HostelStats is a hostel row enriched with live occupancy, served on the
// public landing list.
type HostelStats struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TotalCapacity   int    `json:"totalCapacity"`
	TotalRooms      int    `json:"totalRooms"`
	OccupiedSlots   int    `json:"occupiedSlots"`
	EmptySlots      int    `json:"emptySlots"`
	CapacityPerRoom int    `json:"capacityPerRoom"`
}
