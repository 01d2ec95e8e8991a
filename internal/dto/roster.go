package dto

import "github.com/hms-go/hms-api/internal/allocation"

// RosterResponse is the full occupancy view of one hostel: every room in
// canonical order, each padded to capacity with placeholder slots.
type RosterResponse struct {
	Hostel          string            `json:"hostel"`
	CapacityPerRoom int               `json:"capacityPerRoom"`
	TotalRooms      int               `json:"totalRooms"`
	TotalCapacity   int               `json:"totalCapacity"`
	Occupied        int               `json:"occupied"`
	Rooms           []allocation.Room `json:"rooms"`
}
