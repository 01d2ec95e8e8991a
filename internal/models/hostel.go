package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hms-go/hms-api/internal/allocation"
)

// Hostel represents one residence building and its structural definition.
// The blocks column is persisted as JSONB; TotalCapacity is recomputed from
// the structural fields on every write, never trusted from the client.
type Hostel struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	CapacityPerRoom int       `db:"capacity_per_room" json:"capacityPerRoom"`
	NumberOfRooms   int       `db:"number_of_rooms" json:"numberOfRooms"`
	NumberOfBlocks  int       `db:"number_of_blocks" json:"numberOfBlocks"`
	Blocks          BlockList `db:"blocks" json:"blocks"`
	TotalCapacity   int       `db:"total_capacity" json:"totalCapacity"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// StructureDef maps the persisted structural fields onto the allocation
// engine's input shape.
func (h *Hostel) StructureDef() allocation.StructureDef {
	return allocation.StructureDef{
		HostelName:      h.Name,
		CapacityPerRoom: h.CapacityPerRoom,
		NumberOfRooms:   h.NumberOfRooms,
		NumberOfBlocks:  h.NumberOfBlocks,
		Blocks:          h.Blocks,
	}
}

// HostelFilter captures filtering criteria for listing hostels.
type HostelFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// BlockList stores a hostel's explicit block definitions as JSONB.
type BlockList []allocation.Block

// Value marshals the block list to JSON for persistence.
func (b BlockList) Value() (driver.Value, error) {
	if b == nil {
		b = BlockList{}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal block list: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the block list.
func (b *BlockList) Scan(value interface{}) error {
	if value == nil {
		*b = BlockList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for BlockList", value)
	}
	if len(data) == 0 {
		*b = BlockList{}
		return nil
	}
	if err := json.Unmarshal(data, b); err != nil {
		return fmt.Errorf("unmarshal block list: %w", err)
	}
	return nil
}
