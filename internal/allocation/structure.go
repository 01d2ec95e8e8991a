// Package allocation implements the room allocation and occupancy
// reconciliation core: canonical room id generation, roster merging across
// occupancy sources, capacity annotation, and auto-assignment. All functions
// are pure transformations over caller-supplied snapshots; the package holds
// no state and performs no I/O.
package allocation

import (
	"fmt"
	"strings"

	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

const (
	// DefaultCapacityPerRoom applies when a hostel omits capacityPerRoom.
	DefaultCapacityPerRoom = 3
	// DefaultFallbackBlocks is the number of synthetic blocks used when a
	// hostel is defined by a flat room count without block structure.
	DefaultFallbackBlocks = 5
)

// Block is a named sub-section of a hostel holding a fixed count of rooms.
type Block struct {
	Name     string `json:"name"`
	NumRooms int    `json:"numRooms"`
}

// StructureDef captures a hostel's structural definition, the sole input to
// room id generation.
type StructureDef struct {
	HostelName      string
	CapacityPerRoom int
	NumberOfRooms   int
	NumberOfBlocks  int
	Blocks          []Block
}

// Capacity returns the per-room capacity, defaulting when unset.
func (d StructureDef) Capacity() int {
	if d.CapacityPerRoom > 0 {
		return d.CapacityPerRoom
	}
	return DefaultCapacityPerRoom
}

// TotalRooms derives the room count from blocks when present, otherwise the
// flat count.
func (d StructureDef) TotalRooms() int {
	total := 0
	for _, b := range d.validBlocks() {
		total += b.NumRooms
	}
	if total > 0 {
		return total
	}
	if d.NumberOfRooms > 0 {
		return d.NumberOfRooms
	}
	return 0
}

// TotalCapacity is always recomputed from the structure, never stored
// independently of it.
func (d StructureDef) TotalCapacity() int {
	return d.TotalRooms() * d.Capacity()
}

func (d StructureDef) validBlocks() []Block {
	valid := make([]Block, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		if strings.TrimSpace(b.Name) != "" && b.NumRooms > 0 {
			valid = append(valid, Block{Name: strings.TrimSpace(b.Name), NumRooms: b.NumRooms})
		}
	}
	return valid
}

// GenerateRoomIDs produces the canonical, deterministically ordered room id
// sequence for a hostel. The sequence length always equals TotalRooms and is
// identical across calls for the same definition; callers rely on that for
// stable room-to-index mapping.
func GenerateRoomIDs(def StructureDef) ([]string, error) {
	blocks := def.validBlocks()
	if len(blocks) > 0 {
		ids := make([]string, 0, def.TotalRooms())
		for _, b := range blocks {
			for i := 1; i <= b.NumRooms; i++ {
				ids = append(ids, fmt.Sprintf("%s-%02d", b.Name, i))
			}
		}
		return ids, nil
	}

	total := def.NumberOfRooms
	if total <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidStructure,
			fmt.Sprintf("hostel %q has neither blocks nor a positive room count", def.HostelName))
	}

	// Synthesize block letters A.. and spread the flat room count across
	// them as evenly as possible, the first `remainder` letters taking one
	// extra room.
	numBlocks := def.NumberOfBlocks
	if numBlocks <= 0 {
		numBlocks = DefaultFallbackBlocks
	}
	perBlock := total / numBlocks
	remainder := total % numBlocks

	ids := make([]string, 0, total)
	for idx := 0; idx < numBlocks; idx++ {
		letter := string(rune('A' + idx))
		count := perBlock
		if idx < remainder {
			count++
		}
		for i := 1; i <= count; i++ {
			ids = append(ids, fmt.Sprintf("%s-%02d", letter, i))
		}
	}

	if len(ids) > total {
		ids = ids[:total]
	}
	// Rounding never undershoots here, but the contract guarantees exactly
	// `total` unique ids, so pad from the hostel name prefix regardless.
	for len(ids) < total {
		ids = append(ids, fmt.Sprintf("%s-%02d", hostelPrefix(def.HostelName), len(ids)+1))
	}

	return ids, nil
}

func hostelPrefix(name string) string {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) >= 2 {
		return strings.ToUpper(trimmed[:2])
	}
	if trimmed == "" {
		return "RM"
	}
	return strings.ToUpper(trimmed)
}
