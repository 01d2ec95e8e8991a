package allocation

const (
	// PlaceholderName marks an unfilled room slot. Placeholder entries are
	// materialized in roster output only and never persisted.
	PlaceholderName = "To Be Alloted"
	// PlaceholderMarker fills the registration number and department of a
	// placeholder entry.
	PlaceholderMarker = "-"
)

// Room is one roster row: a room with its capacity state and the occupant
// list padded to length max(capacity, occupied) with placeholders.
type Room struct {
	ID        string     `json:"roomId"`
	Capacity  int        `json:"capacity"`
	Occupied  int        `json:"occupied"`
	Available int        `json:"available"`
	Students  []Occupant `json:"students"`
}

// IsPlaceholder reports whether an occupant entry is an unfilled-slot
// sentinel rather than a real student.
func IsPlaceholder(o Occupant) bool {
	return o.Name == PlaceholderName && o.RegistrationNumber == PlaceholderMarker
}

// Placeholder returns a sentinel entry for an unfilled slot.
func Placeholder() Occupant {
	return Occupant{Name: PlaceholderName, RegistrationNumber: PlaceholderMarker, Department: PlaceholderMarker}
}

// AnnotateCapacity materializes the merged roster into ordered Room rows.
// Each room's occupant list is padded with placeholders up to capacity, so
// len(Students) == max(capacity, occupied). Overflow (occupied > capacity)
// is reported as Available == 0 and is never an error: the policy reports
// state, it does not gatekeep assignments.
func AnnotateCapacity(roster *MergedRoster, capacityPerRoom int) []Room {
	if capacityPerRoom <= 0 {
		capacityPerRoom = DefaultCapacityPerRoom
	}

	keys := roster.RoomKeys()
	rooms := make([]Room, 0, len(keys))
	for _, key := range keys {
		occupants := roster.Occupants(key)
		occupied := len(occupants)
		available := capacityPerRoom - occupied
		if available < 0 {
			available = 0
		}

		students := make([]Occupant, 0, occupied+available)
		students = append(students, occupants...)
		for i := 0; i < available; i++ {
			students = append(students, Placeholder())
		}

		rooms = append(rooms, Room{
			ID:        roster.DisplayID(key),
			Capacity:  capacityPerRoom,
			Occupied:  occupied,
			Available: available,
			Students:  students,
		})
	}
	return rooms
}

// CountOccupied counts real students in a padded list, ignoring placeholder
// sentinels.
func CountOccupied(students []Occupant) int {
	n := 0
	for _, s := range students {
		if !IsPlaceholder(s) {
			n++
		}
	}
	return n
}
