package allocation

import (
	"sort"
	"strings"
)

// Occupant is the canonical student shape carried through roster merging.
// Heterogeneous source records are normalized to this shape at the ingestion
// boundary, before any merge logic runs.
type Occupant struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registrationNumber"`
	Department         string `json:"department"`
}

// identityKey dedupes occupants by registration number when present,
// otherwise by name, case-insensitively.
func (o Occupant) identityKey() string {
	key := strings.TrimSpace(o.RegistrationNumber)
	if key == "" || key == PlaceholderMarker {
		key = strings.TrimSpace(o.Name)
	}
	return strings.ToLower(key)
}

// SourceEntry associates one occupant with a free-text room identifier.
type SourceEntry struct {
	Room     string
	Occupant Occupant
}

// Source is one ranked list of student-to-room associations. Sources are
// passed to MergeRoster in ascending precedence: imported legacy records
// first, previously persisted assignments next, the live student registry
// last.
type Source struct {
	Name    string
	Entries []SourceEntry
}

// MergedRoster maps normalized room keys to deduplicated occupant lists and
// remembers each room's original display id.
type MergedRoster struct {
	byRoom  map[string][]Occupant
	display map[string]string
	extras  []string
	canon   []string
}

// MergeRoster combines the canonical room id sequence with zero or more
// occupancy sources. A later (higher-precedence) source fully replaces a
// room's occupant list whenever it mentions that room; it never
// append-merges. Room ids present in a source but absent from the canonical
// sequence are retained as overflow rooms rather than dropped, which guards
// against structural definitions lagging behind real assignments.
func MergeRoster(canonicalIDs []string, sources ...Source) *MergedRoster {
	m := &MergedRoster{
		byRoom:  make(map[string][]Occupant),
		display: make(map[string]string, len(canonicalIDs)),
		canon:   make([]string, 0, len(canonicalIDs)),
	}

	canonSet := make(map[string]struct{}, len(canonicalIDs))
	for _, id := range canonicalIDs {
		key := RoomKey(id)
		if _, ok := canonSet[key]; ok {
			continue
		}
		canonSet[key] = struct{}{}
		m.canon = append(m.canon, key)
		m.display[key] = NormalizeRoomID(id)
	}

	for _, src := range sources {
		staged := make(map[string][]Occupant)
		for _, entry := range src.Entries {
			room := strings.TrimSpace(entry.Room)
			if room == "" {
				continue
			}
			key := RoomKey(room)
			if _, ok := m.display[key]; !ok {
				m.display[key] = NormalizeRoomID(room)
			}
			staged[key] = append(staged[key], entry.Occupant)
		}
		// Replace semantics: rooms mentioned by this source overwrite any
		// lower-precedence room list wholesale.
		for key, occupants := range staged {
			m.byRoom[key] = dedupeOccupants(occupants)
		}
	}

	for key := range m.byRoom {
		if _, ok := canonSet[key]; !ok {
			m.extras = append(m.extras, key)
		}
	}
	sort.Slice(m.extras, func(i, j int) bool {
		return lessRoomID(m.display[m.extras[i]], m.display[m.extras[j]])
	})

	return m
}

// RoomKeys returns every room key in output order: the canonical sequence
// first, then overflow rooms sorted by block and number.
func (m *MergedRoster) RoomKeys() []string {
	keys := make([]string, 0, len(m.canon)+len(m.extras))
	keys = append(keys, m.canon...)
	keys = append(keys, m.extras...)
	return keys
}

// DisplayID returns the display form of a room key.
func (m *MergedRoster) DisplayID(key string) string {
	if id, ok := m.display[key]; ok {
		return id
	}
	return key
}

// Occupants returns the deduplicated occupant list for a room key.
func (m *MergedRoster) Occupants(key string) []Occupant {
	return m.byRoom[key]
}

func dedupeOccupants(occupants []Occupant) []Occupant {
	seen := make(map[string]struct{}, len(occupants))
	unique := make([]Occupant, 0, len(occupants))
	for _, o := range occupants {
		key := o.identityKey()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, o)
	}
	return unique
}
