package allocation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

var sortableRoomID = regexp.MustCompile(`^([A-Za-z]+)-?([0-9]+)$`)

// lessRoomID orders room ids by block letters ascending, then numeric
// sequence ascending. Ids outside the {BLOCK}-{NN} shape sort by plain
// string comparison.
func lessRoomID(a, b string) bool {
	am := sortableRoomID.FindStringSubmatch(a)
	bm := sortableRoomID.FindStringSubmatch(b)
	if am != nil && bm != nil {
		al := strings.ToUpper(am[1])
		bl := strings.ToUpper(bm[1])
		if al != bl {
			return al < bl
		}
		an, _ := strconv.Atoi(am[2])
		bn, _ := strconv.Atoi(bm[2])
		return an < bn
	}
	return a < b
}

// SortRooms orders roster rows for display and assignment scanning:
// A-01, A-02, ..., B-01.
func SortRooms(rooms []Room) {
	sort.Slice(rooms, func(i, j int) bool {
		return lessRoomID(rooms[i].ID, rooms[j].ID)
	})
}

// FirstAvailable returns the id of the first room, in (block, number)
// order, that can still take an occupant within nominal capacity. It fails
// with NO_CAPACITY_AVAILABLE only when every room, overflow rooms
// included, is saturated.
func FirstAvailable(rooms []Room) (string, error) {
	ordered := make([]Room, len(rooms))
	copy(ordered, rooms)
	SortRooms(ordered)

	for _, r := range ordered {
		if r.Occupied < r.Capacity {
			return r.ID, nil
		}
	}
	return "", appErrors.ErrNoCapacity
}

// RoomAcceptsAssignment reports whether a student may be assigned to the
// given room. With allowOverflow, the default policy, it always says yes:
// assignments past nominal capacity are deliberately permitted and rooms
// outside the structural definition are accepted as overflow. Strict mode
// only admits to a known room with spare nominal capacity.
func RoomAcceptsAssignment(rooms []Room, roomID string, allowOverflow bool) bool {
	if allowOverflow {
		return true
	}
	for _, r := range rooms {
		if SameRoomID(r.ID, roomID) {
			return r.Occupied < r.Capacity
		}
	}
	return false
}
