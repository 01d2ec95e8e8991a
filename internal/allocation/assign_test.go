package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

func TestFirstAvailablePicksLowestOrderedRoom(t *testing.T) {
	rooms := []Room{
		{ID: "B-01", Capacity: 3, Occupied: 1},
		{ID: "A-02", Capacity: 3, Occupied: 3},
		{ID: "A-10", Capacity: 3, Occupied: 0},
		{ID: "A-03", Capacity: 3, Occupied: 2},
	}

	got, err := FirstAvailable(rooms)
	require.NoError(t, err)
	assert.Equal(t, "A-03", got)
}

func TestFirstAvailableDoesNotMutateInput(t *testing.T) {
	rooms := []Room{
		{ID: "B-01", Capacity: 3, Occupied: 0},
		{ID: "A-01", Capacity: 3, Occupied: 0},
	}

	_, err := FirstAvailable(rooms)
	require.NoError(t, err)
	assert.Equal(t, "B-01", rooms[0].ID)
}

func TestFirstAvailableNoCapacity(t *testing.T) {
	rooms := []Room{
		{ID: "A-01", Capacity: 2, Occupied: 2},
		{ID: "A-02", Capacity: 2, Occupied: 3},
	}

	_, err := FirstAvailable(rooms)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNoCapacity.Code, appErr.Code)
}

func TestFirstAvailableEmpty(t *testing.T) {
	_, err := FirstAvailable(nil)
	require.Error(t, err)
}

func TestSortRoomsOrdersByBlockThenNumber(t *testing.T) {
	rooms := []Room{
		{ID: "C-113"},
		{ID: "B-02"},
		{ID: "A-10"},
		{ID: "A-02"},
		{ID: "AB-01"},
	}

	SortRooms(rooms)

	got := make([]string, len(rooms))
	for i, r := range rooms {
		got[i] = r.ID
	}
	assert.Equal(t, []string{"A-02", "A-10", "AB-01", "B-02", "C-113"}, got)
}

func TestRoomAcceptsAssignmentOverflowPolicyAlwaysTrue(t *testing.T) {
	rooms := []Room{{ID: "A-01", Capacity: 2, Occupied: 2}}
	assert.True(t, RoomAcceptsAssignment(rooms, "A-01", true))
	assert.True(t, RoomAcceptsAssignment(rooms, "Z-99", true))
	assert.True(t, RoomAcceptsAssignment(nil, "", true))
}

func TestRoomAcceptsAssignmentStrictMode(t *testing.T) {
	rooms := []Room{
		{ID: "A-01", Capacity: 2, Occupied: 2},
		{ID: "A-02", Capacity: 2, Occupied: 1},
	}
	assert.False(t, RoomAcceptsAssignment(rooms, "A-01", false))
	assert.True(t, RoomAcceptsAssignment(rooms, "a2", false))
	assert.False(t, RoomAcceptsAssignment(rooms, "Z-99", false))
}
