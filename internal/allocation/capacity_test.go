package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotateCapacityPadsWithPlaceholders(t *testing.T) {
	src := Source{Entries: []SourceEntry{
		{Room: "A-01", Occupant: occ("Sana Baloch", "2K21-CS-17", "CS")},
	}}
	roster := MergeRoster([]string{"A-01", "A-02"}, src)

	rooms := AnnotateCapacity(roster, 3)
	require.Len(t, rooms, 2)

	a01 := rooms[0]
	assert.Equal(t, "A-01", a01.ID)
	assert.Equal(t, 3, a01.Capacity)
	assert.Equal(t, 1, a01.Occupied)
	assert.Equal(t, 2, a01.Available)
	require.Len(t, a01.Students, 3)
	assert.Equal(t, "Sana Baloch", a01.Students[0].Name)
	assert.Equal(t, PlaceholderName, a01.Students[1].Name)
	assert.Equal(t, PlaceholderMarker, a01.Students[1].RegistrationNumber)
	assert.Equal(t, PlaceholderMarker, a01.Students[2].Department)

	a02 := rooms[1]
	assert.Equal(t, 0, a02.Occupied)
	assert.Equal(t, 3, a02.Available)
	require.Len(t, a02.Students, 3)
	for _, s := range a02.Students {
		assert.True(t, IsPlaceholder(s))
	}
}

func TestAnnotateCapacityOverflow(t *testing.T) {
	ids, err := GenerateRoomIDs(StructureDef{
		HostelName:      "Porali",
		CapacityPerRoom: 2,
		Blocks:          []Block{{Name: "A", NumRooms: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"A-01"}, ids)

	src := Source{Entries: []SourceEntry{
		{Room: "A-01", Occupant: occ("S1", "R1", "CS")},
		{Room: "A-01", Occupant: occ("S2", "R2", "CS")},
		{Room: "A-01", Occupant: occ("S3", "R3", "CS")},
	}}
	rooms := AnnotateCapacity(MergeRoster(ids, src), 2)

	require.Len(t, rooms, 1)
	assert.Equal(t, 2, rooms[0].Capacity)
	assert.Equal(t, 3, rooms[0].Occupied)
	assert.Equal(t, 0, rooms[0].Available)
	assert.Len(t, rooms[0].Students, 3)
}

func TestAnnotateCapacityDefaultsCapacity(t *testing.T) {
	rooms := AnnotateCapacity(MergeRoster([]string{"A-01"}), 0)
	require.Len(t, rooms, 1)
	assert.Equal(t, DefaultCapacityPerRoom, rooms[0].Capacity)
	assert.Len(t, rooms[0].Students, DefaultCapacityPerRoom)
}

func TestCountOccupiedSkipsPlaceholders(t *testing.T) {
	students := []Occupant{
		occ("Real", "R1", "CS"),
		Placeholder(),
		Placeholder(),
	}
	assert.Equal(t, 1, CountOccupied(students))
	assert.Equal(t, 0, CountOccupied(nil))
}
