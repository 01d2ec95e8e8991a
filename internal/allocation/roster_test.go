package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func occ(name, reg, dept string) Occupant {
	return Occupant{Name: name, RegistrationNumber: reg, Department: dept}
}

func TestMergeRosterHigherSourceReplacesRoom(t *testing.T) {
	legacy := Source{Name: "legacy", Entries: []SourceEntry{
		{Room: "A-01", Occupant: occ("Stale Entry", "OLD-1", "CS")},
		{Room: "A-02", Occupant: occ("Kept Entry", "KEEP-1", "EE")},
	}}
	registry := Source{Name: "registry", Entries: []SourceEntry{
		{Room: "A-01", Occupant: occ("Fresh Entry", "NEW-1", "CS")},
	}}

	m := MergeRoster([]string{"A-01", "A-02"}, legacy, registry)

	a01 := m.Occupants(RoomKey("A-01"))
	require.Len(t, a01, 1)
	assert.Equal(t, "NEW-1", a01[0].RegistrationNumber)

	// Rooms the higher source does not mention keep the lower source's list.
	a02 := m.Occupants(RoomKey("A-02"))
	require.Len(t, a02, 1)
	assert.Equal(t, "KEEP-1", a02[0].RegistrationNumber)
}

func TestMergeRosterDedupIdempotence(t *testing.T) {
	dupe := occ("Sana Baloch", "2K21-CS-17", "CS")
	legacy := Source{Entries: []SourceEntry{
		{Room: "A-01", Occupant: dupe},
	}}
	persisted := Source{Entries: []SourceEntry{
		{Room: "A-01", Occupant: dupe},
		{Room: "A-01", Occupant: occ("Sana Baloch", "2k21-cs-17", "CS")},
	}}
	registry := Source{Entries: []SourceEntry{
		{Room: "A-01", Occupant: dupe},
		{Room: "A-01", Occupant: dupe},
	}}

	m := MergeRoster([]string{"A-01"}, legacy, persisted, registry)
	assert.Len(t, m.Occupants(RoomKey("A-01")), 1)
}

func TestMergeRosterDedupFallsBackToName(t *testing.T) {
	src := Source{Entries: []SourceEntry{
		{Room: "A-01", Occupant: occ("No Reg", "", "CS")},
		{Room: "A-01", Occupant: occ("no reg", "", "CS")},
		{Room: "A-01", Occupant: occ("Other", "", "CS")},
	}}

	m := MergeRoster([]string{"A-01"}, src)
	assert.Len(t, m.Occupants(RoomKey("A-01")), 2)
}

func TestMergeRosterKeepsUnknownRooms(t *testing.T) {
	src := Source{Entries: []SourceEntry{
		{Room: "d-9", Occupant: occ("Drifted", "DR-1", "CE")},
	}}

	m := MergeRoster([]string{"A-01", "A-02"}, src)
	keys := m.RoomKeys()
	require.Equal(t, []string{"A-01", "A-02", "D-09"}, keys)
	assert.Equal(t, "D-09", m.DisplayID("D-09"))
	assert.Len(t, m.Occupants("D-09"), 1)
}

func TestMergeRosterNormalizesRoomKeys(t *testing.T) {
	src := Source{Entries: []SourceEntry{
		{Room: "b-1", Occupant: occ("One", "R1", "CS")},
		{Room: " B - 1 ", Occupant: occ("Two", "R2", "CS")},
	}}

	m := MergeRoster([]string{"B-01"}, src)
	assert.Len(t, m.Occupants(RoomKey("B-01")), 2)
}

func TestMergeRosterEmptySources(t *testing.T) {
	m := MergeRoster([]string{"A-01"})
	assert.Equal(t, []string{"A-01"}, m.RoomKeys())
	assert.Empty(t, m.Occupants("A-01"))
}
