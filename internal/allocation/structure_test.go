package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

func TestGenerateRoomIDsFromBlocks(t *testing.T) {
	def := StructureDef{
		HostelName:      "Porali",
		CapacityPerRoom: 2,
		Blocks:          []Block{{Name: "A", NumRooms: 3}},
	}

	ids, err := GenerateRoomIDs(def)
	require.NoError(t, err)
	assert.Equal(t, []string{"A-01", "A-02", "A-03"}, ids)
	assert.Equal(t, 3, def.TotalRooms())
	assert.Equal(t, 6, def.TotalCapacity())
}

func TestGenerateRoomIDsMultipleBlocks(t *testing.T) {
	def := StructureDef{
		HostelName: "Hingol",
		Blocks:     []Block{{Name: "A", NumRooms: 2}, {Name: "B", NumRooms: 2}},
	}

	ids, err := GenerateRoomIDs(def)
	require.NoError(t, err)
	assert.Equal(t, []string{"A-01", "A-02", "B-01", "B-02"}, ids)
}

func TestGenerateRoomIDsFlatCountSynthesizesBlocks(t *testing.T) {
	def := StructureDef{HostelName: "Armabel", NumberOfRooms: 12}

	ids, err := GenerateRoomIDs(def)
	require.NoError(t, err)
	require.Len(t, ids, 12)
	// 12 rooms across 5 synthetic blocks: first two blocks take one extra.
	assert.Equal(t, []string{
		"A-01", "A-02", "A-03",
		"B-01", "B-02", "B-03",
		"C-01", "C-02",
		"D-01", "D-02",
		"E-01", "E-02",
	}, ids)
}

func TestGenerateRoomIDsHonorsBlockCountHint(t *testing.T) {
	def := StructureDef{HostelName: "Magsi", NumberOfRooms: 4, NumberOfBlocks: 2}

	ids, err := GenerateRoomIDs(def)
	require.NoError(t, err)
	assert.Equal(t, []string{"A-01", "A-02", "B-01", "B-02"}, ids)
}

func TestGenerateRoomIDsDeterministic(t *testing.T) {
	def := StructureDef{
		HostelName:     "Hingol",
		NumberOfRooms:  104,
		NumberOfBlocks: 5,
	}

	first, err := GenerateRoomIDs(def)
	require.NoError(t, err)
	second, err := GenerateRoomIDs(def)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 104)

	unique := make(map[string]struct{}, len(first))
	for _, id := range first {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, 104)
}

func TestGenerateRoomIDsInvalidStructure(t *testing.T) {
	_, err := GenerateRoomIDs(StructureDef{HostelName: "Ghost"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidStructure.Code, appErr.Code)
}

func TestGenerateRoomIDsSkipsMalformedBlocks(t *testing.T) {
	def := StructureDef{
		HostelName: "Porali",
		Blocks:     []Block{{Name: " ", NumRooms: 3}, {Name: "B", NumRooms: 0}, {Name: "C", NumRooms: 1}},
	}

	ids, err := GenerateRoomIDs(def)
	require.NoError(t, err)
	assert.Equal(t, []string{"C-01"}, ids)
}

func TestStructureDefCapacityDefault(t *testing.T) {
	assert.Equal(t, 3, StructureDef{}.Capacity())
	assert.Equal(t, 4, StructureDef{CapacityPerRoom: 4}.Capacity())
}
