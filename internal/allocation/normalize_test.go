package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoomID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"b-2", "B-02"},
		{"B-02", "B-02"},
		{" B - 2 ", "B-02"},
		{"a10", "A-10"},
		{"AB 7", "AB-07"},
		{"c-007", "C-07"},
		{"C-113", "C-113"},
		{"Ground Floor 3A", "Ground Floor 3A"},
		{"  annex  ", "annex"},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeRoomID(tc.in), "input %q", tc.in)
	}
}

func TestSameRoomID(t *testing.T) {
	assert.True(t, SameRoomID("b-2", "B-02"))
	assert.True(t, SameRoomID(" B - 2 ", "b02"))
	assert.False(t, SameRoomID("B-02", "B-03"))
	assert.True(t, SameRoomID("annex", "ANNEX"))
}

func TestHostelNameVariants(t *testing.T) {
	variants := HostelNameVariants("  Armabel Hostel ")
	assert.Equal(t, []string{"Armabel Hostel", "Armabel"}, variants)

	variants = HostelNameVariants("Porali")
	assert.Equal(t, []string{"Porali"}, variants)

	variants = HostelNameVariants("Yousaf  Aziz   Magsi Hostel")
	assert.Contains(t, variants, "Yousaf Aziz Magsi Hostel")
	assert.Contains(t, variants, "Yousaf  Aziz   Magsi")
}

func TestMatchesHostel(t *testing.T) {
	assert.True(t, MatchesHostel("Armabel Hostel", "armabel"))
	assert.True(t, MatchesHostel("Armabel", "Armabel"))
	assert.False(t, MatchesHostel("Armabel Hostel", "Hingol"))
	assert.False(t, MatchesHostel("Armabel Hostel", ""))
}
