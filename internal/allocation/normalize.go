package allocation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var roomIDPattern = regexp.MustCompile(`^([A-Za-z]+)[-\s]*([0-9]+)$`)

// NormalizeRoomID canonicalizes a free-text room identifier to the
// {BLOCK}-{NN} form, e.g. "b-2" and " B - 2 " both become "B-02".
// Unrecognized inputs are returned trimmed but otherwise unchanged; the
// normalizer never rejects.
func NormalizeRoomID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	m := roomIDPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return trimmed
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return trimmed
	}
	return fmt.Sprintf("%s-%02d", strings.ToUpper(m[1]), n)
}

// RoomKey returns the comparison key for a room identifier. Comparison is
// always case-insensitive on the normalized form.
func RoomKey(raw string) string {
	return strings.ToUpper(NormalizeRoomID(raw))
}

// SameRoomID reports whether two free-text room identifiers refer to the
// same room.
func SameRoomID(a, b string) bool {
	return RoomKey(a) == RoomKey(b)
}

// HostelNameVariants builds the tolerated name spellings for a hostel so
// records that disagree on exact naming ("Armabel" vs "Armabel Hostel") can
// still be cross-referenced. The result preserves order and is deduplicated.
func HostelNameVariants(name string) []string {
	base := strings.TrimSpace(name)
	stripped := strings.TrimSpace(trailingHostelSuffix.ReplaceAllString(base, ""))
	collapsed := strings.Join(strings.Fields(base), " ")

	seen := make(map[string]struct{}, 3)
	variants := make([]string, 0, 3)
	for _, v := range []string{base, stripped, collapsed} {
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		variants = append(variants, v)
	}
	return variants
}

var trailingHostelSuffix = regexp.MustCompile(`(?i)\s*Hostel$`)

// MatchesHostel reports whether a record's hostel reference matches any
// variant of the given hostel name, case-insensitively.
func MatchesHostel(hostelName, recordRef string) bool {
	ref := strings.ToLower(strings.TrimSpace(recordRef))
	if ref == "" {
		return false
	}
	for _, v := range HostelNameVariants(hostelName) {
		if strings.ToLower(v) == ref {
			return true
		}
	}
	return false
}
