package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var suffixRe = regexp.MustCompile(`-(\d+)\s*$`)

// PlantIDPrefix is the prefix used for seeded plant identifiers ("plant-1",
// "plant-2", ...).
const PlantIDPrefix = "plant"

// PlantSuffix extracts the numeric suffix from a plant identifier of the form
// "<name>-<n>". Hand-written ids without a numeric suffix report ok=false and
// are ignored by the seed allocator.
func PlantSuffix(id string) (int, bool) {
	m := suffixRe.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextPlantSuffix returns the first unused suffix given the plant ids already
// present in a garden. Existing suffixes are never reused, so plants seeded
// in a later call cannot collide with ids from an earlier one.
func NextPlantSuffix(existing []string) int {
	max := 0
	for _, id := range existing {
		if n, ok := PlantSuffix(id); ok && n > max {
			max = n
		}
	}
	return max + 1
}

// FormatPlantID renders a seeded plant id from its numeric suffix.
func FormatPlantID(n int) string {
	return fmt.Sprintf("%s-%d", PlantIDPrefix, n)
}
