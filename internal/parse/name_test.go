package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlantSuffix(t *testing.T) {
	testCases := []struct {
		name     string
		id       string
		expected int
		ok       bool
	}{
		{name: "seeded id", id: "plant-3", expected: 3, ok: true},
		{name: "large suffix", id: "plant-120", expected: 120, ok: true},
		{name: "custom prefix", id: "tomato-2", expected: 2, ok: true},
		{name: "trailing space", id: "plant-7 ", expected: 7, ok: true},
		{name: "no suffix", id: "tomato", ok: false},
		{name: "non-numeric suffix", id: "plant-abc", ok: false},
		{name: "empty", id: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, ok := PlantSuffix(tc.id)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, n)
			}
		})
	}
}

func TestNextPlantSuffix(t *testing.T) {
	testCases := []struct {
		name     string
		existing []string
		expected int
	}{
		{name: "empty garden", existing: nil, expected: 1},
		{name: "sequential", existing: []string{"plant-1", "plant-2"}, expected: 3},
		{name: "gap is not reused", existing: []string{"plant-1", "plant-5"}, expected: 6},
		{name: "ignores unsuffixed ids", existing: []string{"tomato", "plant-2"}, expected: 3},
		{name: "mixed prefixes", existing: []string{"basil-4", "plant-2"}, expected: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NextPlantSuffix(tc.existing))
		})
	}
}
