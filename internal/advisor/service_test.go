package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMaterialLiquidityChange(t *testing.T) {
	cases := []struct {
		name     string
		before   uint64
		after    uint64
		material bool
	}{
		{"unchanged", 1_000_000, 1_000_000, false},
		{"small drift", 1_000_000, 1_040_000, false},
		{"exactly threshold", 1_000_000, 1_050_000, false},
		{"just past threshold", 1_000_000, 1_050_001, true},
		{"large drop", 1_000_000, 100_000, true},
		{"from empty", 0, 1, true},
		{"stays empty", 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.material, isMaterialLiquidityChange(tc.before, tc.after))
		})
	}
}
