package node

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRealDuty(t *testing.T) {
	testCases := []struct {
		voltage float64
		clamp   bool
		expect  float64
	}{
		{1.65, false, 50},
		{3.3, false, 100},
		{0, true, 0},
		{3.5, false, 3.5 / 3.3 * 100},
		{3.5, true, 100},
		{-0.1, false, -0.1 / 3.3 * 100},
		{-0.1, true, 0},
	}
	for _, tc := range testCases {
		require.InDelta(t, tc.expect, RealDuty(tc.voltage, DefaultSupply, tc.clamp), 1e-9,
			"v=%v clamp=%v", tc.voltage, tc.clamp)
	}
	require.InDelta(t, 50, RealDuty(1.65, 0, false), 1e-9)
	require.InDelta(t, 50, RealDuty(2.5, 5, false), 1e-9)
}

func TestMeasure(t *testing.T) {
	m := Measure(50, 1.62, DefaultSupply, false)
	require.InDelta(t, 1.62/3.3*100-50, m.Error(), 1e-9)
	require.Equal(t, "duty= 50% volts=1.62V real= 49.1%", m.String())
}
