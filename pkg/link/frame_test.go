package link

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name     string
		seq      Seq
		duty     int
		voltage  float64
		realDuty float64
		expect   string
	}{
		{"example", 3, 50, 1.65, 50.0, "S003D050V1.65R50.0E\n"},
		{"zero", 0, 0, 0, 0, "S000D000V0.00R0.0E\n"},
		{"full", 999, 100, 3.3, 100, "S999D100V3.30R100.0E\n"},
		{"positive full scale", 12, 100, 4.096, 124.12, "S012D100V4.10R124.1E\n"},
		{"negative full scale", 13, 0, -4.096, -124.12, "S013D000V-4.10R-124.1E\n"},
		{"unguarded duty", 1, 150, 0, 0, "S001D150V0.00R0.0E\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, string(Encode(tc.seq, tc.duty, tc.voltage, tc.realDuty)))
			f := &Frame{Seq: tc.seq, Duty: tc.duty, Voltage: tc.voltage, RealDuty: tc.realDuty}
			require.Equal(t, tc.expect, string(f.Bytes()))
			var buf bytes.Buffer
			n, err := f.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(len(tc.expect)), n)
			require.Equal(t, tc.expect, buf.String())
		})
	}
}

func TestFullScaleRoundTrip(t *testing.T) {
	for _, v := range []float64{-4.096, 4.096} {
		f, err := Decode(Encode(1, 50, v, 0))
		require.NoError(t, err)
		require.InDelta(t, v, f.Voltage, 0.005)
	}
}

func TestFrameString(t *testing.T) {
	f := &Frame{Seq: 7, Duty: 50, Voltage: 1.62, RealDuty: 49.1}
	require.InDelta(t, -0.9, f.Discrepancy(), 1e-9)
	require.Equal(t, "seq=007 duty= 50% real= 49.1% volts=1.62V error=-0.9%", f.String())
}
