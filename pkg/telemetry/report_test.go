package telemetry

import (
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/pwmlink/pkg/link"
)

func TestFrameReport(t *testing.T) {
	at := time.Unix(1700000000, 250*int64(time.Millisecond))
	r := FrameReport(DirectionReceived, &link.Frame{Seq: 7, Duty: 50, Voltage: 1.62, RealDuty: 49.1}, at)
	r.NodeID = "pico-b"
	require.Equal(t, int32(7), r.Seq)
	require.InDelta(t, -0.9, r.Error, 1e-9)
	require.True(t, at.Equal(r.Time()))
	require.Equal(t, "pico-b rx    seq=007 duty= 50.0% real= 49.1% volts=1.62V error=-0.9%", r.Summary())

	l := LegacyReport(DirectionReceived, link.Report{Theoretical: 25, Measured: 24.5, Error: -0.5}, at)
	require.Equal(t, int32(-1), l.Seq)
	require.Contains(t, l.Summary(), "seq=---")
}

func TestEncodings(t *testing.T) {
	enc, err := ParseEncoding("")
	require.NoError(t, err)
	require.Equal(t, EncodingProto, enc)
	_, err = ParseEncoding("xml")
	require.Error(t, err)

	src := &Report{
		NodeID:      "pico-a",
		Mode:        "sequenced",
		Direction:   DirectionSent,
		Seq:         999,
		Duty:        100,
		Voltage:     3.29,
		RealDuty:    99.7,
		Error:       -0.3,
		TimestampMs: 1700000000123,
	}
	for _, enc := range []Encoding{EncodingProto, EncodingJSON} {
		t.Run(string(enc), func(t *testing.T) {
			data, err := enc.Marshal(src)
			require.NoError(t, err)
			if enc == EncodingJSON {
				require.Contains(t, string(data), `"node_id":"pico-a"`)
			}
			r, err := Unmarshal(data)
			require.NoError(t, err)
			require.True(t, proto.Equal(src, r), "got %v", r)
		})
	}
}
