package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/pwmlink/pkg/telemetry"
)

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic, filter string
		match         bool
	}{
		{"a/report", "a/report", true},
		{"a/report", "+/report", true},
		{"a/b/report", "+/report", false},
		{"a/report", "#", true},
		{"a/report", "a/#", true},
		{"a", "a/#", true},
		{"a/report", "b/report", false},
		{"a/report/x", "a/report", false},
		{"a", "a/report", false},
	}
	for _, tc := range testCases {
		t.Run(tc.topic+"~"+tc.filter, func(t *testing.T) {
			require.Equal(t, tc.match, MatchTopic(tc.topic, tc.filter))
		})
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://user:pw@broker:1883/pwmlink?client-id=node-a")
	require.NoError(t, err)
	require.Equal(t, "pwmlink/", prefix)
	require.Len(t, opts.Servers, 1)
	require.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
	require.Equal(t, "user", opts.Username)
	require.Equal(t, "pw", opts.Password)
	require.Equal(t, "node-a", opts.ClientID)

	opts, prefix, err = ClientOptionsFromURL("mqtts://broker:8883")
	require.NoError(t, err)
	require.Equal(t, "", prefix)
	require.Equal(t, "ssl://broker:8883", opts.Servers[0].String())
}

func TestReportTopic(t *testing.T) {
	require.Equal(t, "pico-a/report", ReportTopic("pico-a"))
	s := &Subscriber{}
	require.Equal(t, "+/report", s.Filter())
	s.NodeID = "pico-b"
	require.Equal(t, "pico-b/report", s.Filter())
}

func TestSubscriberHandle(t *testing.T) {
	var got []*telemetry.Report
	s := &Subscriber{OnReport: func(r *telemetry.Report) { got = append(got, r) }}
	data, err := telemetry.EncodingJSON.Marshal(&telemetry.Report{Seq: 3, Duty: 50})
	require.NoError(t, err)
	s.handle("pico-a/report", data)
	s.handle("pico-a/report", []byte("\xff\xff"))
	require.Len(t, got, 1)
	require.Equal(t, "pico-a", got[0].NodeID)
	require.Equal(t, int32(3), got[0].Seq)
}
