package sh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/pwmlink/pkg/link"
	"github.com/robotalks/pwmlink/pkg/link/stream"
)

func TestParseFrameArgs(t *testing.T) {
	a, err := parseFrameArgs([]string{"50", "1.65", "50.0"})
	require.NoError(t, err)
	assert.Equal(t, frameArgs{Duty: 50, Voltage: 1.65, RealDuty: 50}, a)

	for _, args := range [][]string{
		{"50", "1.65"},
		{"half", "1.65", "50"},
		{"50", "x", "50"},
		{"50", "1.65", "y"},
	} {
		_, err := parseFrameArgs(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestParseSeq(t *testing.T) {
	seq, err := parseSeq("999")
	require.NoError(t, err)
	assert.Equal(t, link.Seq(999), seq)
	for _, s := range []string{"-1", "1000", "66536", "abc"} {
		_, err := parseSeq(s)
		assert.Error(t, err, s)
	}
}

func TestDescribeResult(t *testing.T) {
	seqr := link.NewSequencer()
	assert.Contains(t, describeResult(seqr.Accept([]byte("S007D050V1.65R50.0E\n"))), "accepted")
	assert.Equal(t, `stale "S007D050V1.65R50.0E"`, describeResult(seqr.Accept([]byte("S007D050V1.65R50.0E\n"))))
	assert.Equal(t, `noise "hello"`, describeResult(seqr.Accept([]byte("hello\r\n"))))
	assert.Contains(t, describeResult(seqr.Accept([]byte("S00XD050V1.65R50.0E\n"))), "parse error")
	assert.Equal(t, "no line", describeResult(link.ReceiveResult{Fault: link.FaultNoLine}))
}

func TestShellReceive(t *testing.T) {
	local, remote := stream.Pipe()
	port := link.NewPort(local)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go port.Run(ctx)

	s := &Shell{Sequencer: link.NewSequencer(), Conn: &PortLoop{Port: port}}
	r, ok := s.Receive(10 * time.Millisecond)
	assert.False(t, ok)
	assert.Equal(t, link.FaultNoLine, r.Fault)

	_, err := remote.Write([]byte("S003D020V0.66R20.0E\n"))
	require.NoError(t, err)
	r, ok = s.Receive(time.Second)
	require.True(t, ok)
	require.True(t, r.Accepted())
	assert.Equal(t, link.Seq(3), r.Frame.Seq)
	assert.Equal(t, 3, s.Sequencer.Gate.LastAccepted())
}
