package link

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type pipeStream struct {
	io.Reader
	io.Writer
}

func TestPortPollLine(t *testing.T) {
	pr, pw := io.Pipe()
	var out strings.Builder
	p := NewPort(&pipeStream{Reader: pr, Writer: &out})

	line, ok := p.PollLine()
	require.False(t, ok)
	require.Nil(t, line)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	go func() {
		pw.Write([]byte("S000D050V1.65R50.0E\nS001D0"))
		pw.Write([]byte("51V1.68R50.9E\n"))
		pw.Write([]byte("partial"))
	}()
	require.Eventually(t, func() bool { return p.Buffered() == 2 }, time.Second, time.Millisecond)

	line, ok = p.PollLine()
	require.True(t, ok)
	require.Equal(t, "S000D050V1.65R50.0E\n", string(line))
	line, ok = p.PollLine()
	require.True(t, ok)
	require.Equal(t, "S001D051V1.68R50.9E\n", string(line))
	_, ok = p.PollLine()
	require.False(t, ok)

	require.NoError(t, p.Send([]byte("S000D010V0.33R10.0E\n")))
	require.Equal(t, "S000D010V0.33R10.0E\n", out.String())

	pw.Close()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("port did not stop on EOF")
	}
}

func TestPortDropsLongLines(t *testing.T) {
	long := strings.Repeat("x", 100)
	in := strings.NewReader(long + "\nS002D020V0.66R20.0E\n")
	p := NewPort(&pipeStream{Reader: in, Writer: io.Discard})
	p.MaxLineLength = 32
	require.NoError(t, p.Run(context.Background()))
	require.Equal(t, 1, p.Buffered())
	line, ok := p.PollLine()
	require.True(t, ok)
	require.Equal(t, "S002D020V0.66R20.0E\n", string(line))
}

func TestPortCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewPortWithBacklog(&struct {
		io.ReadCloser
		io.Writer
	}{pr, io.Discard}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("port did not stop on cancel")
	}
}

func TestPortWithSequencer(t *testing.T) {
	in := strings.NewReader("S000D050V1.65R50.0E\nS002D052V1.71R51.8E\nS001D051V1.68R50.9E\n")
	p := NewPort(&pipeStream{Reader: in, Writer: io.Discard})
	require.NoError(t, p.Run(context.Background()))
	s := NewSequencer()
	var faults []FaultKind
	for n := 0; n < 4; n++ {
		faults = append(faults, s.Receive(p).Fault)
	}
	require.Equal(t, []FaultKind{FaultNone, FaultNone, FaultStale, FaultNoLine}, faults)
	require.Equal(t, 2, s.Gate.LastAccepted())
}
