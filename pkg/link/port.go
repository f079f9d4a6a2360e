package link

import (
	"bufio"
	"context"
	"io"
	"sync"

	fx "github.com/robotalks/pwmlink/pkg/framework"
)

// Port defaults.
const (
	DefaultBacklog       = 16
	DefaultMaxLineLength = 256
)

// Port implements Link over an io.ReadWriter.
// Run reads the stream in the background and queues complete lines, so
// PollLine never blocks the caller.
type Port struct {
	Stream        io.ReadWriter
	MaxLineLength int

	lines    chan []byte
	sendLock sync.Mutex
}

// NewPort creates a Port.
func NewPort(rw io.ReadWriter) *Port {
	return NewPortWithBacklog(rw, DefaultBacklog)
}

// NewPortWithBacklog creates a Port queueing at most backlog lines.
func NewPortWithBacklog(rw io.ReadWriter, backlog int) *Port {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	return &Port{
		Stream:        rw,
		MaxLineLength: DefaultMaxLineLength,
		lines:         make(chan []byte, backlog),
	}
}

// Send implements LineSender.
func (p *Port) Send(b []byte) error {
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	_, err := p.Stream.Write(b)
	return err
}

// PollLine implements LinePoller.
func (p *Port) PollLine() ([]byte, bool) {
	select {
	case line, ok := <-p.lines:
		return line, ok
	default:
		return nil, false
	}
}

// Buffered returns the number of lines waiting to be polled.
func (p *Port) Buffered() int {
	return len(p.lines)
}

// Run implements Runnable.
// It returns nil when the stream reaches EOF.
func (p *Port) Run(ctx context.Context) error {
	if closer, ok := p.Stream.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, func() error { return p.readLoop(ctx) })
	}
	return fx.RunWithContext(ctx, func() error { return p.readLoop(ctx) })
}

// Close implements io.Closer.
func (p *Port) Close() error {
	if closer, ok := p.Stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (p *Port) readLoop(ctx context.Context) error {
	size := p.MaxLineLength
	if size < 16 {
		size = DefaultMaxLineLength
	}
	reader := bufio.NewReaderSize(p.Stream, size)
	var overflow bool
	for {
		chunk, err := reader.ReadSlice('\n')
		switch err {
		case nil:
			if overflow {
				// tail of an over-long line.
				overflow = false
				continue
			}
			line := make([]byte, len(chunk))
			copy(line, chunk)
			select {
			case p.lines <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		case bufio.ErrBufferFull:
			overflow = true
		case io.EOF:
			return nil
		default:
			return err
		}
	}
}
