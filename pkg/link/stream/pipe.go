package stream

import (
	"bytes"
	"io"
	"sync"
)

// pipeBuffer is one direction of a Pipe. Writes never block, like a UART
// transmit FIFO that is drained by the peer.
type pipeBuffer struct {
	lock   sync.Mutex
	cond   *sync.Cond
	buf    bytes.Buffer
	closed bool
}

func newPipeBuffer() *pipeBuffer {
	b := &pipeBuffer{}
	b.cond = sync.NewCond(&b.lock)
	return b
}

func (b *pipeBuffer) Read(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for b.buf.Len() == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.buf.Len() == 0 {
		return 0, io.EOF
	}
	return b.buf.Read(p)
}

func (b *pipeBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	n, err := b.buf.Write(p)
	b.cond.Broadcast()
	return n, err
}

func (b *pipeBuffer) close() {
	b.lock.Lock()
	b.closed = true
	b.cond.Broadcast()
	b.lock.Unlock()
}

// PipeEnd is one end of an in-process full-duplex Pipe.
type PipeEnd struct {
	rx *pipeBuffer
	tx *pipeBuffer
}

// Read implements io.Reader.
func (e *PipeEnd) Read(p []byte) (int, error) {
	return e.rx.Read(p)
}

// Write implements io.Writer.
func (e *PipeEnd) Write(p []byte) (int, error) {
	return e.tx.Write(p)
}

// Close closes both directions. The peer reads what is buffered and
// then io.EOF.
func (e *PipeEnd) Close() error {
	e.rx.close()
	e.tx.close()
	return nil
}

// Pipe creates a cross-connected pair of buffered stream ends, the
// in-process equivalent of two boards wired TX to RX.
func Pipe() (*PipeEnd, *PipeEnd) {
	ab, ba := newPipeBuffer(), newPipeBuffer()
	return &PipeEnd{rx: ba, tx: ab}, &PipeEnd{rx: ab, tx: ba}
}

var (
	pipes     = make(map[string]*PipeEnd)
	pipesLock sync.Mutex
)

// OpenPipe returns an end of the named pipe. The first call for a name
// creates the pair and returns one end; the second call returns the
// other end and forgets the name.
func OpenPipe(name string) *PipeEnd {
	pipesLock.Lock()
	defer pipesLock.Unlock()
	if peer, ok := pipes[name]; ok {
		delete(pipes, name)
		return peer
	}
	a, b := Pipe()
	pipes[name] = b
	return a
}
