package link

// LineSender sends encoded lines.
type LineSender interface {
	Send([]byte) error
}

// LinePoller polls for a complete received line without blocking.
type LinePoller interface {
	PollLine() ([]byte, bool)
}

// Link is a duplex line-oriented byte stream.
type Link interface {
	LineSender
	LinePoller
}

// FaultKind classifies the outcome of one receive attempt.
type FaultKind int

const (
	// FaultNone means a frame was accepted.
	FaultNone FaultKind = iota
	// FaultNoLine means no complete line was buffered.
	FaultNoLine
	// FaultNoise means the line was not a frame.
	FaultNoise
	// FaultParse means the line looked like a frame but was malformed.
	FaultParse
	// FaultStale means the frame was not newer than the last accepted one.
	FaultStale
)

var faultNames = [...]string{"none", "no-line", "noise", "parse", "stale"}

// String implements fmt.Stringer.
func (k FaultKind) String() string {
	if k >= 0 && int(k) < len(faultNames) {
		return faultNames[k]
	}
	return "unknown"
}

// ReceiveResult is the result of one receive attempt.
// Frame is set only when Fault is FaultNone, Err only for FaultParse.
type ReceiveResult struct {
	Frame *Frame
	Fault FaultKind
	Err   error
	Line  []byte
}

// Accepted indicates a frame was accepted.
func (r ReceiveResult) Accepted() bool {
	return r.Fault == FaultNone && r.Frame != nil
}

// Sequencer owns the sequence state of one endpoint: the counter stamped
// on outgoing frames and the gate for inbound ones.
type Sequencer struct {
	Gate Gate

	next Seq
}

// NewSequencer creates a Sequencer with the default wrap threshold.
func NewSequencer() *Sequencer {
	return &Sequencer{Gate: Gate{WrapThreshold: DefaultWrapThreshold}}
}

// NextSeq returns the sequence the next sent frame will carry.
func (s *Sequencer) NextSeq() Seq {
	return s.next
}

// Send stamps a frame with the next sequence and sends it.
// The counter advances only if sending succeeded.
func (s *Sequencer) Send(w LineSender, duty int, voltage, realDuty float64) (*Frame, error) {
	f := &Frame{Seq: s.next, Duty: duty, Voltage: voltage, RealDuty: realDuty}
	if err := w.Send(f.Bytes()); err != nil {
		return f, err
	}
	s.next = s.next.Next()
	return f, nil
}

// Receive polls one line and runs it through decoding and the gate.
// It never blocks and never fails: every problem is reported as a Fault.
func (s *Sequencer) Receive(src LinePoller) ReceiveResult {
	line, ok := src.PollLine()
	if !ok {
		return ReceiveResult{Fault: FaultNoLine}
	}
	return s.Accept(line)
}

// Accept decodes a line and runs it through the gate.
func (s *Sequencer) Accept(line []byte) (r ReceiveResult) {
	r.Line = line
	f, err := Decode(line)
	if err == ErrNoise {
		r.Fault = FaultNoise
		return
	}
	if err != nil {
		r.Fault, r.Err = FaultParse, err
		return
	}
	if !s.Gate.Accept(f.Seq) {
		r.Fault = FaultStale
		return
	}
	r.Frame = f
	return
}
