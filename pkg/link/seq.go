package link

// Seq defines the type of frame sequence number.
type Seq uint16

// SeqModulus is the number of distinct sequence numbers. It keeps the
// sequence field at exactly three decimal digits.
const SeqModulus = 1000

// DefaultWrapThreshold is the backward jump treated as a counter wrap.
const DefaultWrapThreshold = 500

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := s + 1
	if n >= SeqModulus {
		n = 0
	}
	return n
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	return s < SeqModulus
}

// GateState indicates the acceptance state of a Gate.
type GateState int

const (
	// GateAwaitingFirst means no frame has been accepted yet.
	GateAwaitingFirst GateState = iota
	// GateTracking means the gate accepts only frames newer than the last one.
	GateTracking
)

// String implements fmt.Stringer.
func (s GateState) String() string {
	if s == GateTracking {
		return "tracking"
	}
	return "awaiting-first-frame"
}

// Gate implements the strictly-increasing acceptance rule for inbound
// sequence numbers.
//
// A zero Gate applies the plain rule: after accepting N it accepts only
// sequences greater than N. With WrapThreshold set, a backward jump of at
// least WrapThreshold is taken as the peer's counter wrapping and accepted.
type Gate struct {
	WrapThreshold int

	last     Seq
	accepted bool
}

// NewGate creates a Gate with the default wrap threshold.
func NewGate() *Gate {
	return &Gate{WrapThreshold: DefaultWrapThreshold}
}

// State gets the current gate state.
func (g *Gate) State() GateState {
	if g.accepted {
		return GateTracking
	}
	return GateAwaitingFirst
}

// LastAccepted returns the last accepted sequence, or -1 if none.
func (g *Gate) LastAccepted() int {
	if !g.accepted {
		return -1
	}
	return int(g.last)
}

// Admits checks whether seq would be accepted, without changing state.
func (g *Gate) Admits(seq Seq) bool {
	if !g.accepted || seq > g.last {
		return true
	}
	return g.WrapThreshold > 0 && int(g.last)-int(seq) >= g.WrapThreshold
}

// Accept records seq if it's admitted and reports whether it was.
func (g *Gate) Accept(seq Seq) bool {
	if !g.Admits(seq) {
		return false
	}
	g.last, g.accepted = seq, true
	return true
}

// Reset returns the gate to the awaiting state.
func (g *Gate) Reset() {
	g.last, g.accepted = 0, false
}
