package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeqNext(t *testing.T) {
	require.Equal(t, Seq(1), Seq(0).Next())
	require.Equal(t, Seq(999), Seq(998).Next())
	require.Equal(t, Seq(0), Seq(999).Next())
	require.True(t, Seq(999).IsValid())
	require.False(t, Seq(SeqModulus).IsValid())
}

func TestGate(t *testing.T) {
	testCases := []struct {
		name      string
		threshold int
		seqs      []Seq
		accepted  []bool
		last      int
	}{
		{
			name:     "in order",
			seqs:     []Seq{0, 1, 2},
			accepted: []bool{true, true, true},
			last:     2,
		},
		{
			name:     "reordered",
			seqs:     []Seq{0, 2, 1},
			accepted: []bool{true, true, false},
			last:     2,
		},
		{
			name:     "duplicate",
			seqs:     []Seq{5, 5},
			accepted: []bool{true, false},
			last:     5,
		},
		{
			name:     "first frame accepts anything",
			seqs:     []Seq{731},
			accepted: []bool{true},
			last:     731,
		},
		{
			name:     "gap is fine",
			seqs:     []Seq{1, 40, 41},
			accepted: []bool{true, true, true},
			last:     41,
		},
		{
			name:     "strict rejects wrap",
			seqs:     []Seq{998, 999, 0},
			accepted: []bool{true, true, false},
			last:     999,
		},
		{
			name:      "wrap accepted",
			threshold: DefaultWrapThreshold,
			seqs:      []Seq{998, 999, 0, 1},
			accepted:  []bool{true, true, true, true},
			last:      1,
		},
		{
			name:      "jump at threshold taken as wrap",
			threshold: DefaultWrapThreshold,
			seqs:      []Seq{600, 100, 99},
			accepted:  []bool{true, true, false},
			last:      100,
		},
		{
			name:      "jump below threshold rejected",
			threshold: DefaultWrapThreshold,
			seqs:      []Seq{600, 101, 601},
			accepted:  []bool{true, false, true},
			last:      601,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := &Gate{WrapThreshold: tc.threshold}
			require.Equal(t, GateAwaitingFirst, g.State())
			require.Equal(t, -1, g.LastAccepted())
			for n, seq := range tc.seqs {
				require.Equal(t, tc.accepted[n], g.Admits(seq), "admits #%d seq=%d", n, seq)
				require.Equal(t, tc.accepted[n], g.Accept(seq), "accept #%d seq=%d", n, seq)
			}
			require.Equal(t, GateTracking, g.State())
			require.Equal(t, tc.last, g.LastAccepted())
		})
	}
}

func TestGateRejectLeavesState(t *testing.T) {
	g := NewGate()
	for a := 0; a < SeqModulus; a += 37 {
		g.Reset()
		require.True(t, g.Accept(Seq(a)))
		for b := a - DefaultWrapThreshold + 1; b <= a; b++ {
			if b < 0 {
				continue
			}
			require.False(t, g.Accept(Seq(b)), "a=%d b=%d", a, b)
			require.Equal(t, a, g.LastAccepted())
		}
		for b := a + 1; b < SeqModulus && b < a+5; b++ {
			require.True(t, g.Admits(Seq(b)), "a=%d b=%d", a, b)
		}
	}
}

func TestGateReset(t *testing.T) {
	g := NewGate()
	require.True(t, g.Accept(10))
	g.Reset()
	require.Equal(t, GateAwaitingFirst, g.State())
	require.Equal(t, "awaiting-first-frame", g.State().String())
	require.True(t, g.Accept(3))
	require.Equal(t, "tracking", g.State().String())
}
