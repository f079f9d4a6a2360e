package adc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	writes [][]byte
	conv   uint16
	err    error
}

func (b *fakeBus) Tx(w, r []byte) error {
	if b.err != nil {
		return b.err
	}
	b.writes = append(b.writes, append([]byte(nil), w...))
	if len(r) == 2 {
		r[0], r[1] = byte(b.conv>>8), byte(b.conv)
	}
	return nil
}

func TestConfigWord(t *testing.T) {
	word, err := ConfigWord(2, FS4V096)
	require.NoError(t, err)
	require.Equal(t, uint16(0xE283), word)

	word, err = ConfigWord(0, FS4V096)
	require.NoError(t, err)
	require.Equal(t, uint16(0xC283), word)

	word, err = ConfigWord(3, FS2V048)
	require.NoError(t, err)
	require.Equal(t, uint16(0xF483), word)

	_, err = ConfigWord(4, FS4V096)
	require.Equal(t, ErrInvalidChannel, err)
	_, err = ConfigWord(0, Gain(9))
	require.Error(t, err)
}

func TestRawToVolts(t *testing.T) {
	testCases := []struct {
		reg    uint16
		expect float64
	}{
		{0x0000, 0},
		{0x7FF0, 2047 * 4.096 / 2048},
		{0x8000, -4.096},
		{0xFFF0, -4.096 / 2048},
		{0x6720, 1650 * 4.096 / 2048},
		{0x000F, 0},
	}
	for _, tc := range testCases {
		require.InDelta(t, tc.expect, RawToVolts(tc.reg, FS4V096), 1e-9, "reg=%04x", tc.reg)
	}
}

func TestADS1015(t *testing.T) {
	bus := &fakeBus{conv: 0x3390}
	a := NewADS1015(bus)
	require.Equal(t, DefaultSettleTime, a.SettleTime())

	_, err := a.Read()
	require.Equal(t, ErrNotStarted, err)

	require.NoError(t, a.Start())
	v, err := a.Read()
	require.NoError(t, err)
	require.InDelta(t, 825*4.096/2048, v, 1e-9)
	require.Equal(t, [][]byte{{RegConfig, 0xE2, 0x83}, {RegConversion}}, bus.writes)

	_, err = a.Read()
	require.Equal(t, ErrNotStarted, err)

	bus.err = errors.New("nack")
	require.Error(t, a.Start())
	_, err = a.Read()
	require.Equal(t, ErrNotStarted, err)
}

func TestSample(t *testing.T) {
	a := NewADS1015(&fakeBus{conv: 0x7FF0})
	a.Settle = time.Millisecond
	v, err := Sample(a)
	require.NoError(t, err)
	require.InDelta(t, 4.094, v, 1e-9)
}
