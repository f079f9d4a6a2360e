package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/pwmlink/pkg/hw/adc"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestBoardRC(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := NewBoard()
	b.Now = clock.Now

	require.NoError(t, b.SetDuty(50))
	require.InDelta(t, 0, b.Voltage(), 1e-9)

	clock.advance(DefaultTimeConst)
	require.InDelta(t, 1.65*(1-1/2.718281828), b.Voltage(), 1e-6)

	clock.advance(10 * DefaultTimeConst)
	require.InDelta(t, 1.65, b.Voltage(), 1e-3)

	require.NoError(t, b.SetDuty(100))
	clock.advance(DefaultTimeConst)
	require.InDelta(t, 3.3-1.65/2.718281828, b.Voltage(), 1e-3)

	require.NoError(t, b.SetDuty(250))
	require.Equal(t, 100, b.Duty())
}

func TestBoardConverter(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := NewBoard().Seed(1)
	b.Now = clock.Now
	var conv adc.Converter = b
	require.Equal(t, DefaultSettleTime, conv.SettleTime())

	_, err := conv.Read()
	require.Equal(t, adc.ErrNotStarted, err)

	require.NoError(t, b.SetDuty(25))
	clock.advance(time.Second)
	require.NoError(t, conv.Start())
	v, err := conv.Read()
	require.NoError(t, err)
	require.InDelta(t, 0.825, v, 1e-9)

	b.Noise = 0.01
	require.NoError(t, conv.Start())
	v, err = conv.Read()
	require.NoError(t, err)
	require.InDelta(t, 0.825, v, 0.1)

	b.Fault = errors.New("i2c nack")
	require.Error(t, conv.Start())
	_, err = conv.Read()
	require.Equal(t, adc.ErrNotStarted, err)
}

func TestProbe(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := NewBoard()
	b.Now = clock.Now
	require.NoError(t, b.SetDuty(40))
	clock.advance(time.Second)

	var p adc.Converter = b.Probe()
	_, err := p.Read()
	require.Equal(t, adc.ErrNotStarted, err)
	require.NoError(t, p.Start())
	v, err := p.Read()
	require.NoError(t, err)
	require.InDelta(t, 1.32, v, 1e-9)
}
