// Package sim simulates the analog front end: a PWM output filtered by a
// first-order RC network and sampled by the ADC.
package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/robotalks/pwmlink/pkg/hw/adc"
)

// Board defaults.
const (
	DefaultSupply     = 3.3
	DefaultTimeConst  = 10 * time.Millisecond
	DefaultSettleTime = adc.DefaultSettleTime
)

// Board implements both pwm.Output and adc.Converter.
type Board struct {
	// Supply is the PWM high level in volts.
	Supply float64
	// TimeConst is the RC time constant.
	TimeConst time.Duration
	// Noise is the standard deviation of the sampled voltage.
	Noise float64
	// Settle is reported by SettleTime.
	Settle time.Duration
	// Fault, when set, is returned by Start.
	Fault error
	// Now is the clock, time.Now if nil.
	Now func() time.Time

	lock    sync.Mutex
	rnd     *rand.Rand
	duty    int
	target  float64
	level   float64
	since   time.Time
	started bool
}

// NewBoard creates a Board with default parameters.
func NewBoard() *Board {
	return &Board{
		Supply:    DefaultSupply,
		TimeConst: DefaultTimeConst,
		Settle:    DefaultSettleTime,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed makes the noise reproducible.
func (b *Board) Seed(seed int64) *Board {
	b.lock.Lock()
	b.rnd = rand.New(rand.NewSource(seed))
	b.lock.Unlock()
	return b
}

// Duty returns the last duty set.
func (b *Board) Duty() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.duty
}

// SetDuty implements pwm.Output.
func (b *Board) SetDuty(percent int) error {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	now := b.now()
	b.level = b.levelAt(now)
	b.since = now
	b.duty = percent
	b.target = float64(percent) / 100 * b.Supply
	return nil
}

// Voltage returns the noiseless filter output at the current time.
func (b *Board) Voltage() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.levelAt(b.now())
}

// Start implements adc.Converter.
func (b *Board) Start() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.started = b.Fault == nil
	return b.Fault
}

// Read implements adc.Converter.
func (b *Board) Read() (float64, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.started {
		return 0, adc.ErrNotStarted
	}
	b.started = false
	v := b.levelAt(b.now())
	if b.Noise > 0 && b.rnd != nil {
		v += b.rnd.NormFloat64() * b.Noise
	}
	return v, nil
}

// SettleTime implements adc.Converter.
func (b *Board) SettleTime() time.Duration {
	return b.Settle
}

func (b *Board) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Board) levelAt(t time.Time) float64 {
	if b.since.IsZero() || b.TimeConst <= 0 {
		return b.target
	}
	elapsed := t.Sub(b.since)
	if elapsed <= 0 {
		return b.level
	}
	return b.target + (b.level-b.target)*math.Exp(-float64(elapsed)/float64(b.TimeConst))
}

// Probe is a second converter on the board's RC node, e.g. the peer's
// ADC wired to this board's filter output.
type Probe struct {
	Board  *Board
	Settle time.Duration

	lock    sync.Mutex
	started bool
}

// Probe creates a Probe on the board.
func (b *Board) Probe() *Probe {
	return &Probe{Board: b, Settle: b.Settle}
}

// Start implements adc.Converter.
func (p *Probe) Start() error {
	p.lock.Lock()
	p.started = true
	p.lock.Unlock()
	return nil
}

// Read implements adc.Converter.
func (p *Probe) Read() (float64, error) {
	p.lock.Lock()
	started := p.started
	p.started = false
	p.lock.Unlock()
	if !started {
		return 0, adc.ErrNotStarted
	}
	return p.Board.Voltage(), nil
}

// SettleTime implements adc.Converter.
func (p *Probe) SettleTime() time.Duration {
	return p.Settle
}
