// Package node implements a duty-cycle endpoint: it drives the local PWM,
// measures the filtered voltage and exchanges the results with its peer.
package node

import (
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	fx "github.com/robotalks/pwmlink/pkg/framework"
	"github.com/robotalks/pwmlink/pkg/hw/adc"
	"github.com/robotalks/pwmlink/pkg/hw/pwm"
	"github.com/robotalks/pwmlink/pkg/link"
	"github.com/robotalks/pwmlink/pkg/telemetry"
)

// Mode selects the exchange an endpoint runs.
type Mode string

// Modes.
const (
	// ModeSequenced exchanges S-frames symmetrically.
	ModeSequenced Mode = "sequenced"
	// ModeLeader announces setpoints and collects the follower's reports.
	ModeLeader Mode = "leader"
	// ModeFollower measures announced setpoints and reports back.
	ModeFollower Mode = "follower"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeSequenced, ModeLeader, ModeFollower:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Timing holds the timing contracts of a mode.
type Timing struct {
	// Interval is the loop period.
	Interval time.Duration
	// RCSettle is the wait after changing the duty, before converting.
	RCSettle time.Duration
	// Summary is the period of the sent summary log.
	Summary time.Duration
}

// DefaultTiming returns the timing of a mode.
func DefaultTiming(mode Mode) Timing {
	switch mode {
	case ModeLeader:
		return Timing{Interval: 100 * time.Millisecond, RCSettle: 100 * time.Millisecond, Summary: 2 * time.Second}
	default:
		return Timing{Interval: 300 * time.Millisecond, RCSettle: 50 * time.Millisecond, Summary: 2 * time.Second}
	}
}

// DefaultADCSettle returns the conversion settle time of a mode.
func DefaultADCSettle(mode Mode) time.Duration {
	if mode == ModeSequenced {
		return 20 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// DefaultSchedule returns the duty schedule of a mode.
func DefaultSchedule(mode Mode) Schedule {
	switch mode {
	case ModeLeader:
		return &List{Values: []int{0, 10, 25, 50, 75, 90, 100}, Dwell: 3 * time.Second}
	case ModeFollower:
		return &List{Values: []int{100, 80, 60, 40, 20, 0}, Dwell: 4 * time.Second}
	default:
		return &Triangle{Value: 0, Dir: 1}
	}
}

// Hardware bundles the local peripherals.
type Hardware struct {
	ADC adc.Converter
	PWM pwm.Output

	Closers []io.Closer
}

// Close releases the peripherals.
func (h *Hardware) Close() error {
	var errs fx.AggregatedError
	for _, c := range h.Closers {
		errs.Add(c.Close())
	}
	return errs.Aggregate()
}

// maxPollsPerCycle bounds the lines drained in one receive.
const maxPollsPerCycle = link.DefaultBacklog

// Node is the state shared by all modes.
type Node struct {
	ID     string
	Mode   Mode
	Timing Timing
	Clamp  bool
	Supply float64

	// Schedule drives the local duty cycle.
	Schedule Schedule
	// ReceiveFirst polls the peer before driving, sequenced mode only.
	ReceiveFirst bool

	Link      link.Link
	HW        Hardware
	Sequencer *link.Sequencer
	Sink      telemetry.Sink
	Metrics   *Metrics

	// Runnables are started along with the loop, e.g. the port reader.
	Runnables []fx.Runnable

	warnLimit *rate.Limiter
	ctl       fx.Controller
}

// New creates a Node with its mode controller.
func New(id string, mode Mode, lnk link.Link, hw Hardware) *Node {
	n := &Node{
		ID:        id,
		Mode:      mode,
		Timing:    DefaultTiming(mode),
		Supply:    DefaultSupply,
		Schedule:  DefaultSchedule(mode),
		Link:      lnk,
		HW:        hw,
		Sequencer: link.NewSequencer(),
		Sink:      telemetry.Discard,
		Metrics:   NewMetrics(prometheus.NewRegistry()),
		warnLimit: rate.NewLimiter(rate.Every(time.Second), 5),
	}
	switch mode {
	case ModeLeader:
		n.ctl = NewLeader(n)
	case ModeFollower:
		n.ctl = NewFollower(n)
	default:
		n.ctl = NewSequenced(n)
	}
	return n
}

// Controller returns the mode controller.
func (n *Node) Controller() fx.Controller {
	return n.ctl
}

// AddToLoop implements LoopAdder.
func (n *Node) AddToLoop(l *fx.Loop) {
	l.Interval = n.Timing.Interval
	l.AddController(fx.PrLvControl, n.ctl)
	l.AddRunnable(n.Runnables...)
}

// Close releases the hardware.
func (n *Node) Close() error {
	return n.HW.Close()
}

func (n *Node) applyDuty(duty int) {
	if err := n.HW.PWM.SetDuty(duty); err != nil {
		glog.Warningf("set duty %d%%: %v", duty, err)
	}
	n.Metrics.Duty.Set(float64(duty))
}

// measure runs one conversion: it triggers the ADC now and reads it once
// the settle time has elapsed. A failed conversion measures 0V.
func (n *Node) measure(cc fx.ControlContext, duty int, clamp bool, done func(fx.ControlContext, Measurement)) {
	started := true
	if err := n.HW.ADC.Start(); err != nil {
		n.adcFault(err)
		started = false
	}
	cc.After(n.HW.ADC.SettleTime(), fx.ControlFunc(func(cc fx.ControlContext) error {
		var voltage float64
		if started {
			v, err := n.HW.ADC.Read()
			if err != nil {
				n.adcFault(err)
			} else {
				voltage = v
			}
		}
		m := Measure(duty, voltage, n.Supply, clamp)
		n.Metrics.RealDuty.Set(m.RealDuty)
		done(cc, m)
		return nil
	}))
}

func (n *Node) adcFault(err error) {
	n.Metrics.ADCFaults.Inc()
	glog.Warningf("adc: %v, using 0V", err)
}

func (n *Node) parseFault(err error) {
	if n.warnLimit.Allow() {
		glog.Warningf("drop line: %v", err)
	} else {
		glog.V(2).Infof("drop line: %v", err)
	}
}

func localReport(m Measurement, at time.Time) *telemetry.Report {
	return &telemetry.Report{
		Direction:   telemetry.DirectionLocal,
		Seq:         -1,
		Duty:        float64(m.Duty),
		Voltage:     m.Voltage,
		RealDuty:    m.RealDuty,
		Error:       m.Error(),
		TimestampMs: at.UnixNano() / int64(time.Millisecond),
	}
}

func (n *Node) publish(r *telemetry.Report) {
	r.NodeID, r.Mode = n.ID, string(n.Mode)
	n.Sink.Publish(r)
}
