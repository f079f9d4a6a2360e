package node

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/pwmlink/pkg/framework"
	"github.com/robotalks/pwmlink/pkg/link"
	"github.com/robotalks/pwmlink/pkg/telemetry"
)

// Leader runs the legacy exchange from the driving side. Every schedule
// period it applies the next duty, announces it with a TH: line, and after
// the RC settle time measures locally and checks for the follower's ME:
// report. The real duty is always clamped.
type Leader struct {
	*Node

	busy       bool
	lastChange time.Time
	lastReport *link.Report
}

// NewLeader creates the controller.
func NewLeader(n *Node) *Leader {
	return &Leader{Node: n}
}

// Control implements Controller.
func (l *Leader) Control(cc fx.ControlContext) error {
	now := cc.Time()
	if l.lastChange.IsZero() {
		l.lastChange = now
		return nil
	}
	if l.busy || now.Sub(l.lastChange) <= l.Schedule.Period() {
		return nil
	}
	l.busy, l.lastChange = true, now
	duty := l.Schedule.Next()
	l.applyDuty(duty)
	if err := l.Link.Send(link.EncodeSetpoint(float64(duty))); err != nil {
		l.Metrics.SendErrors.Inc()
		glog.Warningf("send setpoint %d%%: %v", duty, err)
	} else {
		l.Metrics.FramesSent.Inc()
	}
	cc.After(l.Timing.RCSettle, fx.ControlFunc(func(cc fx.ControlContext) error {
		l.measure(cc, duty, true, l.finish)
		return nil
	}))
	return nil
}

func (l *Leader) finish(cc fx.ControlContext, m Measurement) {
	l.busy = false
	now := cc.Time()
	l.publish(localReport(m, now))
	r, ok := l.pollReport()
	if !ok {
		glog.Infof("%s | waiting for follower", m)
		return
	}
	l.lastReport = &r
	l.Metrics.PeerError.Set(r.Error)
	glog.Infof("%s | follower error=%+.1f%%", m, r.Error)
	l.publish(telemetry.LegacyReport(telemetry.DirectionReceived, r, now))
}

func (l *Leader) pollReport() (link.Report, bool) {
	for n := 0; n < maxPollsPerCycle; n++ {
		line, ok := l.Link.PollLine()
		if !ok {
			break
		}
		r, err := link.ParseReport(line)
		switch {
		case err == nil:
			l.Metrics.received(link.FaultNone)
			return r, true
		case err == link.ErrNoise:
			l.Metrics.received(link.FaultNoise)
		default:
			l.Metrics.received(link.FaultParse)
			l.parseFault(err)
		}
	}
	return link.Report{}, false
}

// LastReport returns the last report received from the follower.
func (l *Leader) LastReport() *link.Report {
	return l.lastReport
}

// Follower runs the legacy exchange from the measuring side. Each TH:
// setpoint is answered with an ME: report of the local measurement. The
// follower also drives its own schedule, measuring and logging each step.
// The real duty is always clamped.
type Follower struct {
	*Node

	busy       bool
	lastChange time.Time
	replies    int
}

// NewFollower creates the controller.
func NewFollower(n *Node) *Follower {
	return &Follower{Node: n}
}

// Control implements Controller.
func (f *Follower) Control(cc fx.ControlContext) error {
	if f.busy {
		return nil
	}
	if f.lastChange.IsZero() {
		f.lastChange = cc.Time()
	}
	if setpoint, ok := f.pollSetpoint(); ok {
		f.busy = true
		f.measure(cc, int(setpoint), true, func(cc fx.ControlContext, m Measurement) {
			f.reply(cc, setpoint, m)
			f.busy = false
			f.step(cc)
		})
		return nil
	}
	f.step(cc)
	return nil
}

func (f *Follower) reply(cc fx.ControlContext, setpoint float64, m Measurement) {
	r := link.Report{Theoretical: setpoint, Measured: m.RealDuty, Error: m.RealDuty - setpoint}
	if err := f.Link.Send(link.EncodeReport(r)); err != nil {
		f.Metrics.SendErrors.Inc()
		glog.Warningf("send report: %v", err)
		return
	}
	f.replies++
	f.Metrics.FramesSent.Inc()
	glog.Infof("setpoint=%5.1f%% measured=%5.1f%% error=%+.1f%% volts=%.2fV",
		r.Theoretical, r.Measured, r.Error, m.Voltage)
	rep := telemetry.LegacyReport(telemetry.DirectionSent, r, cc.Time())
	rep.Voltage = m.Voltage
	f.publish(rep)
}

// step advances the follower's own schedule once its period has elapsed.
func (f *Follower) step(cc fx.ControlContext) {
	now := cc.Time()
	if now.Sub(f.lastChange) <= f.Schedule.Period() {
		return
	}
	f.busy, f.lastChange = true, now
	duty := f.Schedule.Next()
	f.applyDuty(duty)
	f.measure(cc, duty, true, func(cc fx.ControlContext, m Measurement) {
		f.busy = false
		glog.Infof("EMIT %s", m)
		f.publish(localReport(m, cc.Time()))
	})
}

func (f *Follower) pollSetpoint() (float64, bool) {
	for n := 0; n < maxPollsPerCycle; n++ {
		line, ok := f.Link.PollLine()
		if !ok {
			break
		}
		duty, err := link.ParseSetpoint(line)
		switch {
		case err == nil:
			f.Metrics.received(link.FaultNone)
			return duty, true
		case err == link.ErrNoise:
			f.Metrics.received(link.FaultNoise)
		default:
			f.Metrics.received(link.FaultParse)
			f.parseFault(err)
		}
	}
	return 0, false
}

// Replies returns the number of reports sent.
func (f *Follower) Replies() int {
	return f.replies
}
