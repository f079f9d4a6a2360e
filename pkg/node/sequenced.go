package node

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/pwmlink/pkg/framework"
	"github.com/robotalks/pwmlink/pkg/link"
	"github.com/robotalks/pwmlink/pkg/telemetry"
)

// Sequenced runs the symmetric S-frame exchange. Each cycle drives the
// scheduled duty, waits for the RC filter, converts, sends the measurement
// and polls for the peer's frame. With ReceiveFirst the poll opens the
// cycle instead.
type Sequenced struct {
	*Node

	busy        bool
	lastChange  time.Time
	lastSummary time.Time
	duty        int
	sent        *link.Frame
}

// NewSequenced creates the controller.
func NewSequenced(n *Node) *Sequenced {
	return &Sequenced{Node: n}
}

// Control implements Controller.
func (s *Sequenced) Control(cc fx.ControlContext) error {
	if s.busy {
		return nil
	}
	now := cc.Time()
	s.busy = true
	if s.ReceiveFirst {
		s.receive(now)
	}
	if period := s.Schedule.Period(); s.lastChange.IsZero() || period == 0 || now.Sub(s.lastChange) >= period {
		s.duty = s.Schedule.Next()
		s.lastChange = now
	}
	s.applyDuty(s.duty)
	cc.After(s.Timing.RCSettle, fx.ControlFunc(func(cc fx.ControlContext) error {
		s.measure(cc, s.duty, s.Clamp, s.finish)
		return nil
	}))
	return nil
}

func (s *Sequenced) finish(cc fx.ControlContext, m Measurement) {
	defer func() { s.busy = false }()
	now := cc.Time()
	f, err := s.Sequencer.Send(s.Link, m.Duty, m.Voltage, m.RealDuty)
	if err != nil {
		s.Metrics.SendErrors.Inc()
		glog.Warningf("send seq=%03d: %v", f.Seq, err)
	} else {
		s.Metrics.FramesSent.Inc()
		s.sent = f
		glog.V(1).Infof("SENT %s", f)
		s.publish(telemetry.FrameReport(telemetry.DirectionSent, f, now))
	}
	if s.Timing.Summary > 0 && now.Sub(s.lastSummary) > s.Timing.Summary {
		s.lastSummary = now
		glog.Infof("SENT %s", m)
	}
	if !s.ReceiveFirst {
		s.receive(now)
	}
}

// receive drains buffered lines until a frame is accepted or none is left.
func (s *Sequenced) receive(now time.Time) *link.Frame {
	for n := 0; n < maxPollsPerCycle; n++ {
		r := s.Sequencer.Receive(s.Link)
		if r.Fault == link.FaultNoLine {
			return nil
		}
		s.Metrics.received(r.Fault)
		switch r.Fault {
		case link.FaultNone:
			s.Metrics.LastAccepted.Set(float64(r.Frame.Seq))
			s.Metrics.PeerError.Set(r.Frame.Discrepancy())
			glog.Infof("RECV %s", r.Frame)
			s.publish(telemetry.FrameReport(telemetry.DirectionReceived, r.Frame, now))
			return r.Frame
		case link.FaultParse:
			s.parseFault(r.Err)
		case link.FaultStale:
			glog.V(2).Infof("stale frame %q, last accepted %03d", r.Line, s.Sequencer.Gate.LastAccepted())
		case link.FaultNoise:
			glog.V(2).Infof("noise %q", r.Line)
		}
	}
	return nil
}

// LastSent returns the last frame sent successfully.
func (s *Sequenced) LastSent() *link.Frame {
	return s.sent
}
