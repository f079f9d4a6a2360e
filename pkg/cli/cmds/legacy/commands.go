package legacy

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/pwmlink/pkg/cli/sh"
	"github.com/robotalks/pwmlink/pkg/link"
	"github.com/robotalks/pwmlink/pkg/telemetry"
)

// pollReport waits up to timeout for an ME: line, skipping other lines.
func pollReport(port link.LinePoller, timeout time.Duration) (link.Report, error) {
	deadline := time.Now().Add(timeout)
	for {
		if line, ok := port.PollLine(); ok {
			r, err := link.ParseReport(line)
			if err == link.ErrNoise {
				continue
			}
			return r, err
		}
		if time.Now().After(deadline) {
			return link.Report{}, fmt.Errorf("no report within %s", timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

var (
	// SetpointCmd announces a setpoint.
	SetpointCmd = ishell.Cmd{
		Name:    "legacy.setpoint",
		Aliases: []string{"th"},
		Help:    "DUTY",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DUTY required"))
				return
			}
			duty, err := strconv.ParseFloat(c.Args[0], 64)
			if err != nil {
				c.Err(fmt.Errorf("Invalid DUTY: %v", err))
				return
			}
			if err := sh.ShellFrom(c).Conn.Port.Send(link.EncodeSetpoint(duty)); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// ReportCmd waits for the follower's measurement report.
	ReportCmd = ishell.Cmd{
		Name:    "legacy.report",
		Aliases: []string{"me"},
		Help:    "[TIMEOUT]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			timeout := sh.DefaultRecvTimeout
			if len(c.Args) > 0 {
				d, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid TIMEOUT: %v", err))
					return
				}
				timeout = d
			}
			s := sh.ShellFrom(c)
			r, err := pollReport(s.Conn.Port, timeout)
			if err != nil {
				c.Err(err)
				return
			}
			s.PrintReport(c, telemetry.LegacyReport(telemetry.DirectionReceived, r, time.Now()))
		}),
	}
)

func init() {
	sh.AddCmds(
		&SetpointCmd,
		&ReportCmd,
	)
}
