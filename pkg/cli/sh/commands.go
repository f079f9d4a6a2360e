package sh

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/pwmlink/pkg/link"
	"github.com/robotalks/pwmlink/pkg/link/stream"
	"github.com/robotalks/pwmlink/pkg/telemetry"
)

// DefaultRecvTimeout is the wait of recv without TIMEOUT.
const DefaultRecvTimeout = time.Second

// frameArgs are the measurement fields of a frame.
type frameArgs struct {
	Duty     int
	Voltage  float64
	RealDuty float64
}

func parseFrameArgs(args []string) (a frameArgs, err error) {
	if len(args) < 3 {
		return a, fmt.Errorf("DUTY VOLTS REAL required")
	}
	if a.Duty, err = strconv.Atoi(args[0]); err != nil {
		return a, fmt.Errorf("Invalid DUTY: %v", err)
	}
	if a.Voltage, err = strconv.ParseFloat(args[1], 64); err != nil {
		return a, fmt.Errorf("Invalid VOLTS: %v", err)
	}
	if a.RealDuty, err = strconv.ParseFloat(args[2], 64); err != nil {
		return a, fmt.Errorf("Invalid REAL: %v", err)
	}
	return a, nil
}

func parseSeq(s string) (link.Seq, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("Invalid SEQ: %v", err)
	}
	if v < 0 || v >= link.SeqModulus {
		return 0, fmt.Errorf("Invalid SEQ: %d out of range", v)
	}
	return link.Seq(v), nil
}

// describeResult formats a receive result for the console.
func describeResult(r link.ReceiveResult) string {
	switch r.Fault {
	case link.FaultNone:
		return "accepted " + r.Frame.String()
	case link.FaultParse:
		return fmt.Sprintf("parse error: %v", r.Err)
	case link.FaultNoLine:
		return "no line"
	default:
		return fmt.Sprintf("%s %q", r.Fault, strings.TrimRight(string(r.Line), "\r\n"))
	}
}

func printResult(c *ishell.Context, r link.ReceiveResult) {
	s := ShellFrom(c)
	if r.Accepted() {
		s.PrintReport(c, telemetry.FrameReport(telemetry.DirectionReceived, r.Frame, time.Now()))
		return
	}
	if s.OutputJSON {
		out, err := json.Marshal(map[string]interface{}{
			"fault": r.Fault.String(),
			"line":  string(r.Line),
		})
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(describeResult(r))
}

var (
	// EncodeCmd prints the frame line of the given fields.
	EncodeCmd = ishell.Cmd{
		Name:    "encode",
		Aliases: []string{"enc"},
		Help:    "SEQ DUTY VOLTS REAL",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("SEQ required"))
				return
			}
			seq, err := parseSeq(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			a, err := parseFrameArgs(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(string(link.Encode(seq, a.Duty, a.Voltage, a.RealDuty)))
		},
	}

	// DecodeCmd decodes a line without touching the gate.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"dec"},
		Help:    "LINE",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("LINE required"))
				return
			}
			line := []byte(strings.Join(c.Args, " "))
			f, err := link.Decode(line)
			switch {
			case err == link.ErrNoise:
				printResult(c, link.ReceiveResult{Fault: link.FaultNoise, Line: line})
			case err != nil:
				printResult(c, link.ReceiveResult{Fault: link.FaultParse, Err: err, Line: line})
			default:
				printResult(c, link.ReceiveResult{Frame: f, Line: line})
			}
		},
	}

	// GateCmd feeds sequences to the receive gate.
	GateCmd = ishell.Cmd{
		Name: "gate",
		Help: "SEQ...",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) == 0 {
				c.Printf("%s last=%d threshold=%d\n",
					s.Sequencer.Gate.State(), s.Sequencer.Gate.LastAccepted(), s.Sequencer.Gate.WrapThreshold)
				return
			}
			for _, arg := range c.Args {
				seq, err := parseSeq(arg)
				if err != nil {
					c.Err(err)
					return
				}
				if s.Sequencer.Gate.Accept(seq) {
					c.Printf("%03d accepted\n", seq)
				} else {
					c.Printf("%03d stale\n", seq)
				}
			}
		},
	}

	// ResetCmd resets the gate, optionally with a new wrap threshold.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "[WRAP-THRESHOLD]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil || val < 0 {
					c.Err(fmt.Errorf("Invalid WRAP-THRESHOLD: %q", c.Args[0]))
					return
				}
				s.Sequencer.Gate.WrapThreshold = val
			}
			s.Sequencer.Gate.Reset()
			c.Println("OK")
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := stream.SerialPorts()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens a link.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("URL required"))
				return
			}
			if err := ShellFrom(c).Open(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the current link.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// SendCmd sends a frame stamped with the next sequence.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "DUTY VOLTS REAL",
		Func: MustBeOpen(func(c *ishell.Context) {
			a, err := parseFrameArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			f, err := s.Sequencer.Send(s.Conn.Port, a.Duty, a.Voltage, a.RealDuty)
			if err != nil {
				c.Err(err)
				return
			}
			s.PrintReport(c, telemetry.FrameReport(telemetry.DirectionSent, f, time.Now()))
		}),
	}

	// RecvCmd waits for a line and runs it through the gate.
	RecvCmd = ishell.Cmd{
		Name: "recv",
		Help: "[TIMEOUT]",
		Func: MustBeOpen(func(c *ishell.Context) {
			timeout := DefaultRecvTimeout
			if len(c.Args) > 0 {
				d, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid TIMEOUT: %v", err))
					return
				}
				timeout = d
			}
			r, _ := ShellFrom(c).Receive(timeout)
			printResult(c, r)
		}),
	}
)
