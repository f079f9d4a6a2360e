// Package sh provides an interactive console to encode, decode and
// exchange frames on a link.
package sh

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/pwmlink/pkg/framework"
	"github.com/robotalks/pwmlink/pkg/link"
	"github.com/robotalks/pwmlink/pkg/link/stream"
	"github.com/robotalks/pwmlink/pkg/telemetry"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	LinkURL     string

	Shell     *ishell.Shell
	Sequencer *link.Sequencer
	Conn      *PortLoop
}

// PortLoop is a running loop reading an open link.
type PortLoop struct {
	Ctx    context.Context
	Cancel func()
	URL    string
	Port   *link.Port
	Loop   *fx.Loop
}

const (
	shellKey     = "$shell"
	closedPrompt = "[closed] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	linkURL    string

	// commands
	commands = []*ishell.Cmd{
		&EncodeCmd,
		&DecodeCmd,
		&GateCmd,
		&ResetCmd,
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&SendCmd,
		&RecvCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&linkURL, "link", linkURL, "Stream URL to open on start.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		LinkURL:     linkURL,

		Shell:     ishell.New(),
		Sequencer: link.NewSequencer(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open link.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("link not open"))
			return
		}
		fn(c)
	}
}

// Open opens the stream at rawURL and starts reading it.
func (s *Shell) Open(rawURL string) error {
	rw, err := stream.Open(rawURL)
	if err != nil {
		return err
	}
	conn := &PortLoop{URL: rawURL, Port: link.NewPort(rw)}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	conn.Loop = fx.NewLoop().AddRunnable(fx.NamedRun("port", conn.Port))
	s.Close()
	s.Conn = conn
	go conn.Loop.Run(conn.Ctx)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", rawURL))
	return nil
}

// Close closes the current link.
func (s *Shell) Close() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn = nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

// PrintReport prints a frame or measurement as text or JSON.
func (s *Shell) PrintReport(c *ishell.Context, r *telemetry.Report) {
	if s.OutputJSON {
		out, err := telemetry.EncodingJSON.Marshal(r)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(r.Summary())
}

// Receive waits up to timeout for a line and runs it through the gate.
// It returns false if nothing arrived.
func (s *Shell) Receive(timeout time.Duration) (link.ReceiveResult, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if line, ok := s.Conn.Port.PollLine(); ok {
			return s.Sequencer.Accept(line), true
		}
		if time.Now().After(deadline) {
			return link.ReceiveResult{Fault: link.FaultNoLine}, false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.LinkURL != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.LinkURL)
		}
		if err := s.Open(s.LinkURL); err != nil {
			log.Fatalf("open %q failed: %v", s.LinkURL, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New().Run(flag.Args()...)
}
