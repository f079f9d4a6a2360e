package node

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	fx "github.com/robotalks/pwmlink/pkg/framework"
	"github.com/robotalks/pwmlink/pkg/hw/adc"
	"github.com/robotalks/pwmlink/pkg/hw/pwm"
	"github.com/robotalks/pwmlink/pkg/hw/sim"
	"github.com/robotalks/pwmlink/pkg/link"
	"github.com/robotalks/pwmlink/pkg/link/stream"
	"github.com/robotalks/pwmlink/pkg/telemetry"
	"github.com/robotalks/pwmlink/pkg/telemetry/mqtt"
)

// Hardware backends.
const (
	HardwarePi  = "pi"
	HardwareSim = "sim"
)

// Config defines the configurations of a node.
type Config struct {
	NodeID string
	Mode   string
	// LinkURL is the stream to the peer, see stream.Open.
	LinkURL  string
	Hardware string

	I2CBus     string
	ADCAddress uint
	ADCChannel int
	PWMPin     int
	PWMFreq    int
	SimTau     time.Duration
	SimNoise   float64

	// Zero timings select the mode defaults.
	Interval  time.Duration
	RCSettle  time.Duration
	ADCSettle time.Duration
	Summary   time.Duration

	Schedule      string
	ReceiveFirst  bool
	Clamp         bool
	Supply        float64
	WrapThreshold int

	// TelemetryURL is the MQTT broker, e.g. mqtt://localhost:1883/pwmlink/.
	TelemetryURL    string
	TelemetryFormat string
	MetricsAddr     string

	// ConfigFile is a TOML file loaded under the explicitly set flags.
	ConfigFile string
}

var defaultConfig = Config{
	Mode:            string(ModeSequenced),
	LinkURL:         "serial:///dev/ttyAMA0?baud=115200",
	Hardware:        HardwarePi,
	ADCAddress:      uint(adc.DefaultAddress),
	ADCChannel:      adc.DefaultChannel,
	PWMPin:          pwm.DefaultPin,
	PWMFreq:         pwm.DefaultFrequency,
	SimTau:          sim.DefaultTimeConst,
	SimNoise:        0.005,
	Supply:          DefaultSupply,
	WrapThreshold:   link.DefaultWrapThreshold,
	TelemetryFormat: string(telemetry.EncodingProto),
}

func init() {
	envs := []struct {
		name string
		dst  *string
	}{
		{"PWMLINK_NODE_ID", &defaultConfig.NodeID},
		{"PWMLINK_MODE", &defaultConfig.Mode},
		{"PWMLINK_LINK", &defaultConfig.LinkURL},
		{"PWMLINK_HW", &defaultConfig.Hardware},
		{"PWMLINK_I2C_BUS", &defaultConfig.I2CBus},
		{"PWMLINK_SCHEDULE", &defaultConfig.Schedule},
		{"PWMLINK_TELEMETRY", &defaultConfig.TelemetryURL},
		{"PWMLINK_TELEMETRY_FORMAT", &defaultConfig.TelemetryFormat},
		{"PWMLINK_METRICS_ADDR", &defaultConfig.MetricsAddr},
		{"PWMLINK_CONFIG", &defaultConfig.ConfigFile},
	}
	for _, env := range envs {
		if val := os.Getenv(env.name); val != "" {
			*env.dst = val
		}
	}
	if val, err := strconv.ParseBool(os.Getenv("PWMLINK_CLAMP")); err == nil {
		defaultConfig.Clamp = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.StringVar(&c.NodeID, "node-id", c.NodeID, "Node ID, defaults to one derived from the machine ID.")
	flag.StringVar(&c.Mode, "mode", c.Mode, "Exchange mode: sequenced, leader or follower.")
	flag.StringVar(&c.LinkURL, "link", c.LinkURL, "Peer stream URL: serial://, tcp://, ws:// or pipe://.")
	flag.StringVar(&c.Hardware, "hw", c.Hardware, "Hardware backend: pi or sim.")
	flag.StringVar(&c.I2CBus, "i2c-bus", c.I2CBus, "I2C bus name of the ADC, empty for the first bus.")
	flag.UintVar(&c.ADCAddress, "adc-addr", c.ADCAddress, "I2C address of the ADS1015.")
	flag.IntVar(&c.ADCChannel, "adc-channel", c.ADCChannel, "ADC input channel.")
	flag.IntVar(&c.PWMPin, "pwm-pin", c.PWMPin, "BCM pin of the hardware PWM output.")
	flag.IntVar(&c.PWMFreq, "pwm-freq", c.PWMFreq, "PWM frequency in Hz.")
	flag.DurationVar(&c.SimTau, "sim-tau", c.SimTau, "RC time constant of the simulated board.")
	flag.Float64Var(&c.SimNoise, "sim-noise", c.SimNoise, "Voltage noise of the simulated board.")
	flag.DurationVar(&c.Interval, "interval", c.Interval, "Loop interval, 0 for the mode default.")
	flag.DurationVar(&c.RCSettle, "rc-settle", c.RCSettle, "Wait after changing the duty, 0 for the mode default.")
	flag.DurationVar(&c.ADCSettle, "adc-settle", c.ADCSettle, "ADC conversion settle time, 0 for the mode default.")
	flag.DurationVar(&c.Summary, "summary", c.Summary, "Period of the sent summary log, 0 for the default.")
	flag.StringVar(&c.Schedule, "schedule", c.Schedule, "Duty schedule, e.g. triangle:0:1, list:3s:0,50,100 or fixed:50.")
	flag.BoolVar(&c.ReceiveFirst, "receive-first", c.ReceiveFirst, "Poll the peer at the start of each cycle.")
	flag.BoolVar(&c.Clamp, "clamp", c.Clamp, "Clamp the real duty to [0,100] in sequenced mode.")
	flag.Float64Var(&c.Supply, "supply", c.Supply, "PWM high level in volts.")
	flag.IntVar(&c.WrapThreshold, "wrap-threshold", c.WrapThreshold, "Backward sequence jump taken as a wrap, 0 to disable.")
	flag.StringVar(&c.TelemetryURL, "telemetry", c.TelemetryURL, "MQTT broker URL to publish reports to.")
	flag.StringVar(&c.TelemetryFormat, "telemetry-format", c.TelemetryFormat, "Report encoding: proto or json.")
	flag.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Address to serve Prometheus metrics on.")
	flag.StringVar(&c.ConfigFile, "config", c.ConfigFile, "TOML config file.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load merges ConfigFile, if set, under the flags set on the command line.
func (c *Config) Load() error {
	if c.ConfigFile == "" {
		return nil
	}
	changed := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { changed[f.Name] = true })
	fc, err := LoadFileConfig(c.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return ApplyFileConfig(c, fc, changed)
}

// MustLoad loads the config file and fails on error.
func (c *Config) MustLoad() *Config {
	if err := c.Load(); err != nil {
		log.Fatalln(err)
	}
	return c
}

// DefaultNodeID derives a stable ID from the machine ID, falling back to
// the host name.
func DefaultNodeID() string {
	if id, err := machineid.ProtectedID("pwmlink"); err == nil {
		return id[:12]
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "pwmlink"
}

// OpenHardware opens the configured peripherals.
func (c *Config) OpenHardware(mode Mode) (Hardware, error) {
	adcSettle := c.ADCSettle
	if adcSettle <= 0 {
		adcSettle = DefaultADCSettle(mode)
	}
	switch c.Hardware {
	case HardwareSim:
		b := sim.NewBoard()
		b.Supply, b.TimeConst, b.Noise, b.Settle = c.Supply, c.SimTau, c.SimNoise, adcSettle
		return Hardware{ADC: b, PWM: b}, nil
	case HardwarePi:
		conv, bus, err := adc.OpenI2C(adc.I2CConfig{Bus: c.I2CBus, Address: uint16(c.ADCAddress)})
		if err != nil {
			return Hardware{}, err
		}
		conv.Channel, conv.Settle = c.ADCChannel, adcSettle
		out, err := pwm.OpenRPIO(pwm.RPIOConfig{Pin: c.PWMPin, Frequency: c.PWMFreq})
		if err != nil {
			bus.Close()
			return Hardware{}, err
		}
		return Hardware{ADC: conv, PWM: out, Closers: []io.Closer{out, bus}}, nil
	default:
		return Hardware{}, fmt.Errorf("unknown hardware %q", c.Hardware)
	}
}

// NewNode opens the link, the hardware and the telemetry and creates the
// Node with its runnables.
func (c *Config) NewNode() (*Node, error) {
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	enc, err := telemetry.ParseEncoding(c.TelemetryFormat)
	if err != nil {
		return nil, err
	}
	var sched Schedule
	if c.Schedule != "" {
		if sched, err = ParseSchedule(c.Schedule); err != nil {
			return nil, err
		}
	}
	hw, err := c.OpenHardware(mode)
	if err != nil {
		return nil, err
	}
	rw, err := stream.Open(c.LinkURL)
	if err != nil {
		hw.Close()
		return nil, err
	}
	port := link.NewPort(rw)
	hw.Closers = append(hw.Closers, port)

	id := c.NodeID
	if id == "" {
		id = DefaultNodeID()
	}
	n := New(id, mode, port, hw)
	c.apply(n)
	if sched != nil {
		n.Schedule = sched
	}
	n.Runnables = append(n.Runnables, fx.NamedRun("port", port))

	if c.MetricsAddr != "" {
		reg := NewRegistry()
		n.Metrics = NewMetrics(reg)
		n.Runnables = append(n.Runnables, &MetricsServer{Addr: c.MetricsAddr, Gatherer: reg})
	}
	if c.TelemetryURL != "" {
		pub, err := mqtt.NewPublisher(c.TelemetryURL, id, enc)
		if err != nil {
			n.Close()
			return nil, err
		}
		n.Sink = pub
		n.Runnables = append(n.Runnables, fx.NamedRun("telemetry", pub))
	}
	glog.Infof("node %s mode=%s link=%s hw=%s schedule=%s", n.ID, n.Mode, c.LinkURL, c.Hardware, n.Schedule)
	return n, nil
}

// MustNewNode creates the Node and fails on error.
func (c *Config) MustNewNode() *Node {
	n, err := c.NewNode()
	if err != nil {
		log.Fatalln(err)
	}
	return n
}

// apply copies the mode independent settings onto n.
func (c *Config) apply(n *Node) {
	if c.Interval > 0 {
		n.Timing.Interval = c.Interval
	}
	if c.RCSettle > 0 {
		n.Timing.RCSettle = c.RCSettle
	}
	if c.Summary > 0 {
		n.Timing.Summary = c.Summary
	}
	if c.Supply > 0 {
		n.Supply = c.Supply
	}
	n.Clamp = c.Clamp
	n.ReceiveFirst = c.ReceiveFirst
	if n.ReceiveFirst && n.Mode == ModeSequenced {
		// the receive-first board sweeps down from the middle.
		n.Schedule = &Triangle{Value: 50, Dir: -1}
	}
	n.Sequencer.Gate.WrapThreshold = c.WrapThreshold
}
