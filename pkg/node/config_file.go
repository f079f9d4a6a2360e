package node

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config in TOML, with durations as strings.
type FileConfig struct {
	NodeID   string `toml:"node_id"`
	Mode     string `toml:"mode"`
	Link     string `toml:"link"`
	Hardware string `toml:"hw"`

	I2CBus     string  `toml:"i2c_bus"`
	ADCAddress uint    `toml:"adc_addr"`
	ADCChannel *int    `toml:"adc_channel"`
	PWMPin     int     `toml:"pwm_pin"`
	PWMFreq    int     `toml:"pwm_freq"`
	SimTau     string  `toml:"sim_tau"`
	SimNoise   float64 `toml:"sim_noise"`

	Interval  string `toml:"interval"`
	RCSettle  string `toml:"rc_settle"`
	ADCSettle string `toml:"adc_settle"`
	Summary   string `toml:"summary"`

	Schedule      string  `toml:"schedule"`
	ReceiveFirst  *bool   `toml:"receive_first"`
	Clamp         *bool   `toml:"clamp"`
	Supply        float64 `toml:"supply"`
	WrapThreshold *int    `toml:"wrap_threshold"`

	Telemetry       string `toml:"telemetry"`
	TelemetryFormat string `toml:"telemetry_format"`
	MetricsAddr     string `toml:"metrics_addr"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (fc FileConfig, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	err = toml.Unmarshal(b, &fc)
	return fc, err
}

// ApplyFileConfig applies the file values to c, except those whose flag
// is in changed.
func ApplyFileConfig(c *Config, fc FileConfig, changed map[string]bool) error {
	s := &configSetter{changed: changed}
	s.setString("node-id", fc.NodeID, &c.NodeID)
	s.setString("mode", fc.Mode, &c.Mode)
	s.setString("link", fc.Link, &c.LinkURL)
	s.setString("hw", fc.Hardware, &c.Hardware)
	s.setString("i2c-bus", fc.I2CBus, &c.I2CBus)
	s.setString("schedule", fc.Schedule, &c.Schedule)
	s.setString("telemetry", fc.Telemetry, &c.TelemetryURL)
	s.setString("telemetry-format", fc.TelemetryFormat, &c.TelemetryFormat)
	s.setString("metrics-addr", fc.MetricsAddr, &c.MetricsAddr)

	if fc.ADCAddress > 0 && !changed["adc-addr"] {
		c.ADCAddress = fc.ADCAddress
	}
	s.setIntPtr("adc-channel", fc.ADCChannel, &c.ADCChannel)
	s.setIntPtr("wrap-threshold", fc.WrapThreshold, &c.WrapThreshold)
	s.setInt("pwm-pin", fc.PWMPin, &c.PWMPin)
	s.setInt("pwm-freq", fc.PWMFreq, &c.PWMFreq)
	s.setFloat("sim-noise", fc.SimNoise, &c.SimNoise)
	s.setFloat("supply", fc.Supply, &c.Supply)
	s.setBool("receive-first", fc.ReceiveFirst, &c.ReceiveFirst)
	s.setBool("clamp", fc.Clamp, &c.Clamp)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"sim-tau", fc.SimTau, &c.SimTau},
		{"interval", fc.Interval, &c.Interval},
		{"rc-settle", fc.RCSettle, &c.RCSettle},
		{"adc-settle", fc.ADCSettle, &c.ADCSettle},
		{"summary", fc.Summary, &c.Summary},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}
	return nil
}

type configSetter struct {
	changed map[string]bool
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr is for values where zero is meaningful.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
