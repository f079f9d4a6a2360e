package pwm

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPIO defaults.
const (
	DefaultPin       = 18
	DefaultFrequency = 1000
	DefaultCycle     = 100
)

// RPIOConfig selects the hardware PWM pin.
type RPIOConfig struct {
	// Pin is the BCM pin number, one with a PWM alternate function.
	Pin int
	// Frequency is the PWM frequency in Hz.
	Frequency int
	// Cycle is the number of clock ticks per period.
	Cycle uint32
}

// RPIO drives a Raspberry Pi hardware PWM channel. It needs access to
// /dev/mem, which usually means root.
type RPIO struct {
	pin   rpio.Pin
	cycle uint32
}

// OpenRPIO maps the GPIO memory and configures the pin for PWM.
func OpenRPIO(conf RPIOConfig) (*RPIO, error) {
	if conf.Pin == 0 {
		conf.Pin = DefaultPin
	}
	if conf.Frequency <= 0 {
		conf.Frequency = DefaultFrequency
	}
	if conf.Cycle == 0 {
		conf.Cycle = DefaultCycle
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio open: %w", err)
	}
	pin := rpio.Pin(conf.Pin)
	pin.Mode(rpio.Pwm)
	pin.Freq(conf.Frequency * int(conf.Cycle))
	o := &RPIO{pin: pin, cycle: conf.Cycle}
	return o, o.SetDuty(0)
}

// SetDuty implements Output.
func (o *RPIO) SetDuty(percent int) error {
	o.pin.DutyCycle(uint32(Clamp(percent))*o.cycle/100, o.cycle)
	return nil
}

// Close drives the output low and releases the GPIO memory.
func (o *RPIO) Close() error {
	o.pin.DutyCycle(0, o.cycle)
	return rpio.Close()
}
