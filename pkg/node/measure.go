package node

import "fmt"

// DefaultSupply is the PWM high level in volts.
const DefaultSupply = 3.3

// Measurement is the local result of one duty cycle.
type Measurement struct {
	Duty     int
	Voltage  float64
	RealDuty float64
}

// RealDuty derives the duty cycle in percent from the filtered voltage.
// With clamp the result is limited to [0,100].
func RealDuty(voltage, supply float64, clamp bool) float64 {
	if supply <= 0 {
		supply = DefaultSupply
	}
	d := voltage / supply * 100
	if clamp {
		if d < 0 {
			return 0
		}
		if d > 100 {
			return 100
		}
	}
	return d
}

// Measure builds a Measurement.
func Measure(duty int, voltage, supply float64, clamp bool) Measurement {
	return Measurement{Duty: duty, Voltage: voltage, RealDuty: RealDuty(voltage, supply, clamp)}
}

// Error is the measured minus the commanded duty.
func (m Measurement) Error() float64 {
	return m.RealDuty - float64(m.Duty)
}

// String implements fmt.Stringer.
func (m Measurement) String() string {
	return fmt.Sprintf("duty=%3d%% volts=%4.2fV real=%5.1f%%", m.Duty, m.Voltage, m.RealDuty)
}
