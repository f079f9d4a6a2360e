// Package adc reads the RC-filtered PWM voltage.
package adc

import "time"

// Converter is a two-phase analog input: Start triggers a conversion,
// Read returns the result in volts once SettleTime has elapsed.
type Converter interface {
	Start() error
	Read() (float64, error)
	SettleTime() time.Duration
}

// Sample runs a conversion synchronously, sleeping through the settle time.
// Loops should use Start and Read around a timer instead.
func Sample(c Converter) (float64, error) {
	if err := c.Start(); err != nil {
		return 0, err
	}
	time.Sleep(c.SettleTime())
	return c.Read()
}
