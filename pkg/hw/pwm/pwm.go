// Package pwm drives the duty-cycle output.
package pwm

// Output sets the PWM duty cycle in percent.
type Output interface {
	SetDuty(percent int) error
}

// Clamp limits a duty to [0,100].
func Clamp(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
