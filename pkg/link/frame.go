package link

import (
	"fmt"
	"io"
)

// Frame markers.
const (
	MarkerStart   byte = 'S'
	MarkerDuty    byte = 'D'
	MarkerVoltage byte = 'V'
	MarkerReal    byte = 'R'
	MarkerEnd     byte = 'E'
)

const frameFormat = "S%03dD%03dV%.2fR%.1fE\n"

// Frame contains the fields of one measurement frame.
type Frame struct {
	Seq      Seq
	Duty     int
	Voltage  float64
	RealDuty float64
}

// Encode formats a frame line terminated by a newline.
// Values are formatted as given, including an out-of-range duty.
func Encode(seq Seq, duty int, voltage, realDuty float64) []byte {
	return []byte(fmt.Sprintf(frameFormat, seq, duty, voltage, realDuty))
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	return Encode(f.Seq, f.Duty, f.Voltage, f.RealDuty)
}

// WriteTo implements io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, frameFormat, f.Seq, f.Duty, f.Voltage, f.RealDuty)
	return int64(n), err
}

// Discrepancy is the measured minus the commanded duty, in percent.
func (f *Frame) Discrepancy() float64 {
	return f.RealDuty - float64(f.Duty)
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("seq=%03d duty=%3d%% real=%5.1f%% volts=%4.2fV error=%+.1f%%",
		f.Seq, f.Duty, f.RealDuty, f.Voltage, f.Discrepancy())
}
