package adc

import (
	"fmt"
	"time"
)

// ADS1015 defaults.
const (
	DefaultAddress    uint16 = 0x48
	DefaultChannel           = 2
	DefaultSettleTime        = 20 * time.Millisecond
)

// ADS1015 registers.
const (
	RegConversion byte = 0x00
	RegConfig     byte = 0x01
)

// Gain selects the programmable full-scale range.
type Gain int

// Full-scale ranges.
const (
	FS6V144 Gain = iota
	FS4V096
	FS2V048
	FS1V024
	FS0V512
	FS0V256
)

var fullScales = [...]float64{6.144, 4.096, 2.048, 1.024, 0.512, 0.256}

// FullScale returns the range in volts.
func (g Gain) FullScale() float64 {
	if g < 0 || int(g) >= len(fullScales) {
		return 0
	}
	return fullScales[g]
}

// Config word bits.
const (
	cfgStart        uint16 = 1 << 15
	cfgMuxSingle    uint16 = 0x4 << 12
	cfgRate1600     uint16 = 0x4 << 5
	cfgCompDisabled uint16 = 0x3
)

// ConfigWord builds the continuous-mode config for a single-ended channel
// at 1600 SPS with the comparator disabled. AIN2 at FS4V096 gives 0xE283.
func ConfigWord(channel int, gain Gain) (uint16, error) {
	if channel < 0 || channel > 3 {
		return 0, ErrInvalidChannel
	}
	if gain.FullScale() == 0 {
		return 0, fmt.Errorf("invalid gain %d", gain)
	}
	return cfgStart | cfgMuxSingle | uint16(channel)<<12 |
		uint16(gain)<<9 | cfgRate1600 | cfgCompDisabled, nil
}

// RawToVolts converts the conversion register to volts. The 12-bit
// result is left aligned and two's complement.
func RawToVolts(reg uint16, gain Gain) float64 {
	raw := int(reg >> 4)
	if raw > 2047 {
		raw -= 4096
	}
	return float64(raw) * gain.FullScale() / 2048
}

// Bus is the I2C transaction the driver needs. *i2c.Dev implements it.
type Bus interface {
	Tx(w, r []byte) error
}

// ADS1015 drives a TI ADS1015. Start rewrites the config register, which
// restarts conversion on the selected channel.
type ADS1015 struct {
	Bus     Bus
	Channel int
	Gain    Gain
	Settle  time.Duration

	started bool
}

// NewADS1015 creates the driver for AIN2 at ±4.096V.
func NewADS1015(bus Bus) *ADS1015 {
	return &ADS1015{
		Bus:     bus,
		Channel: DefaultChannel,
		Gain:    FS4V096,
		Settle:  DefaultSettleTime,
	}
}

// Start implements Converter.
func (a *ADS1015) Start() error {
	a.started = false
	word, err := ConfigWord(a.Channel, a.Gain)
	if err != nil {
		return err
	}
	if err := a.Bus.Tx([]byte{RegConfig, byte(word >> 8), byte(word)}, nil); err != nil {
		return fmt.Errorf("ads1015 config: %w", err)
	}
	a.started = true
	return nil
}

// Read implements Converter.
func (a *ADS1015) Read() (float64, error) {
	if !a.started {
		return 0, ErrNotStarted
	}
	a.started = false
	var buf [2]byte
	if err := a.Bus.Tx([]byte{RegConversion}, buf[:]); err != nil {
		return 0, fmt.Errorf("ads1015 read: %w", err)
	}
	return RawToVolts(uint16(buf[0])<<8|uint16(buf[1]), a.Gain), nil
}

// SettleTime implements Converter.
func (a *ADS1015) SettleTime() time.Duration {
	return a.Settle
}
