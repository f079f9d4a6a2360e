package adc

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2CConfig locates the converter on the host.
type I2CConfig struct {
	// Bus is the periph bus name, empty for the first one.
	Bus     string
	Address uint16
}

// OpenI2C opens the host I2C bus and attaches an ADS1015 to it.
// The returned closer releases the bus.
func OpenI2C(conf I2CConfig) (*ADS1015, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph init: %w", err)
	}
	bus, err := i2creg.Open(conf.Bus)
	if err != nil {
		return nil, nil, fmt.Errorf("open i2c %q: %w", conf.Bus, err)
	}
	addr := conf.Address
	if addr == 0 {
		addr = DefaultAddress
	}
	return NewADS1015(&i2c.Dev{Bus: bus, Addr: addr}), bus, nil
}
