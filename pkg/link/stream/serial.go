package stream

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.bug.st/serial"
)

// DefaultBaudRate is the UART speed both boards are wired for.
const DefaultBaudRate = 115200

// SerialConfig provides the options to open a UART.
type SerialConfig struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits serial.StopBits
}

// SerialConfigFromURL parses serial:///dev/ttyX?baud=&databits=&parity=&stopbits=.
func SerialConfigFromURL(u *url.URL) (conf SerialConfig, err error) {
	conf = SerialConfig{
		Device:   u.Host + u.Path,
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if conf.Device == "" {
		return conf, fmt.Errorf("serial device required")
	}
	q := u.Query()
	if val := q.Get("baud"); val != "" {
		if conf.BaudRate, err = strconv.Atoi(val); err != nil {
			return conf, fmt.Errorf("invalid baud: %w", err)
		}
	}
	if val := q.Get("databits"); val != "" {
		if conf.DataBits, err = strconv.Atoi(val); err != nil {
			return conf, fmt.Errorf("invalid databits: %w", err)
		}
	}
	switch strings.ToLower(q.Get("parity")) {
	case "", "none", "n":
	case "even", "e":
		conf.Parity = serial.EvenParity
	case "odd", "o":
		conf.Parity = serial.OddParity
	default:
		return conf, fmt.Errorf("invalid parity: %q", q.Get("parity"))
	}
	switch q.Get("stopbits") {
	case "", "1":
	case "1.5":
		conf.StopBits = serial.OnePointFiveStopBits
	case "2":
		conf.StopBits = serial.TwoStopBits
	default:
		return conf, fmt.Errorf("invalid stopbits: %q", q.Get("stopbits"))
	}
	return conf, nil
}

// OpenSerial opens the UART. Reads block until data arrives or the port
// is closed.
func OpenSerial(conf SerialConfig) (serial.Port, error) {
	port, err := serial.Open(conf.Device, &serial.Mode{
		BaudRate: conf.BaudRate,
		DataBits: conf.DataBits,
		Parity:   conf.Parity,
		StopBits: conf.StopBits,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Device, err)
	}
	return port, nil
}

// SerialPorts lists the serial ports available on the host.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
