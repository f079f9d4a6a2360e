// Package stream opens the byte streams a link.Port runs on.
package stream

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
)

// Open opens a stream by URL. Supported schemes:
//
//	serial:///dev/ttyAMA0?baud=115200   UART (a bare path means the same)
//	tcp://host:port                     raw TCP, e.g. a ser2net bridge
//	ws://host/path, wss://host/path     websocket bridge
//	pipe://name                         in-process loopback, see Pipe
func Open(rawURL string) (io.ReadWriteCloser, error) {
	if strings.HasPrefix(rawURL, "/") {
		rawURL = "serial://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid stream URL: %w", err)
	}
	switch u.Scheme {
	case "serial":
		conf, err := SerialConfigFromURL(u)
		if err != nil {
			return nil, err
		}
		return OpenSerial(conf)
	case "tcp":
		return net.Dial("tcp", u.Host)
	case "ws", "wss":
		return DialWebsocket(u)
	case "pipe":
		return OpenPipe(u.Host + u.Path), nil
	default:
		return nil, fmt.Errorf("unknown stream URL scheme: %q", u.Scheme)
	}
}
