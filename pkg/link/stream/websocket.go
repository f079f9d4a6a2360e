package stream

import (
	"net/url"

	"golang.org/x/net/websocket"
)

// DialWebsocket connects to a websocket bridge forwarding a UART.
// The connection is used as a plain byte stream; message boundaries
// carry no meaning.
func DialWebsocket(u *url.URL) (*websocket.Conn, error) {
	origin := "http://localhost/"
	if val := u.Query().Get("origin"); val != "" {
		origin = val
	}
	conf, err := websocket.NewConfig(u.String(), origin)
	if err != nil {
		return nil, err
	}
	conn, err := websocket.DialConfig(conf)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

// Handler bridges websocket clients to a stream accepted by fn, e.g.
// to expose a local UART. fn owns the connection until it returns.
func Handler(fn func(*websocket.Conn)) websocket.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		fn(conn)
	})
}
