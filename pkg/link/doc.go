// Package link provides the duty-cycle frame protocol spoken between two
// endpoints over a point-to-point serial link.
package link

// A frame is one line of ASCII text:
//
//	S<seq>D<duty>V<voltage>R<real duty>E\n
//
// e.g. "S003D050V1.65R50.0E". seq and duty are zero-padded to three digits,
// voltage carries two fraction digits and real duty one.
//
// There is no handshake and no checksum. Each side stamps outgoing frames
// with a running sequence number and drops inbound frames whose sequence is
// not newer than the last one it accepted, which suppresses duplicates and
// reordered deliveries on the link.
//
// Receiving never blocks: a Port buffers complete lines in the background
// and the polling loop picks them up when it gets to them.
//
// The older two-field exchange (TH:/ME: lines) is kept in legacy.go.
