package link

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Fixed field offsets of the frame line.
const (
	seqOffset      = 1
	dutyMarkOffset = 4
	dutyOffset     = 5
	voltMarkOffset = 8
	voltOffset     = 9
)

// Decode parses one received line into a Frame.
//
// Lines not starting with MarkerStart return ErrNoise. Anything else that
// fails returns a *ParseError. The sequence and duty fields sit at fixed
// offsets; voltage and real duty have variable width and are delimited by
// the R and E markers.
func Decode(line []byte) (*Frame, error) {
	if len(line) == 0 || line[0] != MarkerStart {
		return nil, ErrNoise
	}
	if !utf8.Valid(line) {
		return nil, &ParseError{Line: string(line), Field: "line", Err: errBadEncoding}
	}
	text := string(bytes.TrimSpace(line))
	fail := func(field string, err error) (*Frame, error) {
		return nil, &ParseError{Line: text, Field: field, Err: err}
	}
	if len(text) <= voltOffset {
		return fail("line", errTooShort)
	}
	if text[dutyMarkOffset] != MarkerDuty {
		return fail("duty", errMissingMarker)
	}
	if text[voltMarkOffset] != MarkerVoltage {
		return fail("voltage", errMissingMarker)
	}

	var f Frame
	seq, err := strconv.Atoi(text[seqOffset:dutyMarkOffset])
	if err != nil {
		return fail("seq", err)
	}
	if seq < 0 || !Seq(seq).IsValid() {
		return fail("seq", errOutOfRange)
	}
	f.Seq = Seq(seq)
	if f.Duty, err = strconv.Atoi(text[dutyOffset:voltMarkOffset]); err != nil {
		return fail("duty", err)
	}

	realAt := strings.IndexByte(text, MarkerReal)
	if realAt < voltOffset {
		return fail("real", errMissingMarker)
	}
	endAt := strings.IndexByte(text, MarkerEnd)
	if endAt < realAt {
		return fail("end", errMissingMarker)
	}
	if f.Voltage, err = strconv.ParseFloat(text[voltOffset:realAt], 64); err != nil {
		return fail("voltage", err)
	}
	if f.RealDuty, err = strconv.ParseFloat(text[realAt+1:endAt], 64); err != nil {
		return fail("real", err)
	}
	return &f, nil
}
