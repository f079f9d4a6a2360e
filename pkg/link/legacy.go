package link

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Legacy line prefixes.
const (
	SetpointPrefix = "TH:"
	ReportPrefix   = "ME:"
)

// Report is the measurement reply of the legacy exchange.
type Report struct {
	Theoretical float64
	Measured    float64
	Error       float64
}

// EncodeSetpoint formats a setpoint announce line.
func EncodeSetpoint(duty float64) []byte {
	return []byte(fmt.Sprintf("%s%.1f\n", SetpointPrefix, duty))
}

// EncodeReport formats a measurement report line.
func EncodeReport(r Report) []byte {
	return []byte(fmt.Sprintf("%s%.1f:%.1f:%.1f\n", ReportPrefix, r.Theoretical, r.Measured, r.Error))
}

// ParseSetpoint parses a setpoint announce line.
// Lines without the prefix return ErrNoise.
func ParseSetpoint(line []byte) (float64, error) {
	text, err := legacyText(line, SetpointPrefix)
	if err != nil {
		return 0, err
	}
	duty, err := strconv.ParseFloat(text[len(SetpointPrefix):], 64)
	if err != nil {
		return 0, &ParseError{Line: text, Field: "duty", Err: err}
	}
	return duty, nil
}

// ParseReport parses a measurement report line.
// Lines without the prefix return ErrNoise. Fields after the third are ignored.
func ParseReport(line []byte) (r Report, err error) {
	text, err := legacyText(line, ReportPrefix)
	if err != nil {
		return
	}
	parts := strings.Split(text, ":")
	if len(parts) < 4 {
		return r, &ParseError{Line: text, Field: "line", Err: errTooShort}
	}
	fields := []struct {
		name string
		val  *float64
	}{
		{"theoretical", &r.Theoretical},
		{"measured", &r.Measured},
		{"error", &r.Error},
	}
	for n, f := range fields {
		if *f.val, err = strconv.ParseFloat(parts[n+1], 64); err != nil {
			return Report{}, &ParseError{Line: text, Field: f.name, Err: err}
		}
	}
	return r, nil
}

func legacyText(line []byte, prefix string) (string, error) {
	if !utf8.Valid(line) {
		return "", &ParseError{Line: string(line), Field: "line", Err: errBadEncoding}
	}
	text := string(bytes.TrimSpace(line))
	if !strings.HasPrefix(text, prefix) {
		return "", ErrNoise
	}
	return text, nil
}
