package adc

import "errors"

var (
	// ErrNotStarted indicates Read without a preceding Start.
	ErrNotStarted = errors.New("conversion not started")
	// ErrInvalidChannel indicates a channel outside AIN0-AIN3.
	ErrInvalidChannel = errors.New("invalid channel")
)
