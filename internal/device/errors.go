package device

import "errors"

var (
	// ErrNotOpen is returned when an operation needs an open handle.
	ErrNotOpen = errors.New("device: not open")

	// ErrUnavailable is returned when a write failed and the handle could
	// not be reopened within the configured attempts.
	ErrUnavailable = errors.New("device: unavailable")

	// ErrTimeout is returned when a feature report query exceeds its
	// context deadline.
	ErrTimeout = errors.New("device: query timed out")
)
