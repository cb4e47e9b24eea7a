package primitives

import "errors"

var (
	// ErrQueueFull is returned when pushing onto a bounded queue at its limit.
	ErrQueueFull = errors.New("event queue full (backpressure)")

	// ErrInvalidConfig wraps every MachineConfig validation failure.
	ErrInvalidConfig = errors.New("invalid machine config")
)
