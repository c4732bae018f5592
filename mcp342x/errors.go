package mcp342x

import (
	"errors"
	"fmt"
)

// ErrNotReady means the output buffer does not hold a new conversion.
var ErrNotReady = errors.New("mcp342x: no new data available")

var ErrNoConfigurations = errors.New("mcp342x: multi-shot requires at least one configuration")

// ErrConfigurationCount is returned when a multi-shot reconfiguration changes the number of conversions.
var ErrConfigurationCount = errors.New("mcp342x: configuration count mismatch")

// IllegalValueError reports a saturated or otherwise invalid output code.
type IllegalValueError struct {
	Value int32
	Min   int32
	Max   int32
}

func (e *IllegalValueError) Error() string {
	return fmt.Sprintf("mcp342x: measured value %d exceeds the valid bounds: %d < %d < %d", e.Value, e.Min, e.Value, e.Max)
}

// BusError wraps a transport failure.
type BusError struct {
	Op  string
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("mcp342x: bus %s failed: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
