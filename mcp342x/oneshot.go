package mcp342x

import (
	"context"
	"iter"

	"github.com/mklimuk/adc"
)

// OneShot starts a single conversion on each Measure call and waits for its
// result. The device returns to standby after every conversion.
type OneShot struct {
	device
	reg   Register
	delay uint32
}

var _ Measurer[float32] = &OneShot{}

func NewOneShot(transport adc.I2CBus, conf Configuration, opts ...Option) *OneShot {
	m := &OneShot{device: newDevice(transport, opts)}
	m.Configure(conf)
	return m
}

// Configure replaces the configuration. It is sent to the device on the next Measure.
func (m *OneShot) Configure(conf Configuration) {
	m.reg = conf.register(SampleModeOneShot)
	m.delay = conf.ConversionTimeUs()
}

// Measure triggers a conversion and returns the result in millivolts.
func (m *OneShot) Measure(ctx context.Context) (float32, error) {
	return m.convert(ctx, m.reg, m.delay)
}

// MeasureStream yields one fresh conversion per pull.
func (m *OneShot) MeasureStream(ctx context.Context) iter.Seq2[float32, error] {
	return Stream[float32](ctx, m)
}
