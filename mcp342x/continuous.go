package mcp342x

import (
	"context"
	"iter"

	"github.com/mklimuk/adc"
)

// Continuous lets the device convert continuously. The first Measure call
// starts conversions and waits for the first one; later calls only read the
// most recent value.
type Continuous struct {
	device
	reg         Register
	delay       uint32
	initialized bool
}

var _ Measurer[float32] = &Continuous{}

func NewContinuous(transport adc.I2CBus, conf Configuration, opts ...Option) *Continuous {
	return &Continuous{
		device: newDevice(transport, opts),
		reg:    conf.register(SampleModeContinuous),
		delay:  conf.ConversionTimeUs(),
	}
}

// Configure replaces the configuration and writes it to the device immediately.
// A device that is already converting keeps doing so with the new settings.
func (m *Continuous) Configure(ctx context.Context, conf Configuration) error {
	m.reg = conf.register(SampleModeContinuous)
	m.delay = conf.ConversionTimeUs()
	return m.write(ctx, m.reg)
}

// Initialized reports whether conversions have been started.
func (m *Continuous) Initialized() bool {
	return m.initialized
}

// Measure returns the latest conversion in millivolts. ErrNotReady means
// the value has already been read.
func (m *Continuous) Measure(ctx context.Context) (float32, error) {
	if !m.initialized {
		if err := m.start(ctx); err != nil {
			return 0, err
		}
	}
	return m.read(ctx)
}

// MeasureStream (re)starts conversions and returns a sequence yielding one
// read per pull. Pulls issue no writes or delays, so a consumer polling
// faster than the sampling rate sees ErrNotReady items.
func (m *Continuous) MeasureStream(ctx context.Context) (iter.Seq2[float32, error], error) {
	if err := m.start(ctx); err != nil {
		return nil, err
	}
	return Stream[float32](ctx, m), nil
}

func (m *Continuous) start(ctx context.Context) error {
	if err := m.write(ctx, m.reg); err != nil {
		return err
	}
	if err := m.wait(ctx, m.delay); err != nil {
		return err
	}
	m.initialized = true
	return nil
}
