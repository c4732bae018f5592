package mcp342x

import (
	"context"
	"fmt"
	"iter"

	"github.com/mklimuk/adc"
)

// MultiShot runs a fixed sequence of one-shot conversions on each Measure
// call and returns all values at once.
//
// This is not a device feature. The conversions run one after another, so
// the values are not sampled at the same time.
type MultiShot struct {
	device
	regs   []Register
	delays []uint32
}

var _ Measurer[[]float32] = &MultiShot{}

// NewMultiShot creates a handle running len(confs) conversions per Measure.
// The count is fixed for the lifetime of the handle.
func NewMultiShot(transport adc.I2CBus, confs []Configuration, opts ...Option) (*MultiShot, error) {
	if len(confs) == 0 {
		return nil, ErrNoConfigurations
	}
	m := &MultiShot{
		device: newDevice(transport, opts),
		regs:   make([]Register, len(confs)),
		delays: make([]uint32, len(confs)),
	}
	m.apply(confs)
	return m, nil
}

// Len returns the number of conversions per Measure.
func (m *MultiShot) Len() int {
	return len(m.regs)
}

// Configure replaces all configurations. confs must have the length the
// handle was created with; otherwise nothing changes.
func (m *MultiShot) Configure(confs []Configuration) error {
	if len(confs) != len(m.regs) {
		return fmt.Errorf("%w: expected %d, got %d", ErrConfigurationCount, len(m.regs), len(confs))
	}
	m.apply(confs)
	return nil
}

func (m *MultiShot) apply(confs []Configuration) {
	for i, conf := range confs {
		m.regs[i] = conf.register(SampleModeOneShot)
		m.delays[i] = conf.ConversionTimeUs()
	}
}

// Measure runs every conversion in order and returns the values in
// millivolts. The first failure aborts the sequence and no values are returned.
func (m *MultiShot) Measure(ctx context.Context) ([]float32, error) {
	values := make([]float32, len(m.regs))
	for i := range m.regs {
		mv, err := m.convert(ctx, m.regs[i], m.delays[i])
		if err != nil {
			return nil, fmt.Errorf("conversion %d: %w", i, err)
		}
		values[i] = mv
	}
	return values, nil
}

// MeasureStream yields one complete sequence per pull.
func (m *MultiShot) MeasureStream(ctx context.Context) iter.Seq2[[]float32, error] {
	return Stream[[]float32](ctx, m)
}
