// Package mcp342x drives the Microchip MCP3422/3/4 delta-sigma ADCs.
//
// The device has a single configuration register. Writing it selects the
// channel, resolution and gain and, in one-shot mode, starts a conversion.
// Reading returns the output code followed by the register.
//
// Three modes are available:
//
//	OneShot     starts one conversion per Measure call and waits for it
//	Continuous  starts free-running conversions once, then only reads
//	MultiShot   runs a fixed sequence of one-shot conversions per Measure call
//
// Typical usage:
//
//	adc := mcp342x.NewOneShot(bus, mcp342x.DefaultConfiguration().WithChannel(mcp342x.Channel2))
//	mv, err := adc.Measure(ctx)
//
// A handle must be used by a single goroutine at a time. A measurement
// abandoned through ctx may leave a conversion pending on the device; issue a
// fresh Configure or Measure to resume.
package mcp342x

import (
	"context"
	"log/slog"

	"github.com/mklimuk/adc"
)

// DefaultAddress is the 7-bit address with both address pins low.
const DefaultAddress = 0x68

type Options struct {
	Address byte
	Delayer adc.Delayer
}

type Option func(*Options)

func WithAddress(address byte) Option {
	return func(o *Options) {
		o.Address = address
	}
}

// WithDelayer replaces the timer used to wait for conversions.
func WithDelayer(d adc.Delayer) Option {
	return func(o *Options) {
		o.Delayer = d
	}
}

// device holds what every mode shares: the bus, the address and the timer.
type device struct {
	transport adc.I2CBus
	addr      byte
	delayer   adc.Delayer
	buf       [BufferSize]byte
}

func newDevice(transport adc.I2CBus, opts []Option) device {
	o := Options{
		Address: DefaultAddress,
		Delayer: adc.SleepDelayer{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return device{
		transport: transport,
		addr:      o.Address & 0x7F,
		delayer:   o.Delayer,
	}
}

// Address returns the 7-bit bus address of the device.
func (d *device) Address() byte {
	return d.addr
}

func (d *device) write(ctx context.Context, reg Register) error {
	err := d.transport.WriteToAddr(ctx, d.addr, []byte{reg.Byte()})
	if err != nil {
		return &BusError{Op: "write", Err: err}
	}
	slog.DebugContext(ctx, "mcp342x: register written", "addr", d.addr, "register", reg)
	return nil
}

func (d *device) wait(ctx context.Context, us uint32) error {
	return d.delayer.DelayUs(ctx, us)
}

func (d *device) read(ctx context.Context) (float32, error) {
	clear(d.buf[:])
	err := d.transport.ReadFromAddr(ctx, d.addr, d.buf[:])
	if err != nil {
		return 0, &BusError{Op: "read", Err: err}
	}
	mv, err := Decode(d.buf)
	if err != nil {
		slog.DebugContext(ctx, "mcp342x: sample rejected", "addr", d.addr, "buffer", d.buf, "error", err)
		return 0, err
	}
	return mv, nil
}

// convert runs one complete one-shot sequence.
func (d *device) convert(ctx context.Context, reg Register, us uint32) (float32, error) {
	if err := d.write(ctx, reg); err != nil {
		return 0, err
	}
	if err := d.wait(ctx, us); err != nil {
		return 0, err
	}
	return d.read(ctx)
}
