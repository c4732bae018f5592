package mcp342x

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mklimuk/adc"
)

// ErrNoAcknowledge is returned by MockDevice for transfers to another address.
var ErrNoAcknowledge = errors.New("mcp342x: address not acknowledged")

// InputFunc returns the differential input of a channel in millivolts.
type InputFunc func(ctx context.Context, ch Channel) (float32, error)

// MockDevice emulates an MCP342x sitting alone on an I2C bus, so the modes
// can run without any hardware. Conversions take the nominal time of the
// configured resolution as measured by the clock.
//
// Example usage:
//
//	dev := mcp342x.NewMockDevice(mcp342x.DefaultAddress, func(ctx context.Context, ch mcp342x.Channel) (float32, error) {
//		return 250, nil
//	})
//	adc := mcp342x.NewOneShot(dev, mcp342x.DefaultConfiguration())
type MockDevice struct {
	mx       sync.Mutex
	addr     byte
	input    InputFunc
	now      func() time.Time
	reg      Register
	started  time.Time
	lastRead time.Time
	pending  bool
	code     int32
}

var _ adc.I2CBus = &MockDevice{}

func NewMockDevice(address byte, input InputFunc) *MockDevice {
	return &MockDevice{
		addr:  address & 0x7F,
		input: input,
		now:   time.Now,
		reg:   DefaultRegister(),
	}
}

// SetClock replaces the time source deciding when conversions complete.
func (d *MockDevice) SetClock(now func() time.Time) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.now = now
}

// Register returns the last register written to the device.
func (d *MockDevice) Register() Register {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.reg
}

func (d *MockDevice) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if address != d.addr {
		return ErrNoAcknowledge
	}
	if len(buffer) != 1 {
		return fmt.Errorf("mcp342x: expected a single register byte, got %d", len(buffer))
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	reg := ParseRegister(buffer[0])
	// in one-shot mode only a set start bit triggers a conversion
	start := reg.Mode == SampleModeContinuous || !reg.Ready
	reg.Ready = true
	d.reg = reg
	if start {
		d.started = d.now()
		d.lastRead = time.Time{}
		d.pending = true
	}
	return nil
}

func (d *MockDevice) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if address != d.addr {
		return ErrNoAcknowledge
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	fresh := d.fresh(d.now())
	if fresh {
		mv, err := d.input(ctx, d.reg.Channel)
		if err != nil {
			return err
		}
		d.code = d.quantize(mv)
	}
	reg := d.reg
	reg.Ready = fresh
	copy(buffer, d.encode(reg))
	return nil
}

func (d *MockDevice) Release(ctx context.Context) error {
	return nil
}

// fresh reports whether a conversion completed since the previous read and
// marks it as consumed.
func (d *MockDevice) fresh(now time.Time) bool {
	if !d.pending {
		return false
	}
	period := time.Duration(d.reg.Resolution.ConversionTime()) * time.Microsecond
	completed := now.Sub(d.started) / period
	if completed < 1 {
		return false
	}
	if d.reg.Mode == SampleModeOneShot {
		d.pending = false
		return true
	}
	if !d.lastRead.IsZero() && d.lastRead.Sub(d.started)/period == completed {
		return false
	}
	d.lastRead = now
	return true
}

func (d *MockDevice) quantize(mv float32) int32 {
	bits := d.reg.Resolution.Bits()
	code := math.Round(float64(mv) * float64(d.reg.Gain.Multiplier()) * float64(int64(1)<<bits) / 4096)
	lo, hi := float64(d.reg.Resolution.Min()), float64(d.reg.Resolution.Max())
	return int32(max(lo, min(hi, code)))
}

func (d *MockDevice) encode(reg Register) []byte {
	buf := make([]byte, BufferSize)
	if reg.Resolution == Resolution18Bit {
		var raw [4]byte
		binary.BigEndian.PutUint32(raw[:], uint32(d.code))
		copy(buf, raw[1:])
		buf[3] = reg.Byte()
		return buf
	}
	binary.BigEndian.PutUint16(buf, uint16(int16(d.code)))
	buf[2] = reg.Byte()
	buf[3] = reg.Byte()
	return buf
}
