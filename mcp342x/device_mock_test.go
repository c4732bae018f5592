package mcp342x

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock only moves when the driver waits for a conversion.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) DelayUs(ctx context.Context, us uint32) error {
	c.now = c.now.Add(time.Duration(us) * time.Microsecond)
	return ctx.Err()
}

func newMockSetup(input InputFunc) (*MockDevice, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	dev := NewMockDevice(DefaultAddress, input)
	dev.SetClock(clock.Now)
	return dev, clock
}

func channelInputs(values ...float32) InputFunc {
	return func(ctx context.Context, ch Channel) (float32, error) {
		return values[ch], nil
	}
}

func TestMockDevice_OneShot(t *testing.T) {
	dev, clock := newMockSetup(channelInputs(1, 0.5, -1.5, 0))
	ctx := context.Background()

	tests := []struct {
		name     string
		conf     Configuration
		expected float32
	}{
		{"12 bit", DefaultConfiguration(), 1},
		{"16 bit x2", DefaultConfiguration().WithChannel(Channel2).WithResolution(Resolution16Bit).WithGain(GainX2), 0.5},
		{"18 bit negative", DefaultConfiguration().WithChannel(Channel3).WithResolution(Resolution18Bit), -1.5},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := NewOneShot(dev, test.conf, WithDelayer(clock))
			mv, err := m.Measure(ctx)
			require.NoError(t, err)
			assert.Equal(t, test.expected, mv)
			assert.Equal(t, test.conf.register(SampleModeOneShot).Channel, dev.Register().Channel)
		})
	}
}

func TestMockDevice_NotReadyBeforeConversionEnds(t *testing.T) {
	dev, clock := newMockSetup(channelInputs(1, 0, 0, 0))
	conf := DefaultConfiguration().WithConversionTime(AbsoluteConversionTime(1000))
	m := NewOneShot(dev, conf, WithDelayer(clock))

	_, err := m.Measure(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestMockDevice_Continuous(t *testing.T) {
	dev, clock := newMockSetup(channelInputs(1, 0, 0, 0))
	ctx := context.Background()
	m := NewContinuous(dev, DefaultConfiguration(), WithDelayer(clock))

	mv, err := m.Measure(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1), mv)

	_, err = m.Measure(ctx)
	assert.ErrorIs(t, err, ErrNotReady)

	clock.now = clock.now.Add(5 * time.Millisecond)
	mv, err = m.Measure(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1), mv)
}

func TestMockDevice_MultiShot(t *testing.T) {
	dev, clock := newMockSetup(channelInputs(1, 2, 3, 4))
	confs := []Configuration{
		DefaultConfiguration().WithChannel(Channel4),
		DefaultConfiguration().WithChannel(Channel1).WithResolution(Resolution14Bit),
		DefaultConfiguration().WithChannel(Channel2).WithGain(GainX4),
	}
	m, err := NewMultiShot(dev, confs, WithDelayer(clock))
	require.NoError(t, err)

	values, err := m.Measure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1, 2}, values)
}

func TestMockDevice_Saturation(t *testing.T) {
	dev, clock := newMockSetup(channelInputs(3000, -3000, 0, 0))
	ctx := context.Background()

	_, err := NewOneShot(dev, DefaultConfiguration(), WithDelayer(clock)).Measure(ctx)
	var illegal *IllegalValueError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, int32(2047), illegal.Value)

	_, err = NewOneShot(dev, DefaultConfiguration().WithChannel(Channel2).WithResolution(Resolution18Bit), WithDelayer(clock)).Measure(ctx)
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, int32(-131072), illegal.Value)
}

func TestMockDevice_Errors(t *testing.T) {
	cause := errors.New("probe disconnected")
	dev, clock := newMockSetup(func(ctx context.Context, ch Channel) (float32, error) {
		return 0, cause
	})
	ctx := context.Background()

	_, err := NewOneShot(dev, DefaultConfiguration(), WithDelayer(clock)).Measure(ctx)
	var busErr *BusError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, "read", busErr.Op)
	assert.ErrorIs(t, err, cause)

	_, err = NewOneShot(dev, DefaultConfiguration(), WithAddress(0x6F), WithDelayer(clock)).Measure(ctx)
	assert.ErrorIs(t, err, ErrNoAcknowledge)

	assert.Error(t, dev.WriteToAddr(ctx, DefaultAddress, []byte{0x00, 0x00}))
}

func TestMockDevice_ReadyBitWithoutStart(t *testing.T) {
	dev, clock := newMockSetup(channelInputs(1, 0, 0, 0))
	ctx := context.Background()

	// one-shot register without the start bit keeps the device idle
	reg := DefaultRegister()
	reg.Mode = SampleModeOneShot
	require.NoError(t, dev.WriteToAddr(ctx, DefaultAddress, []byte{reg.Byte()}))
	require.NoError(t, clock.DelayUs(ctx, 10_000))

	buf := make([]byte, BufferSize)
	require.NoError(t, dev.ReadFromAddr(ctx, DefaultAddress, buf))
	_, err := Decode([BufferSize]byte(buf))
	assert.ErrorIs(t, err, ErrNotReady)
}
