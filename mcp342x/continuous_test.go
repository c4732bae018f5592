package mcp342x

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestContinuous_Measure(t *testing.T) {
	bus := new(MockI2CBus)
	delayer := &recordingDelayer{}
	expected := continuousRegister()

	bus.expectWrite(expected)
	bus.expectRead(0, 1, expected.Byte(), 0)
	bus.expectRead(0, 2, expected.Byte(), 0)
	bus.expectRead(0, 3, expected.Byte(), 0)

	adc := NewContinuous(bus, DefaultConfiguration(), WithDelayer(delayer))
	assert.False(t, adc.Initialized())
	ctx := context.Background()

	for _, want := range []float32{1.0, 2.0, 3.0} {
		mv, err := adc.Measure(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, mv)
	}

	assert.True(t, adc.Initialized())
	assert.Equal(t, []uint32{4167}, delayer.delays)
	bus.AssertNumberOfCalls(t, "WriteToAddr", 1)
	bus.AssertExpectations(t)
}

func TestContinuous_NotReadyDoesNotRestart(t *testing.T) {
	bus := new(MockI2CBus)
	expected := continuousRegister()

	bus.expectWrite(expected)
	bus.expectRead(0, 1, expected.Byte(), 0)
	bus.expectRead(0, 1, notReady(expected).Byte(), 0)
	bus.expectRead(0, 4, expected.Byte(), 0)

	adc := NewContinuous(bus, DefaultConfiguration(), WithDelayer(&recordingDelayer{}))
	ctx := context.Background()

	_, err := adc.Measure(ctx)
	require.NoError(t, err)
	_, err = adc.Measure(ctx)
	assert.ErrorIs(t, err, ErrNotReady)
	mv, err := adc.Measure(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(4.0), mv)

	bus.AssertNumberOfCalls(t, "WriteToAddr", 1)
	bus.AssertExpectations(t)
}

func TestContinuous_FailedStartIsRetried(t *testing.T) {
	bus := new(MockI2CBus)
	expected := continuousRegister()

	bus.On("WriteToAddr", mock.Anything, testAddr, []byte{expected.Byte()}).Return(errors.New("nack")).Once()
	bus.expectWrite(expected)
	bus.expectRead(0, 1, expected.Byte(), 0)

	adc := NewContinuous(bus, DefaultConfiguration(), WithDelayer(&recordingDelayer{}))
	ctx := context.Background()

	_, err := adc.Measure(ctx)
	var busErr *BusError
	require.ErrorAs(t, err, &busErr)
	assert.False(t, adc.Initialized())

	mv, err := adc.Measure(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), mv)
	bus.AssertExpectations(t)
}

func TestContinuous_Configure(t *testing.T) {
	bus := new(MockI2CBus)
	delayer := &recordingDelayer{}
	conf := DefaultConfiguration().WithChannel(Channel2).WithResolution(Resolution16Bit)
	reconfigured := Register{Ready: true, Channel: Channel2, Mode: SampleModeContinuous, Resolution: Resolution16Bit, Gain: GainX1}

	bus.expectWrite(continuousRegister())
	bus.expectRead(0, 1, continuousRegister().Byte(), 0)
	bus.expectWrite(reconfigured)
	bus.expectRead(0, 8, reconfigured.Byte(), 0)

	adc := NewContinuous(bus, DefaultConfiguration(), WithDelayer(delayer))
	ctx := context.Background()

	_, err := adc.Measure(ctx)
	require.NoError(t, err)

	require.NoError(t, adc.Configure(ctx, conf))
	assert.True(t, adc.Initialized())

	mv, err := adc.Measure(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), mv)
	// configure applies the register without waiting
	assert.Equal(t, []uint32{4167}, delayer.delays)
	bus.AssertExpectations(t)
}

func TestContinuous_ConfigureBeforeFirstMeasure(t *testing.T) {
	bus := new(MockI2CBus)
	delayer := &recordingDelayer{}
	conf := DefaultConfiguration().WithGain(GainX8).WithConversionTime(AbsoluteConversionTime(100))
	expected := Register{Ready: true, Mode: SampleModeContinuous, Gain: GainX8}

	bus.expectWrite(expected)
	bus.expectWrite(expected)
	bus.expectRead(0, 8, expected.Byte(), 0)

	adc := NewContinuous(bus, DefaultConfiguration(), WithDelayer(delayer))
	ctx := context.Background()

	require.NoError(t, adc.Configure(ctx, conf))
	assert.False(t, adc.Initialized())

	mv, err := adc.Measure(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), mv)
	assert.Equal(t, []uint32{100}, delayer.delays)
	bus.AssertExpectations(t)
}

func TestContinuous_MeasureStream(t *testing.T) {
	bus := new(MockI2CBus)
	delayer := &recordingDelayer{}
	expected := continuousRegister()

	bus.expectWrite(expected)
	bus.expectRead(0, 1, expected.Byte(), 0)
	bus.expectRead(0, 1, notReady(expected).Byte(), 0)
	bus.On("ReadFromAddr", mock.Anything, testAddr, mock.Anything).Return(nil, errors.New("timeout")).Once()
	bus.expectRead(0, 2, expected.Byte(), 0)

	adc := NewContinuous(bus, DefaultConfiguration(), WithDelayer(delayer))
	stream, err := adc.MeasureStream(context.Background())
	require.NoError(t, err)
	assert.True(t, adc.Initialized())

	var values []float32
	var errs []error
	for mv, err := range stream {
		if err != nil {
			errs = append(errs, err)
		} else {
			values = append(values, mv)
		}
		if len(values)+len(errs) == 4 {
			break
		}
	}

	assert.Equal(t, []float32{1.0, 2.0}, values)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], ErrNotReady)
	var busErr *BusError
	assert.ErrorAs(t, errs[1], &busErr)
	assert.Equal(t, []uint32{4167}, delayer.delays)
	bus.AssertNumberOfCalls(t, "WriteToAddr", 1)
	bus.AssertExpectations(t)
}

func TestContinuous_MeasureStreamStartFailure(t *testing.T) {
	bus := new(MockI2CBus)
	cause := errors.New("nack")
	bus.On("WriteToAddr", mock.Anything, testAddr, mock.Anything).Return(cause).Once()

	adc := NewContinuous(bus, DefaultConfiguration(), WithDelayer(&recordingDelayer{}))
	stream, err := adc.MeasureStream(context.Background())

	assert.Nil(t, stream)
	assert.ErrorIs(t, err, cause)
	assert.False(t, adc.Initialized())
}
