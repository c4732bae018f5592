package mcp342x

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mklimuk/adc"
)

const testAddr = byte(DefaultAddress)

// MockI2CBus is a mock implementation of adc.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

var _ adc.I2CBus = &MockI2CBus{}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockI2CBus) expectWrite(reg Register) *mock.Call {
	return m.On("WriteToAddr", mock.Anything, testAddr, []byte{reg.Byte()}).Return(nil).Once()
}

func (m *MockI2CBus) expectRead(data ...byte) *mock.Call {
	return m.On("ReadFromAddr", mock.Anything, testAddr, mock.Anything).Return(data, nil).Once()
}

// recordingDelayer remembers every requested delay and never sleeps.
type recordingDelayer struct {
	delays []uint32
}

func (d *recordingDelayer) DelayUs(ctx context.Context, us uint32) error {
	d.delays = append(d.delays, us)
	return ctx.Err()
}

func oneShotRegister() Register {
	return Register{
		Ready:      false,
		Channel:    Channel1,
		Mode:       SampleModeOneShot,
		Resolution: Resolution12Bit,
		Gain:       GainX1,
	}
}

func continuousRegister() Register {
	return Register{
		Ready:      true,
		Channel:    Channel1,
		Mode:       SampleModeContinuous,
		Resolution: Resolution12Bit,
		Gain:       GainX1,
	}
}

func ready(reg Register) Register {
	reg.Ready = true
	return reg
}

func notReady(reg Register) Register {
	reg.Ready = false
	return reg
}
