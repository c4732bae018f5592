package mcp342x

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		given    [4]byte
		expected float32
	}{
		{[4]byte{0, 0, 0b00000000, 0}, 0.0},
		{[4]byte{0, 1, 0b00000000, 0}, 1.0},              // LSB @ 12 bit
		{[4]byte{255, 255, 0b00000000, 0}, -1.0},         // -LSB @ 12 bit
		{[4]byte{0, 1, 0b00000100, 0}, 0.25},             // LSB @ 14 bit
		{[4]byte{255, 255, 0b00000100, 0}, -0.25},        // -LSB @ 14 bit
		{[4]byte{0, 1, 0b00001000, 0}, 0.0625},           // LSB @ 16 bit
		{[4]byte{255, 255, 0b00001000, 0}, -0.0625},      // -LSB @ 16 bit
		{[4]byte{0, 0, 1, 0b00001100}, 0.015625},         // LSB @ 18 bit
		{[4]byte{255, 255, 255, 0b00001100}, -0.015625},  // -LSB @ 18 bit
		{[4]byte{0, 1, 0b00000001, 0}, 0.5},              // gain x2
		{[4]byte{0, 1, 0b00000010, 0}, 0.25},             // gain x4
		{[4]byte{0, 1, 0b00000011, 0}, 0.125},            // gain x8
		{[4]byte{0x03, 0xE8, 0b00000000, 0}, 1000.0},     // 1000 LSB @ 12 bit
		{[4]byte{0, 2, 0b00001000, 0b00001000}, 0.125},   // 16 bit echoed twice
		{[4]byte{0, 1, 0b01110000, 0b01110000}, 1.0},     // continuous, channel 4
		{[4]byte{0x01, 0x00, 0x00, 0b00001101}, 512.0},   // 18 bit x2
		{[4]byte{0xFF, 0x00, 0x00, 0b00001100}, -1024.0}, // 18 bit half negative scale
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given[:]), func(t *testing.T) {
			mv, err := Decode(test.given)
			require.NoError(t, err)
			assert.Equal(t, test.expected, mv)
		})
	}
}

func TestDecode_IllegalValue(t *testing.T) {
	tests := []struct {
		given [4]byte
		value int32
		min   int32
		max   int32
	}{
		{[4]byte{8, 0, 0b00000000, 0}, -2048, -2048, 2047},
		{[4]byte{7, 255, 0b00000000, 0}, 2047, -2048, 2047},
		{[4]byte{32, 0, 0b00000100, 0}, -8192, -8192, 8191},
		{[4]byte{31, 255, 0b00000100, 0}, 8191, -8192, 8191},
		{[4]byte{128, 0, 0b00001000, 0}, -32768, -32768, 32767},
		{[4]byte{127, 255, 0b00001000, 0}, 32767, -32768, 32767},
		{[4]byte{2, 0, 0, 0b00001100}, -131072, -131072, 131071},
		{[4]byte{1, 255, 255, 0b00001100}, 131071, -131072, 131071},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given[:]), func(t *testing.T) {
			_, err := Decode(test.given)
			var illegal *IllegalValueError
			require.True(t, errors.As(err, &illegal), "unexpected error %v", err)
			assert.Equal(t, test.value, illegal.Value)
			assert.Equal(t, test.min, illegal.Min)
			assert.Equal(t, test.max, illegal.Max)
		})
	}
}

func TestDecode_NotReady(t *testing.T) {
	tests := [][4]byte{
		{0, 0, 0b10000000, 0},
		{0, 1, 0b10001000, 0},
		{0x7F, 0xFF, 0b11111111, 0},
		{0, 0, 1, 0b10001100},
	}
	for _, given := range tests {
		t.Run(hex.EncodeToString(given[:]), func(t *testing.T) {
			_, err := Decode(given)
			assert.ErrorIs(t, err, ErrNotReady)
		})
	}
}

func TestDecodeCode(t *testing.T) {
	code, reg, err := DecodeCode([4]byte{0xFF, 0xFE, 0b01101010, 0})
	require.NoError(t, err)
	assert.Equal(t, int32(-2), code)
	assert.Equal(t, Channel4, reg.Channel)
	assert.Equal(t, Resolution16Bit, reg.Resolution)
	assert.Equal(t, GainX4, reg.Gain)
	assert.Equal(t, SampleModeOneShot, reg.Mode)
	assert.True(t, reg.Ready)
}

func TestPotential(t *testing.T) {
	assert.Equal(t, physic.MilliVolt, Potential(1.0))
	assert.Equal(t, physic.ElectricPotential(-62_500), Potential(-0.0625))
	assert.Equal(t, 15_625*physic.NanoVolt, Potential(0.015625))
	assert.Equal(t, 2*physic.Volt, Potential(2000))
}
