package mcp342x

import (
	"fmt"
	"strconv"
	"strings"
)

// Channel selects the device input.
//
// MCP3422 and MCP3423 only have two inputs and treat Channel3 as Channel1
// and Channel4 as Channel2.
type Channel byte

const (
	Channel1 Channel = 0b00
	Channel2 Channel = 0b01
	Channel3 Channel = 0b10
	Channel4 Channel = 0b11
)

func (c Channel) mask() byte {
	return byte(c) & 0b11
}

func (c Channel) String() string {
	return "ch" + strconv.Itoa(int(c.mask())+1)
}

func (c Channel) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts "1".."4" with an optional "ch" prefix.
func (c *Channel) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(string(text))), "ch")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 4 {
		return fmt.Errorf("mcp342x: invalid channel %q", text)
	}
	*c = Channel(n - 1)
	return nil
}

// Gain is the setting of the programmable gain amplifier.
type Gain byte

const (
	GainX1 Gain = 0b00
	GainX2 Gain = 0b01
	GainX4 Gain = 0b10
	GainX8 Gain = 0b11
)

func (g Gain) mask() byte {
	return byte(g) & 0b11
}

// Multiplier returns the amplification factor (1, 2, 4 or 8).
func (g Gain) Multiplier() int64 {
	return 1 << g.mask()
}

func (g Gain) String() string {
	return "x" + strconv.FormatInt(g.Multiplier(), 10)
}

func (g Gain) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText accepts "1", "2", "4" or "8" with an optional "x" prefix.
func (g *Gain) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(string(text))), "x")
	switch s {
	case "1":
		*g = GainX1
	case "2":
		*g = GainX2
	case "4":
		*g = GainX4
	case "8":
		*g = GainX8
	default:
		return fmt.Errorf("mcp342x: invalid gain %q", text)
	}
	return nil
}

// Resolution selects the sample width and therefore the sampling rate.
type Resolution byte

const (
	// Resolution12Bit samples at 240 SPS.
	Resolution12Bit Resolution = 0b00
	// Resolution14Bit samples at 60 SPS.
	Resolution14Bit Resolution = 0b01
	// Resolution16Bit samples at 15 SPS.
	Resolution16Bit Resolution = 0b10
	// Resolution18Bit samples at 3.75 SPS.
	Resolution18Bit Resolution = 0b11
)

const resolutionMask = 0b11

func (r Resolution) mask() byte {
	return byte(r) & resolutionMask
}

// Bytes returns the number of data bytes the device sends for a sample.
func (r Resolution) Bytes() int {
	if r.mask() == byte(Resolution18Bit) {
		return 3
	}
	return 2
}

// Bits returns the sample width.
func (r Resolution) Bits() int {
	return 12 + 2*int(r.mask())
}

func (r Resolution) signBit() uint32 {
	return 1 << (r.Bits() - 1)
}

func (r Resolution) signExtension() uint32 {
	return ^uint32(0) << r.Bits()
}

// Min returns the lowest output code. The device reports it on negative saturation.
func (r Resolution) Min() int32 {
	return -(1 << (r.Bits() - 1))
}

// Max returns the highest output code. The device reports it on positive saturation.
func (r Resolution) Max() int32 {
	return 1<<(r.Bits()-1) - 1
}

// ConversionTime returns the nominal conversion time in µs.
func (r Resolution) ConversionTime() uint32 {
	switch r.mask() {
	case byte(Resolution14Bit):
		return 16667
	case byte(Resolution16Bit):
		return 66667
	case byte(Resolution18Bit):
		return 266667
	default:
		return 4167
	}
}

func (r Resolution) SamplesPerSecond() float32 {
	switch r.mask() {
	case byte(Resolution14Bit):
		return 60
	case byte(Resolution16Bit):
		return 15
	case byte(Resolution18Bit):
		return 3.75
	default:
		return 240
	}
}

func (r Resolution) String() string {
	return strconv.Itoa(r.Bits()) + "bit"
}

func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText accepts "12", "14", "16" or "18" with an optional "bit" suffix.
func (r *Resolution) UnmarshalText(text []byte) error {
	s := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(string(text))), "bit")
	switch strings.TrimSpace(s) {
	case "12":
		*r = Resolution12Bit
	case "14":
		*r = Resolution14Bit
	case "16":
		*r = Resolution16Bit
	case "18":
		*r = Resolution18Bit
	default:
		return fmt.Errorf("mcp342x: invalid resolution %q", text)
	}
	return nil
}

// SampleMode is the conversion mode bit of the register.
type SampleMode byte

const (
	SampleModeOneShot    SampleMode = 0
	SampleModeContinuous SampleMode = 1
)

func (m SampleMode) String() string {
	if m&1 == 1 {
		return "continuous"
	}
	return "one-shot"
}

// Register models the device's single configuration register.
//
// On the wire the most significant bit is the inverse of Ready: writing 1
// starts a one-shot conversion, reading 1 means the output buffer holds no
// new conversion.
//
//	bit 7    6..5     4     3..2        1..0
//	   !RDY  channel  mode  resolution  gain
type Register struct {
	Ready      bool
	Channel    Channel
	Mode       SampleMode
	Resolution Resolution
	Gain       Gain
}

// DefaultRegister is the power-on register: continuous, channel 1, 12 bit, x1.
func DefaultRegister() Register {
	return Register{
		Ready:      true,
		Channel:    Channel1,
		Mode:       SampleModeContinuous,
		Resolution: Resolution12Bit,
		Gain:       GainX1,
	}
}

// Byte encodes the register.
func (r Register) Byte() byte {
	var b byte
	if !r.Ready {
		b = 1
	}
	b = b<<2 | r.Channel.mask()
	b = b<<1 | byte(r.Mode)&1
	b = b<<2 | r.Resolution.mask()
	b = b<<2 | r.Gain.mask()
	return b
}

// ParseRegister decodes a register byte. Every byte maps to a valid register.
func ParseRegister(b byte) Register {
	return Register{
		Ready:      b>>7 == 0,
		Channel:    Channel(b >> 5 & 0b11),
		Mode:       SampleMode(b >> 4 & 1),
		Resolution: Resolution(b >> 2 & 0b11),
		Gain:       Gain(b & 0b11),
	}
}

func (r Register) String() string {
	return fmt.Sprintf("%08b (ready=%t %s %s %s %s)", r.Byte(), r.Ready, r.Channel, r.Mode, r.Resolution, r.Gain)
}
