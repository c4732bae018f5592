package mcp342x

import (
	"fmt"
	"math"
)

// ConversionTime adjusts how long the driver waits for a conversion.
// The zero value keeps the resolution's nominal conversion time.
type ConversionTime struct {
	absolute bool
	value    int64
}

// AbsoluteConversionTime waits exactly us microseconds.
func AbsoluteConversionTime(us uint32) ConversionTime {
	return ConversionTime{absolute: true, value: int64(us)}
}

// ConversionTimeOffset adds us microseconds to the nominal conversion time.
// The result never drops below zero.
func ConversionTimeOffset(us int32) ConversionTime {
	return ConversionTime{value: int64(us)}
}

func (t ConversionTime) IsAbsolute() bool {
	return t.absolute
}

func (t ConversionTime) String() string {
	if t.absolute {
		return fmt.Sprintf("%dµs", t.value)
	}
	return fmt.Sprintf("nominal%+dµs", t.value)
}

// Configuration is the mode independent user configuration.
// The zero value reads channel 1 at 12 bit with x1 gain and nominal timing.
type Configuration struct {
	Channel        Channel
	Resolution     Resolution
	Gain           Gain
	ConversionTime ConversionTime
}

func DefaultConfiguration() Configuration {
	return Configuration{}
}

func (c Configuration) WithChannel(channel Channel) Configuration {
	c.Channel = channel
	return c
}

func (c Configuration) WithResolution(resolution Resolution) Configuration {
	c.Resolution = resolution
	return c
}

func (c Configuration) WithGain(gain Gain) Configuration {
	c.Gain = gain
	return c
}

func (c Configuration) WithConversionTime(t ConversionTime) Configuration {
	c.ConversionTime = t
	return c
}

// ConversionTimeUs returns the delay between starting a conversion and reading it.
func (c Configuration) ConversionTimeUs() uint32 {
	if c.ConversionTime.absolute {
		return uint32(c.ConversionTime.value)
	}
	us := int64(c.Resolution.ConversionTime()) + c.ConversionTime.value
	switch {
	case us < 0:
		return 0
	case us > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(us)
}

// register applies the configuration on top of the power-on register.
func (c Configuration) register(mode SampleMode) Register {
	reg := DefaultRegister()
	reg.Channel = c.Channel
	reg.Resolution = c.Resolution
	reg.Gain = c.Gain
	reg.Mode = mode
	if mode == SampleModeOneShot {
		// !RDY=1 starts the conversion
		reg.Ready = false
	}
	return reg
}

func (c Configuration) String() string {
	return fmt.Sprintf("%s %s %s %s", c.Channel, c.Resolution, c.Gain, c.ConversionTime)
}
