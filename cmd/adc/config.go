package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adc/mcp342x"
)

var configurationFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "channel",
		Aliases: []string{"c"},
		Value:   "1",
		Usage:   "input channel (1-4)",
	},
	&cli.StringFlag{
		Name:    "resolution",
		Aliases: []string{"r"},
		Value:   "12",
		Usage:   "sample width in bits: 12, 14, 16 or 18",
	},
	&cli.StringFlag{
		Name:    "gain",
		Aliases: []string{"g"},
		Value:   "1",
		Usage:   "amplifier gain: 1, 2, 4 or 8",
	},
	&cli.UintFlag{
		Name:  "conversion-time",
		Usage: "wait exactly this many microseconds per conversion",
	},
	&cli.IntFlag{
		Name:  "offset",
		Usage: "microseconds added to the nominal conversion time",
	},
}

// conversion is the textual form of a configuration shared by the flags
// and the profile files.
type conversion struct {
	Channel    string  `yaml:"channel"`
	Resolution string  `yaml:"resolution"`
	Gain       string  `yaml:"gain"`
	OffsetUs   *int32  `yaml:"offset_us"`
	AbsoluteUs *uint32 `yaml:"absolute_us"`
}

func (s conversion) configuration() (mcp342x.Configuration, error) {
	conf := mcp342x.DefaultConfiguration()
	if s.Channel != "" {
		if err := conf.Channel.UnmarshalText([]byte(s.Channel)); err != nil {
			return conf, err
		}
	}
	if s.Resolution != "" {
		if err := conf.Resolution.UnmarshalText([]byte(s.Resolution)); err != nil {
			return conf, err
		}
	}
	if s.Gain != "" {
		if err := conf.Gain.UnmarshalText([]byte(s.Gain)); err != nil {
			return conf, err
		}
	}
	switch {
	case s.OffsetUs != nil && s.AbsoluteUs != nil:
		return conf, fmt.Errorf("conversion time offset and absolute time are exclusive")
	case s.AbsoluteUs != nil:
		conf.ConversionTime = mcp342x.AbsoluteConversionTime(*s.AbsoluteUs)
	case s.OffsetUs != nil:
		conf.ConversionTime = mcp342x.ConversionTimeOffset(*s.OffsetUs)
	}
	return conf, nil
}

func conversionFromFlags(c *cli.Context) conversion {
	conv := conversion{
		Channel:    c.String("channel"),
		Resolution: c.String("resolution"),
		Gain:       c.String("gain"),
	}
	if c.IsSet("conversion-time") {
		us := uint32(c.Uint("conversion-time"))
		conv.AbsoluteUs = &us
	}
	if c.IsSet("offset") {
		us := int32(c.Int("offset"))
		conv.OffsetUs = &us
	}
	return conv
}

func configurationFromFlags(c *cli.Context) (mcp342x.Configuration, error) {
	return conversionFromFlags(c).configuration()
}
