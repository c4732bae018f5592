package main

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adc/cmd/adc/console"
	"github.com/mklimuk/adc/mcp342x"
)

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "run a sequence of one-shot conversions per cycle",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "yaml file listing the conversions of a cycle",
		},
		&cli.StringSliceFlag{
			Name:  "channels",
			Value: cli.NewStringSlice("1", "2", "3", "4"),
			Usage: "channels converted per cycle when no profile is given",
		},
		&cli.StringFlag{
			Name:    "resolution",
			Aliases: []string{"r"},
			Value:   "12",
			Usage:   "sample width in bits when no profile is given",
		},
		&cli.StringFlag{
			Name:    "gain",
			Aliases: []string{"g"},
			Value:   "1",
			Usage:   "amplifier gain when no profile is given",
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Value:   1,
			Usage:   "number of cycles; 0 scans until interrupted",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "pause between cycles",
		},
	},
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		confs, err := scanConfigurations(c)
		if err != nil {
			return console.Exit(1, "invalid configuration: %s", console.Red(err))
		}
		addr, err := address(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		bus, closeBus, err := openBus(ctx, c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer closeBus()

		dev, err := mcp342x.NewMultiShot(bus, confs, mcp342x.WithAddress(addr))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		failed := drain(ctx, dev.MeasureStream(ctx), c.Int("count"), c.Duration("interval"), func(values []float32) {
			console.Printf("%s\n", formatCycle(confs, values))
		})
		if failed > 0 {
			return console.Exit(1, "%d cycles failed", failed)
		}
		return nil
	},
}

func scanConfigurations(c *cli.Context) ([]mcp342x.Configuration, error) {
	if path := c.String("profile"); path != "" {
		return LoadProfile(path)
	}
	channels := c.StringSlice("channels")
	confs := make([]mcp342x.Configuration, 0, len(channels))
	for _, ch := range channels {
		conf, err := conversion{
			Channel:    ch,
			Resolution: c.String("resolution"),
			Gain:       c.String("gain"),
		}.configuration()
		if err != nil {
			return nil, err
		}
		confs = append(confs, conf)
	}
	return confs, nil
}

func formatCycle(confs []mcp342x.Configuration, values []float32) string {
	parts := make([]string, len(values))
	for i, mv := range values {
		parts[i] = confs[i].Channel.String() + "=" + mcp342x.Potential(mv).String()
	}
	return console.PictoVoltage + " " + strings.Join(parts, " ")
}
