package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adc/cmd/adc/console"
	"github.com/mklimuk/adc/mcp342x"
)

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "let the converter sample continuously and poll the latest value",
	Flags: append([]cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "number of polls; 0 polls until interrupted",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "pause between polls; defaults to the conversion time",
		},
	}, configurationFlags...),
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		conf, err := configurationFromFlags(c)
		if err != nil {
			return console.Exit(1, "invalid configuration: %s", console.Red(err))
		}
		addr, err := address(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		interval := c.Duration("interval")
		if !c.IsSet("interval") {
			interval = time.Duration(conf.ConversionTimeUs()) * time.Microsecond
		}
		bus, closeBus, err := openBus(ctx, c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer closeBus()

		dev := mcp342x.NewContinuous(bus, conf, mcp342x.WithAddress(addr))
		stream, err := dev.MeasureStream(ctx)
		if err != nil {
			return console.Exit(1, "could not start conversions: %s", console.Red(err))
		}
		console.Infof("sampling %s at %s with gain %s", conf.Channel, conf.Resolution, conf.Gain)
		failed := drain(ctx, stream, c.Int("count"), interval, func(mv float32) {
			printSample(conf.Channel, mv)
		})
		if failed > 0 {
			return console.Exit(1, "%d reads failed", failed)
		}
		return nil
	},
}
