package main

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adc"
	"github.com/mklimuk/adc/cmd/adc/console"
	"github.com/mklimuk/adc/mcp342x"
)

var readCmd = cli.Command{
	Name:  "read",
	Usage: "trigger one-shot conversions",
	Flags: append([]cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Value:   1,
			Usage:   "number of conversions; 0 reads until interrupted",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "pause between conversions",
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
		bus, closeBus, err := openBus(ctx, c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		defer closeBus()

		dev := mcp342x.NewOneShot(bus, conf, mcp342x.WithAddress(addr))
		failed := drain(ctx, dev.MeasureStream(ctx), c.Int("count"), c.Duration("interval"), func(mv float32) {
			printSample(conf.Channel, mv)
		})
		if failed > 0 {
			return console.Exit(1, "%d conversions failed", failed)
		}
		return nil
	},
}

// drain consumes up to count items of seq, 0 meaning until ctx ends, and
// reports failures on the console. It returns the number of failed items.
func drain[T any](ctx context.Context, seq iter.Seq2[T, error], count int, interval time.Duration, print func(T)) int {
	var n, failed int
	for v, err := range seq {
		n++
		switch {
		case errors.Is(err, context.Canceled):
			return failed
		case errors.Is(err, mcp342x.ErrNotReady):
			console.Warnf("%s", err)
		case err != nil:
			failed++
			console.Errorf("%s", err)
		default:
			print(v)
		}
		if count > 0 && n >= count {
			break
		}
		if interval > 0 {
			if err := (adc.SleepDelayer{}).DelayUs(ctx, uint32(interval.Microseconds())); err != nil {
				break
			}
		}
	}
	return failed
}

func printSample(ch mcp342x.Channel, mv float32) {
	console.PInfof(console.PictoVoltage, "%s %s", console.Cyan(ch), console.White(mcp342x.Potential(mv)))
}
