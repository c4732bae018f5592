package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adc/adcctx"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp()
	app.Name = "adc"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "MCP3422/3/4 analog to digital converter cli"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "enable verbose logging and raw transport dumps",
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   adapterMCP2221,
			Usage:   "i2c adapter: mcp2221, generic, nanopi or mock",
		},
		&cli.StringFlag{
			Name:    "device",
			Aliases: []string{"d"},
			Value:   "/dev/i2c-1",
			Usage:   "i2c device used by the generic adapter",
		},
		&cli.IntFlag{
			Name:  "bus",
			Value: -1,
			Usage: "i2c bus number used by the nanopi adapter; negative selects the board default",
		},
		&cli.IntFlag{
			Name:  "usb-index",
			Value: -1,
			Usage: "index of the mcp2221 to use when several are attached",
		},
		&cli.IntFlag{
			Name:  "addr",
			Value: 0x68,
			Usage: "7-bit i2c address of the converter",
		},
		&cli.IntFlag{
			Name:  "speed",
			Usage: "i2c clock in Hz; 0 keeps the adapter default",
		},
	}
	app.Before = func(c *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stdout, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if c.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&readCmd,
		&watchCmd,
		&scanCmd,
		&shellCmd,
		&mcp2221Cmd,
		&usbCmd,
	}
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}

// commandContext carries the global transport flags down to the adapters.
func commandContext(c *cli.Context) context.Context {
	ctx := adcctx.SetVerbose(c.Context, c.Bool("verbose"))
	if idx := c.Int("usb-index"); idx >= 0 {
		ctx = adcctx.SetDeviceIndex(ctx, idx)
	}
	return ctx
}
