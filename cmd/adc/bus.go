package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/adc"
	"github.com/mklimuk/adc/adapter"
	"github.com/mklimuk/adc/cmd/adc/console"
	"github.com/mklimuk/adc/i2c"
	"github.com/mklimuk/adc/mcp342x"
)

const (
	adapterMCP2221 = "mcp2221"
	adapterGeneric = "generic"
	adapterNanoPi  = "nanopi"
	adapterMock    = "mock"
)

// openBus opens the transport selected by the global flags. The returned
// function releases it and never fails the command.
func openBus(ctx context.Context, c *cli.Context) (adc.I2CBus, func(), error) {
	speed := physic.Frequency(c.Int("speed")) * physic.Hertz
	switch c.String("adapter") {
	case adapterMCP2221:
		mcp2221 := adapter.NewMCP2221()
		if err := mcp2221.Init(); err != nil {
			return nil, nil, err
		}
		if speed > 0 {
			if err := mcp2221.SetSpeed(ctx, speed); err != nil {
				return nil, nil, err
			}
		}
		return mcp2221, func() {}, nil
	case adapterGeneric:
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if err := bus.Close(); err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
		}
		if speed > 0 {
			if err := bus.SetSpeed(speed); err != nil {
				closer()
				return nil, nil, err
			}
		}
		return bus, closer, nil
	case adapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := i2c.NewGobotBus(npi, c.Int("bus"))
		closer := func() {
			if err := bus.Release(ctx); err != nil {
				console.Errorf("error releasing bus: %s", console.Red(err))
			}
			if err := npi.I2cBusAdaptor.Finalize(); err != nil {
				console.Errorf("error finalizing adaptor: %s", console.Red(err))
			}
		}
		return bus, closer, nil
	case adapterMock:
		addr, err := address(c)
		if err != nil {
			return nil, nil, err
		}
		return mcp342x.NewMockDevice(addr, sineInput(time.Now())), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
	}
}

func address(c *cli.Context) (byte, error) {
	addr := c.Int("addr")
	if addr < 0 || addr > 0x7F {
		return 0, fmt.Errorf("invalid i2c address %#x", addr)
	}
	return byte(addr), nil
}

// sineInput feeds channel n with a 10 s sine of n*250 mV amplitude.
func sineInput(start time.Time) mcp342x.InputFunc {
	return func(ctx context.Context, ch mcp342x.Channel) (float32, error) {
		phase := 2 * math.Pi * time.Since(start).Seconds() / 10
		return float32(float64(ch+1) * 250 * math.Sin(phase)), nil
	}
}
