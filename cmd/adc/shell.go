package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adc"
	"github.com/mklimuk/adc/cmd/adc/console"
	"github.com/mklimuk/adc/mcp342x"
)

var errQuit = errors.New("quit")

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive one-shot measurements",
	Flags: configurationFlags,
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

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "adc> ",
			AutoComplete:    shellCompleter,
			InterruptPrompt: "^C",
			EOFPrompt:       "quit",
		})
		if err != nil {
			return console.Exit(1, "could not start shell: %s", console.Red(err))
		}
		defer func() { _ = rl.Close() }()

		session := newShellSession(bus, conf, addr)
		console.Infof("type %s for available commands", console.Bold("help"))
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			out, err := session.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				console.Errorf("%s", err)
				continue
			}
			if out != "" {
				console.Printf("%s\n", out)
			}
		}
	},
}

var shellCompleter = readline.NewPrefixCompleter(
	readline.PcItem("read"),
	readline.PcItem("set",
		readline.PcItem("channel"),
		readline.PcItem("resolution"),
		readline.PcItem("gain"),
		readline.PcItem("offset"),
		readline.PcItem("time"),
	),
	readline.PcItem("config"),
	readline.PcItem("help"),
	readline.PcItem("quit"),
)

const shellHelp = `read [n]                 trigger n one-shot conversions (default 1)
set channel <1-4>        select the input
set resolution <bits>    12, 14, 16 or 18
set gain <x>             1, 2, 4 or 8
set offset <us>          add to the nominal conversion time
set time <us>            wait exactly this long per conversion
config                   show the current configuration
quit                     leave the shell`

type shellSession struct {
	conf mcp342x.Configuration
	dev  *mcp342x.OneShot
}

func newShellSession(bus adc.I2CBus, conf mcp342x.Configuration, addr byte, opts ...mcp342x.Option) *shellSession {
	opts = append([]mcp342x.Option{mcp342x.WithAddress(addr)}, opts...)
	return &shellSession{
		conf: conf,
		dev:  mcp342x.NewOneShot(bus, conf, opts...),
	}
}

func (s *shellSession) exec(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	switch fields[0] {
	case "read":
		n := 1
		if len(fields) > 1 {
			var err error
			n, err = strconv.Atoi(fields[1])
			if err != nil || n < 1 {
				return "", fmt.Errorf("invalid count %q", fields[1])
			}
		}
		return s.read(ctx, n)
	case "set":
		if len(fields) != 3 {
			return "", fmt.Errorf("usage: set <setting> <value>")
		}
		if err := s.set(fields[1], fields[2]); err != nil {
			return "", err
		}
		return s.conf.String(), nil
	case "config":
		return s.conf.String(), nil
	case "help":
		return shellHelp, nil
	case "quit", "exit":
		return "", errQuit
	default:
		return "", fmt.Errorf("unknown command %q", fields[0])
	}
}

func (s *shellSession) read(ctx context.Context, n int) (string, error) {
	lines := make([]string, 0, n)
	for range n {
		mv, err := s.dev.Measure(ctx)
		if err != nil {
			return strings.Join(lines, "\n"), err
		}
		lines = append(lines, fmt.Sprintf("%s %s", s.conf.Channel, mcp342x.Potential(mv)))
	}
	return strings.Join(lines, "\n"), nil
}

func (s *shellSession) set(setting, value string) error {
	conf := s.conf
	switch setting {
	case "channel":
		if err := conf.Channel.UnmarshalText([]byte(value)); err != nil {
			return err
		}
	case "resolution":
		if err := conf.Resolution.UnmarshalText([]byte(value)); err != nil {
			return err
		}
	case "gain":
		if err := conf.Gain.UnmarshalText([]byte(value)); err != nil {
			return err
		}
	case "offset":
		us, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid offset %q", value)
		}
		conf.ConversionTime = mcp342x.ConversionTimeOffset(int32(us))
	case "time":
		us, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid conversion time %q", value)
		}
		conf.ConversionTime = mcp342x.AbsoluteConversionTime(uint32(us))
	default:
		return fmt.Errorf("unknown setting %q", setting)
	}
	s.conf = conf
	s.dev.Configure(conf)
	return nil
}
