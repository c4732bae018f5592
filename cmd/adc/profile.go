package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/adc/mcp342x"
)

// Profile lists the conversions of one multi-shot cycle, in order.
type Profile struct {
	Conversions []conversion `yaml:"conversions"`
}

func LoadProfile(path string) ([]mcp342x.Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open profile: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseProfile(f)
}

func ParseProfile(r io.Reader) ([]mcp342x.Configuration, error) {
	var p Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("could not decode profile: %w", err)
	}
	if len(p.Conversions) == 0 {
		return nil, mcp342x.ErrNoConfigurations
	}
	confs := make([]mcp342x.Configuration, 0, len(p.Conversions))
	for i, conv := range p.Conversions {
		conf, err := conv.configuration()
		if err != nil {
			return nil, fmt.Errorf("conversion %d: %w", i, err)
		}
		confs = append(confs, conf)
	}
	return confs, nil
}
