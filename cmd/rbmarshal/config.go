package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/stewi1014/rmarshal"
	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/types"
	"gopkg.in/yaml.v3"
)

// config is the contents of the -config file.
type config struct {
	Classes    []string `yaml:"classes"`
	Strict     bool     `yaml:"strict"`
	DepthLimit int      `yaml:"depth_limit"`
}

var configKeys = map[string]bool{
	"classes":     true,
	"strict":      true,
	"depth_limit": true,
}

// loadConfig reads the config file. An empty name returns the defaults.
func loadConfig(file string) (*config, error) {
	if file == "" {
		return new(config), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	return cfg, nil
}

// parseConfig decodes a YAML config, warning about keys it does not know.
func parseConfig(data []byte) (*config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}

	cfg := new(config)
	if len(doc.Content) == 0 {
		return cfg, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: config must be a mapping", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if key := root.Content[i]; !configKeys[key.Value] {
			fmt.Fprintf(encio.Warnings, "%s: config line %d: ignoring unknown key %q\n", progName, key.Line, key.Value)
		}
	}
	if err := root.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if cfg.DepthLimit < 0 {
		return nil, errors.Errorf("depth_limit must not be negative, got %d", cfg.DepthLimit)
	}
	return cfg, nil
}

// marshalConfig returns the codec settings c describes.
// Classes are registered by name only; values keep their decoded form.
func (c *config) marshalConfig() (*rmarshal.Config, error) {
	registry := types.NewRegistry()
	registry.Strict = c.Strict
	for _, name := range c.Classes {
		if err := registry.Register(name, nil); err != nil {
			return nil, errors.Wrapf(err, "class %q", name)
		}
	}
	return &rmarshal.Config{
		Registry:   registry,
		DepthLimit: c.DepthLimit,
	}, nil
}
