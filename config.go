package rmarshal

import (
	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/ext"
	"github.com/stewi1014/rmarshal/types"
)

// Config defines configuration for Encoders, Decoders and the package-level functions.
// The zero value, and a nil *Config, are the defaults.
type Config struct {
	// Registry converts between Go values and value trees, and resolves class names read from streams.
	// If nil, DefaultRegistry is used.
	Registry *types.Registry

	// Extensions handle tags the core codec does not. If nil, every extension in package ext is used;
	// use an empty, non-nil slice for none.
	Extensions []enc.Extension

	// DepthLimit bounds the nesting of encoded and decoded values. 0 uses enc.DefaultDepthLimit,
	// and a negative limit disables the check.
	DepthLimit int
}

func (c *Config) copyAndFill() *Config {
	config := new(Config)
	if c != nil {
		*config = *c
	}

	if config.Registry == nil {
		config.Registry = DefaultRegistry
	}
	if config.Extensions == nil {
		config.Extensions = ext.All()
	}

	return config
}

func (c *Config) encConfig() *enc.Config {
	return &enc.Config{
		Adapter:    c.Registry,
		Extensions: c.Extensions,
		DepthLimit: c.DepthLimit,
	}
}
