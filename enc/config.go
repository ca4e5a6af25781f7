package enc

import (
	"fmt"

	"github.com/stewi1014/rmarshal/value"
)

// DefaultDepthLimit is the nesting depth used when Config.DepthLimit is zero.
const DefaultDepthLimit = 2048

// Config contains settings for Writers and Readers.
type Config struct {
	// Adapter maps host objects to values and resolves class names.
	// If nil, Generic is used.
	Adapter Adapter

	// Extensions handle tags beyond the core vocabulary.
	Extensions []Extension

	// DepthLimit bounds how deeply values may nest.
	// Zero means DefaultDepthLimit, and a negative limit disables the check.
	DepthLimit int
}

// extensions indexes a Config's Extensions by tag.
type extensions struct {
	list  []Extension
	byTag map[byte]Extension
}

// copyAndFill returns a copy of c with defaults filled in, and its extensions indexed.
// It panics if two extensions claim the same tag, or an extension claims a core tag.
func (c *Config) copyAndFill() (*Config, *extensions) {
	config := new(Config)
	if c != nil {
		*config = *c
	}

	if config.Adapter == nil {
		config.Adapter = Generic
	}
	if config.DepthLimit == 0 {
		config.DepthLimit = DefaultDepthLimit
	}

	exts := &extensions{
		list:  config.Extensions,
		byTag: make(map[byte]Extension),
	}
	for _, ext := range config.Extensions {
		for _, tag := range ext.Tags() {
			for _, core := range coreTags {
				if tag == core {
					panic(fmt.Sprintf("enc: extension %T claims core tag %q", ext, tag))
				}
			}
			if other, ok := exts.byTag[tag]; ok {
				panic(fmt.Sprintf("enc: extensions %T and %T both claim tag %q", other, ext, tag))
			}
			exts.byTag[tag] = ext
		}
	}

	return config, exts
}

func (e *extensions) forValue(v value.Value) Extension {
	for _, ext := range e.list {
		if ext.Handles(v) {
			return ext
		}
	}
	return nil
}
