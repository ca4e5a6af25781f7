// Package rmarshal reads and writes Ruby's Marshal format, version 4.8.
//
// Dump and Load convert between bytes and value trees (see package value); Go values are converted to trees by a
// types.Registry, and trees are assigned to Go values by Unmarshal. Encoder and Decoder do the same on streams.
//
// Shared and cyclic references survive a round trip: a pointer, slice or map reached twice is written once and
// linked, and decodes as one value.
//
// rmarshal/enc provides the codec itself, and the extension points for host types and extra tags.
//
// rmarshal/ext provides the tags Ruby uses for objects, structs, regexps and classes with custom dump methods.
//
// rmarshal/encio provides the variable-length integer codec, and io and error types.
package rmarshal

import (
	"bytes"

	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/value"
)

// Dump returns the marshal stream for v, using the default configuration.
// v may be a value.Value, or any Go value DefaultRegistry can classify.
func Dump(v interface{}) ([]byte, error) {
	return DumpWith(v, nil)
}

// DumpWith is like Dump, using config.
func DumpWith(v interface{}, config *Config) ([]byte, error) {
	b, err := enc.NewWriter(config.copyAndFill().encConfig()).Encode(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Load decodes the marshal stream in data, using the default configuration.
// Bytes after the first value are ignored.
func Load(data []byte) (value.Value, error) {
	return LoadWith(data, nil)
}

// LoadWith is like Load, using config.
func LoadWith(data []byte, config *Config) (value.Value, error) {
	return enc.NewReader(bytes.NewReader(data), config.copyAndFill().encConfig()).Decode()
}

// Unmarshal decodes the marshal stream in data and assigns it to the value ptr points to,
// using DefaultRegistry.
func Unmarshal(data []byte, ptr interface{}) error {
	return UnmarshalWith(data, ptr, nil)
}

// UnmarshalWith is like Unmarshal, using config.
func UnmarshalWith(data []byte, ptr interface{}, config *Config) error {
	config = config.copyAndFill()
	v, err := enc.NewReader(bytes.NewReader(data), config.encConfig()).Decode()
	if err != nil {
		return err
	}
	return config.Registry.Assign(v, ptr)
}
