package rmarshal

import "github.com/stewi1014/rmarshal/types"

// DefaultRegistry is the Registry used when Config.Registry is nil.
// Structs must be registered with Register() before they are encoded.
var DefaultRegistry = types.NewRegistry()

// Register binds the Ruby class name to the type of sample.
// It is a shortcut for DefaultRegistry.Register()
func Register(name string, sample interface{}) error {
	return DefaultRegistry.Register(name, sample)
}

// RegisterStruct binds the Ruby Struct class name to the struct type of sample.
// It is a shortcut for DefaultRegistry.RegisterStruct()
func RegisterStruct(name string, sample interface{}) error {
	return DefaultRegistry.RegisterStruct(name, sample)
}
