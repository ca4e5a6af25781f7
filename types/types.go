// Package types maps Go types to marshal values and back.
//
// A Registry binds Ruby class names to Go types. It implements enc.Adapter, so it can classify Go values for
// encoding and check class names while decoding. Decoded value trees are then assigned to Go values with Assign.
//
// Go values map to marshal values as follows:
//
//	bool                     true, false
//	ints, uints              Integer
//	floats                   Float
//	string                   String, flagged as UTF-8
//	[]byte                   String without an encoding
//	slices, arrays           Array
//	maps                     Hash, with keys in sorted order
//	registered structs       Object, with fields as instance variables, or Struct with RegisterStruct
//	registered named types   the underlying string, slice, array or map, wrapped in the registered class
//	BinaryMarshalers         UserDefined (Ruby's _dump), when registered
//	nil pointers, slices, maps and interfaces: nil
//
// Pointers keep their identity within one call; a pointer reached twice is written once, and a value linked twice
// is assigned as one pointer.
package types

import (
	"encoding"
	"errors"
	"reflect"

	"github.com/stewi1014/rmarshal/value"
)

var (
	valueType = reflect.TypeOf(new(value.Value)).Elem()

	binaryMarshalerType   = reflect.TypeOf(new(encoding.BinaryMarshaler)).Elem()
	binaryUnmarshalerType = reflect.TypeOf(new(encoding.BinaryUnmarshaler)).Elem()
)

var (
	// ErrAlreadyRegistered is returned if a class name is already bound to another type.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrNotRegistered is wrapped by errors for structs whose type has no class name.
	ErrNotRegistered = errors.New("not registered")

	// ErrImmediate is returned when registering a named bool, integer or float type.
	// Ruby has no subclasses of immediates, so those types cannot carry a class name.
	ErrImmediate = errors.New("immediate types cannot be registered")

	// ErrMismatch is wrapped by Assign errors for values that do not fit the destination type.
	ErrMismatch = errors.New("value does not fit type")
)

// form is how a registered type is written.
type form uint8

const (
	// formClass wraps the underlying kind in a user class; structs become objects.
	formClass form = iota
	formStruct
	formUserDefined
)

// classDepthLimit bounds classification of self-referential values that identity does not catch,
// such as an interface holding a pointer to itself.
const classDepthLimit = 2048
