package enc

import (
	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/value"
)

// Adapter connects the codec to the host's object model.
type Adapter interface {
	// Classify maps a host object that is not already a value.Value onto one.
	// It returns an *encio.UnsupportedValueError if v has no mapping.
	Classify(v interface{}) (value.Value, error)

	// Construct resolves a class name read from the stream.
	// v is the value carrying the class (a *value.UserClass, or an extension's value), already populated.
	// Construct returns the value to use in its place; usually v itself.
	// It returns an *encio.UnknownTypeError if the class cannot be resolved.
	Construct(class value.Symbol, v value.Value) (value.Value, error)
}

// Generic is the Adapter used when none is configured.
// It knows no host objects, and accepts every class name.
var Generic Adapter = generic{}

type generic struct{}

func (generic) Classify(v interface{}) (value.Value, error) {
	return nil, encio.NewUnsupportedValueError(v, nil, "not a value.Value, and no adapter is configured")
}

func (generic) Construct(_ value.Symbol, v value.Value) (value.Value, error) {
	return v, nil
}

// Extension reads and writes values behind tags the core does not know.
//
// Encode is called for values Handles accepts, after the link table has been checked.
// It must write the tag itself, and must call Writer.Register (or Writer.WriteWrapped for values wrapping
// another value) before writing any member values, so link indices match what readers assign.
//
// Decode is called with the tag already consumed. It must call Reader.Register as soon as the value exists,
// before reading member values, so members can refer back to it.
type Extension interface {
	// Tags returns the tag bytes Decode reads.
	Tags() []byte

	// Handles reports whether Encode writes v.
	Handles(v value.Value) bool

	Encode(w *Writer, v value.Value) error
	Decode(r *Reader, tag byte) (value.Value, error)
}
