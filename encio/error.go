package encio

import (
	"errors"
	"fmt"
)

// Error handling in rmarshal separates three kinds of failure, each with its own type:
//
// FormatError is returned when read data cannot be decoded; a bad tag, a truncated buffer, an index that points nowhere.
// UnknownTypeError is returned when a class name read from the stream has no constructor.
// UnsupportedValueError is returned when a value handed to an encoder has no mapping onto the format.
//
// IOError wraps failures of the underlying io.Reader or io.Writer.
// Sentinel errors give the finer reason, and can be checked with errors.Is through any of the wrappers:
//
//	var formatErr *encio.FormatError
//	if errors.As(err, &formatErr) {
//		// bad data at formatErr.Offset
//	} else if errors.Is(err, encio.ErrDepthLimit) {
//		// too deep
//	}
var (
	// ErrMalformed is returned when the read data is impossible to decode.
	ErrMalformed = errors.New("malformed")

	// ErrVersion is returned when a stream carries a format version other than 4.8.
	ErrVersion = errors.New("incompatible marshal version")

	// ErrDepthLimit is returned when a value nests deeper than the configured limit.
	ErrDepthLimit = errors.New("depth limit exceeded")

	// ErrUnsupported is returned when a value has no representation in the format.
	ErrUnsupported = errors.New("unsupported value")
)

// FormatError is returned when read data is malformed.
type FormatError struct {
	// Offset is the stream position of the offending byte.
	Offset  int64
	Message string
	Err     error
}

// NewFormatError returns a FormatError at offset wrapping err.
// A nil err is replaced with ErrMalformed.
func NewFormatError(offset int64, err error, format string, args ...interface{}) error {
	if err == nil {
		err = ErrMalformed
	}
	return &FormatError{
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Error implements error
func (e *FormatError) Error() string {
	str := fmt.Sprintf("marshal: offset %d: %v", e.Offset, e.Err)
	if e.Message != "" {
		str += " (" + e.Message + ")"
	}
	return str
}

// Unwrap implements errors's Unwrap()
func (e *FormatError) Unwrap() error {
	return e.Err
}

// UnknownTypeError is returned when a class name cannot be resolved.
type UnknownTypeError struct {
	Class string
}

// Error implements error
func (e *UnknownTypeError) Error() string {
	return "marshal: undefined class/module " + e.Class
}

// UnsupportedValueError is returned when a value cannot be encoded.
type UnsupportedValueError struct {
	// Type describes the offending value, usually its Go type.
	Type    string
	Message string
	Err     error
}

// NewUnsupportedValueError returns an UnsupportedValueError for v.
// A nil err is replaced with ErrUnsupported.
func NewUnsupportedValueError(v interface{}, err error, message string) error {
	if err == nil {
		err = ErrUnsupported
	}
	return &UnsupportedValueError{
		Type:    fmt.Sprintf("%T", v),
		Message: message,
		Err:     err,
	}
}

// Error implements error
func (e *UnsupportedValueError) Error() string {
	str := "marshal: " + e.Err.Error() + " " + e.Type
	if e.Message != "" {
		str += " (" + e.Message + ")"
	}
	return str
}

// Unwrap implements errors's Unwrap()
func (e *UnsupportedValueError) Unwrap() error {
	return e.Err
}

// NewIOError returns an IOError wrapping err with the given message.
// err is typically the error returned from the io.Reader/io.Writer.
func NewIOError(err error, message string) error {
	if err == nil {
		err = errors.New("unknown error")
	}

	return IOError{
		Err:     err,
		Message: message,
	}
}

// IOError is returned when the underlying reader or writer fails.
type IOError struct {
	Err     error
	Message string
}

// Error implements error
func (e IOError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap implements errors's Unwrap()
func (e IOError) Unwrap() error {
	return e.Err
}
