package types

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/ext"
	"github.com/stewi1014/rmarshal/value"
)

// marshalBinary writes rv, whose type is registered as a BinaryMarshaler, in Ruby's _dump format.
func marshalBinary(e *entry, rv reflect.Value) (value.Value, error) {
	var m encoding.BinaryMarshaler
	if rv.Type().Implements(binaryMarshalerType) {
		m = rv.Interface().(encoding.BinaryMarshaler)
	} else {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		m = p.Interface().(encoding.BinaryMarshaler)
	}

	data, err := m.MarshalBinary()
	if err != nil {
		return nil, encio.NewUnsupportedValueError(rv.Interface(), err, "MarshalBinary failed")
	}
	return &ext.UserDefined{Class: e.name, Data: data}, nil
}

// unmarshalBinary fills dst, whose type is registered as a BinaryUnmarshaler, from a _dump payload.
func unmarshalBinary(v value.Value, dst reflect.Value) error {
	u, ok := value.Unwrap(v).(*ext.UserDefined)
	if !ok {
		return mismatch(v, dst.Type())
	}

	if err := dst.Addr().Interface().(encoding.BinaryUnmarshaler).UnmarshalBinary(u.Data); err != nil {
		return encio.NewUnsupportedValueError(v, err, fmt.Sprintf("%v.UnmarshalBinary failed", dst.Type()))
	}
	return nil
}
