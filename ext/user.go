package ext

import (
	"bytes"
	"fmt"

	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/value"
)

// UserDefined is an object of a class that writes itself as an opaque string (Ruby's _dump and _load).
type UserDefined struct {
	Class value.Symbol
	Data  []byte
}

// Kind implements value.Value.
func (*UserDefined) Kind() value.Kind { return value.KindExtension }

// Equal implements value.Equaler.
func (u *UserDefined) Equal(other value.Value, _ func(a, b value.Value) bool) bool {
	p, ok := other.(*UserDefined)
	return ok && u.Class == p.Class && bytes.Equal(u.Data, p.Data)
}

func (u *UserDefined) String() string {
	return fmt.Sprintf("#<%s _dump %q>", string(u.Class), u.Data)
}

// UserDefineds reads and writes UserDefined values.
var UserDefineds enc.Extension = userDefinedExt{}

type userDefinedExt struct{}

func (userDefinedExt) Tags() []byte { return []byte{TagUserDefined} }

func (userDefinedExt) Handles(v value.Value) bool {
	_, ok := v.(*UserDefined)
	return ok
}

func (userDefinedExt) Encode(w *enc.Writer, v value.Value) error {
	u := v.(*UserDefined)
	w.Register(u)
	w.WriteByte(TagUserDefined)
	if err := w.WriteSymbol(u.Class); err != nil {
		return err
	}
	return w.WriteBytes(u.Data)
}

func (userDefinedExt) Decode(r *enc.Reader, tag byte) (value.Value, error) {
	class, err := r.ReadSymbol()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}

	u := &UserDefined{Class: class, Data: data}
	return r.Construct(class, u, r.Register(u))
}

// UserMarshal is an object of a class that writes itself as another value (Ruby's marshal_dump and marshal_load).
type UserMarshal struct {
	Class value.Symbol
	Data  value.Value
}

// Kind implements value.Value.
func (*UserMarshal) Kind() value.Kind { return value.KindExtension }

// Equal implements value.Equaler.
func (u *UserMarshal) Equal(other value.Value, eq func(a, b value.Value) bool) bool {
	p, ok := other.(*UserMarshal)
	return ok && u.Class == p.Class && eq(u.Data, p.Data)
}

func (u *UserMarshal) String() string {
	return fmt.Sprintf("#<%s marshal_dump %v>", string(u.Class), u.Data)
}

// UserMarshals reads and writes UserMarshal values.
var UserMarshals enc.Extension = userMarshalExt{}

type userMarshalExt struct{}

func (userMarshalExt) Tags() []byte { return []byte{TagUserMarshal} }

func (userMarshalExt) Handles(v value.Value) bool {
	_, ok := v.(*UserMarshal)
	return ok
}

func (userMarshalExt) Encode(w *enc.Writer, v value.Value) error {
	u := v.(*UserMarshal)
	w.Register(u)
	w.WriteByte(TagUserMarshal)
	if err := w.WriteSymbol(u.Class); err != nil {
		return err
	}
	return w.WriteValue(u.Data)
}

func (userMarshalExt) Decode(r *enc.Reader, tag byte) (value.Value, error) {
	class, err := r.ReadSymbol()
	if err != nil {
		return nil, err
	}

	u := &UserMarshal{Class: class}
	i := r.Register(u)
	if u.Data, err = r.ReadValue(); err != nil {
		return nil, err
	}
	return r.Construct(class, u, i)
}
