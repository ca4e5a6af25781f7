package ext

import (
	"fmt"

	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/value"
)

// Object is an instance of a plain class, holding only instance variables.
type Object struct {
	Class value.Symbol
	Vars  []value.IVar
}

// NewObject returns an Object of class with no instance variables.
func NewObject(class value.Symbol) *Object {
	return &Object{Class: class}
}

// Kind implements value.Value.
func (*Object) Kind() value.Kind { return value.KindExtension }

// Get returns the instance variable name, or Nil if it is not set. Names include the leading '@'.
func (o *Object) Get(name value.Symbol) value.Value { return getVar(o.Vars, name) }

// Set sets the instance variable name.
func (o *Object) Set(name value.Symbol, v value.Value) { o.Vars = setVar(o.Vars, name, v) }

// Equal implements value.Equaler.
func (o *Object) Equal(other value.Value, eq func(a, b value.Value) bool) bool {
	p, ok := other.(*Object)
	return ok && o.Class == p.Class && equalVars(o.Vars, p.Vars, eq)
}

func (o *Object) String() string {
	return fmt.Sprintf("#<%s %d ivars>", string(o.Class), len(o.Vars))
}

// Objects reads and writes Object values.
var Objects enc.Extension = objectExt{}

type objectExt struct{}

func (objectExt) Tags() []byte { return []byte{TagObject} }

func (objectExt) Handles(v value.Value) bool {
	_, ok := v.(*Object)
	return ok
}

func (objectExt) Encode(w *enc.Writer, v value.Value) error {
	o := v.(*Object)
	w.Register(o)
	w.WriteByte(TagObject)
	if err := w.WriteSymbol(o.Class); err != nil {
		return err
	}
	return w.WriteIVars(o.Vars, o)
}

func (objectExt) Decode(r *enc.Reader, tag byte) (value.Value, error) {
	class, err := r.ReadSymbol()
	if err != nil {
		return nil, err
	}

	o := NewObject(class)
	i := r.Register(o)
	if o.Vars, err = r.ReadIVars(); err != nil {
		return nil, err
	}
	return r.Construct(class, o, i)
}

// Struct is an instance of a Ruby Struct class; its members in declaration order.
// Member names have no leading '@'.
type Struct struct {
	Class   value.Symbol
	Members []value.IVar
}

// Kind implements value.Value.
func (*Struct) Kind() value.Kind { return value.KindExtension }

// Get returns the member name, or Nil if there is no such member.
func (s *Struct) Get(name value.Symbol) value.Value { return getVar(s.Members, name) }

// Set sets the member name, appending it if it is not yet a member.
func (s *Struct) Set(name value.Symbol, v value.Value) { s.Members = setVar(s.Members, name, v) }

// Equal implements value.Equaler.
func (s *Struct) Equal(other value.Value, eq func(a, b value.Value) bool) bool {
	p, ok := other.(*Struct)
	return ok && s.Class == p.Class && equalVars(s.Members, p.Members, eq)
}

func (s *Struct) String() string {
	return fmt.Sprintf("#<struct %s %d members>", string(s.Class), len(s.Members))
}

// Structs reads and writes Struct values.
var Structs enc.Extension = structExt{}

type structExt struct{}

func (structExt) Tags() []byte { return []byte{TagStruct} }

func (structExt) Handles(v value.Value) bool {
	_, ok := v.(*Struct)
	return ok
}

func (structExt) Encode(w *enc.Writer, v value.Value) error {
	s := v.(*Struct)
	w.Register(s)
	w.WriteByte(TagStruct)
	if err := w.WriteSymbol(s.Class); err != nil {
		return err
	}
	return w.WriteIVars(s.Members, s)
}

func (structExt) Decode(r *enc.Reader, tag byte) (value.Value, error) {
	class, err := r.ReadSymbol()
	if err != nil {
		return nil, err
	}

	s := &Struct{Class: class}
	i := r.Register(s)
	if s.Members, err = r.ReadIVars(); err != nil {
		return nil, err
	}

	for j, m := range s.Members {
		for _, n := range s.Members[:j] {
			if n.Name == m.Name {
				return nil, r.Errorf("struct %s has member %s twice", string(class), m.Name)
			}
		}
	}
	return r.Construct(class, s, i)
}
