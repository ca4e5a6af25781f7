// Package value holds the values the marshal codec reads and writes.
//
// Nil, Bool, Integer and Symbol are plain values. Everything else is handled through a pointer, and the pointer is
// the value's identity; writing the same *Array twice produces one array and one link, while two equal but distinct
// arrays are written out in full.
package value

import (
	"fmt"
	"reflect"
	"strconv"
)

// Kind identifies the variant of a Value.
type Kind uint8

// Kinds of Value.
const (
	KindNil Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindSymbol
	KindString
	KindArray
	KindHash
	KindUserClass
	KindIVars

	// KindExtension is the kind of every value defined outside this package.
	KindExtension
)

var kindNames = [...]string{
	KindNil:       "nil",
	KindBool:      "bool",
	KindInteger:   "integer",
	KindFloat:     "float",
	KindSymbol:    "symbol",
	KindString:    "string",
	KindArray:     "array",
	KindHash:      "hash",
	KindUserClass: "user class",
	KindIVars:     "instance variables",
	KindExtension: "extension",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is implemented by every type the codec can write.
// Values defined outside this package must be comparable with ==, and are normally pointers.
type Value interface {
	Kind() Kind
}

// Nil is Ruby's nil.
type Nil struct{}

// Kind implements Value.
func (Nil) Kind() Kind { return KindNil }

func (Nil) String() string { return "nil" }

// Bool is true or false.
type Bool bool

// Kind implements Value.
func (Bool) Kind() Kind { return KindBool }

// Integer is a machine-width signed integer.
type Integer int64

// Kind implements Value.
func (Integer) Kind() Kind { return KindInteger }

// Symbol is an interned name. Symbols compare by name.
type Symbol string

// Kind implements Value.
func (Symbol) Kind() Kind { return KindSymbol }

func (s Symbol) String() string { return ":" + string(s) }

// Float is a double precision float.
type Float struct {
	V float64
}

// NewFloat returns a new Float.
func NewFloat(f float64) *Float {
	return &Float{V: f}
}

// Kind implements Value.
func (*Float) Kind() Kind { return KindFloat }

func (f *Float) String() string { return strconv.FormatFloat(f.V, 'g', -1, 64) }

// String is a byte string. Its bytes need not be valid UTF-8.
type String struct {
	Bytes []byte
}

// NewString returns a new String holding s.
func NewString(s string) *String {
	return &String{Bytes: []byte(s)}
}

// Kind implements Value.
func (*String) Kind() Kind { return KindString }

func (s *String) String() string { return strconv.Quote(string(s.Bytes)) }

// Array is an ordered sequence of values.
type Array struct {
	Elems []Value
}

// NewArray returns a new Array holding elems.
func NewArray(elems ...Value) *Array {
	return &Array{Elems: elems}
}

// Kind implements Value.
func (*Array) Kind() Kind { return KindArray }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Elems) }

// Append adds elems to the end of the array.
func (a *Array) Append(elems ...Value) {
	a.Elems = append(a.Elems, elems...)
}

// UserClass is an instance of a user-defined subclass of a built-in type;
// Class names the subclass and Payload holds the built-in value it extends.
type UserClass struct {
	Class   Symbol
	Payload Value
}

// Kind implements Value.
func (*UserClass) Kind() Kind { return KindUserClass }

func (u *UserClass) String() string { return fmt.Sprintf("#<%s %v>", string(u.Class), u.Payload) }

// IVar is a single instance variable.
type IVar struct {
	Name  Symbol
	Value Value
}

// IVars attaches instance variables to a value.
type IVars struct {
	Value Value
	Vars  []IVar
}

// Kind implements Value.
func (*IVars) Kind() Kind { return KindIVars }

// Get returns the named variable, or nil if it is not set.
func (iv *IVars) Get(name Symbol) Value {
	for _, v := range iv.Vars {
		if v.Name == name {
			return v.Value
		}
	}
	return nil
}

// Set replaces the named variable, or appends it if it is not set.
func (iv *IVars) Set(name Symbol, v Value) {
	for i := range iv.Vars {
		if iv.Vars[i].Name == name {
			iv.Vars[i].Value = v
			return
		}
	}
	iv.Vars = append(iv.Vars, IVar{Name: name, Value: v})
}

// Unwrap returns the innermost value below any IVars and UserClass wrappers.
func Unwrap(v Value) Value {
	for {
		switch w := v.(type) {
		case *IVars:
			v = w.Value
		case *UserClass:
			v = w.Payload
		default:
			return v
		}
	}
}

// IsNil reports whether v is a nil interface, Nil, or a nil pointer.
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(Nil); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
