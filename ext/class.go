package ext

import (
	"fmt"

	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/value"
)

// RefKind is what a ClassRef names.
type RefKind uint8

// RefKinds.
const (
	RefClass RefKind = iota
	RefModule
	// RefClassOrModule is the form written by old versions of Ruby, which did not say which one it was.
	RefClassOrModule
)

var refTags = [...]byte{
	RefClass:         TagClass,
	RefModule:        TagModule,
	RefClassOrModule: TagClassOld,
}

// ClassRef is a reference to a class or module by its full path, e.g. "Net::HTTP".
type ClassRef struct {
	Ref  RefKind
	Name string
}

// Kind implements value.Value.
func (*ClassRef) Kind() value.Kind { return value.KindExtension }

// Equal implements value.Equaler.
func (c *ClassRef) Equal(other value.Value, _ func(a, b value.Value) bool) bool {
	p, ok := other.(*ClassRef)
	return ok && *c == *p
}

func (c *ClassRef) String() string {
	return c.Name
}

// ClassRefs reads and writes ClassRef values.
var ClassRefs enc.Extension = classRefExt{}

type classRefExt struct{}

func (classRefExt) Tags() []byte { return []byte{TagClass, TagModule, TagClassOld} }

func (classRefExt) Handles(v value.Value) bool {
	_, ok := v.(*ClassRef)
	return ok
}

func (classRefExt) Encode(w *enc.Writer, v value.Value) error {
	c := v.(*ClassRef)
	if int(c.Ref) >= len(refTags) {
		return encio.NewUnsupportedValueError(c, nil, fmt.Sprintf("invalid reference kind %d", c.Ref))
	}

	w.Register(c)
	w.WriteByte(refTags[c.Ref])
	return w.WriteString(c.Name)
}

func (classRefExt) Decode(r *enc.Reader, tag byte) (value.Value, error) {
	name, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}

	c := &ClassRef{Name: string(name)}
	switch tag {
	case TagModule:
		c.Ref = RefModule
	case TagClassOld:
		c.Ref = RefClassOrModule
	}
	return r.Construct(value.Symbol(name), c, r.Register(c))
}

// Extended is a value whose singleton class includes Module.
// Objects extended by several modules nest, outermost module first.
type Extended struct {
	Module value.Symbol
	Value  value.Value
}

// Kind implements value.Value.
func (*Extended) Kind() value.Kind { return value.KindExtension }

// Equal implements value.Equaler.
func (e *Extended) Equal(other value.Value, eq func(a, b value.Value) bool) bool {
	p, ok := other.(*Extended)
	return ok && e.Module == p.Module && eq(e.Value, p.Value)
}

func (e *Extended) String() string {
	return fmt.Sprintf("%v.extend(%s)", e.Value, string(e.Module))
}

// Extendeds reads and writes Extended values.
// Like value.UserClass, an Extended shares the link index of the value it wraps.
var Extendeds enc.Extension = extendedExt{}

type extendedExt struct{}

func (extendedExt) Tags() []byte { return []byte{TagExtended} }

func (extendedExt) Handles(v value.Value) bool {
	_, ok := v.(*Extended)
	return ok
}

func (extendedExt) Encode(w *enc.Writer, v value.Value) error {
	e := v.(*Extended)
	w.WriteByte(TagExtended)
	if err := w.WriteSymbol(e.Module); err != nil {
		return err
	}
	return w.WriteWrapped(e, e.Value)
}

func (extendedExt) Decode(r *enc.Reader, tag byte) (value.Value, error) {
	module, err := r.ReadSymbol()
	if err != nil {
		return nil, err
	}

	e := &Extended{Module: module}
	var i int
	if e.Value, i, err = r.ReadWrapped(e); err != nil {
		return nil, err
	}
	return r.Construct(module, e, i)
}
