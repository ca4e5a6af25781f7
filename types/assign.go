package types

import (
	"fmt"
	"reflect"

	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/ext"
	"github.com/stewi1014/rmarshal/value"
)

var emptyInterfaceType = reflect.TypeOf(new(interface{})).Elem()

// Assign fills the Go value ptr points to from the value tree v.
//
// Values linked more than once are assigned as one pointer, slice or map, so cyclic trees make cyclic Go values.
// Destinations of type interface{} receive bool, int64, float64, string, []interface{} and
// map[interface{}]interface{}, or a pointer to the registered struct for objects of a registered class.
// Values with no Go equivalent, such as objects of unregistered classes, are stored as they are.
// Destinations of type value.Value, or any type the value already has, are set without conversion.
func (r *Registry) Assign(v value.Value, ptr interface{}) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("types: Assign needs a non-nil pointer, not %T", ptr)
	}

	a := assigner{
		Registry: r,
		seen:     make(map[value.Value]reflect.Value),
	}
	return a.assign(v, rv.Elem())
}

type assigner struct {
	*Registry
	seen  map[value.Value]reflect.Value
	depth int
}

func mismatch(v value.Value, ty reflect.Type) error {
	return encio.NewUnsupportedValueError(v, ErrMismatch, fmt.Sprintf("cannot assign %v to %v", describe(v), ty))
}

func describe(v value.Value) string {
	if v == nil {
		return "nil"
	}
	if class, ok := classOf(v); ok {
		return fmt.Sprintf("%v of class %v", v.Kind(), string(class))
	}
	return v.Kind().String()
}

// hasIdentity reports whether v can be linked.
func hasIdentity(v value.Value) bool {
	switch v.(type) {
	case nil, value.Nil, value.Bool, value.Integer, value.Symbol:
		return false
	}
	return true
}

// classOf returns the class name carried by v.
func classOf(v value.Value) (value.Symbol, bool) {
	switch x := v.(type) {
	case *value.IVars:
		return classOf(x.Value)
	case *value.UserClass:
		return x.Class, true
	case *ext.Object:
		return x.Class, true
	case *ext.Struct:
		return x.Class, true
	case *ext.UserDefined:
		return x.Class, true
	case *ext.UserMarshal:
		return x.Class, true
	}
	return "", false
}

func (a *assigner) assign(v value.Value, dst reflect.Value) error {
	ty := dst.Type()
	if ty == valueType {
		if v == nil {
			dst.Set(reflect.Zero(ty))
		} else {
			dst.Set(reflect.ValueOf(v))
		}
		return nil
	}

	if a.depth >= classDepthLimit {
		return encio.NewUnsupportedValueError(v, encio.ErrDepthLimit, fmt.Sprintf("nests deeper than %d", classDepthLimit))
	}
	a.depth++
	defer func() { a.depth-- }()

	if e, ok := a.entryOf(ty); ok && e.form == formUserDefined {
		return unmarshalBinary(v, dst)
	}

	switch dst.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map:
		if value.IsNil(v) {
			dst.Set(reflect.Zero(ty))
			return nil
		}
		if prev, ok := a.seen[v]; ok && prev.Type() == ty {
			dst.Set(prev)
			return nil
		}
	}

	if dst.Kind() == reflect.Interface && ty.NumMethod() == 0 {
		nv, err := a.natural(v)
		if err != nil {
			return err
		}
		if !nv.IsValid() {
			nv = reflect.Zero(ty)
		}
		dst.Set(nv)
		return nil
	}
	if vt := reflect.TypeOf(v); vt != nil && vt.AssignableTo(ty) {
		dst.Set(reflect.ValueOf(v))
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		p := reflect.New(ty.Elem())
		if hasIdentity(v) {
			a.seen[v] = p
		}
		dst.Set(p)
		return a.assign(v, p.Elem())
	}

	inner := value.Unwrap(v)
	switch dst.Kind() {
	case reflect.Bool:
		b, ok := inner.(value.Bool)
		if !ok {
			return mismatch(v, ty)
		}
		dst.SetBool(bool(b))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := inner.(value.Integer)
		if !ok || dst.OverflowInt(int64(n)) {
			return mismatch(v, ty)
		}
		dst.SetInt(int64(n))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := inner.(value.Integer)
		if !ok || n < 0 || dst.OverflowUint(uint64(n)) {
			return mismatch(v, ty)
		}
		dst.SetUint(uint64(n))

	case reflect.Float32, reflect.Float64:
		switch x := inner.(type) {
		case *value.Float:
			dst.SetFloat(x.V)
		case value.Integer:
			dst.SetFloat(float64(x))
		default:
			return mismatch(v, ty)
		}

	case reflect.String:
		switch x := inner.(type) {
		case *value.String:
			dst.SetString(string(x.Bytes))
		case value.Symbol:
			dst.SetString(string(x))
		default:
			return mismatch(v, ty)
		}

	case reflect.Slice:
		if ty.Elem().Kind() == reflect.Uint8 {
			s, ok := inner.(*value.String)
			if !ok {
				return mismatch(v, ty)
			}
			dst.SetBytes(append([]byte(nil), s.Bytes...))
			return nil
		}

		arr, ok := inner.(*value.Array)
		if !ok {
			return mismatch(v, ty)
		}
		s := reflect.MakeSlice(ty, len(arr.Elems), len(arr.Elems))
		dst.Set(s)
		a.seen[v] = s
		return a.assignElems(arr, s)

	case reflect.Array:
		arr, ok := inner.(*value.Array)
		if !ok || len(arr.Elems) != dst.Len() {
			return mismatch(v, ty)
		}
		return a.assignElems(arr, dst)

	case reflect.Map:
		h, ok := inner.(*value.Hash)
		if !ok {
			return mismatch(v, ty)
		}
		m := reflect.MakeMapWithSize(ty, len(h.Pairs))
		dst.Set(m)
		a.seen[v] = m
		return a.assignPairs(h, m)

	case reflect.Struct:
		return a.assignStruct(v, inner, dst)

	default:
		return mismatch(v, ty)
	}
	return nil
}

func (a *assigner) assignElems(arr *value.Array, dst reflect.Value) error {
	for i, elem := range arr.Elems {
		if err := a.assign(elem, dst.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (a *assigner) assignPairs(h *value.Hash, m reflect.Value) error {
	ty := m.Type()
	for _, p := range h.Pairs {
		k := reflect.New(ty.Key()).Elem()
		if err := a.assign(p.Key, k); err != nil {
			return err
		}
		if k.Kind() == reflect.Interface && !k.IsNil() && !k.Elem().Type().Comparable() {
			return mismatch(p.Key, ty.Key())
		}

		v := reflect.New(ty.Elem()).Elem()
		if err := a.assign(p.Value, v); err != nil {
			return err
		}
		m.SetMapIndex(k, v)
	}
	return nil
}

func (a *assigner) assignStruct(v, inner value.Value, dst reflect.Value) error {
	ty := dst.Type()
	f := formClass
	if e, ok := a.entryOf(ty); ok {
		if class, ok := classOf(v); ok && class != e.name {
			return mismatch(v, ty)
		}
		f = e.form
	}

	var lookup func(fd field) (value.Value, bool)
	switch x := inner.(type) {
	case *ext.Object:
		lookup = func(fd field) (value.Value, bool) { return findVar(x.Vars, fd.ivar) }
	case *ext.Struct:
		lookup = func(fd field) (value.Value, bool) { return findVar(x.Members, fd.member) }
	case *value.Hash:
		lookup = func(fd field) (value.Value, bool) {
			if v, ok := x.Lookup(fd.member); ok {
				return v, true
			}
			return x.Lookup(value.NewString(string(fd.member)))
		}
	default:
		return mismatch(v, ty)
	}

	for _, fd := range a.fields(ty, f) {
		fv, ok := lookup(fd)
		if !ok {
			continue
		}
		if err := a.assign(fv, dst.Field(fd.index)); err != nil {
			return err
		}
	}
	return nil
}

func findVar(vars []value.IVar, name value.Symbol) (value.Value, bool) {
	for _, v := range vars {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// natural returns the Go value v is assigned to an interface{} as; invalid for nil.
func (a *assigner) natural(v value.Value) (reflect.Value, error) {
	switch x := v.(type) {
	case nil, value.Nil:
		return reflect.Value{}, nil
	case value.Bool:
		return reflect.ValueOf(bool(x)), nil
	case value.Integer:
		return reflect.ValueOf(int64(x)), nil
	case value.Symbol:
		return reflect.ValueOf(string(x)), nil
	case *value.Float:
		return reflect.ValueOf(x.V), nil
	case *value.String:
		return reflect.ValueOf(string(x.Bytes)), nil
	}

	if class, ok := classOf(v); ok {
		if e, ok := a.entryNamed(class); ok && e.ty != nil {
			ty := e.ty
			if ty.Kind() == reflect.Struct {
				ty = reflect.PtrTo(ty)
			}
			out := reflect.New(ty).Elem()
			if err := a.assign(v, out); err != nil {
				return reflect.Value{}, err
			}
			return out, nil
		}
	}

	switch x := v.(type) {
	case *value.IVars:
		return a.natural(x.Value)
	case *value.UserClass:
		return a.natural(x.Payload)

	case *value.Array:
		out := reflect.New(reflect.SliceOf(emptyInterfaceType)).Elem()
		if err := a.assign(x, out); err != nil {
			return reflect.Value{}, err
		}
		return out, nil

	case *value.Hash:
		out := reflect.New(reflect.MapOf(emptyInterfaceType, emptyInterfaceType)).Elem()
		if err := a.assign(x, out); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	}

	return reflect.ValueOf(v), nil
}
