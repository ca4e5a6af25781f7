package types

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/ext"
	"github.com/stewi1014/rmarshal/value"
)

// Classify implements enc.Adapter, converting the Go value v to a value tree.
// Values that already implement value.Value are kept as they are.
func (r *Registry) Classify(v interface{}) (value.Value, error) {
	c := classifier{
		Registry: r,
		seen:     make(map[identity]value.Value),
	}
	return c.classify(reflect.ValueOf(v))
}

// identity is the identity of a Go value that can be reached more than once.
// Slices also need their length; two slices of one array are different values.
type identity struct {
	ty  reflect.Type
	ptr uintptr
	len int
}

type classifier struct {
	*Registry
	seen  map[identity]value.Value
	depth int
}

func (c *classifier) classify(rv reflect.Value) (value.Value, error) {
	if !rv.IsValid() {
		return value.Nil{}, nil
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return value.Nil{}, nil
		}
		return c.classify(rv.Elem())
	}
	if rv.Type().Implements(valueType) && rv.CanInterface() {
		return rv.Interface().(value.Value), nil
	}

	if c.depth >= classDepthLimit {
		return nil, encio.NewUnsupportedValueError(rv.Interface(), encio.ErrDepthLimit, fmt.Sprintf("nests deeper than %d", classDepthLimit))
	}
	c.depth++
	defer func() { c.depth-- }()

	e, registered := c.entryOf(rv.Type())
	if registered && e.form == formUserDefined {
		return marshalBinary(e, rv)
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return value.Nil{}, nil
		}
		id := identity{ty: rv.Type(), ptr: rv.Pointer()}
		if v, ok := c.seen[id]; ok {
			return v, nil
		}
		if rv.Elem().Kind() == reflect.Struct {
			return c.classifyStruct(rv.Elem(), &id)
		}
		v, err := c.classify(rv.Elem())
		if err != nil {
			return nil, err
		}
		c.seen[id] = v
		return v, nil

	case reflect.Bool:
		return value.Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Integer(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, encio.NewUnsupportedValueError(rv.Interface(), nil, "unsigned integer overflows Integer")
		}
		return value.Integer(u), nil

	case reflect.Float32, reflect.Float64:
		return value.NewFloat(rv.Float()), nil

	case reflect.String:
		return &value.IVars{
			Value: c.named(e, value.NewString(rv.String())),
			Vars:  []value.IVar{{Name: enc.IVarEncodingFlag, Value: value.Bool(true)}},
		}, nil

	case reflect.Slice:
		if rv.IsNil() {
			return value.Nil{}, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return c.named(e, &value.String{Bytes: append([]byte(nil), rv.Bytes()...)}), nil
		}
		id := identity{ty: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}
		if v, ok := c.seen[id]; ok {
			return v, nil
		}
		return c.classifyArray(rv, e, &id)

	case reflect.Array:
		return c.classifyArray(rv, e, nil)

	case reflect.Map:
		if rv.IsNil() {
			return value.Nil{}, nil
		}
		id := identity{ty: rv.Type(), ptr: rv.Pointer()}
		if v, ok := c.seen[id]; ok {
			return v, nil
		}
		return c.classifyMap(rv, e, id)

	case reflect.Struct:
		return c.classifyStruct(rv, nil)
	}

	return nil, encio.NewUnsupportedValueError(rv.Interface(), nil, fmt.Sprintf("%v values cannot be marshalled", rv.Kind()))
}

// named wraps v in e's class, if e is registered.
func (c *classifier) named(e *entry, v value.Value) value.Value {
	if e == nil {
		return v
	}
	return &value.UserClass{Class: e.name, Payload: v}
}

func (c *classifier) classifyArray(rv reflect.Value, e *entry, id *identity) (value.Value, error) {
	a := &value.Array{Elems: make([]value.Value, rv.Len())}
	out := c.named(e, a)
	if id != nil {
		c.seen[*id] = out
	}

	for i := range a.Elems {
		elem, err := c.classify(rv.Index(i))
		if err != nil {
			return nil, err
		}
		a.Elems[i] = elem
	}
	return out, nil
}

func (c *classifier) classifyMap(rv reflect.Value, e *entry, id identity) (value.Value, error) {
	h := value.NewHash(rv.Len())
	out := c.named(e, h)
	c.seen[id] = out

	keys := rv.MapKeys()
	sortKeys(keys)
	for _, k := range keys {
		kv, err := c.classify(k)
		if err != nil {
			return nil, err
		}
		vv, err := c.classify(rv.MapIndex(k))
		if err != nil {
			return nil, err
		}
		h.Pairs = append(h.Pairs, value.Pair{Key: kv, Value: vv})
	}
	return out, nil
}

func (c *classifier) classifyStruct(rv reflect.Value, id *identity) (value.Value, error) {
	e, ok := c.entryOf(rv.Type())
	if !ok {
		return nil, encio.NewUnsupportedValueError(rv.Interface(), ErrNotRegistered, fmt.Sprintf("%v has no class name", rv.Type()))
	}
	if e.form == formUserDefined {
		return marshalBinary(e, rv)
	}

	fields := c.fields(rv.Type(), e.form)
	vars := make([]value.IVar, 0, len(fields))

	var out value.Value
	var setVars func()
	if e.form == formStruct {
		s := &ext.Struct{Class: e.name}
		out, setVars = s, func() { s.Members = vars }
	} else {
		o := ext.NewObject(e.name)
		out, setVars = o, func() { o.Vars = vars }
	}
	if id != nil {
		c.seen[*id] = out
	}

	for _, f := range fields {
		v, err := c.classify(rv.Field(f.index))
		if err != nil {
			return nil, err
		}
		name := f.ivar
		if e.form == formStruct {
			name = f.member
		}
		vars = append(vars, value.IVar{Name: name, Value: v})
	}
	setVars()
	return out, nil
}

// sortKeys orders map keys so encoding a map is deterministic.
func sortKeys(keys []reflect.Value) {
	if len(keys) == 0 {
		return
	}

	switch keys[0].Kind() {
	case reflect.String:
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Uint() < keys[j].Uint() })
	case reflect.Float32, reflect.Float64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Float() < keys[j].Float() })
	default:
		strs := make([]string, len(keys))
		for i, k := range keys {
			strs[i] = fmt.Sprintf("%T %#v", k.Interface(), k.Interface())
		}
		sort.Stable(keysByString{keys, strs})
	}
}

type keysByString struct {
	keys []reflect.Value
	strs []string
}

func (k keysByString) Len() int           { return len(k.keys) }
func (k keysByString) Less(i, j int) bool { return k.strs[i] < k.strs[j] }
func (k keysByString) Swap(i, j int) {
	k.keys[i], k.keys[j] = k.keys[j], k.keys[i]
	k.strs[i], k.strs[j] = k.strs[j], k.strs[i]
}
