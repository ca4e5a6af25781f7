package types

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/value"
)

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:   make(map[value.Symbol]*entry),
		byType:   make(map[reflect.Type]*entry),
		fieldsOf: make(map[reflect.Type][]field),
	}
}

// Registry is a registration-based enc.Adapter.
// Structs must be registered to be encoded; other Go types are written as their underlying kind unless registered.
// It is thread safe.
type Registry struct {
	// Strict makes Construct fail with *encio.UnknownTypeError for class names that are not registered.
	Strict bool

	mutex    sync.RWMutex
	byName   map[value.Symbol]*entry
	byType   map[reflect.Type]*entry
	fieldsOf map[reflect.Type][]field
}

type entry struct {
	name value.Symbol
	ty   reflect.Type
	form form
}

// Register binds the class name to the type of sample, which may be a reflect.Type.
// Pointer types are registered as their element type.
// Named bool, integer and float types cannot be registered unless they are BinaryMarshalers.
// Registered types implementing encoding.BinaryMarshaler and encoding.BinaryUnmarshaler are written as Ruby's _dump
// format; other structs are written as objects.
// A nil sample only makes the name known, for strict registries.
//
// A name can only be bound to one type. A type bound to a second name keeps its first name for encoding,
// and decodes from both.
func (r *Registry) Register(name string, sample interface{}) error {
	return r.register(name, sample, formClass)
}

// RegisterStruct is like Register, but the type, which must be a struct, is written as a Ruby Struct.
// Members are written in field order.
func (r *Registry) RegisterStruct(name string, sample interface{}) error {
	return r.register(name, sample, formStruct)
}

func (r *Registry) register(name string, sample interface{}, f form) error {
	var ty reflect.Type
	var ok bool
	if ty, ok = sample.(reflect.Type); !ok && sample != nil {
		ty = reflect.TypeOf(sample)
	}
	for ty != nil && ty.Kind() == reflect.Ptr {
		ty = ty.Elem()
	}

	if f == formStruct && (ty == nil || ty.Kind() != reflect.Struct) {
		return fmt.Errorf("types: %v is not a struct", ty)
	}
	if ty != nil && f == formClass && reflect.PtrTo(ty).Implements(binaryMarshalerType) && reflect.PtrTo(ty).Implements(binaryUnmarshalerType) {
		f = formUserDefined
	}

	if ty != nil && f == formClass && isImmediate(ty.Kind()) {
		return fmt.Errorf("%w: %v", ErrImmediate, ty)
	}

	e := &entry{name: value.Symbol(name), ty: ty, form: f}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if old, ok := r.byName[e.name]; ok {
		if old.ty == ty && old.form == f {
			return nil
		}
		return fmt.Errorf("%w: %v is bound to %v", ErrAlreadyRegistered, name, old.ty)
	}
	r.byName[e.name] = e

	if ty == nil {
		return nil
	}
	if old, ok := r.byType[ty]; ok {
		fmt.Fprintf(encio.Warnings, "rmarshal: %v is registered as %v and %v; encoding uses %v\n", ty, string(old.name), name, string(old.name))
		return nil
	}
	r.byType[ty] = e
	return nil
}

func isImmediate(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Lookup returns the type bound to the class name.
// The type is nil for names registered without one.
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	r.mutex.RLock()
	e, ok := r.byName[value.Symbol(name)]
	r.mutex.RUnlock()
	if !ok {
		return nil, false
	}
	return e.ty, true
}

// Name returns the class name ty is written as.
func (r *Registry) Name(ty reflect.Type) (string, bool) {
	e, ok := r.entryOf(ty)
	if !ok {
		return "", false
	}
	return string(e.name), true
}

func (r *Registry) entryOf(ty reflect.Type) (*entry, bool) {
	r.mutex.RLock()
	e, ok := r.byType[ty]
	r.mutex.RUnlock()
	return e, ok
}

func (r *Registry) entryNamed(name value.Symbol) (*entry, bool) {
	r.mutex.RLock()
	e, ok := r.byName[name]
	r.mutex.RUnlock()
	return e, ok
}

// Construct implements enc.Adapter.
// Decoded values are kept as they are; Assign converts them to Go values.
func (r *Registry) Construct(class value.Symbol, v value.Value) (value.Value, error) {
	if !r.Strict {
		return v, nil
	}
	if _, ok := r.entryNamed(class); !ok {
		return nil, &encio.UnknownTypeError{Class: string(class)}
	}
	return v, nil
}
