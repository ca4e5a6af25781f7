package types

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/value"
)

// StructTag is the struct tag naming a field's instance variable or member, without the leading '@'.
// "-" excludes the field. Untagged exported fields use the field name in snake case; unexported fields are never
// included.
const StructTag = "rmarshal"

type field struct {
	index  int
	member value.Symbol
	ivar   value.Symbol
}

type fieldsByName []field

func (a fieldsByName) Len() int           { return len(a) }
func (a fieldsByName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a fieldsByName) Less(i, j int) bool { return a[i].ivar < a[j].ivar }

// fields returns the encoded fields of the struct type ty.
// Object instance variables are sorted by name, as Ruby's marshal writers do; struct members keep field order.
func (r *Registry) fields(ty reflect.Type, f form) []field {
	r.mutex.RLock()
	fields, ok := r.fieldsOf[ty]
	r.mutex.RUnlock()
	if !ok {
		fields = structFields(ty)
		r.mutex.Lock()
		r.fieldsOf[ty] = fields
		r.mutex.Unlock()
	}

	if f != formStruct {
		sorted := make(fieldsByName, len(fields))
		copy(sorted, fields)
		sort.Sort(sorted)
		return sorted
	}
	return fields
}

func structFields(ty reflect.Type) []field {
	fields := make([]field, 0, ty.NumField())
	for i := 0; i < ty.NumField(); i++ {
		sf := ty.Field(i)

		name, tagged := sf.Tag.Lookup(StructTag)
		if name == "-" {
			continue
		}
		if sf.PkgPath != "" {
			if tagged {
				fmt.Fprintf(encio.Warnings, "rmarshal: ignoring tag on unexported field %v in %v\n", sf.Name, ty)
			}
			continue
		}

		name = strings.TrimPrefix(name, "@")
		if name == "" {
			name = snakeCase(sf.Name)
		}
		fields = append(fields, field{
			index:  i,
			member: value.Symbol(name),
			ivar:   value.Symbol("@" + name),
		})
	}
	return fields
}

// snakeCase converts a Go identifier to Ruby's naming; UserID becomes user_id.
func snakeCase(s string) string {
	rs := []rune(s)
	var sb strings.Builder
	for i, c := range rs {
		if unicode.IsUpper(c) {
			if i > 0 && (unicode.IsLower(rs[i-1]) || unicode.IsDigit(rs[i-1]) ||
				(i+1 < len(rs) && unicode.IsLower(rs[i+1]) && unicode.IsUpper(rs[i-1]))) {
				sb.WriteByte('_')
			}
			c = unicode.ToLower(c)
		}
		sb.WriteRune(c)
	}
	return sb.String()
}
