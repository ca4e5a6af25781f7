// Package ext implements the marshal tags the core codec leaves to extensions:
// plain objects, structs, regular expressions, classes with custom dump methods,
// class and module references and objects extended by modules.
//
// Each tag has a value type implementing value.Value, and an enc.Extension that reads and writes it.
package ext

import (
	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/value"
)

// Tags handled by this package.
const (
	TagObject      = 'o'
	TagStruct      = 'S'
	TagRegexp      = '/'
	TagUserDefined = 'u'
	TagUserMarshal = 'U'
	TagClass       = 'c'
	TagModule      = 'm'
	TagClassOld    = 'M'
	TagExtended    = 'e'
)

// All returns every extension in this package.
func All() []enc.Extension {
	return []enc.Extension{
		Objects,
		Structs,
		Regexps,
		UserDefineds,
		UserMarshals,
		ClassRefs,
		Extendeds,
	}
}

func equalVars(a, b []value.IVar, eq func(a, b value.Value) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !eq(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

func getVar(vars []value.IVar, name value.Symbol) value.Value {
	for _, v := range vars {
		if v.Name == name {
			return v.Value
		}
	}
	return value.Nil{}
}

func setVar(vars []value.IVar, name value.Symbol, v value.Value) []value.IVar {
	for i := range vars {
		if vars[i].Name == name {
			vars[i].Value = v
			return vars
		}
	}
	return append(vars, value.IVar{Name: name, Value: v})
}
