package value

import "bytes"

// Equaler is implemented by extension values so Equal can compare them.
// eq compares member values and must be used for them, so cycles through the extension terminate.
type Equaler interface {
	Value
	Equal(other Value, eq func(a, b Value) bool) bool
}

// During comparison we keep the pairs of composites already under comparison.
// The algorithm assumes that all comparisons in progress are true when it re-encounters them,
// the same trick reflect.DeepEqual uses for cyclic data.
type visit struct {
	a, b Value
}

// Equal reports whether a and b are structurally equal.
// Composites compare by content, not identity. Hash pairs compare in order, and a Hash's default takes part.
// Floats holding NaN are equal to each other. Nil pointers are equal to Nil. Cyclic values are handled.
func Equal(a, b Value) bool {
	return equal(a, b, make(map[visit]bool))
}

func equal(a, b Value, visited map[visit]bool) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch a.Kind() {
	case KindNil:
		return true
	case KindBool, KindInteger, KindSymbol:
		return a == b
	case KindFloat:
		x, y := a.(*Float).V, b.(*Float).V
		return x == y || (x != x && y != y)
	case KindString:
		return bytes.Equal(a.(*String).Bytes, b.(*String).Bytes)
	}

	if a == b {
		return true
	}
	v := visit{a, b}
	if visited[v] {
		return true
	}
	visited[v] = true

	eq := func(x, y Value) bool { return equal(x, y, visited) }

	switch x := a.(type) {
	case *Array:
		y := b.(*Array)
		if len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !eq(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true

	case *Hash:
		y := b.(*Hash)
		if len(x.Pairs) != len(y.Pairs) {
			return false
		}
		for i := range x.Pairs {
			if !eq(x.Pairs[i].Key, y.Pairs[i].Key) || !eq(x.Pairs[i].Value, y.Pairs[i].Value) {
				return false
			}
		}
		return x.HasDefault() == y.HasDefault() && (!x.HasDefault() || eq(x.Default, y.Default))

	case *UserClass:
		y := b.(*UserClass)
		return x.Class == y.Class && eq(x.Payload, y.Payload)

	case *IVars:
		y := b.(*IVars)
		if len(x.Vars) != len(y.Vars) || !eq(x.Value, y.Value) {
			return false
		}
		for i := range x.Vars {
			if x.Vars[i].Name != y.Vars[i].Name || !eq(x.Vars[i].Value, y.Vars[i].Value) {
				return false
			}
		}
		return true

	case Equaler:
		return x.Equal(b, eq)
	}

	return false
}
