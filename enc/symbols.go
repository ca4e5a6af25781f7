package enc

import "github.com/stewi1014/rmarshal/value"

// Symbols have their own table, separate from the link table.
// The first occurrence of a symbol is written in full and takes the next index; later ones are written as that index.

type encodeSymbols map[value.Symbol]int

// intern returns the index of s and true if s was seen before.
// Otherwise it gives s the next index and returns false.
func (t encodeSymbols) intern(s value.Symbol) (int, bool) {
	if i, ok := t[s]; ok {
		return i, true
	}
	t[s] = len(t)
	return 0, false
}

type decodeSymbols []value.Symbol

func (t *decodeSymbols) add(s value.Symbol) {
	*t = append(*t, s)
}

func (t decodeSymbols) get(i int64) (value.Symbol, bool) {
	if i < 0 || i >= int64(len(t)) {
		return "", false
	}
	return t[i], true
}
