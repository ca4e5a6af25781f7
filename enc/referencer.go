package enc

import "github.com/stewi1014/rmarshal/value"

// The link table gives every composite an index in the order it is first written or read.
// A later occurrence of the same composite is written as a link to that index instead of in full.
//
// Wrappers (user classes and instance variable lists) do not get an index of their own. They claim the index of
// the value they wrap, which is the next value to be registered after the wrapper's header.
// If the wrapped value is an immediate or a link, nothing is registered for it and the claims are dropped.

// encodeLinks is the write side of the link table, keyed on identity.
type encodeLinks struct {
	indexByValue map[value.Value]int
	next         int
	claims       []value.Value
}

func (l *encodeLinks) reset() {
	if l.indexByValue == nil || len(l.indexByValue) > 0 {
		l.indexByValue = make(map[value.Value]int)
	}
	l.next = 0
	l.claims = l.claims[:0]
}

// find returns the index of v, if it has been registered.
func (l *encodeLinks) find(v value.Value) (int, bool) {
	i, ok := l.indexByValue[v]
	return i, ok
}

// register gives v, and any wrappers waiting on it, the next index.
// A nil v takes an index without an identity, for values that readers register but that have no identity here.
func (l *encodeLinks) register(v value.Value) int {
	i := l.next
	l.next++
	if v != nil {
		l.indexByValue[v] = i
	}
	for _, w := range l.claims {
		l.indexByValue[w] = i
	}
	l.claims = l.claims[:0]
	return i
}

// claim makes wrapper share the index of the next registered value.
// It returns a function that drops the claim if nothing was registered.
func (l *encodeLinks) claim(wrapper value.Value) func() {
	l.claims = append(l.claims, wrapper)
	n := len(l.claims)
	return func() {
		if len(l.claims) >= n {
			l.claims = l.claims[:n-1]
		}
	}
}

// drop abandons the waiting claims; the value they wrap took no index.
func (l *encodeLinks) drop() {
	l.claims = l.claims[:0]
}

// decodeLinks is the read side of the link table, indexed by position.
type decodeLinks struct {
	values []value.Value
	claims []*claim
}

// claim is a wrapper waiting for the value it wraps to be registered.
type claim struct {
	wrapper value.Value
	index   int
}

func (l *decodeLinks) reset() {
	for i := range l.values {
		l.values[i] = nil
	}
	l.values = l.values[:0]
	l.claims = l.claims[:0]
}

// register stores v at the next index, and returns it.
// If wrappers are waiting, the outermost one is stored instead, since a link to this index refers to the whole.
func (l *decodeLinks) register(v value.Value) int {
	i := len(l.values)
	if len(l.claims) > 0 {
		v = l.claims[0].wrapper
		for _, c := range l.claims {
			c.index = i
		}
		l.claims = l.claims[:0]
	}
	l.values = append(l.values, v)
	return i
}

// claim makes wrapper the value stored at the next registered index.
// The returned function drops the claim; afterwards the claim's index is -1 if nothing was registered.
func (l *decodeLinks) claim(wrapper value.Value) (*claim, func()) {
	c := &claim{wrapper: wrapper, index: -1}
	l.claims = append(l.claims, c)
	n := len(l.claims)
	return c, func() {
		if len(l.claims) >= n {
			l.claims = l.claims[:n-1]
		}
	}
}

// drop abandons the waiting claims, leaving their indexes at -1.
func (l *decodeLinks) drop() {
	l.claims = l.claims[:0]
}

func (l *decodeLinks) get(i int64) (value.Value, bool) {
	if i < 0 || i >= int64(len(l.values)) {
		return nil, false
	}
	return l.values[i], true
}

func (l *decodeLinks) set(i int, v value.Value) {
	l.values[i] = v
}
