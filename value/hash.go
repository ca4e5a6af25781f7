package value

// Pair is a single hash entry.
type Pair struct {
	Key   Value
	Value Value
}

// Hash maps values to values, keeping insertion order.
// Keys are compared with Equal, the way Ruby compares keys with eql?.
type Hash struct {
	Pairs []Pair

	// Default is returned by Get for absent keys.
	// A nil Default and Nil{} both mean there is no default.
	Default Value
}

// NewHash returns an empty Hash with capacity for n pairs.
func NewHash(n int) *Hash {
	return &Hash{Pairs: make([]Pair, 0, n)}
}

// Kind implements Value.
func (*Hash) Kind() Kind { return KindHash }

// Len returns the number of pairs.
func (h *Hash) Len() int { return len(h.Pairs) }

// HasDefault reports whether the hash carries a default value.
func (h *Hash) HasDefault() bool {
	return !IsNil(h.Default)
}

// Lookup returns the value stored under key, and whether it was found.
func (h *Hash) Lookup(key Value) (Value, bool) {
	if i := h.index(key); i >= 0 {
		return h.Pairs[i].Value, true
	}
	return nil, false
}

// Get returns the value stored under key, or the default if the key is absent.
// It returns Nil{} if there is neither.
func (h *Hash) Get(key Value) Value {
	if v, ok := h.Lookup(key); ok {
		return v
	}
	if h.Default != nil {
		return h.Default
	}
	return Nil{}
}

// Set stores v under key, replacing an existing entry in place.
func (h *Hash) Set(key, v Value) {
	if i := h.index(key); i >= 0 {
		h.Pairs[i].Value = v
		return
	}
	h.Pairs = append(h.Pairs, Pair{Key: key, Value: v})
}

// Delete removes key, reporting whether it was present.
func (h *Hash) Delete(key Value) bool {
	i := h.index(key)
	if i < 0 {
		return false
	}
	h.Pairs = append(h.Pairs[:i], h.Pairs[i+1:]...)
	return true
}

func (h *Hash) index(key Value) int {
	for i := range h.Pairs {
		if Equal(h.Pairs[i].Key, key) {
			return i
		}
	}
	return -1
}
