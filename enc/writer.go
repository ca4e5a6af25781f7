package enc

import (
	"fmt"
	"reflect"

	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/value"
)

// NewWriter returns a Writer using config. A nil config uses the defaults.
// It panics if the config's extensions conflict.
func NewWriter(config *Config) *Writer {
	c, exts := config.copyAndFill()
	w := &Writer{
		config: c,
		exts:   exts,
		out:    new(encio.Buffer),
	}
	w.Reset()
	return w
}

// Writer encodes values. It is not safe for concurrent use.
type Writer struct {
	config *Config
	exts   *extensions
	out    *encio.Buffer

	symbols encodeSymbols
	links   encodeLinks
	depth   int

	scratch []byte
}

// Reset clears the output and the symbol and link tables.
func (w *Writer) Reset() {
	w.out.Reset()
	w.symbols = make(encodeSymbols)
	w.links.reset()
	w.depth = 0
}

// Bytes returns the bytes written since the last Reset.
// They alias the Writer's buffer, and are valid until the next Reset.
func (w *Writer) Bytes() []byte {
	return w.out.Bytes()
}

// Adapter returns the Writer's Adapter.
func (w *Writer) Adapter() Adapter {
	return w.config.Adapter
}

// Encode resets w and writes a whole stream for v; the version header followed by v.
// If v is not a value.Value it is classified by the Adapter first.
// On error nothing is kept; the returned bytes are valid until the next call.
func (w *Writer) Encode(v interface{}) ([]byte, error) {
	w.Reset()

	val, err := w.Classify(v)
	if err != nil {
		return nil, err
	}

	w.WriteHeader()
	if err := w.WriteValue(val); err != nil {
		w.Reset()
		return nil, err
	}
	return w.Bytes(), nil
}

// Classify returns v as a value.Value, using the Adapter for host objects.
func (w *Writer) Classify(v interface{}) (value.Value, error) {
	switch v := v.(type) {
	case nil:
		return value.Nil{}, nil
	case value.Value:
		return v, nil
	default:
		return w.config.Adapter.Classify(v)
	}
}

// WriteHeader writes the format version.
func (w *Writer) WriteHeader() {
	w.out.Write([]byte{MajorVersion, MinorVersion})
}

// WriteValue writes v, or a link to it if it was already written.
func (w *Writer) WriteValue(v value.Value) error {
	switch x := v.(type) {
	case nil, value.Nil:
		w.links.drop()
		return w.WriteByte(TagNil)
	case value.Bool:
		w.links.drop()
		if x {
			return w.WriteByte(TagTrue)
		}
		return w.WriteByte(TagFalse)
	case value.Integer:
		return w.writeInteger(int64(x))
	case value.Symbol:
		w.links.drop()
		return w.WriteSymbol(x)
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		w.links.drop()
		return w.WriteByte(TagNil)
	}

	if i, ok := w.links.find(v); ok {
		w.links.drop()
		w.WriteByte(TagLink)
		w.writeInt(int64(i))
		return nil
	}

	if limit := w.config.DepthLimit; limit >= 0 && w.depth >= limit {
		return encio.NewUnsupportedValueError(v, encio.ErrDepthLimit, fmt.Sprintf("nests deeper than %d", limit))
	}
	w.depth++
	defer func() { w.depth-- }()

	switch x := v.(type) {
	case *value.Float:
		w.Register(x)
		w.WriteByte(TagFloat)
		return w.WriteString(FormatFloat(x.V))

	case *value.String:
		w.Register(x)
		w.WriteByte(TagString)
		return w.WriteBytes(x.Bytes)

	case *value.Array:
		w.Register(x)
		w.WriteByte(TagArray)
		if err := w.writeLen(len(x.Elems), x); err != nil {
			return err
		}
		for _, elem := range x.Elems {
			if err := w.WriteValue(elem); err != nil {
				return err
			}
		}
		return nil

	case *value.Hash:
		return w.writeHash(x)

	case *value.UserClass:
		w.WriteByte(TagUserClass)
		if err := w.WriteSymbol(x.Class); err != nil {
			return err
		}
		return w.WriteWrapped(x, x.Payload)

	case *value.IVars:
		if len(x.Vars) == 0 {
			return w.WriteWrapped(x, x.Value)
		}
		w.WriteByte(TagIVars)
		if err := w.WriteWrapped(x, x.Value); err != nil {
			return err
		}
		return w.WriteIVars(x.Vars, x)
	}

	ext := w.exts.forValue(v)
	if ext == nil {
		return encio.NewUnsupportedValueError(v, nil, "no extension handles "+v.Kind().String()+" values")
	}
	return ext.Encode(w, v)
}

func (w *Writer) writeHash(h *value.Hash) error {
	w.Register(h)
	if h.HasDefault() {
		w.WriteByte(TagHashDefault)
	} else {
		w.WriteByte(TagHash)
	}

	if err := w.writeLen(len(h.Pairs), h); err != nil {
		return err
	}
	for _, p := range h.Pairs {
		if err := w.WriteValue(p.Key); err != nil {
			return err
		}
		if err := w.WriteValue(p.Value); err != nil {
			return err
		}
	}

	if h.HasDefault() {
		return w.WriteValue(h.Default)
	}
	return nil
}

// WriteIVars writes a count followed by name, value pairs.
// owner is only used in error messages.
func (w *Writer) WriteIVars(vars []value.IVar, owner value.Value) error {
	if err := w.writeLen(len(vars), owner); err != nil {
		return err
	}
	for _, iv := range vars {
		if err := w.WriteSymbol(iv.Name); err != nil {
			return err
		}
		if err := w.WriteValue(iv.Value); err != nil {
			return err
		}
	}
	return nil
}

// Register gives v the next link index, so later occurrences are written as links.
// Composites must be registered before their members are written.
// A nil v takes an index without becoming linkable.
func (w *Writer) Register(v value.Value) int {
	return w.links.register(v)
}

// WriteWrapped writes inner on behalf of wrapper.
// The wrapper shares the link index inner is registered with, so it never takes an index of its own.
// Any header the wrapper has must be written first.
func (w *Writer) WriteWrapped(wrapper, inner value.Value) error {
	release := w.links.claim(wrapper)
	err := w.WriteValue(inner)
	release()
	return err
}

// WriteSymbol writes s, or a symbol link if it was already written.
func (w *Writer) WriteSymbol(s value.Symbol) error {
	if i, seen := w.symbols.intern(s); seen {
		w.WriteByte(TagSymlink)
		w.writeInt(int64(i))
		return nil
	}
	w.WriteByte(TagSymbol)
	return w.WriteString(string(s))
}

// WriteByte writes a single raw byte, typically a tag.
// It implements io.ByteWriter, and never fails.
func (w *Writer) WriteByte(b byte) error {
	return w.out.WriteByte(b)
}

// WriteInt writes n in the variable-length form.
// It fails if n is outside the int32 range the form can hold.
func (w *Writer) WriteInt(n int64) error {
	if !encio.IntFits(n) {
		return encio.NewUnsupportedValueError(n, nil, "integer does not fit the variable-length form")
	}
	w.writeInt(n)
	return nil
}

func (w *Writer) writeInt(n int64) {
	w.scratch = encio.AppendInt(w.scratch[:0], n)
	w.out.Write(w.scratch)
}

// owner is only used in error messages, and may be nil.
func (w *Writer) writeLen(n int, owner value.Value) error {
	if int64(n) > encio.MaxInt {
		return encio.NewUnsupportedValueError(owner, nil, fmt.Sprintf("length %d too long", n))
	}
	w.writeInt(int64(n))
	return nil
}

// WriteBytes writes b prefixed with its length.
func (w *Writer) WriteBytes(b []byte) error {
	if err := w.writeLen(len(b), nil); err != nil {
		return err
	}
	w.out.Write(b)
	return nil
}

// WriteString writes s prefixed with its length.
func (w *Writer) WriteString(s string) error {
	if err := w.writeLen(len(s), nil); err != nil {
		return err
	}
	w.out.WriteString(s)
	return nil
}

func (w *Writer) writeInteger(n int64) error {
	if encio.IntFits(n) {
		w.links.drop()
		w.WriteByte(TagInteger)
		w.writeInt(n)
		return nil
	}

	// Readers register bignums like any other object.
	w.Register(nil)

	w.WriteByte(TagBignum)
	mag := uint64(n)
	if n < 0 {
		w.WriteByte('-')
		mag = uint64(-n)
	} else {
		w.WriteByte('+')
	}

	var le [8]byte
	size := 0
	for mag > 0 {
		le[size] = byte(mag)
		mag >>= 8
		size++
	}
	words := (size + 1) / 2
	w.writeInt(int64(words))
	w.out.Write(le[:words*2])
	return nil
}
