package enc

import (
	"fmt"
	"io"
	"math"

	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/value"
)

// NewReader returns a Reader reading from r, using config. A nil config uses the defaults.
// r is buffered if it cannot read single bytes, in which case the Reader may read ahead of what it decodes.
// It panics if the config's extensions conflict.
func NewReader(r io.Reader, config *Config) *Reader {
	c, exts := config.copyAndFill()
	return &Reader{
		config: c,
		exts:   exts,
		in:     encio.NewReader(r),
	}
}

// Reader decodes values. It is not safe for concurrent use.
type Reader struct {
	config *Config
	exts   *extensions
	in     *encio.Reader

	symbols decodeSymbols
	links   decodeLinks
	depth   int
}

// Reset clears the symbol and link tables.
func (r *Reader) Reset() {
	r.symbols = r.symbols[:0]
	r.links.reset()
	r.depth = 0
}

// Offset returns the number of bytes consumed from the underlying reader.
func (r *Reader) Offset() int64 {
	return r.in.Offset()
}

// Adapter returns the Reader's Adapter.
func (r *Reader) Adapter() Adapter {
	return r.config.Adapter
}

// Decode resets r and reads a whole stream; the version header followed by one value.
// It returns io.EOF, and nothing else, if the input ends cleanly before the header.
func (r *Reader) Decode() (value.Value, error) {
	r.Reset()
	defer r.Reset()

	if err := r.in.Peek(); err != nil {
		return nil, err
	}
	if err := r.ReadHeader(); err != nil {
		return nil, err
	}
	return r.ReadValue()
}

// ReadHeader reads the format version, failing unless it is 4.8.
func (r *Reader) ReadHeader() error {
	off := r.Offset()
	major, err := r.ReadByte()
	if err != nil {
		return err
	}
	minor, err := r.ReadByte()
	if err != nil {
		return err
	}

	if major != MajorVersion || minor != MinorVersion {
		return encio.NewFormatError(off, encio.ErrVersion, "got %d.%d, want %d.%d", major, minor, MajorVersion, MinorVersion)
	}
	return nil
}

// Errorf returns a FormatError at the current offset.
func (r *Reader) Errorf(format string, args ...interface{}) error {
	return encio.NewFormatError(r.Offset(), encio.ErrMalformed, format, args...)
}

// ReadValue reads one value.
func (r *Reader) ReadValue() (value.Value, error) {
	off := r.Offset()
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case TagNil, TagTrue, TagFalse, TagInteger, TagSymbol, TagSymlink, TagLink:
		// No index is registered for these, so wrappers around them get none.
		r.links.drop()
	}

	switch tag {
	case TagNil:
		return value.Nil{}, nil
	case TagTrue:
		return value.Bool(true), nil
	case TagFalse:
		return value.Bool(false), nil
	case TagInteger:
		n, err := r.ReadInt()
		return value.Integer(n), err
	case TagSymbol, TagSymlink:
		return r.readSymbol(tag)
	case TagLink:
		i, err := r.ReadInt()
		if err != nil {
			return nil, err
		}
		v, ok := r.links.get(i)
		if !ok {
			return nil, encio.NewFormatError(off, encio.ErrMalformed, "link %d not in table of %d", i, len(r.links.values))
		}
		return v, nil
	}

	if limit := r.config.DepthLimit; limit >= 0 && r.depth >= limit {
		return nil, encio.NewFormatError(off, encio.ErrDepthLimit, "nesting deeper than %d", limit)
	}
	r.depth++
	defer func() { r.depth-- }()

	switch tag {
	case TagBignum:
		return r.readBignum()

	case TagFloat:
		b, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		f, err := ParseFloat(b)
		if err != nil {
			return nil, encio.NewFormatError(off, encio.ErrMalformed, "bad float %q", b)
		}
		v := value.NewFloat(f)
		r.Register(v)
		return v, nil

	case TagString:
		b, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		v := &value.String{Bytes: b}
		r.Register(v)
		return v, nil

	case TagArray:
		n, err := r.ReadLen()
		if err != nil {
			return nil, err
		}
		a := &value.Array{Elems: make([]value.Value, 0, capHint(n))}
		r.Register(a)
		for i := 0; i < n; i++ {
			elem, err := r.ReadValue()
			if err != nil {
				return nil, err
			}
			a.Elems = append(a.Elems, elem)
		}
		return a, nil

	case TagHash, TagHashDefault:
		return r.readHash(tag)

	case TagUserClass:
		class, err := r.ReadSymbol()
		if err != nil {
			return nil, err
		}
		uc := &value.UserClass{Class: class}
		c, release := r.links.claim(uc)
		uc.Payload, err = r.ReadValue()
		release()
		if err != nil {
			return nil, err
		}
		return r.Construct(class, uc, c.index)

	case TagIVars:
		return r.readIVars()
	}

	ext, ok := r.exts.byTag[tag]
	if !ok {
		return nil, encio.NewFormatError(off, encio.ErrMalformed, "unknown tag %q", tag)
	}
	return ext.Decode(r, tag)
}

func (r *Reader) readHash(tag byte) (value.Value, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	h := value.NewHash(capHint(n))
	r.Register(h)

	for i := 0; i < n; i++ {
		k, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		h.Pairs = append(h.Pairs, value.Pair{Key: k, Value: v})
	}

	if tag == TagHashDefault {
		if h.Default, err = r.ReadValue(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (r *Reader) readIVars() (value.Value, error) {
	iv := new(value.IVars)
	c, release := r.links.claim(iv)
	inner, err := r.ReadValue()
	release()
	if err != nil {
		return nil, err
	}
	iv.Value = inner

	if iv.Vars, err = r.ReadIVars(); err != nil {
		return nil, err
	}

	// The encoding flag is the only instance variable a reader has no place for.
	vars := iv.Vars[:0]
	for _, v := range iv.Vars {
		if v.Name != IVarEncodingFlag {
			vars = append(vars, v)
		}
	}
	iv.Vars = vars

	if s, ok := inner.(value.Symbol); ok {
		for _, v := range iv.Vars {
			if v.Name != IVarEncodingName {
				fmt.Fprintf(encio.Warnings, "rmarshal: dropping instance variable %v of symbol %v\n", v.Name, s)
			}
		}
		return s, nil
	}

	if len(iv.Vars) == 0 {
		if c.index >= 0 && r.links.values[c.index] == value.Value(iv) {
			r.links.set(c.index, inner)
		}
		return inner, nil
	}
	return iv, nil
}

// ReadIVars reads a count followed by name, value pairs.
func (r *Reader) ReadIVars() ([]value.IVar, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	vars := make([]value.IVar, 0, capHint(n))
	for i := 0; i < n; i++ {
		name, err := r.ReadSymbol()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		vars = append(vars, value.IVar{Name: name, Value: v})
	}
	return vars, nil
}

func (r *Reader) readBignum() (value.Value, error) {
	off := r.Offset()
	sign, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if sign != '+' && sign != '-' {
		return nil, encio.NewFormatError(off, encio.ErrMalformed, "bad bignum sign %q", sign)
	}

	words, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	b, err := r.in.ReadFull(words * 2)
	if err != nil {
		return nil, err
	}

	size := len(b)
	for size > 0 && b[size-1] == 0 {
		size--
	}
	if size > 8 {
		return nil, encio.NewFormatError(off, encio.ErrMalformed, "bignum of %d bytes does not fit an Integer", size)
	}
	var mag uint64
	for i := size - 1; i >= 0; i-- {
		mag = mag<<8 | uint64(b[i])
	}

	var n int64
	switch {
	case sign == '+' && mag <= math.MaxInt64:
		n = int64(mag)
	case sign == '-' && mag <= 1<<63:
		n = -int64(mag)
	default:
		return nil, encio.NewFormatError(off, encio.ErrMalformed, "bignum %c%d does not fit an Integer", sign, mag)
	}

	v := value.Integer(n)
	r.Register(v)
	return v, nil
}

// Register stores v at the next link index and returns the index.
// Values must be registered as soon as they exist, before their members are read.
func (r *Reader) Register(v value.Value) int {
	return r.links.register(v)
}

// Construct resolves class with the Adapter for the value v, registered at index.
// If the Adapter replaces v, the link table is updated to match.
// index may be negative if v was never registered.
func (r *Reader) Construct(class value.Symbol, v value.Value, index int) (value.Value, error) {
	out, err := r.config.Adapter.Construct(class, v)
	if err != nil {
		return nil, err
	}
	if out != v && index >= 0 && r.links.values[index] == v {
		r.links.set(index, out)
	}
	return out, nil
}

// ReadWrapped reads the value wrapper wraps; wrapper takes the link index of the wrapped value.
// It returns the value read, and the index the wrapper was registered at, or -1.
func (r *Reader) ReadWrapped(wrapper value.Value) (value.Value, int, error) {
	c, release := r.links.claim(wrapper)
	v, err := r.ReadValue()
	release()
	return v, c.index, err
}

// ReadByte reads a single raw byte.
func (r *Reader) ReadByte() (byte, error) {
	return r.in.ReadByte()
}

// ReadInt reads a variable-length integer.
func (r *Reader) ReadInt() (int64, error) {
	return encio.ReadInt(r.in)
}

// ReadLen reads a variable-length integer used as a count or length, checking its range.
func (r *Reader) ReadLen() (int, error) {
	off := r.Offset()
	n, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > int64(encio.TooBig) {
		return 0, encio.NewFormatError(off, encio.ErrMalformed, "length %d out of range", n)
	}
	return int(n), nil
}

// ReadBytes reads a length-prefixed byte string.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	return r.in.ReadFull(n)
}

// ReadSymbol reads a symbol or symbol link.
// Symbols carrying an encoding are accepted, and their encoding is dropped.
func (r *Reader) ReadSymbol() (value.Symbol, error) {
	off := r.Offset()
	tag, err := r.ReadByte()
	if err != nil {
		return "", err
	}

	switch tag {
	case TagSymbol, TagSymlink:
		return r.readSymbol(tag)
	case TagIVars:
		if limit := r.config.DepthLimit; limit >= 0 && r.depth >= limit {
			return "", encio.NewFormatError(off, encio.ErrDepthLimit, "nesting deeper than %d", limit)
		}
		r.depth++
		defer func() { r.depth-- }()

		s, err := r.ReadSymbol()
		if err != nil {
			return "", err
		}
		if _, err := r.ReadIVars(); err != nil {
			return "", err
		}
		return s, nil
	default:
		return "", encio.NewFormatError(off, encio.ErrMalformed, "want symbol, got tag %q", tag)
	}
}

func (r *Reader) readSymbol(tag byte) (value.Symbol, error) {
	off := r.Offset()
	if tag == TagSymlink {
		i, err := r.ReadInt()
		if err != nil {
			return "", err
		}
		s, ok := r.symbols.get(i)
		if !ok {
			return "", encio.NewFormatError(off, encio.ErrMalformed, "symbol link %d not in table of %d", i, len(r.symbols))
		}
		return s, nil
	}

	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	s := value.Symbol(b)
	r.symbols.add(s)
	return s, nil
}

// capHint bounds preallocation by untrusted counts.
func capHint(n int) int {
	if n > 1024 {
		return 1024
	}
	return n
}
