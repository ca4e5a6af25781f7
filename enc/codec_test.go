package enc_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/value"
)

const header = "\x04\x08"

func encode(t *testing.T, v value.Value, config *enc.Config) []byte {
	t.Helper()
	b, err := enc.NewWriter(config).Encode(v)
	if err != nil {
		t.Fatalf("encoding %v: %v", v, err)
	}
	return append([]byte(nil), b...)
}

func decode(t *testing.T, b []byte, config *enc.Config) value.Value {
	t.Helper()
	v, err := enc.NewReader(bytes.NewReader(b), config).Decode()
	if err != nil {
		t.Fatalf("decoding %q: %v", b, err)
	}
	return v
}

type vectorCase struct {
	desc string
	v    value.Value
	want string
}

func vectorCases() []vectorCase {
	sharedFloat := value.NewFloat(1)

	return []vectorCase{
		{"int 0", value.Integer(0), "i\x00"},
		{"int 1", value.Integer(1), "i\x06"},
		{"int -1", value.Integer(-1), "i\xfa"},
		{"int 124", value.Integer(124), "i\x01\x7c"},
		{"int 256", value.Integer(256), "i\x02\x00\x01"},
		{"int -125", value.Integer(-125), "i\xff\x83"},
		{"int -254", value.Integer(-254), "i\xff\x02"},
		{"int -255", value.Integer(-255), "i\xff\x01"},
		{"int -256", value.Integer(-256), "i\xff\x00"},
		{"int -257", value.Integer(-257), "i\xfe\xff\xfe"},
		{"bignum 2^31", value.Integer(1 << 31), "l+\x07\x00\x00\x00\x80"},
		{"bignum -2^40", value.Integer(-(1 << 40)), "l-\x08\x00\x00\x00\x00\x00\x01"},

		{"nil", value.Nil{}, "0"},
		{"true", value.Bool(true), "T"},
		{"false", value.Bool(false), "F"},
		{"symbol", value.Symbol("hogehoge"), ":\x0dhogehoge"},
		{"string", value.NewString("hogehoge"), "\"\x0dhogehoge"},
		{"float 1.0", value.NewFloat(1), "f\x061"},
		{"float 1.5", value.NewFloat(1.5), "f\x081.5"},
		{"float 1e20", value.NewFloat(1e20), "f\x091e20"},
		{"float inf", value.NewFloat(math.Inf(1)), "f\x08inf"},

		{
			"array",
			value.NewArray(value.NewString("hogehoge"), value.Symbol("hogehoge")),
			"[\x07\"\x0dhogehoge:\x0dhogehoge",
		},
		{
			"hash",
			&value.Hash{Pairs: []value.Pair{{Key: value.NewString("hogehoge"), Value: value.Symbol("hogehoge")}}},
			"{\x06\"\x0dhogehoge:\x0dhogehoge",
		},
		{
			"hash with default",
			&value.Hash{
				Pairs:   []value.Pair{{Key: value.NewString("hoo"), Value: value.NewString("boo")}},
				Default: value.Bool(true),
			},
			"}\x06\"\x08hoo\"\x08booT",
		},
		{
			"repeated symbol",
			value.NewArray(value.Symbol("a"), value.Symbol("b"), value.Symbol("a")),
			"[\x08:\x06a:\x06b;\x00",
		},

		{
			"string subclass",
			&value.UserClass{Class: "StringSub", Payload: value.NewString("foo")},
			"C:\x0eStringSub\"\x08foo",
		},
		{
			"hash subclass with ivars",
			&value.IVars{
				Value: &value.UserClass{
					Class: "HashSubIV",
					Payload: &value.Hash{
						Pairs:   []value.Pair{{Key: value.NewString("val"), Value: value.Nil{}}},
						Default: value.NewString("foo"),
					},
				},
				Vars: []value.IVar{{Name: "@val", Value: value.NewString("foo")}},
			},
			"IC:\x0eHashSubIV}\x06\"\x08val0\"\x08foo\x06:\x09@val\"\x08foo",
		},

		{
			"shared float",
			&value.Hash{Pairs: []value.Pair{
				{Key: value.Symbol("a"), Value: value.NewArray(sharedFloat, value.Integer(2), value.Integer(3), value.Integer(2))},
				{Key: value.Symbol("b"), Value: value.NewArray(value.Integer(4), value.Integer(5), sharedFloat, value.Integer(2), value.Integer(2))},
			}},
			"{\x07:\x06a[\x09f\x061i\x07i\x08i\x07:\x06b[\x0ai\x09i\x0a@\x07i\x07i\x07",
		},
	}
}

func TestVectors(t *testing.T) {
	for _, tC := range vectorCases() {
		t.Run(tC.desc, func(t *testing.T) {
			got := encode(t, tC.v, nil)
			td.Cmp(t, string(got), header+tC.want)

			back := decode(t, got, nil)
			if !value.Equal(back, tC.v) {
				t.Errorf("decoded %v, want %v", back, tC.v)
			}
		})
	}
}

func TestDeterministic(t *testing.T) {
	w := enc.NewWriter(nil)
	for _, tC := range vectorCases() {
		first, err := w.Encode(tC.v)
		td.CmpNoError(t, err)
		first = append([]byte(nil), first...)

		second, err := w.Encode(tC.v)
		td.CmpNoError(t, err)
		td.Cmp(t, second, first, tC.desc)
	}
}

func TestRoundTripFloats(t *testing.T) {
	floats := []float64{
		0, math.Copysign(0, -1), 1, -1, 0.1, 0.001, 0.0001, 1.5e-7, 100, 1e16, 1e17, 123456789.125,
		math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(1), math.Inf(-1), math.NaN(),
	}

	for _, f := range floats {
		t.Run(fmt.Sprint(f), func(t *testing.T) {
			back := decode(t, encode(t, value.NewFloat(f), nil), nil)
			got, ok := back.(*value.Float)
			if !ok {
				t.Fatalf("decoded %T, want *value.Float", back)
			}
			if math.IsNaN(f) {
				td.CmpTrue(t, math.IsNaN(got.V))
				return
			}
			td.Cmp(t, got.V, f)
			td.Cmp(t, math.Signbit(got.V), math.Signbit(f))
		})
	}
}

func TestFormatFloat(t *testing.T) {
	testCases := []struct {
		f    float64
		want string
	}{
		{1, "1"},
		{-2.5, "-2.5"},
		{100, "1e2"},
		{120, "1.2e2"},
		{123, "123"},
		{0.001, "0.001"},
		{0.0001, "0.0001"},
		{0.00001, "1e-5"},
		{1.5e-7, "1.5e-7"},
		{1e20, "1e20"},
		{math.Copysign(0, -1), "-0"},
		{math.NaN(), "nan"},
		{math.Inf(-1), "-inf"},
	}

	for _, tC := range testCases {
		td.Cmp(t, enc.FormatFloat(tC.f), tC.want, "%v", tC.f)
	}
}

func TestParseFloatTrailingMantissa(t *testing.T) {
	f, err := enc.ParseFloat([]byte("1.1\x00\x9a\x99"))
	td.CmpNoError(t, err)
	td.Cmp(t, f, 1.1)

	_, err = enc.ParseFloat([]byte("one"))
	td.CmpError(t, err)
}

func TestRoundTripIntegers(t *testing.T) {
	ints := []int64{
		0, 1, -1, 122, 123, -123, -124, 255, 256, -256, -257, 65535, 65536,
		math.MaxInt32, math.MinInt32, math.MaxInt32 + 1, math.MinInt32 - 1,
		1 << 47, -(1 << 47), math.MaxInt64, math.MinInt64,
	}

	for _, n := range ints {
		back := decode(t, encode(t, value.Integer(n), nil), nil)
		td.Cmp(t, back, value.Integer(n), "%d", n)
	}
}

func TestIdentityLinks(t *testing.T) {
	s := value.NewString("shared")
	a := value.NewArray(s, s, value.NewString("shared"))

	b := encode(t, a, nil)
	td.Cmp(t, string(b), header+"[\x08\"\x0bshared@\x06\"\x0bshared")

	back := decode(t, b, nil).(*value.Array)
	td.Cmp(t, back.Len(), 3)
	td.Cmp(t, back.Elems[1], td.Shallow(back.Elems[0]))
	if back.Elems[2] == back.Elems[0] {
		t.Errorf("equal but distinct strings decoded as one object")
	}
}

func TestSelfReference(t *testing.T) {
	a := value.NewArray(value.Integer(1))
	a.Append(a)

	b := encode(t, a, nil)
	td.Cmp(t, string(b), header+"[\x07i\x06@\x00")

	back := decode(t, b, nil).(*value.Array)
	td.Cmp(t, back.Elems[1], td.Shallow(back))
	td.CmpTrue(t, value.Equal(back, a))
}

func TestSelfReferentialHash(t *testing.T) {
	h := value.NewHash(1)
	h.Set(value.Symbol("self"), h)

	back := decode(t, encode(t, h, nil), nil).(*value.Hash)
	td.Cmp(t, back.Get(value.Symbol("self")), td.Shallow(back))
}

func TestWrappedLinks(t *testing.T) {
	iv := &value.IVars{
		Value: value.NewString("x"),
		Vars:  []value.IVar{{Name: "@tag", Value: value.Integer(1)}},
	}
	a := value.NewArray(iv, iv, iv.Value)

	b := encode(t, a, nil)
	// The wrapper and the string it wraps share index 1.
	td.Cmp(t, string(b), header+"[\x08I\"\x06x\x06:\x09@tagi\x06@\x06@\x06")

	back := decode(t, b, nil).(*value.Array)
	got, ok := back.Elems[0].(*value.IVars)
	if !ok {
		t.Fatalf("decoded %T, want *value.IVars", back.Elems[0])
	}
	td.Cmp(t, got.Get("@tag"), value.Integer(1))
	td.Cmp(t, back.Elems[1], td.Shallow(got))
	// A link to a wrapped value refers to the whole.
	td.Cmp(t, back.Elems[2], td.Shallow(got))
}

func TestWrapperAroundLink(t *testing.T) {
	// A wrapper around a link takes no index, so the instance variable after it keeps its own.
	x, s := value.NewString("x"), value.NewString("s")
	uc := &value.UserClass{
		Class: "A",
		Payload: &value.IVars{
			Value: x,
			Vars:  []value.IVar{{Name: "@v", Value: s}},
		},
	}
	a := value.NewArray(x, uc, s)

	b := encode(t, a, nil)
	td.Cmp(t, string(b), header+"[\x08\"\x06xC:\x06AI@\x06\x06:\x07@v\"\x06s@\x07")

	back := decode(t, b, nil).(*value.Array)
	td.CmpTrue(t, value.Equal(back, a))
	td.Cmp(t, back.Elems[2], td.Shallow(back.Elems[1].(*value.UserClass).Payload.(*value.IVars).Vars[0].Value))
	td.Cmp(t, back.Elems[1].(*value.UserClass).Payload.(*value.IVars).Value, td.Shallow(back.Elems[0]))

	// The same bytes with an integer in place of the link.
	b = []byte(header + "[\x08\"\x06xC:\x06AIi\x06\x06:\x07@v\"\x06s@\x07")
	back = decode(t, b, nil).(*value.Array)
	str, ok := back.Elems[2].(*value.String)
	if !ok {
		t.Fatalf("decoded %T, want *value.String", back.Elems[2])
	}
	td.Cmp(t, string(str.Bytes), "s")
}

func TestEncodingFlagDropped(t *testing.T) {
	b := []byte(header + "[\x07I\"\x06x\x06:\x06ET@\x06")

	back := decode(t, b, nil).(*value.Array)
	s, ok := back.Elems[0].(*value.String)
	if !ok {
		t.Fatalf("decoded %T, want *value.String", back.Elems[0])
	}
	td.Cmp(t, string(s.Bytes), "x")
	td.Cmp(t, back.Elems[1], td.Shallow(s))
}

func TestEncodedSymbols(t *testing.T) {
	// Symbols carrying an encoding, both as values and as names.
	b := []byte(header + "[\x07I:\x06a\x06:\x06ETIC;\x00\"\x06x\x06;\x06F")

	back := decode(t, b, nil).(*value.Array)
	td.Cmp(t, back.Elems[0], value.Symbol("a"))
	td.Cmp(t, back.Elems[1], &value.UserClass{Class: "a", Payload: value.NewString("x")})
}

func TestEmptyIVarsInlined(t *testing.T) {
	v := &value.IVars{Value: value.NewString("x")}
	td.Cmp(t, string(encode(t, v, nil)), header+"\"\x06x")
}

func TestNilPointers(t *testing.T) {
	var s *value.String
	a := value.NewArray(nil, s)
	td.Cmp(t, string(encode(t, a, nil)), header+"[\x0700")
}

func TestDepthLimit(t *testing.T) {
	nested := value.NewArray(value.NewArray(value.NewArray()))
	config := &enc.Config{DepthLimit: 2}

	_, err := enc.NewWriter(config).Encode(nested)
	td.CmpTrue(t, errors.Is(err, encio.ErrDepthLimit))
	var uerr *encio.UnsupportedValueError
	td.CmpTrue(t, errors.As(err, &uerr))

	b := encode(t, nested, nil)
	_, err = enc.NewReader(bytes.NewReader(b), config).Decode()
	td.CmpTrue(t, errors.Is(err, encio.ErrDepthLimit))
	var ferr *encio.FormatError
	td.CmpTrue(t, errors.As(err, &ferr))

	unlimited := &enc.Config{DepthLimit: -1}
	deep := value.NewArray()
	for i := 0; i < enc.DefaultDepthLimit+10; i++ {
		deep = value.NewArray(deep)
	}
	b, err = enc.NewWriter(unlimited).Encode(deep)
	td.CmpNoError(t, err)
	_, err = enc.NewReader(bytes.NewReader(b), unlimited).Decode()
	td.CmpNoError(t, err)
}

func TestSymbolDepthLimit(t *testing.T) {
	// Encoding wrappers around a class name count towards the depth.
	const n = 100000
	in := header + "C" + strings.Repeat("I", n) + ":\x06a" + strings.Repeat("\x00", n) + "\"\x06x"

	_, err := enc.NewReader(strings.NewReader(in), &enc.Config{DepthLimit: 10}).Decode()
	td.CmpTrue(t, errors.Is(err, encio.ErrDepthLimit))
	var ferr *encio.FormatError
	td.CmpTrue(t, errors.As(err, &ferr))

	// One level, as Ruby writes it, is fine.
	v, err := enc.NewReader(strings.NewReader(header+"CI:\x06a\x06:\x06ET\"\x06x"), &enc.Config{DepthLimit: 10}).Decode()
	td.CmpNoError(t, err)
	td.Cmp(t, v, &value.UserClass{Class: "a", Payload: value.NewString("x")})
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		desc string
		in   string
		is   error
	}{
		{"truncated header", "\x04", io.ErrUnexpectedEOF},
		{"bad version", "\x04\x09i\x00", encio.ErrVersion},
		{"old version", "\x03\x08i\x00", encio.ErrVersion},
		{"missing value", header, io.ErrUnexpectedEOF},
		{"truncated string", header + "\"\x0dhoge", io.ErrUnexpectedEOF},
		{"truncated int", header + "i\x02\x00", io.ErrUnexpectedEOF},
		{"truncated array", header + "[\x07i\x06", io.ErrUnexpectedEOF},
		{"unknown tag", header + "x", encio.ErrMalformed},
		{"extension tag without extension", header + "o:\x06A\x00", encio.ErrMalformed},
		{"bad link", header + "[\x06@\x07", encio.ErrMalformed},
		{"bad symbol link", header + ";\x00", encio.ErrMalformed},
		{"negative length", header + "\"\xfa", encio.ErrMalformed},
		{"class name not a symbol", header + "C\"\x06A\"\x00", encio.ErrMalformed},
		{"bad float", header + "f\x06x", encio.ErrMalformed},
		{"bad bignum sign", header + "l*\x06\x01\x00", encio.ErrMalformed},
		{"oversized bignum", header + "l+\x0a\x00\x00\x00\x00\x00\x00\x00\x00\x01\x00", encio.ErrMalformed},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			v, err := enc.NewReader(bytes.NewReader([]byte(tC.in)), nil).Decode()
			td.CmpNil(t, v)
			var ferr *encio.FormatError
			if !errors.As(err, &ferr) {
				t.Fatalf("got %v, want a FormatError", err)
			}
			td.CmpTrue(t, errors.Is(err, tC.is), "got %v", err)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	_, err := enc.NewReader(bytes.NewReader(nil), nil).Decode()
	td.Cmp(t, err, io.EOF)
}

func TestDecodeStream(t *testing.T) {
	var stream []byte
	for _, v := range []value.Value{value.Integer(1), value.NewString("a"), value.NewString("a")} {
		stream = append(stream, encode(t, v, nil)...)
	}

	r := enc.NewReader(bytes.NewReader(stream), nil)
	for _, want := range []value.Value{value.Integer(1), value.NewString("a"), value.NewString("a")} {
		got, err := r.Decode()
		td.CmpNoError(t, err)
		td.CmpTrue(t, value.Equal(got, want))
	}
	_, err := r.Decode()
	td.Cmp(t, err, io.EOF)
	td.Cmp(t, r.Offset(), int64(len(stream)))
}

type unsupported struct{ value.Nil }

func (unsupported) Kind() value.Kind { return value.KindExtension }

func TestUnsupportedValue(t *testing.T) {
	_, err := enc.NewWriter(nil).Encode(value.NewArray(unsupported{}))
	var uerr *encio.UnsupportedValueError
	td.CmpTrue(t, errors.As(err, &uerr))

	_, err = enc.NewWriter(nil).Encode(struct{}{})
	td.CmpTrue(t, errors.As(err, &uerr))
}

type classes map[value.Symbol]func(value.Value) value.Value

func (c classes) Classify(v interface{}) (value.Value, error) {
	return enc.Generic.Classify(v)
}

func (c classes) Construct(class value.Symbol, v value.Value) (value.Value, error) {
	fn, ok := c[class]
	if !ok {
		return nil, &encio.UnknownTypeError{Class: string(class)}
	}
	return fn(v), nil
}

func TestConstruct(t *testing.T) {
	config := &enc.Config{
		Adapter: classes{
			"Upper": func(v value.Value) value.Value {
				s := value.Unwrap(v).(*value.String)
				return value.NewString(string(bytes.ToUpper(s.Bytes)))
			},
		},
	}

	uc := &value.UserClass{Class: "Upper", Payload: value.NewString("abc")}
	b := encode(t, value.NewArray(uc, uc), nil)

	back := decode(t, b, config).(*value.Array)
	td.Cmp(t, back.Elems[0], value.NewString("ABC"))
	// Links follow the constructed value.
	td.Cmp(t, back.Elems[1], td.Shallow(back.Elems[0]))

	_, err := enc.NewReader(bytes.NewReader(encode(t, &value.UserClass{Class: "Lower", Payload: value.NewString("x")}, nil)), config).Decode()
	var terr *encio.UnknownTypeError
	if td.CmpTrue(t, errors.As(err, &terr)) {
		td.Cmp(t, terr.Class, "Lower")
	}
}

func TestConfigConflicts(t *testing.T) {
	td.CmpPanic(t, func() {
		enc.NewWriter(&enc.Config{Extensions: []enc.Extension{tagClaimer{'['}}})
	}, td.Contains("core"))

	td.CmpPanic(t, func() {
		enc.NewReader(nil, &enc.Config{Extensions: []enc.Extension{tagClaimer{'o'}, tagClaimer{'o'}}})
	}, td.Contains("both claim"))
}

type tagClaimer []byte

func (t tagClaimer) Tags() []byte                                { return t }
func (tagClaimer) Handles(value.Value) bool                      { return false }
func (tagClaimer) Encode(*enc.Writer, value.Value) error         { return nil }
func (tagClaimer) Decode(*enc.Reader, byte) (value.Value, error) { return value.Nil{}, nil }
