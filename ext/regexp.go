package ext

import (
	"bytes"
	"errors"
	"regexp"

	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/value"
)

// Regexp option bits.
const (
	RegexpIgnoreCase    = 1 << 0
	RegexpExtended      = 1 << 1
	RegexpMultiline     = 1 << 2
	RegexpFixedEncoding = 1 << 4
	RegexpNoEncoding    = 1 << 5
)

// ErrRegexpExtended is returned by Regexp.Compile for patterns using extended (x) syntax.
var ErrRegexpExtended = errors.New("ext: extended regexp syntax has no Go equivalent")

// Regexp is a regular expression; its source text and option bits.
// Subclasses are wrapped in a value.UserClass, and the source's encoding travels in a value.IVars wrapper.
type Regexp struct {
	Source  []byte
	Options byte
}

// NewRegexp returns a Regexp with the given source and options.
func NewRegexp(source string, options byte) *Regexp {
	return &Regexp{Source: []byte(source), Options: options}
}

// Kind implements value.Value.
func (*Regexp) Kind() value.Kind { return value.KindExtension }

// Equal implements value.Equaler.
func (re *Regexp) Equal(other value.Value, _ func(a, b value.Value) bool) bool {
	p, ok := other.(*Regexp)
	return ok && re.Options == p.Options && bytes.Equal(re.Source, p.Source)
}

func (re *Regexp) String() string {
	var flags []byte
	if re.Options&RegexpMultiline != 0 {
		flags = append(flags, 'm')
	}
	if re.Options&RegexpIgnoreCase != 0 {
		flags = append(flags, 'i')
	}
	if re.Options&RegexpExtended != 0 {
		flags = append(flags, 'x')
	}
	return "/" + string(re.Source) + "/" + string(flags)
}

// Compile compiles the pattern with Go's regexp package.
// Ruby anchors ^ and $ at lines, and its multiline option lets . match newlines; both are mapped to Go flags.
// Ruby-only syntax such as possessive quantifiers or lookaround fails to compile.
func (re *Regexp) Compile() (*regexp.Regexp, error) {
	if re.Options&RegexpExtended != 0 {
		return nil, ErrRegexpExtended
	}

	flags := "(?m"
	if re.Options&RegexpIgnoreCase != 0 {
		flags += "i"
	}
	if re.Options&RegexpMultiline != 0 {
		flags += "s"
	}
	return regexp.Compile(flags + ")" + string(re.Source))
}

// Regexps reads and writes Regexp values.
var Regexps enc.Extension = regexpExt{}

type regexpExt struct{}

func (regexpExt) Tags() []byte { return []byte{TagRegexp} }

func (regexpExt) Handles(v value.Value) bool {
	_, ok := v.(*Regexp)
	return ok
}

func (regexpExt) Encode(w *enc.Writer, v value.Value) error {
	re := v.(*Regexp)
	w.Register(re)
	w.WriteByte(TagRegexp)
	if err := w.WriteBytes(re.Source); err != nil {
		return err
	}
	return w.WriteByte(re.Options)
}

func (regexpExt) Decode(r *enc.Reader, tag byte) (value.Value, error) {
	source, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	options, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	re := &Regexp{Source: source, Options: options}
	r.Register(re)
	return re, nil
}
