package main

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/encio"
	"github.com/stewi1014/rmarshal/ext"
	"github.com/stewi1014/rmarshal/value"
	"golang.org/x/text/encoding/ianaindex"
	"gopkg.in/yaml.v3"
)

// YAML tags for Ruby values, following the names Psych uses.
const (
	tagSymbol      = "!ruby/symbol"
	tagObject      = "!ruby/object:"
	tagStruct      = "!ruby/struct:"
	tagRegexp      = "!ruby/regexp"
	tagUserDefined = "!ruby/marshalable:"
	tagUserMarshal = "!ruby/marshal-dump:"
	tagClass       = "!ruby/class"
	tagModule      = "!ruby/module"
	tagExtended    = "!ruby/extended"
	tagIVars       = "!ruby/ivars"
	tagHashDefault = "!ruby/hash-with-default"
)

// renderer converts a decoded value tree into YAML nodes.
// Values reached more than once are anchored on first use and aliased after.
type renderer struct {
	nodes   map[value.Value]*yaml.Node
	anchors int
}

func newRenderer() *renderer {
	return &renderer{nodes: make(map[value.Value]*yaml.Node)}
}

func (r *renderer) render(v value.Value) *yaml.Node {
	if hasIdentity(v) {
		if n, ok := r.nodes[v]; ok {
			if n.Anchor == "" {
				r.anchors++
				n.Anchor = "v" + strconv.Itoa(r.anchors)
			}
			return &yaml.Node{Kind: yaml.AliasNode, Value: n.Anchor, Alias: n}
		}
	}
	n := new(yaml.Node)
	r.fill(n, v)
	return n
}

// fill renders v into n, which is registered as v's node before any members are rendered.
func (r *renderer) fill(n *yaml.Node, v value.Value) {
	if hasIdentity(v) {
		r.nodes[v] = n
	}

	switch x := v.(type) {
	case nil, value.Nil:
		setScalar(n, "!!null", "~")
	case value.Bool:
		setScalar(n, "!!bool", strconv.FormatBool(bool(x)))
	case value.Integer:
		setScalar(n, "!!int", strconv.FormatInt(int64(x), 10))
	case value.Symbol:
		setScalar(n, tagSymbol, string(x))
	case *value.Float:
		setScalar(n, "!!float", formatFloat(x.V))
	case *value.String:
		r.fillBytes(n, x.Bytes)

	case *value.Array:
		n.Kind = yaml.SequenceNode
		n.Tag = "!!seq"
		for _, elem := range x.Elems {
			n.Content = append(n.Content, r.render(elem))
		}

	case *value.Hash:
		pairs := n
		if x.HasDefault() {
			pairs = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			n.Kind = yaml.MappingNode
			n.Tag = tagHashDefault
			n.Content = []*yaml.Node{
				stringNode("default"), r.render(x.Default),
				stringNode("pairs"), pairs,
			}
		} else {
			n.Kind = yaml.MappingNode
			n.Tag = "!!map"
		}
		for _, p := range x.Pairs {
			pairs.Content = append(pairs.Content, r.render(p.Key), r.render(p.Value))
		}

	case *value.UserClass:
		r.fill(n, x.Payload)
		n.Tag = "!ruby/" + kindWord(x.Payload) + ":" + string(x.Class)

	case *value.IVars:
		r.fillIVars(n, x)

	case *ext.Object:
		r.fillVars(n, tagObject+string(x.Class), x.Vars, "@")
	case *ext.Struct:
		r.fillVars(n, tagStruct+string(x.Class), x.Members, "")
	case *ext.Regexp:
		setScalar(n, tagRegexp, x.String())
	case *ext.UserDefined:
		n.Kind = yaml.MappingNode
		n.Tag = tagUserDefined + string(x.Class)
		data := new(yaml.Node)
		r.fillBytes(data, x.Data)
		n.Content = []*yaml.Node{stringNode("data"), data}
	case *ext.UserMarshal:
		n.Kind = yaml.MappingNode
		n.Tag = tagUserMarshal + string(x.Class)
		n.Content = []*yaml.Node{stringNode("data"), r.render(x.Data)}
	case *ext.ClassRef:
		tag := tagClass
		if x.Ref == ext.RefModule {
			tag = tagModule
		}
		setScalar(n, tag, x.Name)
	case *ext.Extended:
		n.Kind = yaml.MappingNode
		n.Tag = tagExtended
		n.Content = []*yaml.Node{
			stringNode("module"), setScalar(new(yaml.Node), tagSymbol, string(x.Module)),
			stringNode("value"), r.render(x.Value),
		}

	default:
		setScalar(n, "!!str", fmt.Sprintf("%v", v))
		n.LineComment = "unrecognised " + v.Kind().String()
	}
}

// fillIVars renders instance variables. A string's encoding is applied to its text rather than listed.
func (r *renderer) fillIVars(n *yaml.Node, iv *value.IVars) {
	var vars []value.IVar
	var encoding value.Value
	for _, v := range iv.Vars {
		switch v.Name {
		case enc.IVarEncodingFlag:
		case enc.IVarEncodingName:
			encoding = v.Value
		default:
			vars = append(vars, v)
		}
	}

	target := n
	if len(vars) > 0 {
		target = new(yaml.Node)
		n.Kind = yaml.MappingNode
		n.Tag = tagIVars
		n.Content = []*yaml.Node{stringNode("value"), target}
		for _, v := range vars {
			n.Content = append(n.Content, stringNode(string(v.Name)), r.render(v.Value))
		}
	}

	if hasIdentity(iv.Value) && r.nodes[iv.Value] != nil {
		*target = *r.render(iv.Value)
		return
	}
	s, isString := iv.Value.(*value.String)
	name, named := value.Unwrap(encoding).(*value.String)
	if !isString || !named {
		r.fill(target, iv.Value)
		return
	}

	r.nodes[s] = target
	text, err := decodeText(s.Bytes, string(name.Bytes))
	if err != nil {
		fmt.Fprintf(encio.Warnings, "%s: %v\n", progName, err)
		r.fillBytes(target, s.Bytes)
		return
	}
	setScalar(target, "!!str", text)
}

func (r *renderer) fillVars(n *yaml.Node, tag string, vars []value.IVar, prefix string) {
	n.Kind = yaml.MappingNode
	n.Tag = tag
	for _, v := range vars {
		n.Content = append(n.Content, stringNode(strings.TrimPrefix(string(v.Name), prefix)), r.render(v.Value))
	}
}

// fillBytes renders b as text if it is valid UTF-8, and as base64 otherwise.
func (r *renderer) fillBytes(n *yaml.Node, b []byte) {
	if utf8.Valid(b) {
		setScalar(n, "!!str", string(b))
		return
	}
	setScalar(n, "!!binary", base64.StdEncoding.EncodeToString(b))
}

// decodeText converts b from the named encoding to UTF-8.
func decodeText(b []byte, name string) (string, error) {
	switch strings.ToUpper(name) {
	case "ASCII-8BIT", "BINARY":
		if utf8.Valid(b) {
			return string(b), nil
		}
		return "", errors.Errorf("binary string is not valid text")
	}

	e, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return "", errors.Wrapf(err, "string encoding %q", name)
	}
	if e == nil {
		return "", errors.Errorf("string encoding %q is not supported", name)
	}
	out, err := e.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrapf(err, "decoding %s string", name)
	}
	return string(out), nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := enc.FormatFloat(f)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func kindWord(v value.Value) string {
	switch value.Unwrap(v).(type) {
	case *value.String:
		return "string"
	case *value.Array:
		return "array"
	case *value.Hash:
		return "hash"
	case *ext.Regexp:
		return "regexp"
	}
	return "object"
}

func hasIdentity(v value.Value) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Kind() == reflect.Ptr
}

func setScalar(n *yaml.Node, tag, text string) *yaml.Node {
	n.Kind = yaml.ScalarNode
	n.Tag = tag
	n.Value = text
	return n
}

func stringNode(s string) *yaml.Node {
	return setScalar(new(yaml.Node), "!!str", s)
}
