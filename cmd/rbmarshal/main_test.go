package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/rmarshal/encio"
	"gopkg.in/yaml.v3"
)

const header = "\x04\x08"

// outline flattens a node tree: scalars become "tag value", collections become a slice headed by their tag,
// anchors are prefixed as "&name" and aliases become "*name".
func outline(n *yaml.Node) interface{} {
	head := n.Tag
	if n.Anchor != "" {
		head = "&" + n.Anchor + " " + head
	}
	switch n.Kind {
	case yaml.AliasNode:
		return "*" + n.Value
	case yaml.ScalarNode:
		return head + " " + n.Value
	}
	out := []interface{}{head}
	for _, c := range n.Content {
		out = append(out, outline(c))
	}
	return out
}

func TestRender(t *testing.T) {
	tests := []struct {
		desc string
		data string
		want interface{}
	}{
		{"nil", "0", "!!null ~"},
		{"symbol", ":\x0ahello", "!ruby/symbol hello"},
		{"float", "f\x081.5", "!!float 1.5"},
		{"whole float", "f\x061", "!!float 1.0"},
		{"infinity", "f\x08inf", "!!float .inf"},
		{"utf-8 string", "I\"\x06a\x06:\x06ET", "!!str a"},
		{"latin-1 string", "I\"\x09caf\xe9\x06:\x0dencoding\"\x0fISO-8859-1", "!!str café"},
		{"binary string", "\"\x07\xff\x00", "!!binary /wA="},
		{"string subclass", "C:\x08Sub\"\x06x", "!ruby/string:Sub x"},
		{"regexp", "/\x08abc\x01", "!ruby/regexp /abc/i"},
		{"class", "c\x0bObject", "!ruby/class Object"},
		{
			"object",
			"o:\x0aPoint\x07:\x07@xi\x06:\x07@yi\x07",
			[]interface{}{"!ruby/object:Point", "!!str x", "!!int 1", "!!str y", "!!int 2"},
		},
		{
			"self reference",
			"[\x07i\x06@\x00",
			[]interface{}{"&v1 !!seq", "!!int 1", "*v1"},
		},
		{
			"shared string",
			"[\x07\"\x06s@\x06",
			[]interface{}{"!!seq", "&v1 !!str s", "*v1"},
		},
		{
			"hash with default",
			"}\x06i\x06i\x07i\x08",
			[]interface{}{"!ruby/hash-with-default", "!!str default", "!!int 3", "!!str pairs", []interface{}{"!!map", "!!int 1", "!!int 2"}},
		},
		{
			"instance variables",
			"I[\x06i\x06\x06:\x07@ai\x07",
			[]interface{}{"!ruby/ivars", "!!str value", []interface{}{"!!seq", "!!int 1"}, "!!str @a", "!!int 2"},
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			vals, err := decodeAll(new(config), []byte(header+test.data))
			td.CmpNoError(t, err)
			td.Cmp(t, vals, td.Len(1))
			td.Cmp(t, outline(newRenderer().render(vals[0])), test.want)
		})
	}
}

func TestDecodeText(t *testing.T) {
	text, err := decodeText([]byte("caf\xe9"), "windows-1252")
	td.CmpNoError(t, err)
	td.Cmp(t, text, "café")

	text, err = decodeText([]byte("plain"), "ASCII-8BIT")
	td.CmpNoError(t, err)
	td.Cmp(t, text, "plain")

	_, err = decodeText([]byte("x"), "no-such-encoding")
	td.CmpError(t, err)
}

func TestParseConfig(t *testing.T) {
	var warnings bytes.Buffer
	old := encio.Warnings
	encio.Warnings = &warnings
	defer func() { encio.Warnings = old }()

	cfg, err := parseConfig([]byte("classes: [Point, Range]\nstrict: true\ndepth_limit: 16\ncolour: blue\n"))
	td.CmpNoError(t, err)
	td.Cmp(t, cfg, &config{
		Classes:    []string{"Point", "Range"},
		Strict:     true,
		DepthLimit: 16,
	})
	td.Cmp(t, warnings.String(), td.Contains(`ignoring unknown key "colour"`))

	cfg, err = parseConfig(nil)
	td.CmpNoError(t, err)
	td.Cmp(t, cfg, &config{})

	_, err = parseConfig([]byte("- a\n- b\n"))
	td.CmpError(t, err)

	_, err = parseConfig([]byte("depth_limit: -1\n"))
	td.CmpError(t, err)
}

func TestStrictClasses(t *testing.T) {
	cfg := &config{Classes: []string{"Point"}, Strict: true}

	_, err := decodeAll(cfg, []byte(header+"o:\x0aPoint\x00"))
	td.CmpNoError(t, err)

	_, err = decodeAll(cfg, []byte(header+"o:\x0bObject\x00"))
	var unknown *encio.UnknownTypeError
	td.CmpTrue(t, errors.As(err, &unknown))
	td.Cmp(t, unknown.Class, "Object")

	cfg.Strict = false
	_, err = decodeAll(cfg, []byte(header+"o:\x0bObject\x00"))
	td.CmpNoError(t, err)
}

func TestMarshalConfig(t *testing.T) {
	mc, err := (&config{Classes: []string{"Point", "Range", "Point"}, Strict: true, DepthLimit: 8}).marshalConfig()
	td.CmpNoError(t, err)
	td.Cmp(t, mc.DepthLimit, 8)
	td.CmpTrue(t, mc.Registry.Strict)
	for _, name := range []string{"Point", "Range"} {
		ty, ok := mc.Registry.Lookup(name)
		td.CmpTrue(t, ok, name)
		td.CmpNil(t, ty, name)
	}
	_, ok := mc.Registry.Lookup("Object")
	td.CmpFalse(t, ok)
}

func TestDecodeAllStreams(t *testing.T) {
	vals, err := decodeAll(new(config), []byte(header+"i\x06"+header+"T"))
	td.CmpNoError(t, err)
	td.Cmp(t, vals, td.Len(2))

	_, err = decodeAll(new(config), []byte(header+"i\x06"+header+"["))
	td.Cmp(t, err, td.Re("stream 2"))
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		td.CmpNoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	return dir
}

func TestInspect(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.bin": header + "o:\x0aPoint\x07:\x07@xi\x06:\x07@yi\x07",
		"b.bin": header + "[\x07i\x06@\x00",
	})
	files := []string{filepath.Join(dir, "a.bin"), filepath.Join(dir, "b.bin")}

	var out bytes.Buffer
	td.CmpNoError(t, inspect(context.Background(), new(config), &out, files, 2))

	s := out.String()
	point := strings.Index(s, "!ruby/object:Point")
	cycle := strings.Index(s, "&v1")
	td.Cmp(t, point, td.Gte(0))
	td.Cmp(t, cycle, td.Gt(point))
	td.Cmp(t, s, td.Contains("*v1"))

	var docs []interface{}
	dec := yaml.NewDecoder(strings.NewReader(s))
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			break
		}
		docs = append(docs, doc.Content[0].Tag)
	}
	td.Cmp(t, docs, []interface{}{"!ruby/object:Point", "!!seq"})

	missing := append(files, filepath.Join(dir, "missing.bin"))
	td.CmpError(t, inspect(context.Background(), new(config), &out, missing, 1))
}

func TestVerify(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"canonical.bin": header + "[\x07i\x06:\x06a",
		"ruby.bin":      header + "I\"\x06a\x06:\x06ET",
		"broken.bin":    header + "[\x07i\x06",
	})
	path := func(name string) string { return filepath.Join(dir, name) }

	var out bytes.Buffer
	err := verify(context.Background(), new(config), &out, []string{path("canonical.bin"), path("ruby.bin")}, 2)
	td.CmpNoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	td.Cmp(t, lines, []string{
		"ok   " + path("canonical.bin"),
		"ok   " + path("ruby.bin") + " (stream 1 re-encodes differently from byte 2)",
	})

	out.Reset()
	err = verify(context.Background(), new(config), &out, []string{path("broken.bin")}, 1)
	td.Cmp(t, err, td.Re("1 of 1 files failed"))
	td.Cmp(t, out.String(), td.HasPrefix("FAIL "+path("broken.bin")))
}

func TestRedump(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"in.bin": header + "I\"\x06a\x06:\x06ET" + header + "i\x06",
	})
	out := filepath.Join(dir, "out.bin")

	td.CmpNoError(t, redump(new(config), filepath.Join(dir, "in.bin"), out))
	data, err := os.ReadFile(out)
	td.CmpNoError(t, err)
	td.Cmp(t, string(data), header+"\"\x06a"+header+"i\x06")
}
