package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/stewi1014/rmarshal"
	"github.com/stewi1014/rmarshal/value"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

func readFile(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}

// decodeAll decodes every stream in data.
func decodeAll(cfg *config, data []byte) ([]value.Value, error) {
	mc, err := cfg.marshalConfig()
	if err != nil {
		return nil, err
	}
	dec := rmarshal.NewDecoder(bytes.NewReader(data), mc)
	var vals []value.Value
	for {
		v, err := dec.DecodeValue()
		if err == io.EOF {
			return vals, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "stream %d", len(vals)+1)
		}
		vals = append(vals, v)
	}
}

// inspect prints each file's values as YAML documents, in the order the files were given.
func inspect(ctx context.Context, cfg *config, w io.Writer, files []string, jobs int) error {
	docs := make([][]*yaml.Node, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := readFile(file)
			if err != nil {
				return err
			}
			vals, err := decodeAll(cfg, data)
			if err != nil {
				return errors.Wrap(err, file)
			}
			for j, v := range vals {
				doc := &yaml.Node{
					Kind:        yaml.DocumentNode,
					HeadComment: fmt.Sprintf("%s #%d", file, j+1),
					Content:     []*yaml.Node{newRenderer().render(v)},
				}
				docs[i] = append(docs[i], doc)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e := yaml.NewEncoder(w)
	e.SetIndent(2)
	for _, fileDocs := range docs {
		for _, doc := range fileDocs {
			if err := e.Encode(doc); err != nil {
				return errors.Wrap(err, "writing yaml")
			}
		}
	}
	return e.Close()
}

// redump decodes file and encodes its values again, to out or standard output.
func redump(cfg *config, file, out string) (err error) {
	data, err := readFile(file)
	if err != nil {
		return err
	}
	vals, err := decodeAll(cfg, data)
	if err != nil {
		return errors.Wrap(err, file)
	}
	mc, err := cfg.marshalConfig()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out != "" && out != "-" {
		f, ferr := os.Create(out)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	encoder := rmarshal.NewEncoder(w, mc)
	for i, v := range vals {
		if err := encoder.Encode(v); err != nil {
			return errors.Wrapf(err, "encoding stream %d", i+1)
		}
	}
	return nil
}

// verify checks every file with verifyData, and reports each result on w.
// It fails if any file does.
func verify(ctx context.Context, cfg *config, w io.Writer, files []string, jobs int) error {
	notes := make([]string, len(files))
	failures := make([]error, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := readFile(file)
			if err == nil {
				notes[i], err = verifyData(cfg, data)
			}
			failures[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, file := range files {
		switch {
		case failures[i] != nil:
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", file, failures[i])
		case notes[i] != "":
			fmt.Fprintf(w, "ok   %s (%s)\n", file, notes[i])
		default:
			fmt.Fprintf(w, "ok   %s\n", file)
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d files failed verification", failed, len(files))
	}
	return nil
}

// verifyData decodes each stream in data, encodes it again and decodes the result,
// failing unless both decodings are equal.
// The returned note says where the re-encoding first differs from data, if it does.
func verifyData(cfg *config, data []byte) (string, error) {
	mc, err := cfg.marshalConfig()
	if err != nil {
		return "", err
	}
	dec := rmarshal.NewDecoder(bytes.NewReader(data), mc)

	var note string
	var start int64
	for n := 1; ; n++ {
		v, err := dec.DecodeValue()
		if err == io.EOF {
			return note, nil
		}
		if err != nil {
			return "", errors.Wrapf(err, "stream %d", n)
		}
		end := dec.Offset()

		b, err := rmarshal.DumpWith(v, mc)
		if err != nil {
			return "", errors.Wrapf(err, "re-encoding stream %d", n)
		}
		if orig := data[start:end]; note == "" && !bytes.Equal(orig, b) {
			note = fmt.Sprintf("stream %d re-encodes differently from byte %d", n, start+int64(firstDiff(orig, b)))
		}

		again, err := rmarshal.LoadWith(b, mc)
		if err != nil {
			return "", errors.Wrapf(err, "decoding re-encoded stream %d", n)
		}
		if !value.Equal(v, again) {
			return "", errors.Errorf("stream %d decodes differently after re-encoding", n)
		}
		start = end
	}
}

func firstDiff(a, b []byte) int {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	return i
}
