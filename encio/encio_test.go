package encio_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/rmarshal/encio"
)

// halfWriter writes half of every call and reports no error.
type halfWriter struct {
	bytes.Buffer
}

func (h *halfWriter) Write(p []byte) (int, error) {
	n := (len(p) + 1) / 2
	return h.Buffer.Write(p[:n])
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func captureWarnings(t *testing.T) *bytes.Buffer {
	t.Helper()
	var warnings bytes.Buffer
	old := encio.Warnings
	encio.Warnings = &warnings
	t.Cleanup(func() { encio.Warnings = old })
	return &warnings
}

func TestRead(t *testing.T) {
	buff := make([]byte, 5)
	td.CmpNoError(t, encio.Read(buff, iotest.OneByteReader(strings.NewReader("hello world"))))
	td.Cmp(t, string(buff), "hello")

	err := encio.Read(buff, strings.NewReader("hi"))
	td.Cmp(t, err, io.ErrUnexpectedEOF)

	err = encio.Read(buff, iotest.ErrReader(errors.New("broken")))
	var ioErr encio.IOError
	td.CmpTrue(t, errors.As(err, &ioErr))
}

func TestWrite(t *testing.T) {
	warnings := captureWarnings(t)

	var w halfWriter
	td.CmpNoError(t, encio.Write([]byte("abcdefgh"), &w))
	td.Cmp(t, w.String(), "abcdefgh")
	td.Cmp(t, warnings.String(), td.Contains("bad io.Writer"))

	err := encio.Write([]byte("x"), failingWriter{})
	var ioErr encio.IOError
	td.CmpTrue(t, errors.As(err, &ioErr))
	td.Cmp(t, err.Error(), td.Contains("disk full"))
}

func TestBuffer(t *testing.T) {
	var b encio.Buffer
	b.Write([]byte("ab"))
	b.WriteByte('c')
	b.WriteString("def")
	td.Cmp(t, b.Len(), 6)
	td.Cmp(t, string(b.Bytes()), "abcdef")

	by, err := b.ReadByte()
	td.CmpNoError(t, err)
	td.Cmp(t, by, byte('a'))
	td.CmpNoError(t, b.UnreadByte())

	buff := make([]byte, 4)
	n, err := b.Read(buff)
	td.CmpNoError(t, err)
	td.Cmp(t, string(buff[:n]), "abcd")

	n, err = b.Read(buff)
	td.Cmp(t, err, io.EOF)
	td.Cmp(t, string(buff[:n]), "ef")

	b.Reset()
	td.Cmp(t, b.Len(), 0)
	td.CmpError(t, b.UnreadByte())
	_, err = b.ReadByte()
	td.Cmp(t, err, io.EOF)
}

func TestReader(t *testing.T) {
	r := encio.NewReader(iotest.OneByteReader(strings.NewReader("abcdef")))

	b, err := r.ReadByte()
	td.CmpNoError(t, err)
	td.Cmp(t, b, byte('a'))

	got, err := r.ReadFull(3)
	td.CmpNoError(t, err)
	td.Cmp(t, string(got), "bcd")
	td.Cmp(t, r.Offset(), int64(4))

	td.CmpNoError(t, r.Peek())
	td.Cmp(t, r.Offset(), int64(4))

	_, err = r.ReadFull(5)
	var format *encio.FormatError
	td.CmpTrue(t, errors.As(err, &format))
	td.CmpTrue(t, errors.Is(err, io.ErrUnexpectedEOF))
	td.Cmp(t, format.Offset, int64(4))

	_, err = r.ReadFull(-1)
	td.CmpTrue(t, errors.Is(err, encio.ErrMalformed))
}

func TestReaderEOF(t *testing.T) {
	r := encio.NewReader(encio.NewBuffer([]byte("x")))
	td.CmpNoError(t, r.Peek())
	_, err := r.ReadByte()
	td.CmpNoError(t, err)

	td.Cmp(t, r.Peek(), io.EOF)

	_, err = r.ReadByte()
	td.CmpTrue(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestErrors(t *testing.T) {
	err := encio.NewFormatError(12, nil, "bad tag %q", 'z')
	td.CmpTrue(t, errors.Is(err, encio.ErrMalformed))
	td.Cmp(t, err.Error(), td.Contains("offset 12"))
	td.Cmp(t, err.Error(), td.Contains(`bad tag 'z'`))

	err = encio.NewUnsupportedValueError(make(chan int), nil, "cannot encode channels")
	td.CmpTrue(t, errors.Is(err, encio.ErrUnsupported))
	td.Cmp(t, err.Error(), td.Contains("chan int"))

	err = &encio.UnknownTypeError{Class: "Foo"}
	td.Cmp(t, err.Error(), td.Contains("Foo"))
}
