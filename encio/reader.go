package encio

import (
	"bufio"
	"errors"
	"io"
)

// ByteReader is the reader decoders consume; byte-at-a-time reads, one byte of push back, and bulk reads.
type ByteReader interface {
	io.Reader
	io.ByteScanner
}

// NewReader returns a Reader over r.
// r is wrapped in a bufio.Reader if it cannot read and unread single bytes itself,
// in which case the Reader may read ahead of what it decodes.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// Reader reads from a ByteReader, counting the bytes consumed so decode errors can name their offset.
type Reader struct {
	r   ByteReader
	off int64
}

// Offset returns the number of bytes read so far.
func (r *Reader) Offset() int64 {
	return r.off
}

// ReadByte implements io.ByteReader.
// A short stream is reported as a FormatError wrapping io.ErrUnexpectedEOF.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, r.wrap(err)
	}
	r.off++
	return b, nil
}

// ReadFull reads exactly n bytes.
func (r *Reader) ReadFull(n int) ([]byte, error) {
	if n < 0 || n > TooBig {
		return nil, NewFormatError(r.off, ErrMalformed, "length %v out of range", n)
	}
	buff := make([]byte, n)
	if n == 0 {
		return buff, nil
	}
	err := Read(buff, r.r)
	if err != nil {
		return nil, r.wrap(err)
	}
	r.off += int64(n)
	return buff, nil
}

// Peek reports whether any byte is left to read, without consuming it.
// It returns io.EOF at a clean end of stream.
func (r *Reader) Peek() error {
	if _, err := r.r.ReadByte(); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return NewIOError(err, "reading stream")
	}
	return r.r.UnreadByte()
}

func (r *Reader) wrap(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return NewFormatError(r.off, io.ErrUnexpectedEOF, "truncated stream")
	}
	var ioErr IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return NewIOError(err, "reading stream")
}
