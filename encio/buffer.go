package encio

import (
	"errors"
	"io"
)

// Buffer is a buffer for data. It operates similar to bytes.Buffer.
// Encoders build a whole stream in a Buffer before handing it to their io.Writer,
// so a failed encode never leaves partial output behind.
type Buffer struct {
	buff []byte
	off  int
}

// NewBuffer returns a Buffer reading from b.
// The Buffer takes ownership of b.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{buff: b}
}

// Bytes returns the unread portion of the buffer.
// It aliases the buffer's storage, and is only valid until the next write.
func (b *Buffer) Bytes() []byte {
	return b.buff[b.off:]
}

// Reset empties the buffer, keeping its storage.
func (b *Buffer) Reset() {
	b.buff = b.buff[:0]
	b.off = 0
}

// Read implements io.Reader
func (b *Buffer) Read(buff []byte) (int, error) {
	n := copy(buff, b.buff[b.off:])
	b.off += n
	if n < len(buff) {
		return n, io.EOF
	}
	return n, nil
}

// ReadByte implements io.ByteReader
func (b *Buffer) ReadByte() (byte, error) {
	if b.Len() == 0 {
		return 0, io.EOF
	}
	by := b.buff[b.off]
	b.off++
	return by, nil
}

// UnreadByte implements io.ByteScanner
func (b *Buffer) UnreadByte() error {
	if b.off == 0 {
		return errors.New("encio.Buffer: UnreadByte at start of buffer")
	}
	b.off--
	return nil
}

// Write implements io.Writer
func (b *Buffer) Write(buff []byte) (int, error) {
	return copy(b.buff[b.grow(len(buff)):], buff), nil
}

// WriteString implements io.StringWriter
func (b *Buffer) WriteString(s string) (int, error) {
	return copy(b.buff[b.grow(len(s)):], s), nil
}

// WriteByte implements io.ByteWriter
func (b *Buffer) WriteByte(by byte) error {
	b.buff[b.grow(1)] = by
	return nil
}

// Len returns the length of the unread portion of the buffer
func (b *Buffer) Len() int {
	return len(b.buff) - b.off
}

func (b *Buffer) grow(n int) int {
	l := len(b.buff)
	if l+n <= cap(b.buff) {
		b.buff = b.buff[:l+n]
		return l
	}

	l -= b.off
	c := cap(b.buff)
	if (l+n)*8 <= c { // let cap grow to 8 time the size so we're not always sliding.
		// slide down
		copy(b.buff, b.buff[b.off:])
		b.buff = b.buff[:l+n]
		b.off = 0
		return l
	}
	// must allocate
	nb := make([]byte, l+n, c*2+n)
	copy(nb, b.buff[b.off:])
	b.buff = nb
	b.off = 0
	return l
}
