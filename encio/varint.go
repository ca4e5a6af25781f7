package encio

import (
	"io"
	"math"
)

// The marshal format writes every integer, length and index as a variable-length signed integer.
// Small values take a single byte biased by 5; anything else is a signed length byte followed by that many
// little-endian two's-complement bytes, trimmed to the minimum.
const (
	// MaxInt and MinInt bound the integers the variable-length form can hold.
	// Byte values 5 through 127 (and -128 through -5) are small integers, so the length byte never exceeds 4.
	MaxInt = math.MaxInt32
	MinInt = math.MinInt32

	maxSmall = 122
	minSmall = -123
	maxLen   = 4
)

// IntFits reports whether n can be written in the variable-length form.
func IntFits(n int64) bool {
	return n >= MinInt && n <= MaxInt
}

// AppendInt appends the encoding of n to buff.
// It panics if n does not fit; check with IntFits.
func AppendInt(buff []byte, n int64) []byte {
	switch {
	case n == 0:
		return append(buff, 0)
	case 0 < n && n <= maxSmall:
		return append(buff, byte(n+5))
	case minSmall <= n && n < 0:
		return append(buff, byte(n-5))
	case !IntFits(n):
		panic("encio: integer out of range for variable-length encoding")
	}

	var tmp [maxLen + 1]byte
	x := n
	i := 1
	for ; i <= maxLen; i++ {
		tmp[i] = byte(x)
		x >>= 8 // arithmetic shift keeps the sign
		if x == 0 {
			tmp[0] = byte(i)
			break
		}
		if x == -1 {
			tmp[0] = byte(-i)
			break
		}
	}
	return append(buff, tmp[:i+1]...)
}

// EncodeInt returns the encoding of n.
func EncodeInt(n int64) []byte {
	return AppendInt(make([]byte, 0, maxLen+1), n)
}

// DecodeInt decodes the integer starting at buff[pos], returning it and the position after it.
func DecodeInt(buff []byte, pos int) (int64, int, error) {
	if pos < 0 || pos > len(buff) {
		return 0, pos, NewFormatError(int64(pos), io.ErrUnexpectedEOF, "integer starts outside buffer")
	}
	br := &sliceReader{buff: buff, off: pos}
	n, err := ReadInt(br)
	if err == io.ErrUnexpectedEOF {
		return 0, pos, NewFormatError(int64(br.off), io.ErrUnexpectedEOF, "truncated integer")
	}
	return n, br.off, err
}

// ReadInt reads one variable-length integer from r.
// Read errors are returned as they are; a nil error is never paired with a partial value.
func ReadInt(r io.ByteReader) (int64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, eof(err)
	}

	c := int8(b)
	switch {
	case c == 0:
		return 0, nil
	case c > 4:
		return int64(c) - 5, nil
	case c < -4:
		return int64(c) + 5, nil
	}

	var n int64
	size := int(c)
	if c < 0 {
		n = -1
		size = -size
	}

	for i := 0; i < size; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, eof(err)
		}
		shift := uint(8 * i)
		n &^= 0xff << shift
		n |= int64(b) << shift
	}
	return n, nil
}

func eof(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

type sliceReader struct {
	buff []byte
	off  int
}

func (s *sliceReader) ReadByte() (byte, error) {
	if s.off >= len(s.buff) {
		return 0, io.EOF
	}
	b := s.buff[s.off]
	s.off++
	return b, nil
}
