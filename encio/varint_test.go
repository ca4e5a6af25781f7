package encio_test

import (
	"errors"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/rmarshal/encio"
)

func TestIntVectors(t *testing.T) {
	testCases := []struct {
		n    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x06}},
		{-1, []byte{0xfa}},
		{122, []byte{0x7f}},
		{123, []byte{0x01, 0x7b}},
		{124, []byte{0x01, 0x7c}},
		{255, []byte{0x01, 0xff}},
		{256, []byte{0x02, 0x00, 0x01}},
		{-123, []byte{0x80}},
		{-124, []byte{0xff, 0x84}},
		{-125, []byte{0xff, 0x83}},
		{-254, []byte{0xff, 0x02}},
		{-255, []byte{0xff, 0x01}},
		{-256, []byte{0xff, 0x00}},
		{-257, []byte{0xfe, 0xff, 0xfe}},
		{math.MaxInt32, []byte{0x04, 0xff, 0xff, 0xff, 0x7f}},
		{math.MinInt32, []byte{0xfc, 0x00, 0x00, 0x00, 0x80}},
	}

	for _, tC := range testCases {
		t.Run(fmt.Sprint(tC.n), func(t *testing.T) {
			got := encio.EncodeInt(tC.n)
			td.Cmp(t, got, tC.want)

			n, pos, err := encio.DecodeInt(got, 0)
			td.CmpNoError(t, err)
			td.Cmp(t, n, tC.n)
			td.Cmp(t, pos, len(tC.want))
		})
	}
}

func TestIntRoundTrip(t *testing.T) {
	var buff []byte
	var want []int64
	for n := int64(-70000); n <= 70000; n += 7 {
		buff = encio.AppendInt(buff, n)
		want = append(want, n)
	}

	pos := 0
	for _, w := range want {
		var n int64
		var err error
		n, pos, err = encio.DecodeInt(buff, pos)
		if err != nil {
			t.Fatal(err)
		}
		if n != w {
			t.Fatalf("Wrong number, wanted: %v, got %v", w, n)
		}
	}

	if pos != len(buff) {
		t.Fatalf("data remaining in buffer %v", buff[pos:])
	}
}

func TestIntSmallAliases(t *testing.T) {
	// 5 is a second encoding of zero; byte values 1..4 are lengths, never small integers.
	n, pos, err := encio.DecodeInt([]byte{0x05}, 0)
	td.CmpNoError(t, err)
	td.Cmp(t, n, int64(0))
	td.Cmp(t, pos, 1)
}

func TestIntTruncated(t *testing.T) {
	for _, data := range [][]byte{
		{},
		{0x02, 0x00},
		{0xfe, 0xff},
		{0x04, 0x01, 0x02, 0x03},
	} {
		_, _, err := encio.DecodeInt(data, 0)

		var formatErr *encio.FormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("%v: want FormatError, got %v", data, err)
		}
		td.Cmp(t, errors.Is(err, io.ErrUnexpectedEOF), true)
	}
}

func TestIntFits(t *testing.T) {
	td.Cmp(t, encio.IntFits(math.MaxInt32), true)
	td.Cmp(t, encio.IntFits(math.MaxInt32+1), false)
	td.Cmp(t, encio.IntFits(math.MinInt32), true)
	td.Cmp(t, encio.IntFits(math.MinInt32-1), false)

	td.CmpPanic(t, func() { encio.EncodeInt(math.MaxInt64) }, td.Contains("out of range"))
}
