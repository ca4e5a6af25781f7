package enc

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"
)

// FormatFloat returns the decimal text the format stores for f.
// The digits are the shortest that parse back to f; they are laid out in plain notation unless the decimal point
// falls more than three places before the first digit or after the last one, e.g. 1, 0.001, 1e20, 1.5e-7.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0"
		}
		return "0"
	}

	var sb strings.Builder
	if f < 0 {
		sb.WriteByte('-')
		f = -f
	}

	// d.ddddde±xx
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	e := strings.IndexByte(sci, 'e')
	digits := strings.Replace(sci[:e], ".", "", 1)
	exp, _ := strconv.Atoi(sci[e+1:])
	decpt := exp + 1
	digs := len(digits)

	switch {
	case decpt < -3 || decpt > digs:
		sb.WriteByte(digits[0])
		if digs > 1 {
			sb.WriteByte('.')
			sb.WriteString(digits[1:])
		}
		sb.WriteByte('e')
		sb.WriteString(strconv.Itoa(decpt - 1))
	case decpt > 0:
		sb.WriteString(digits[:decpt])
		if digs > decpt {
			sb.WriteByte('.')
			sb.WriteString(digits[decpt:])
		}
	default:
		sb.WriteString("0.")
		sb.WriteString(strings.Repeat("0", -decpt))
		sb.WriteString(digits)
	}
	return sb.String()
}

// ParseFloat parses float text read from a stream.
// Anything after a NUL byte is ignored; older writers put mantissa bits there.
func ParseFloat(b []byte) (float64, error) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	switch s := string(b); s {
	case "nan":
		return math.NaN(), nil
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, err
		}
		return f, nil
	}
}
