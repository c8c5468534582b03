// Package codec holds the small number and byte encodings the token
// pipeline is built from.
package codec

import (
	"encoding/base64"
	"math"
	"strconv"
	"strings"
)

// FloatHex renders a non-negative float in base 16: the integer part by
// repeated division, the fraction by repeated multiplication, digits above
// 9 as upper-case A-F. Zero renders as the empty string and values below
// one have no leading zero (".8" for 0.5), which callers must account for.
func FloatHex(x float64) string {
	var b strings.Builder

	quotient := int64(x)
	fraction := x - float64(quotient)

	var digits []byte
	for quotient > 0 {
		digits = append(digits, hexDigit(int(quotient%16)))
		quotient /= 16
	}
	for i := len(digits) - 1; i >= 0; i-- {
		b.WriteByte(digits[i])
	}

	if fraction == 0 {
		return b.String()
	}

	b.WriteByte('.')
	for fraction > 0 {
		fraction *= 16
		integer := int(fraction)
		fraction -= float64(integer)
		b.WriteByte(hexDigit(integer))
	}
	return b.String()
}

func hexDigit(d int) byte {
	if d > 9 {
		return byte(d + 55)
	}
	return byte('0' + d)
}

// IntHex renders n in lower-case base 16 without padding.
func IntHex(n int64) string {
	return strconv.FormatInt(n, 16)
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// RoundHalfUp rounds halves towards positive infinity, matching the
// browser's Math.round rather than Go's away-from-zero math.Round.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// DecodeBase64 decodes standard base64, accepting input whose '='
// padding has been stripped.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	return base64.RawStdEncoding.DecodeString(s)
}

// EncodeBase64 encodes b as standard base64 with the padding removed.
func EncodeBase64(b []byte) string {
	return strings.TrimRight(base64.StdEncoding.EncodeToString(b), "=")
}
