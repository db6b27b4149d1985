package nmea

import (
	"errors"
	"strconv"
	"strings"
)

var errNotNumber = errors.New("not a number")

// NumberFormat describes how decimal numbers are written in sentence fields.
// Sentences use Invariant regardless of host locale.
type NumberFormat struct {
	DecimalSeparator byte
}

// Invariant is the NMEA number format: '.' decimal separator, no grouping.
var Invariant = NumberFormat{DecimalSeparator: '.'}

// ParseFloat parses s as an optionally signed decimal number. Exponents,
// grouping separators, hex and special values are rejected.
func (nf NumberFormat) ParseFloat(s string) (float64, error) {
	sep := nf.separator()
	digits, seps := 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == sep:
			seps++
		case (c == '-' || c == '+') && i == 0:
		default:
			return 0, errNotNumber
		}
	}
	if digits == 0 || seps > 1 {
		return 0, errNotNumber
	}
	if sep != '.' {
		s = strings.Replace(s, string(sep), ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

func (nf NumberFormat) separator() byte {
	if nf.DecimalSeparator == 0 {
		return '.'
	}
	return nf.DecimalSeparator
}

// ParseInt parses s as an optionally signed base-10 integer.
func (nf NumberFormat) ParseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errNotNumber
	}
	return v, nil
}

// FormatFloat renders v with a fixed number of decimals.
func (nf NumberFormat) FormatFloat(v float64, decimals int) string {
	out := strconv.FormatFloat(v, 'f', decimals, 64)
	if nf.DecimalSeparator != 0 && nf.DecimalSeparator != '.' {
		out = strings.Replace(out, ".", string(nf.DecimalSeparator), 1)
	}
	return out
}
