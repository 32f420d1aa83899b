package calc

import (
	"errors"
	"strconv"
)

// IsNumerable reports whether s is a numeric literal that strings may be
// coerced from.
func IsNumerable(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

// ParseNumber converts a numerable string. Accepted forms are an optional
// sign followed by a decimal literal (12, 1.5, .5, 1e3), a hex literal (0x1f)
// or an octal literal (0o17). Surrounding whitespace is rejected.
func ParseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	neg := false
	body := s
	if body[0] == '+' || body[0] == '-' {
		neg = body[0] == '-'
		body = body[1:]
	}
	var f float64
	var ok bool
	switch {
	case len(body) > 2 && body[0] == '0' && body[1] == 'x':
		f, ok = parseRadix(body[2:], 16)
	case len(body) > 2 && body[0] == '0' && body[1] == 'o':
		f, ok = parseRadix(body[2:], 8)
	default:
		f, ok = parseDecimal(body)
	}
	if !ok {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

func parseRadix(digits string, base int) (float64, bool) {
	if digits == "" {
		return 0, false
	}
	var f float64
	for i := 0; i < len(digits); i++ {
		d := digitValue(digits[i])
		if d < 0 || d >= base {
			return 0, false
		}
		f = f*float64(base) + float64(d)
	}
	return f, true
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

func parseDecimal(s string) (float64, bool) {
	i, digits := 0, 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return 0, false
		}
	}
	if i != len(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
