// Package hexutil provides the byte-level primitives shared by every
// record-format codec: hex encode/decode, chunked-slice iteration aligned
// to a row boundary, and the "k/M/G"-suffixed integer parser used for CLI
// addresses and sizes (spec §4.1).
package hexutil

import (
	"fmt"
	"strconv"
	"strings"
)

// Chop yields contiguous slices of buffer of length width. When
// alignOffset is non-nil, the first chunk is shortened so that subsequent
// chunks start at addresses where (address+alignOffset) mod width == 0.
// width must be positive.
func Chop(buffer []byte, width int, alignOffset *int) [][]byte {
	if width <= 0 {
		panic("hexutil: Chop width must be positive")
	}
	if len(buffer) == 0 {
		return nil
	}

	var chunks [][]byte
	rest := buffer

	if alignOffset != nil {
		off := ((*alignOffset)%width + width) % width
		first := width - off
		if first > len(rest) {
			first = len(rest)
		}
		if first > 0 {
			chunks = append(chunks, rest[:first])
			rest = rest[first:]
		}
	}

	for len(rest) > 0 {
		n := width
		if n > len(rest) {
			n = len(rest)
		}
		chunks = append(chunks, rest[:n])
		rest = rest[n:]
	}
	return chunks
}

// Hexlify renders data as hex digits, optionally uppercase, with sep
// inserted between each encoded byte.
func Hexlify(data []byte, sep []byte, upper bool) []byte {
	if len(data) == 0 {
		return nil
	}
	digits := "0123456789abcdef"
	if upper {
		digits = "0123456789ABCDEF"
	}
	var out []byte
	for i, b := range data {
		if i > 0 && len(sep) > 0 {
			out = append(out, sep...)
		}
		out = append(out, digits[b>>4], digits[b&0xF])
	}
	return out
}

// Unhexlify decodes hex text into bytes. If strip is true, whitespace
// (space, tab, CR, LF) is removed from the input before decoding —
// the Go analogue of the Python API's delete=<whitespace sentinel>.
func Unhexlify(text []byte, strip bool) ([]byte, error) {
	if strip {
		text = stripWhitespace(text)
	}
	if len(text)%2 != 0 {
		return nil, fmt.Errorf("hexutil: odd-length hex string")
	}
	out := make([]byte, len(text)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexDigit(text[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(text[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func stripWhitespace(text []byte) []byte {
	out := make([]byte, 0, len(text))
	for _, b := range text {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			out = append(out, b)
		}
	}
	return out
}

// ParseHexUint decodes a bare hex digit string (no "0x" prefix) into a
// uint64, digit by digit.
func ParseHexUint(digits []byte) (uint64, error) {
	if len(digits) == 0 {
		return 0, fmt.Errorf("hexutil: empty hex digit string")
	}
	var v uint64
	for _, c := range digits {
		d, err := hexDigit(c)
		if err != nil {
			return 0, err
		}
		v = v<<4 | uint64(d)
	}
	return v, nil
}

func hexDigit(b byte) (byte, error) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', nil
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, nil
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("hexutil: invalid hex digit %q", b)
	}
}

// unit suffix multipliers. "k"/"M"/"G"/"T" alone and the "Ki"/"Mi"/"Gi"/"Ti"
// forms are binary (1024-based); "KB"/"MB"/"GB"/"TB" are decimal
// (1000-based), per spec §4.1's implementation note.
var unitSuffixes = []struct {
	suffix string
	factor int64
}{
	{"Ti", 1 << 40}, {"Gi", 1 << 30}, {"Mi", 1 << 20}, {"Ki", 1 << 10},
	{"TB", 1_000_000_000_000}, {"GB", 1_000_000_000}, {"MB", 1_000_000}, {"KB", 1_000},
	{"T", 1 << 40}, {"G", 1 << 30}, {"M", 1 << 20}, {"k", 1 << 10},
}

// ParseInt parses value per spec §4.1: decimal, 0x…/…h hex, 0b… binary,
// 0o…/0… octal, optional sign, optional unit suffix. A nil pointer returns
// (0, false, nil) meaning "no value given"; an unparseable string returns
// a plain (non-*record.Error) error.
func ParseInt(value *string) (int64, bool, error) {
	if value == nil {
		return 0, false, nil
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return 0, false, fmt.Errorf("hexutil: empty integer literal")
	}

	neg := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var multiplier int64 = 1
	for _, u := range unitSuffixes {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSuffix(s, u.suffix)
			multiplier = u.factor
			break
		}
	}

	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		s = s[2:]
		base = 16
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		s = s[2:]
		base = 2
	case strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O"):
		s = s[2:]
		base = 8
	case strings.HasSuffix(s, "h") || strings.HasSuffix(s, "H"):
		s = s[:len(s)-1]
		base = 16
	case strings.HasPrefix(s, "0") && len(s) > 1:
		s = s[1:]
		base = 8
	}

	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, false, fmt.Errorf("hexutil: cannot parse integer literal %q: %w", *value, err)
	}
	n *= multiplier
	if neg {
		n = -n
	}
	return n, true, nil
}
