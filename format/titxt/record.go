// Package titxt implements the TI-TXT format (spec §4.8): address
// directives, whitespace-separated hex data lines, and a "q"
// terminator. Lines carry no count or checksum field.
package titxt

import (
	"bytes"
	"fmt"

	"github.com/TexZK/hexrec/hexutil"
	"github.com/TexZK/hexrec/record"
)

// Tag distinguishes the three line kinds TI-TXT can produce.
type Tag byte

const (
	TagAddress Tag = iota // "@HHHH"
	TagData               // whitespace-separated hex byte pairs
	TagEnd                // "q"
)

func (t Tag) IsData() bool            { return t == TagData }
func (t Tag) IsFileTermination() bool { return t == TagEnd }

func (t Tag) String() string {
	switch t {
	case TagAddress:
		return "ADDRESS"
	case TagData:
		return "DATA"
	default:
		return "END"
	}
}

// Record is one TI-TXT line. Address is meaningful for TagAddress (the
// directive's target) and is also carried on TagData records to track
// the running address during parsing; it has no textual form there.
type Record struct {
	record.Base
	Tag Tag
}

func (r *Record) IsData() bool          { return r.Tag.IsData() }
func (r *Record) IsTerminator() bool    { return r.Tag.IsFileTermination() }
func (r *Record) RecordAddress() uint64 { return r.Address }
func (r *Record) RecordData() []byte    { return r.Data }

// ComputeCount and ComputeChecksum are not applicable to this format;
// there is no count or checksum field to validate against.
func (r *Record) ComputeCount() int    { return len(r.Data) }
func (r *Record) ComputeChecksum() int { return 0 }

func (r *Record) Validate(_, _ bool) error {
	if r.Address > 0xFFFFFFFF {
		return record.Newf(record.KindOverflow, "titxt", r.Coords, "address 0x%X exceeds 32-bit field width", r.Address)
	}
	switch r.Tag {
	case TagData:
		if len(r.Data) == 0 {
			return record.Newf(record.KindStructure, "titxt", r.Coords, "data line must carry at least one byte")
		}
	case TagAddress, TagEnd:
	default:
		return record.Newf(record.KindSyntax, "titxt", r.Coords, "unrecognized tag %d", byte(r.Tag))
	}
	return nil
}

func (r *Record) Bytes(end []byte, upper bool) []byte {
	var buf bytes.Buffer
	buf.Write(r.Before)
	switch r.Tag {
	case TagAddress:
		buf.WriteByte('@')
		digits := fmt.Sprintf("%04X", r.Address)
		if !upper {
			digits = toLowerHex(digits)
		}
		buf.WriteString(digits)
	case TagData:
		for i, b := range r.Data {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.Write(hexutil.Hexlify([]byte{b}, nil, upper))
		}
	case TagEnd:
		buf.WriteByte('q')
	}
	buf.Write(r.After)
	buf.Write(end)
	return buf.Bytes()
}

func toLowerHex(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'F' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func (r *Record) Tokens(end []byte, upper bool) record.Tokens {
	return record.Tokens{
		record.TokBefore: r.Before,
		record.TokData:   hexutil.Hexlify(r.Data, []byte(" "), upper),
		record.TokAfter:  r.After,
		record.TokEnd:    end,
	}
}

func dupBytes(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// CreateAddress builds an address directive record.
func CreateAddress(address uint32) *Record {
	return &Record{Base: record.Base{Address: uint64(address)}, Tag: TagAddress}
}

// CreateData builds a data-line record at the given (tracked) address.
func CreateData(address uint64, data []byte) *Record {
	return &Record{Base: record.Base{Address: address, Data: dupBytes(data)}, Tag: TagData}
}

// CreateEnd builds the "q" terminator record.
func CreateEnd() *Record {
	return &Record{Tag: TagEnd}
}

// ParseLine decodes one TI-TXT line given the address the previous data
// line left off at (ignored for TagAddress/TagEnd lines).
func ParseLine(line []byte, currentAddress uint64) (*Record, error) {
	trimmed := bytes.TrimSpace(line)
	switch {
	case len(trimmed) == 0:
		return nil, record.Newf(record.KindSyntax, "titxt", record.Coords{}, "empty line")
	case trimmed[0] == '@':
		hexDigits := trimmed[1:]
		if len(hexDigits) < 1 || len(hexDigits) > 8 {
			return nil, record.Newf(record.KindSyntax, "titxt", record.Coords{}, "address directive must carry 1..8 hex digits")
		}
		addr, err := hexutil.ParseHexUint(hexDigits)
		if err != nil {
			return nil, record.Newf(record.KindSyntax, "titxt", record.Coords{}, "invalid address digits: %v", err)
		}
		return CreateAddress(uint32(addr)), nil
	case len(trimmed) == 1 && (trimmed[0] == 'q' || trimmed[0] == 'Q'):
		return CreateEnd(), nil
	default:
		fields := bytes.Fields(trimmed)
		data := make([]byte, 0, len(fields))
		for _, f := range fields {
			if len(f) != 2 {
				return nil, record.Newf(record.KindSyntax, "titxt", record.Coords{}, "data field %q is not a hex byte pair", f)
			}
			b, err := hexutil.Unhexlify(f, false)
			if err != nil {
				return nil, record.Newf(record.KindSyntax, "titxt", record.Coords{}, "invalid hex digits: %v", err)
			}
			data = append(data, b...)
		}
		return CreateData(currentAddress, data), nil
	}
}
