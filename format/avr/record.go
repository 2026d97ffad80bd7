// Package avr implements the AVR ROM format (spec §4.9): "WWWWWW:DDDD"
// lines pairing a 24-bit word address with a 16-bit little-endian data
// word over byte-addressed memory.
package avr

import (
	"bytes"

	"github.com/TexZK/hexrec/hexutil"
	"github.com/TexZK/hexrec/record"
)

// Tag is always data; AVR has no terminator record (spec §9 open
// question: compute_count/compute_checksum are not applicable here).
type Tag byte

const TagData Tag = 0

func (Tag) IsData() bool            { return true }
func (Tag) IsFileTermination() bool { return false }
func (Tag) String() string          { return "DATA" }

// Record is one AVR ROM line: a word address and a 16-bit word, stored
// on the shared Base as a byte address and a 2-byte little-endian Data
// slice.
type Record struct {
	record.Base
}

func (r *Record) IsData() bool          { return true }
func (r *Record) IsTerminator() bool    { return false }
func (r *Record) RecordAddress() uint64 { return r.Address }
func (r *Record) RecordData() []byte    { return r.Data }

// WordAddress returns the 24-bit word address (byte address / 2).
func (r *Record) WordAddress() uint32 { return uint32(r.Address / 2) }

// Word returns the 16-bit little-endian data word.
func (r *Record) Word() uint16 {
	if len(r.Data) < 2 {
		return 0
	}
	return uint16(r.Data[0]) | uint16(r.Data[1])<<8
}

// ComputeCount and ComputeChecksum are not applicable to AVR records:
// there is no count or checksum field in the line grammar.
func (r *Record) ComputeCount() int    { return len(r.Data) }
func (r *Record) ComputeChecksum() int { return 0 }

func (r *Record) Validate(_, _ bool) error {
	if r.Address%2 != 0 {
		return record.Newf(record.KindMemory, "avr", r.Coords, "byte address 0x%X is not word-aligned", r.Address)
	}
	if len(r.Data) != 2 {
		return record.Newf(record.KindStructure, "avr", r.Coords, "record must carry exactly one 16-bit word, got %d bytes", len(r.Data))
	}
	if r.WordAddress() > 0xFFFFFF {
		return record.Newf(record.KindOverflow, "avr", r.Coords, "word address 0x%X exceeds 24-bit field width", r.WordAddress())
	}
	return nil
}

func (r *Record) Bytes(end []byte, upper bool) []byte {
	var buf bytes.Buffer
	buf.Write(r.Before)
	wordAddr := r.WordAddress()
	buf.Write(hexutil.Hexlify([]byte{byte(wordAddr >> 16), byte(wordAddr >> 8), byte(wordAddr)}, nil, upper))
	buf.WriteByte(':')
	word := r.Word()
	buf.Write(hexutil.Hexlify([]byte{byte(word), byte(word >> 8)}, nil, upper))
	buf.Write(r.After)
	buf.Write(end)
	return buf.Bytes()
}

func (r *Record) Tokens(end []byte, upper bool) record.Tokens {
	wordAddr := r.WordAddress()
	return record.Tokens{
		record.TokBefore:  r.Before,
		record.TokAddress: hexutil.Hexlify([]byte{byte(wordAddr >> 16), byte(wordAddr >> 8), byte(wordAddr)}, nil, upper),
		record.TokData:    hexutil.Hexlify(r.Data, nil, upper),
		record.TokAfter:   r.After,
		record.TokEnd:     end,
	}
}

func dupBytes(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// CreateWord builds a validated data record from a byte address and a
// 16-bit little-endian word payload (2 bytes, little-endian already).
func CreateWord(byteAddress uint64, word []byte) (*Record, error) {
	r := &Record{Base: record.Base{Address: byteAddress, Data: dupBytes(word)}}
	if err := r.Validate(false, false); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse decodes one AVR ROM line.
func Parse(line []byte, validate bool) (*Record, error) {
	colon := bytes.IndexByte(line, ':')
	if colon < 0 {
		return nil, record.Newf(record.KindSyntax, "avr", record.Coords{}, "missing ':' marker")
	}
	leading := line[:colon]
	trimmedLeading := bytes.TrimLeft(leading, " \t")
	before := leading[:len(leading)-len(trimmedLeading)]
	if len(trimmedLeading) != 6 {
		return nil, record.Newf(record.KindSyntax, "avr", record.Coords{}, "word address field must be 6 hex digits")
	}
	wordAddr, err := hexutil.ParseHexUint(trimmedLeading)
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "avr", record.Coords{}, "invalid word address: %v", err)
	}

	rest := line[colon+1:]
	end := len(rest)
	for end > 0 && isWSByte(rest[end-1]) {
		end--
	}
	hexPart := rest[:end]
	after := rest[end:]
	if len(hexPart) != 4 {
		return nil, record.Newf(record.KindSyntax, "avr", record.Coords{}, "data field must be 4 hex digits")
	}
	raw, err := hexutil.Unhexlify(hexPart, false)
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "avr", record.Coords{}, "invalid data hex digits: %v", err)
	}
	word := raw // DDDD reads left-to-right as the little-endian byte pair: low byte, then high byte

	r := &Record{Base: record.Base{
		Address: wordAddr * 2,
		Data:    word,
		Before:  dupBytes(before),
		After:   dupBytes(after),
	}}
	if validate {
		if err := r.Validate(true, true); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func isWSByte(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}
