// Package ihex implements the Intel HEX record format (spec §4.4):
// 16-bit offsets with segment/linear extension, end-of-file, and
// start-segment/linear records.
package ihex

import (
	"bytes"
	"fmt"

	"github.com/TexZK/hexrec/hexutil"
	"github.com/TexZK/hexrec/record"
)

// Tag is the Intel HEX record type field (TT).
type Tag byte

const (
	TagData                   Tag = 0x00
	TagEOF                    Tag = 0x01
	TagExtendedSegmentAddress Tag = 0x02
	TagStartSegmentAddress    Tag = 0x03
	TagExtendedLinearAddress  Tag = 0x04
	TagStartLinearAddress     Tag = 0x05
)

func (t Tag) IsData() bool { return t == TagData }

func (t Tag) IsFileTermination() bool { return t == TagEOF }

func (t Tag) String() string {
	switch t {
	case TagData:
		return "DATA"
	case TagEOF:
		return "EOF"
	case TagExtendedSegmentAddress:
		return "EXTENDED_SEGMENT_ADDRESS"
	case TagStartSegmentAddress:
		return "START_SEGMENT_ADDRESS"
	case TagExtendedLinearAddress:
		return "EXTENDED_LINEAR_ADDRESS"
	case TagStartLinearAddress:
		return "START_LINEAR_ADDRESS"
	default:
		return fmt.Sprintf("Tag(0x%02X)", byte(t))
	}
}

// Record is one Intel HEX line: ":CC AAAA TT D…D KK".
type Record struct {
	record.Base
	Tag Tag
}

func (r *Record) IsData() bool         { return r.Tag.IsData() }
func (r *Record) IsTerminator() bool   { return r.Tag.IsFileTermination() }
func (r *Record) RecordAddress() uint64 { return r.Address }
func (r *Record) RecordData() []byte   { return r.Data }

// ComputeCount returns CC = |data|, always applicable for this format.
func (r *Record) ComputeCount() int {
	return len(r.Data)
}

// ComputeChecksum returns KK = (0x100 - (CC + AAh + AAl + TT + Σdata)) & 0xFF.
func (r *Record) ComputeChecksum() int {
	sum := len(r.Data) + int(byte(r.Address>>8)) + int(byte(r.Address)) + int(r.Tag)
	for _, b := range r.Data {
		sum += int(b)
	}
	return (0x100 - (sum & 0xFF)) & 0xFF
}

// Validate enforces spec §4.4's per-record invariants.
func (r *Record) Validate(checkCount, checkChecksum bool) error {
	if r.Address > 0xFFFF {
		return record.Newf(record.KindOverflow, "ihex", r.Coords, "address 0x%X exceeds 16-bit field width", r.Address)
	}
	if len(r.Data) > 255 {
		return record.Newf(record.KindOverflow, "ihex", r.Coords, "data length %d exceeds 255-byte field width", len(r.Data))
	}
	if checkCount && r.Count != nil && *r.Count != r.ComputeCount() {
		return record.Newf(record.KindConsistency, "ihex", r.Coords, "stored count %d does not match computed count %d", *r.Count, r.ComputeCount())
	}
	if checkChecksum && r.Checksum != nil && *r.Checksum != r.ComputeChecksum() {
		return record.Newf(record.KindConsistency, "ihex", r.Coords, "stored checksum 0x%02X does not match computed checksum 0x%02X", *r.Checksum, r.ComputeChecksum())
	}
	switch r.Tag {
	case TagData:
		if len(r.Data) == 0 {
			return record.Newf(record.KindStructure, "ihex", r.Coords, "data record must carry at least one byte")
		}
	case TagEOF, TagExtendedSegmentAddress, TagStartSegmentAddress, TagExtendedLinearAddress, TagStartLinearAddress:
		// no further constraint beyond the per-tag payload widths
		// checked by the Create* constructors.
	default:
		return record.Newf(record.KindSyntax, "ihex", r.Coords, "unrecognized tag 0x%02X", byte(r.Tag))
	}
	return nil
}

// Bytes renders the canonical serialization of the record.
func (r *Record) Bytes(end []byte, upper bool) []byte {
	body := make([]byte, 0, 4+len(r.Data)+1)
	body = append(body, byte(len(r.Data)), byte(r.Address>>8), byte(r.Address), byte(r.Tag))
	body = append(body, r.Data...)
	body = append(body, byte(r.ComputeChecksum()))

	out := make([]byte, 0, len(r.Before)+1+2*len(body)+len(r.After)+len(end))
	out = append(out, r.Before...)
	out = append(out, ':')
	out = append(out, hexutil.Hexlify(body, nil, upper)...)
	out = append(out, r.After...)
	out = append(out, end...)
	return out
}

// Tokens decomposes the serialized line into named slices for a
// colorizing printer (spec §4.3 to_tokens).
func (r *Record) Tokens(end []byte, upper bool) record.Tokens {
	data := hexutil.Hexlify(r.Data, nil, upper)
	return record.Tokens{
		record.TokBefore:   r.Before,
		record.TokBegin:    []byte(":"),
		record.TokCount:    hexutil.Hexlify([]byte{byte(len(r.Data))}, nil, upper),
		record.TokAddress:  hexutil.Hexlify([]byte{byte(r.Address >> 8), byte(r.Address)}, nil, upper),
		record.TokTag:      hexutil.Hexlify([]byte{byte(r.Tag)}, nil, upper),
		record.TokData:     data,
		record.TokChecksum: hexutil.Hexlify([]byte{byte(r.ComputeChecksum())}, nil, upper),
		record.TokAfter:    r.After,
		record.TokEnd:      end,
	}
}

func intPtr(v int) *int { return &v }

// CreateData builds a validated data record.
func CreateData(address uint16, data []byte) (*Record, error) {
	r := &Record{Base: record.Base{Address: uint64(address), Data: dupBytes(data)}, Tag: TagData}
	if err := r.Validate(false, false); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateEOF builds the end-of-file record.
func CreateEOF() *Record {
	return &Record{Tag: TagEOF}
}

// CreateExtendedSegmentAddress builds an ESA record; base = seg<<4.
func CreateExtendedSegmentAddress(seg uint16) *Record {
	return &Record{Base: record.Base{Data: []byte{byte(seg >> 8), byte(seg)}}, Tag: TagExtendedSegmentAddress}
}

// CreateStartSegmentAddress builds a start-segment-address record
// (80x86 CS:IP).
func CreateStartSegmentAddress(cs, ip uint16) *Record {
	data := []byte{byte(cs >> 8), byte(cs), byte(ip >> 8), byte(ip)}
	return &Record{Base: record.Base{Data: data}, Tag: TagStartSegmentAddress}
}

// CreateExtendedLinearAddress builds an ELA record; base = seg<<16.
func CreateExtendedLinearAddress(seg uint16) *Record {
	return &Record{Base: record.Base{Data: []byte{byte(seg >> 8), byte(seg)}}, Tag: TagExtendedLinearAddress}
}

// CreateStartLinearAddress builds a start-linear-address record carrying
// the 32-bit EIP value.
func CreateStartLinearAddress(addr uint32) *Record {
	data := []byte{byte(addr >> 24), byte(addr >> 16), byte(addr >> 8), byte(addr)}
	return &Record{Base: record.Base{Data: data}, Tag: TagStartLinearAddress}
}

func dupBytes(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// Parse decodes one Intel HEX line. Trailing/leading junk around the
// canonical ":…" form must itself be whitespace; it is captured into
// Before/After rather than rejected outright.
func Parse(line []byte, validate bool) (*Record, error) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return nil, record.Newf(record.KindSyntax, "ihex", record.Coords{}, "missing ':' marker")
	}
	before := line[:idx]
	if !isWhitespace(before) {
		return nil, record.Newf(record.KindStructure, "ihex", record.Coords{}, "non-whitespace junk before record: %q", before)
	}
	rest := line[idx+1:]

	end := len(rest)
	for end > 0 && isWSByte(rest[end-1]) {
		end--
	}
	hexPart := rest[:end]
	after := rest[end:]

	raw, err := hexutil.Unhexlify(hexPart, false)
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "ihex", record.Coords{}, "invalid hex digits: %v", err)
	}
	if len(raw) < 5 {
		return nil, record.Newf(record.KindSyntax, "ihex", record.Coords{}, "record too short: %d bytes", len(raw))
	}

	cc := int(raw[0])
	addr := uint16(raw[1])<<8 | uint16(raw[2])
	tt := raw[3]
	if len(raw) != cc+5 {
		return nil, record.Newf(record.KindSyntax, "ihex", record.Coords{}, "byte count %d does not match record length", cc)
	}
	data := raw[4 : 4+cc]
	checksum := int(raw[4+cc])

	r := &Record{
		Base: record.Base{
			Address:  uint64(addr),
			Data:     data,
			Count:    intPtr(cc),
			Checksum: intPtr(checksum),
			Before:   dupBytes(before),
			After:    dupBytes(after),
		},
		Tag: Tag(tt),
	}
	if validate {
		if err := r.Validate(true, true); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func isWhitespace(b []byte) bool {
	for _, c := range b {
		if !isWSByte(c) {
			return false
		}
	}
	return true
}

func isWSByte(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}
