// Package mos implements the MOS Technology papertape format (spec
// §4.7): "; CC AAAA D…D SSSS" lines with a 16-bit additive checksum and
// an end record that repurposes the address field as a record count.
package mos

import (
	"bytes"

	"github.com/TexZK/hexrec/hexutil"
	"github.com/TexZK/hexrec/record"
)

// Tag distinguishes a data record (CC > 0, or explicitly zero-length
// data) from the end-of-stream record (address field holds the record
// count instead of an address).
type Tag byte

const (
	TagData Tag = iota
	TagEnd
)

func (t Tag) IsData() bool            { return t == TagData }
func (t Tag) IsFileTermination() bool { return t == TagEnd }

func (t Tag) String() string {
	if t == TagEnd {
		return "END"
	}
	return "DATA"
}

// Record is one MOS papertape line.
type Record struct {
	record.Base
	Tag Tag
}

func (r *Record) IsData() bool          { return r.Tag.IsData() }
func (r *Record) IsTerminator() bool    { return r.Tag.IsFileTermination() }
func (r *Record) RecordAddress() uint64 { return r.Address }
func (r *Record) RecordData() []byte    { return r.Data }

// ComputeCount returns CC: |data| for a data record, 0 for the end
// record (whose address field carries the record count instead).
func (r *Record) ComputeCount() int {
	if r.Tag == TagEnd {
		return 0
	}
	return len(r.Data)
}

// ComputeChecksum returns SSSS = (CC + AAh + AAl + Σdata) mod 65536.
func (r *Record) ComputeChecksum() int {
	sum := r.ComputeCount() + int(byte(r.Address>>8)) + int(byte(r.Address))
	for _, b := range r.Data {
		sum += int(b)
	}
	return sum & 0xFFFF
}

func (r *Record) Validate(checkCount, checkChecksum bool) error {
	if r.Address > 0xFFFF {
		return record.Newf(record.KindOverflow, "mos", r.Coords, "address/count 0x%X exceeds 16-bit field width", r.Address)
	}
	if len(r.Data) > 0xFF {
		return record.Newf(record.KindOverflow, "mos", r.Coords, "data length %d exceeds 255-byte field width", len(r.Data))
	}
	if r.Tag == TagEnd && len(r.Data) != 0 {
		return record.Newf(record.KindStructure, "mos", r.Coords, "end record must carry no data")
	}
	if checkCount && r.Count != nil && *r.Count != r.ComputeCount() {
		return record.Newf(record.KindConsistency, "mos", r.Coords, "stored count %d does not match computed count %d", *r.Count, r.ComputeCount())
	}
	if checkChecksum && r.Checksum != nil && *r.Checksum != r.ComputeChecksum() {
		return record.Newf(record.KindConsistency, "mos", r.Coords, "stored checksum 0x%04X does not match computed checksum 0x%04X", *r.Checksum, r.ComputeChecksum())
	}
	return nil
}

func (r *Record) Bytes(end []byte, upper bool) []byte {
	var buf bytes.Buffer
	buf.Write(r.Before)
	buf.WriteByte(';')
	buf.Write(hexutil.Hexlify([]byte{byte(r.ComputeCount())}, nil, upper))
	buf.Write(hexutil.Hexlify([]byte{byte(r.Address >> 8), byte(r.Address)}, nil, upper))
	buf.Write(hexutil.Hexlify(r.Data, nil, upper))
	buf.Write(hexutil.Hexlify([]byte{byte(r.ComputeChecksum() >> 8), byte(r.ComputeChecksum())}, nil, upper))
	buf.Write(r.After)
	buf.Write(end)
	return buf.Bytes()
}

func (r *Record) Tokens(end []byte, upper bool) record.Tokens {
	return record.Tokens{
		record.TokBefore:   r.Before,
		record.TokBegin:    []byte(";"),
		record.TokCount:    hexutil.Hexlify([]byte{byte(r.ComputeCount())}, nil, upper),
		record.TokAddress:  hexutil.Hexlify([]byte{byte(r.Address >> 8), byte(r.Address)}, nil, upper),
		record.TokData:     hexutil.Hexlify(r.Data, nil, upper),
		record.TokChecksum: hexutil.Hexlify([]byte{byte(r.ComputeChecksum() >> 8), byte(r.ComputeChecksum())}, nil, upper),
		record.TokAfter:    r.After,
		record.TokEnd:      end,
	}
}

func intPtr(v int) *int { return &v }

func dupBytes(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// CreateData builds a validated data record.
func CreateData(address uint16, data []byte) (*Record, error) {
	r := &Record{Base: record.Base{Address: uint64(address), Data: dupBytes(data)}, Tag: TagData}
	if err := r.Validate(false, false); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateEnd builds the end-of-stream record, recording the number of
// data records that preceded it.
func CreateEnd(recordCount uint16) *Record {
	return &Record{Base: record.Base{Address: uint64(recordCount)}, Tag: TagEnd}
}

// Parse decodes one MOS papertape line. ParseRecords already skips or
// rejects lines not beginning (after whitespace) with ';'; Parse itself
// also rejects any non-whitespace before the ';'.
func Parse(line []byte, validate bool) (*Record, error) {
	idx := bytes.IndexByte(line, ';')
	if idx < 0 {
		return nil, record.Newf(record.KindSyntax, "mos", record.Coords{}, "missing ';' marker")
	}
	before := line[:idx]
	if !isWhitespace(before) {
		return nil, record.Newf(record.KindStructure, "mos", record.Coords{}, "non-whitespace junk before record: %q", before)
	}
	rest := line[idx+1:]

	end := len(rest)
	for end > 0 && (isWSByte(rest[end-1]) || rest[end-1] == 0x13 || rest[end-1] == 0x00) {
		end--
	}
	hexPart := rest[:end]
	after := rest[end:]

	raw, err := hexutil.Unhexlify(hexPart, false)
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "mos", record.Coords{}, "invalid hex digits: %v", err)
	}
	if len(raw) < 5 {
		return nil, record.Newf(record.KindSyntax, "mos", record.Coords{}, "record too short: %d bytes", len(raw))
	}
	cc := int(raw[0])
	addr := uint16(raw[1])<<8 | uint16(raw[2])
	if len(raw) != cc+5 {
		return nil, record.Newf(record.KindSyntax, "mos", record.Coords{}, "byte count %d does not match record length", cc)
	}
	data := raw[3 : 3+cc]
	checksum := int(raw[3+cc])<<8 | int(raw[4+cc])

	tag := TagData
	if cc == 0 {
		tag = TagEnd
	}
	r := &Record{
		Base: record.Base{
			Address:  uint64(addr),
			Data:     data,
			Count:    intPtr(cc),
			Checksum: intPtr(checksum),
			Before:   dupBytes(before),
			After:    dupBytes(after),
		},
		Tag: tag,
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
