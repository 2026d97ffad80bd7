// Package srec implements the Motorola S-Record format (spec §4.5): a
// header record, three data-width variants, an optional record count,
// and a paired terminator that must match the data width in use.
package srec

import (
	"bytes"
	"fmt"

	"github.com/TexZK/hexrec/hexutil"
	"github.com/TexZK/hexrec/record"
)

// Tag is the S-Record type digit (the 'T' in "S T CC AA..A D..D KK").
// S4 is not part of the Motorola grammar and is intentionally absent.
type Tag byte

const (
	TagHeader        Tag = 0 // S0
	TagData16        Tag = 1 // S1, 2-byte address
	TagData24        Tag = 2 // S2, 3-byte address
	TagData32        Tag = 3 // S3, 4-byte address
	TagCount16       Tag = 5 // S5, 2-byte record count
	TagCount24       Tag = 6 // S6, 3-byte record count
	TagTerminator32  Tag = 7 // S7, pairs with S3
	TagTerminator24  Tag = 8 // S8, pairs with S2
	TagTerminator16  Tag = 9 // S9, pairs with S1
)

func (t Tag) IsData() bool {
	return t == TagData16 || t == TagData24 || t == TagData32
}

func (t Tag) IsFileTermination() bool {
	return t == TagTerminator16 || t == TagTerminator24 || t == TagTerminator32
}

func (t Tag) IsCount() bool {
	return t == TagCount16 || t == TagCount24
}

// AddressLen returns the tag's address field width in bytes.
func (t Tag) AddressLen() int {
	switch t {
	case TagHeader, TagData16, TagCount16, TagTerminator16:
		return 2
	case TagData24, TagCount24, TagTerminator24:
		return 3
	case TagData32, TagTerminator32:
		return 4
	default:
		return 0
	}
}

func (t Tag) String() string {
	return fmt.Sprintf("S%d", byte(t))
}

// pairedDataTag returns the matching data tag (S1/S2/S3) for a terminator,
// or TagHeader (invalid as a data tag) if t is not a terminator.
func (t Tag) pairedDataTag() Tag {
	switch t {
	case TagTerminator16:
		return TagData16
	case TagTerminator24:
		return TagData24
	case TagTerminator32:
		return TagData32
	default:
		return TagHeader
	}
}

func (t Tag) pairedTerminator() Tag {
	switch t {
	case TagData16:
		return TagTerminator16
	case TagData24:
		return TagTerminator24
	case TagData32:
		return TagTerminator32
	default:
		return TagHeader
	}
}

// FitDataTag picks the smallest data-width tag whose address field covers
// endex.
func FitDataTag(endex uint64) Tag {
	switch {
	case endex <= 1<<16:
		return TagData16
	case endex <= 1<<24:
		return TagData24
	default:
		return TagData32
	}
}

// Record is one Motorola S-Record line.
type Record struct {
	record.Base
	Tag Tag
}

func (r *Record) IsData() bool          { return r.Tag.IsData() }
func (r *Record) IsTerminator() bool    { return r.Tag.IsFileTermination() }
func (r *Record) RecordAddress() uint64 { return r.Address }
func (r *Record) RecordData() []byte    { return r.Data }

// ComputeCount returns CC = 1 (checksum byte) + address length + |data|.
func (r *Record) ComputeCount() int {
	return 1 + r.Tag.AddressLen() + len(r.Data)
}

// ComputeChecksum returns KK = (ΣCC + Σaddress bytes + Σdata) XOR 0xFF,
// modulo 256.
func (r *Record) ComputeChecksum() int {
	sum := r.ComputeCount()
	addrLen := r.Tag.AddressLen()
	for i := 0; i < addrLen; i++ {
		shift := uint(8 * (addrLen - 1 - i))
		sum += int(byte(r.Address >> shift))
	}
	for _, b := range r.Data {
		sum += int(b)
	}
	return (sum & 0xFF) ^ 0xFF
}

func (r *Record) Validate(checkCount, checkChecksum bool) error {
	addrLen := r.Tag.AddressLen()
	if addrLen == 0 {
		return record.Newf(record.KindSyntax, "srec", r.Coords, "unrecognized tag %s", r.Tag)
	}
	maxAddr := uint64(1)<<(8*addrLen) - 1
	if r.Address > maxAddr {
		return record.Newf(record.KindOverflow, "srec", r.Coords, "address 0x%X exceeds %d-byte field width", r.Address, addrLen)
	}
	if checkCount && r.Count != nil && *r.Count != r.ComputeCount() {
		return record.Newf(record.KindConsistency, "srec", r.Coords, "stored count %d does not match computed count %d", *r.Count, r.ComputeCount())
	}
	if checkChecksum && r.Checksum != nil && *r.Checksum != r.ComputeChecksum() {
		return record.Newf(record.KindConsistency, "srec", r.Coords, "stored checksum 0x%02X does not match computed checksum 0x%02X", *r.Checksum, r.ComputeChecksum())
	}
	return nil
}

func (r *Record) Bytes(end []byte, upper bool) []byte {
	addrLen := r.Tag.AddressLen()
	body := make([]byte, 0, 1+addrLen+len(r.Data)+1)
	body = append(body, byte(r.ComputeCount()))
	for i := addrLen - 1; i >= 0; i-- {
		body = append(body, byte(r.Address>>(8*uint(i))))
	}
	body = append(body, r.Data...)
	body = append(body, byte(r.ComputeChecksum()))

	out := make([]byte, 0, len(r.Before)+2+2*len(body)+len(r.After)+len(end))
	out = append(out, r.Before...)
	out = append(out, 'S', '0'+byte(r.Tag))
	out = append(out, hexutil.Hexlify(body, nil, upper)...)
	out = append(out, r.After...)
	out = append(out, end...)
	return out
}

func (r *Record) Tokens(end []byte, upper bool) record.Tokens {
	addrLen := r.Tag.AddressLen()
	addrBytes := make([]byte, addrLen)
	for i := 0; i < addrLen; i++ {
		addrBytes[i] = byte(r.Address >> (8 * uint(addrLen-1-i)))
	}
	return record.Tokens{
		record.TokBefore:   r.Before,
		record.TokBegin:    []byte{'S', '0' + byte(r.Tag)},
		record.TokCount:    hexutil.Hexlify([]byte{byte(r.ComputeCount())}, nil, upper),
		record.TokAddress:  hexutil.Hexlify(addrBytes, nil, upper),
		record.TokData:     hexutil.Hexlify(r.Data, nil, upper),
		record.TokChecksum: hexutil.Hexlify([]byte{byte(r.ComputeChecksum())}, nil, upper),
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

// CreateHeader builds an S0 record carrying arbitrary header bytes.
func CreateHeader(header []byte) *Record {
	return &Record{Base: record.Base{Data: dupBytes(header)}, Tag: TagHeader}
}

// CreateData builds a validated data record of the given width.
func CreateData(tag Tag, address uint64, data []byte) (*Record, error) {
	r := &Record{Base: record.Base{Address: address, Data: dupBytes(data)}, Tag: tag}
	if err := r.Validate(false, false); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateCount builds an S5/S6 record-count record.
func CreateCount(tag Tag, count int) (*Record, error) {
	r := &Record{Base: record.Base{Address: uint64(count)}, Tag: tag}
	if err := r.Validate(false, false); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateTerminator builds the terminator matching dataTag, carrying the
// start address.
func CreateTerminator(dataTag Tag, startAddress uint64) (*Record, error) {
	term := dataTag.pairedTerminator()
	r := &Record{Base: record.Base{Address: startAddress}, Tag: term}
	if err := r.Validate(false, false); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse decodes one Motorola S-Record line.
func Parse(line []byte, validate bool) (*Record, error) {
	idx := bytes.IndexByte(line, 'S')
	if idx < 0 {
		return nil, record.Newf(record.KindSyntax, "srec", record.Coords{}, "missing 'S' marker")
	}
	before := line[:idx]
	if !isWhitespace(before) {
		return nil, record.Newf(record.KindStructure, "srec", record.Coords{}, "non-whitespace junk before record: %q", before)
	}
	rest := line[idx+1:]
	if len(rest) < 1 {
		return nil, record.Newf(record.KindSyntax, "srec", record.Coords{}, "missing tag digit")
	}
	if rest[0] < '0' || rest[0] > '9' {
		return nil, record.Newf(record.KindSyntax, "srec", record.Coords{}, "invalid tag digit %q", rest[0])
	}
	tag := Tag(rest[0] - '0')
	if tag == 4 || tag.AddressLen() == 0 {
		return nil, record.Newf(record.KindSyntax, "srec", record.Coords{}, "unsupported tag S%d", rest[0]-'0')
	}
	rest = rest[1:]

	end := len(rest)
	for end > 0 && isWSByte(rest[end-1]) {
		end--
	}
	hexPart := rest[:end]
	after := rest[end:]

	raw, err := hexutil.Unhexlify(hexPart, false)
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "srec", record.Coords{}, "invalid hex digits: %v", err)
	}
	addrLen := tag.AddressLen()
	if len(raw) < 1+addrLen+1 {
		return nil, record.Newf(record.KindSyntax, "srec", record.Coords{}, "record too short")
	}
	cc := int(raw[0])
	if len(raw) != cc+1 {
		return nil, record.Newf(record.KindSyntax, "srec", record.Coords{}, "byte count %d does not match record length", cc)
	}

	var addr uint64
	for i := 0; i < addrLen; i++ {
		addr = addr<<8 | uint64(raw[1+i])
	}
	data := raw[1+addrLen : len(raw)-1]
	checksum := int(raw[len(raw)-1])

	r := &Record{
		Base: record.Base{
			Address:  addr,
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
