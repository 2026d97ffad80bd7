// Package tek implements the Tektronix extended HEX format (spec §4.6):
// "% LL T KK AL A…A D…D" lines with a variable-width address field and a
// nibble-sum checksum.
package tek

import (
	"bytes"
	"fmt"

	"github.com/TexZK/hexrec/hexutil"
	"github.com/TexZK/hexrec/record"
)

// Tag is the Tektronix record type digit.
type Tag byte

const (
	TagData Tag = 6
	TagEOF  Tag = 8
)

func (t Tag) IsData() bool            { return t == TagData }
func (t Tag) IsFileTermination() bool { return t == TagEOF }

func (t Tag) String() string {
	switch t {
	case TagData:
		return "DATA"
	case TagEOF:
		return "EOF"
	default:
		return fmt.Sprintf("Tag(%d)", byte(t))
	}
}

// DefaultAddressLen is the address field width used when a record does
// not otherwise constrain it (spec §8 example).
const DefaultAddressLen = 8

// Record is one Tektronix extended HEX line.
type Record struct {
	record.Base
	Tag        Tag
	AddressLen int // number of hex digits in the address field, 1..15
}

func (r *Record) IsData() bool          { return r.Tag.IsData() }
func (r *Record) IsTerminator() bool    { return r.Tag.IsFileTermination() }
func (r *Record) RecordAddress() uint64 { return r.Address }
func (r *Record) RecordData() []byte    { return r.Data }

func (r *Record) addressLen() int {
	if r.AddressLen > 0 {
		return r.AddressLen
	}
	return DefaultAddressLen
}

// payloadChars returns LL: the hex-character count of the payload (LL,
// T, KK, AL, address, data), i.e. everything after '%'.
func (r *Record) payloadChars() int {
	return 2 + 1 + 2 + 1 + r.addressLen() + 2*len(r.Data)
}

// ComputeCount returns LL.
func (r *Record) ComputeCount() int { return r.payloadChars() }

// ComputeChecksum returns KK: the sum of the nibble values of the
// payload (LL, T, AL, address, data — KK itself excluded), modulo 256.
func (r *Record) ComputeChecksum() int {
	sum := 0
	addSum := func(s string) {
		for _, c := range s {
			sum += hexNibble(byte(c))
		}
	}
	addSum(fmt.Sprintf("%02X", r.ComputeCount()))
	addSum(fmt.Sprintf("%X", byte(r.Tag)))
	addSum(fmt.Sprintf("%X", r.addressLen()))
	addSum(fmt.Sprintf("%0*X", r.addressLen(), r.Address))
	for _, b := range r.Data {
		addSum(fmt.Sprintf("%02X", b))
	}
	return sum & 0xFF
}

func hexNibble(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return 0
	}
}

func (r *Record) Validate(checkCount, checkChecksum bool) error {
	if r.AddressLen != 0 && (r.AddressLen < 1 || r.AddressLen > 15) {
		return record.Newf(record.KindOverflow, "tek", r.Coords, "address length %d out of 1..15 range", r.AddressLen)
	}
	if maxAddr := uint64(1)<<(4*uint(r.addressLen())) - 1; r.Address > maxAddr {
		return record.Newf(record.KindOverflow, "tek", r.Coords, "address 0x%X exceeds %d-digit field width", r.Address, r.addressLen())
	}
	if r.ComputeCount() > 0xFF {
		return record.Newf(record.KindOverflow, "tek", r.Coords, "payload length %d exceeds 2-hex-digit LL field", r.ComputeCount())
	}
	if checkCount && r.Count != nil && *r.Count != r.ComputeCount() {
		return record.Newf(record.KindConsistency, "tek", r.Coords, "stored count %d does not match computed count %d", *r.Count, r.ComputeCount())
	}
	if checkChecksum && r.Checksum != nil && *r.Checksum != r.ComputeChecksum() {
		return record.Newf(record.KindConsistency, "tek", r.Coords, "stored checksum 0x%02X does not match computed checksum 0x%02X", *r.Checksum, r.ComputeChecksum())
	}
	switch r.Tag {
	case TagData:
		if len(r.Data) == 0 {
			return record.Newf(record.KindStructure, "tek", r.Coords, "data record must carry at least one byte")
		}
	case TagEOF:
		// no further constraint
	default:
		return record.Newf(record.KindSyntax, "tek", r.Coords, "unrecognized tag %d", byte(r.Tag))
	}
	return nil
}

func (r *Record) Bytes(end []byte, upper bool) []byte {
	hexDigits := func(v uint64, width int) string {
		s := fmt.Sprintf("%0*X", width, v)
		if !upper {
			s = toLowerASCII(s)
		}
		return s
	}
	var buf bytes.Buffer
	buf.Write(r.Before)
	buf.WriteByte('%')
	buf.WriteString(hexDigits(uint64(r.ComputeCount()), 2))
	buf.WriteString(hexDigits(uint64(r.Tag), 1))
	buf.WriteString(hexDigits(uint64(r.ComputeChecksum()), 2))
	buf.WriteString(hexDigits(uint64(r.addressLen()), 1))
	buf.WriteString(hexDigits(r.Address, r.addressLen()))
	buf.WriteString(string(hexutil.Hexlify(r.Data, nil, upper)))
	buf.Write(r.After)
	buf.Write(end)
	return buf.Bytes()
}

func toLowerASCII(s string) string {
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
		record.TokBefore:   r.Before,
		record.TokBegin:    []byte("%"),
		record.TokCount:    []byte(fmt.Sprintf("%02X", r.ComputeCount())),
		record.TokTag:      []byte(fmt.Sprintf("%X", byte(r.Tag))),
		record.TokChecksum: []byte(fmt.Sprintf("%02X", r.ComputeChecksum())),
		record.TokAddress:  []byte(fmt.Sprintf("%0*X", r.addressLen(), r.Address)),
		record.TokData:     hexutil.Hexlify(r.Data, nil, upper),
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

// CreateData builds a validated data record with the given address
// width (0 selects DefaultAddressLen).
func CreateData(address uint64, data []byte, addrLen int) (*Record, error) {
	r := &Record{Base: record.Base{Address: address, Data: dupBytes(data)}, Tag: TagData, AddressLen: addrLen}
	if err := r.Validate(false, false); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateEOF builds the terminator record carrying the start address.
func CreateEOF(startAddress uint64, addrLen int) (*Record, error) {
	r := &Record{Base: record.Base{Address: startAddress}, Tag: TagEOF, AddressLen: addrLen}
	if err := r.Validate(false, false); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse decodes one Tektronix extended HEX line.
func Parse(line []byte, validate bool) (*Record, error) {
	idx := bytes.IndexByte(line, '%')
	if idx < 0 {
		return nil, record.Newf(record.KindSyntax, "tek", record.Coords{}, "missing '%%' marker")
	}
	before := line[:idx]
	if !isWhitespace(before) {
		return nil, record.Newf(record.KindStructure, "tek", record.Coords{}, "non-whitespace junk before record: %q", before)
	}
	rest := line[idx+1:]

	end := len(rest)
	for end > 0 && isWSByte(rest[end-1]) {
		end--
	}
	hexPart := rest[:end]
	after := rest[end:]

	if len(hexPart) < 2+1+2+1 {
		return nil, record.Newf(record.KindSyntax, "tek", record.Coords{}, "record too short")
	}
	ll, err := parseHexInt(hexPart[0:2])
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "tek", record.Coords{}, "invalid LL field: %v", err)
	}
	t, err := parseHexInt(hexPart[2:3])
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "tek", record.Coords{}, "invalid T field: %v", err)
	}
	kk, err := parseHexInt(hexPart[3:5])
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "tek", record.Coords{}, "invalid KK field: %v", err)
	}
	al, err := parseHexInt(hexPart[5:6])
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "tek", record.Coords{}, "invalid AL field: %v", err)
	}
	if al < 1 || al > 15 {
		return nil, record.Newf(record.KindOverflow, "tek", record.Coords{}, "address length %d out of 1..15 range", al)
	}
	if len(hexPart) < 6+al {
		return nil, record.Newf(record.KindSyntax, "tek", record.Coords{}, "record shorter than its AL field requires")
	}
	addr, err := hexutil.ParseHexUint(hexPart[6 : 6+al])
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "tek", record.Coords{}, "invalid address field: %v", err)
	}
	dataHex := hexPart[6+al:]
	data, err := hexutil.Unhexlify(dataHex, false)
	if err != nil {
		return nil, record.Newf(record.KindSyntax, "tek", record.Coords{}, "invalid data hex digits: %v", err)
	}

	r := &Record{
		Base: record.Base{
			Address:  addr,
			Data:     data,
			Count:    intPtr(ll),
			Checksum: intPtr(kk),
			Before:   dupBytes(before),
			After:    dupBytes(after),
		},
		Tag:        Tag(t),
		AddressLen: al,
	}
	if r.ComputeCount() != ll {
		return nil, record.Newf(record.KindSyntax, "tek", record.Coords{}, "LL field %d does not match payload length %d", ll, r.ComputeCount())
	}
	if validate {
		if err := r.Validate(true, true); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func parseHexInt(b []byte) (int, error) {
	v, err := hexutil.ParseHexUint(b)
	return int(v), err
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
