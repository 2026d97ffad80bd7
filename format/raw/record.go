// Package raw implements the raw binary codec (spec §4.10): a single
// record spanning the entire contiguous memory range, with no textual
// framing at all.
package raw

import "github.com/TexZK/hexrec/record"

// Record is the whole file's contents as one contiguous span.
type Record struct {
	record.Base
}

func (r *Record) IsData() bool          { return true }
func (r *Record) IsTerminator() bool    { return true }
func (r *Record) RecordAddress() uint64 { return r.Address }
func (r *Record) RecordData() []byte    { return r.Data }

// ComputeCount and ComputeChecksum are not applicable: raw binary has
// no framing fields at all.
func (r *Record) ComputeCount() int    { return len(r.Data) }
func (r *Record) ComputeChecksum() int { return 0 }

func (r *Record) Validate(_, _ bool) error { return nil }

// Bytes is simply the record's raw payload; there is no framing.
func (r *Record) Bytes(_ []byte, _ bool) []byte { return r.Data }

func (r *Record) Tokens(_ []byte, _ bool) record.Tokens {
	return record.Tokens{record.TokData: r.Data}
}

// CreateData builds a raw record starting at address.
func CreateData(address uint64, data []byte) *Record {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Record{Base: record.Base{Address: address, Data: cp}}
}
