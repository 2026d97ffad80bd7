package mos

import (
	"bufio"
	"io"

	"github.com/TexZK/hexrec/hexfile"
	"github.com/TexZK/hexrec/memory"
	"github.com/TexZK/hexrec/record"
)

// DefaultMaxDataLen is the default per-record payload length used by
// UpdateRecords when Options.MaxDataLen is zero.
const DefaultMaxDataLen = 16

// Meta carries MOS papertape's file-level fields: whether to append a
// trailing XOFF byte on emit (spec §4.7).
type Meta struct {
	EmitXOFF bool
}

// Codec implements hexfile.Codec for MOS papertape.
type Codec struct{}

func (Codec) Name() string { return "mos" }

func (Codec) Extensions() []string { return []string{"mos"} }

func (Codec) DefaultMeta() hexfile.Meta { return Meta{} }

func (c Codec) ParseRecords(r io.Reader, opts hexfile.Options) ([]hexfile.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []hexfile.Record
	lineNo := 0
	terminated := false
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if terminated && opts.IgnoreAfterTermination {
			continue
		}
		if !hasRecordMarker(line) {
			if opts.IgnoreErrors {
				continue
			}
			return nil, record.Newf(record.KindSyntax, "mos", record.Coords{Line: lineNo}, "junk line without ';' marker")
		}
		rec, err := Parse(line, opts.Validate)
		if err != nil {
			if opts.IgnoreErrors {
				continue
			}
			return nil, err
		}
		rec.Coords = record.Coords{Line: lineNo}
		if rec.Tag.IsFileTermination() {
			terminated = true
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, record.Wrap(record.KindIO, "mos", err, "failed reading stream")
	}
	return out, nil
}

func hasRecordMarker(line []byte) bool {
	for _, b := range line {
		if b == ';' {
			return true
		}
		if !isWSByte(b) {
			return false
		}
	}
	return false
}

func (c Codec) SerializeRecords(w io.Writer, records []hexfile.Record, metaIn hexfile.Meta, opts hexfile.Options) error {
	meta, _ := metaIn.(Meta)
	end := opts.EndOfLine()
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "mos", record.Coords{}, "foreign record type in mos stream")
		}
		if _, err := w.Write(r.Bytes(end, opts.UpperCaseHex)); err != nil {
			return record.Wrap(record.KindIO, "mos", err, "failed writing record")
		}
	}
	if meta.EmitXOFF {
		if _, err := w.Write([]byte{0x13}); err != nil {
			return record.Wrap(record.KindIO, "mos", err, "failed writing XOFF terminator")
		}
	}
	return nil
}

func (c Codec) ValidateRecords(records []hexfile.Record, _ hexfile.Meta, _ hexfile.Options) error {
	endSeen := false
	dataCount := 0
	for i, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "mos", record.Coords{}, "foreign record type in mos stream")
		}
		if err := r.Validate(true, true); err != nil {
			return err
		}
		if endSeen {
			return record.Newf(record.KindStructure, "mos", r.Coords, "record found after end record at index %d", i)
		}
		if r.Tag == TagData {
			dataCount++
		}
		if r.Tag == TagEnd {
			endSeen = true
			if i != len(records)-1 {
				return record.Newf(record.KindStructure, "mos", r.Coords, "end record is not the last record")
			}
			if int(r.Address) != dataCount {
				return record.Newf(record.KindConsistency, "mos", r.Coords, "end record count %d does not match %d data records", r.Address, dataCount)
			}
		}
	}
	if !endSeen && len(records) > 0 {
		return record.Newf(record.KindStructure, "mos", record.Coords{}, "missing end record")
	}
	return nil
}

func (c Codec) ApplyRecords(records []hexfile.Record, _ hexfile.Options) (*memory.Memory, hexfile.Meta, error) {
	mem := memory.New()
	meta := Meta{}
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return nil, nil, record.Newf(record.KindStructure, "mos", record.Coords{}, "foreign record type in mos stream")
		}
		if r.Tag == TagData {
			if err := mem.Write(r.Address, r.Data); err != nil {
				return nil, nil, err
			}
		}
	}
	return mem, meta, nil
}

func (c Codec) UpdateRecords(mem *memory.Memory, metaIn hexfile.Meta, opts hexfile.Options) ([]hexfile.Record, hexfile.Meta, error) {
	meta, _ := metaIn.(Meta)

	maxLen := opts.MaxDataLen
	if maxLen <= 0 || maxLen > 0xFF {
		maxLen = DefaultMaxDataLen
	}

	var out []hexfile.Record
	var dataCount int
	for _, b := range mem.ToBlocks() {
		addr := b.Start
		end := b.Endex()
		for addr < end {
			if addr > 0xFFFF {
				return nil, nil, record.Newf(record.KindOverflow, "mos", record.Coords{}, "address 0x%X exceeds 16-bit field width", addr)
			}
			chunkEnd := addr + uint64(maxLen)
			if chunkEnd > end {
				chunkEnd = end
			}
			if chunkEnd > 0x10000 {
				chunkEnd = 0x10000
			}
			rec, err := CreateData(uint16(addr), b.Data[addr-b.Start:chunkEnd-b.Start])
			if err != nil {
				return nil, nil, err
			}
			out = append(out, rec)
			dataCount++
			addr = chunkEnd
		}
	}

	if dataCount > 0xFFFF {
		return nil, nil, record.Newf(record.KindOverflow, "mos", record.Coords{}, "record count %d exceeds 16-bit field width", dataCount)
	}
	out = append(out, CreateEnd(uint16(dataCount)))

	return out, meta, nil
}
