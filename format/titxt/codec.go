package titxt

import (
	"bufio"
	"io"

	"github.com/TexZK/hexrec/hexfile"
	"github.com/TexZK/hexrec/memory"
	"github.com/TexZK/hexrec/record"
)

// DefaultMaxDataLen is the default byte count per data line used by
// UpdateRecords when Options.MaxDataLen is zero.
const DefaultMaxDataLen = 16

// Meta carries TI-TXT's file-level fields: none beyond what records
// already capture, since addresses/data aren't paired with counts.
type Meta struct{}

// Codec implements hexfile.Codec for TI-TXT.
type Codec struct{}

func (Codec) Name() string { return "titxt" }

func (Codec) Extensions() []string { return []string{"txt"} }

func (Codec) DefaultMeta() hexfile.Meta { return Meta{} }

func (c Codec) ParseRecords(r io.Reader, opts hexfile.Options) ([]hexfile.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []hexfile.Record
	lineNo := 0
	terminated := false
	var addr uint64
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if terminated && opts.IgnoreAfterTermination {
			continue
		}
		rec, err := ParseLine(line, addr)
		if err != nil {
			if opts.IgnoreErrors {
				continue
			}
			return nil, err
		}
		rec.Coords = record.Coords{Line: lineNo}
		if opts.Validate {
			if err := rec.Validate(true, true); err != nil {
				return nil, err
			}
		}
		switch rec.Tag {
		case TagAddress:
			addr = rec.Address
		case TagData:
			addr += uint64(len(rec.Data))
		case TagEnd:
			terminated = true
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, record.Wrap(record.KindIO, "titxt", err, "failed reading stream")
	}
	return out, nil
}

func (c Codec) SerializeRecords(w io.Writer, records []hexfile.Record, _ hexfile.Meta, opts hexfile.Options) error {
	end := opts.EndOfLine()
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "titxt", record.Coords{}, "foreign record type in titxt stream")
		}
		if _, err := w.Write(r.Bytes(end, opts.UpperCaseHex)); err != nil {
			return record.Wrap(record.KindIO, "titxt", err, "failed writing record")
		}
	}
	return nil
}

func (c Codec) ValidateRecords(records []hexfile.Record, _ hexfile.Meta, _ hexfile.Options) error {
	endSeen := false
	for i, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "titxt", record.Coords{}, "foreign record type in titxt stream")
		}
		if err := r.Validate(true, true); err != nil {
			return err
		}
		if endSeen {
			return record.Newf(record.KindStructure, "titxt", r.Coords, "record found after terminator at index %d", i)
		}
		if r.Tag == TagEnd {
			endSeen = true
			if i != len(records)-1 {
				return record.Newf(record.KindStructure, "titxt", r.Coords, "terminator is not the last record")
			}
		}
	}
	if !endSeen && len(records) > 0 {
		return record.Newf(record.KindStructure, "titxt", record.Coords{}, "missing 'q' terminator")
	}
	return nil
}

func (c Codec) ApplyRecords(records []hexfile.Record, _ hexfile.Options) (*memory.Memory, hexfile.Meta, error) {
	mem := memory.New()
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return nil, nil, record.Newf(record.KindStructure, "titxt", record.Coords{}, "foreign record type in titxt stream")
		}
		if r.Tag == TagData {
			if err := mem.Write(r.Address, r.Data); err != nil {
				return nil, nil, err
			}
		}
	}
	return mem, Meta{}, nil
}

func (c Codec) UpdateRecords(mem *memory.Memory, _ hexfile.Meta, opts hexfile.Options) ([]hexfile.Record, hexfile.Meta, error) {
	maxLen := opts.MaxDataLen
	if maxLen <= 0 {
		maxLen = DefaultMaxDataLen
	}

	var out []hexfile.Record
	var nextAddr uint64 // the address TI-TXT readers assume at stream start

	for _, b := range mem.ToBlocks() {
		if b.Start != nextAddr {
			out = append(out, CreateAddress(uint32(b.Start)))
		}
		addr := b.Start
		end := b.Endex()
		for addr < end {
			chunkEnd := addr + uint64(maxLen)
			if chunkEnd > end {
				chunkEnd = end
			}
			out = append(out, CreateData(addr, b.Data[addr-b.Start:chunkEnd-b.Start]))
			addr = chunkEnd
		}
		nextAddr = end
	}
	out = append(out, CreateEnd())

	return out, Meta{}, nil
}
