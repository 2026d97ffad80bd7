package avr

import (
	"bufio"
	"io"

	"github.com/TexZK/hexrec/hexfile"
	"github.com/TexZK/hexrec/memory"
	"github.com/TexZK/hexrec/record"
)

// MaxDataLen must equal 2 bytes for this format (spec §4.9): each line
// carries exactly one 16-bit word.
const MaxDataLen = 2

// Meta carries AVR's file-level fields; there are none beyond what
// records capture, since the format has no header or terminator.
type Meta struct{}

// Codec implements hexfile.Codec for AVR ROM.
type Codec struct{}

func (Codec) Name() string { return "avr" }

func (Codec) Extensions() []string { return []string{"rom"} }

func (Codec) DefaultMeta() hexfile.Meta { return Meta{} }

func (c Codec) ParseRecords(r io.Reader, opts hexfile.Options) ([]hexfile.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []hexfile.Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, err := Parse(line, opts.Validate)
		if err != nil {
			if opts.IgnoreErrors {
				continue
			}
			return nil, err
		}
		rec.Coords = record.Coords{Line: lineNo}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, record.Wrap(record.KindIO, "avr", err, "failed reading stream")
	}
	return out, nil
}

func (c Codec) SerializeRecords(w io.Writer, records []hexfile.Record, _ hexfile.Meta, opts hexfile.Options) error {
	end := opts.EndOfLine()
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "avr", record.Coords{}, "foreign record type in avr stream")
		}
		if _, err := w.Write(r.Bytes(end, opts.UpperCaseHex)); err != nil {
			return record.Wrap(record.KindIO, "avr", err, "failed writing record")
		}
	}
	return nil
}

func (c Codec) ValidateRecords(records []hexfile.Record, _ hexfile.Meta, _ hexfile.Options) error {
	var lastAddr uint64
	haveLastAddr := false
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "avr", record.Coords{}, "foreign record type in avr stream")
		}
		if err := r.Validate(true, true); err != nil {
			return err
		}
		if haveLastAddr && r.Address < lastAddr {
			return record.Newf(record.KindStructure, "avr", r.Coords, "word record at byte address 0x%X is out of order", r.Address)
		}
		lastAddr = r.Address + 2
		haveLastAddr = true
	}
	return nil
}

func (c Codec) ApplyRecords(records []hexfile.Record, _ hexfile.Options) (*memory.Memory, hexfile.Meta, error) {
	mem := memory.New()
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return nil, nil, record.Newf(record.KindStructure, "avr", record.Coords{}, "foreign record type in avr stream")
		}
		if err := mem.Write(r.Address, r.Data); err != nil {
			return nil, nil, err
		}
	}
	return mem, Meta{}, nil
}

func (c Codec) UpdateRecords(mem *memory.Memory, _ hexfile.Meta, _ hexfile.Options) ([]hexfile.Record, hexfile.Meta, error) {
	var out []hexfile.Record
	for _, b := range mem.ToBlocks() {
		if b.Start%2 != 0 {
			return nil, nil, record.Newf(record.KindMemory, "avr", record.Coords{}, "block at 0x%X is not word-aligned", b.Start)
		}
		if len(b.Data)%2 != 0 {
			return nil, nil, record.Newf(record.KindConsistency, "avr", record.Coords{}, "block at 0x%X has odd size %d, not an even word count", b.Start, len(b.Data))
		}
		for addr := b.Start; addr < b.Endex(); addr += 2 {
			word := b.Data[addr-b.Start : addr-b.Start+2]
			rec, err := CreateWord(addr, word)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, rec)
		}
	}
	return out, Meta{}, nil
}
