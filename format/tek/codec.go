package tek

import (
	"bufio"
	"io"

	"github.com/TexZK/hexrec/hexfile"
	"github.com/TexZK/hexrec/memory"
	"github.com/TexZK/hexrec/record"
)

// DefaultMaxDataLen is the default per-record payload length used by
// UpdateRecords when Options.MaxDataLen is zero. LL is bounded by 0xFF,
// so with an 8-digit address this leaves room for 120 data bytes; a
// conservative default is used instead to keep lines short and uniform
// with the other formats.
const DefaultMaxDataLen = 16

// Meta carries Tektronix's file-level fields: the start address carried
// by the terminator, and the address field width to emit (spec §4.6).
type Meta struct {
	StartAddress *uint64
	AddressLen   int
}

// Codec implements hexfile.Codec for Tektronix extended HEX.
type Codec struct{}

func (Codec) Name() string { return "tek" }

func (Codec) Extensions() []string { return []string{"tek"} }

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
		return nil, record.Wrap(record.KindIO, "tek", err, "failed reading stream")
	}
	return out, nil
}

func (c Codec) SerializeRecords(w io.Writer, records []hexfile.Record, _ hexfile.Meta, opts hexfile.Options) error {
	end := opts.EndOfLine()
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "tek", record.Coords{}, "foreign record type in tek stream")
		}
		if _, err := w.Write(r.Bytes(end, opts.UpperCaseHex)); err != nil {
			return record.Wrap(record.KindIO, "tek", err, "failed writing record")
		}
	}
	return nil
}

func (c Codec) ValidateRecords(records []hexfile.Record, _ hexfile.Meta, _ hexfile.Options) error {
	eofSeen := false
	for i, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "tek", record.Coords{}, "foreign record type in tek stream")
		}
		if err := r.Validate(true, true); err != nil {
			return err
		}
		if eofSeen {
			return record.Newf(record.KindStructure, "tek", r.Coords, "record found after EOF at index %d", i)
		}
		if r.Tag.IsFileTermination() {
			eofSeen = true
			if i != len(records)-1 {
				return record.Newf(record.KindStructure, "tek", r.Coords, "EOF record is not the last record")
			}
		}
	}
	if !eofSeen && len(records) > 0 {
		return record.Newf(record.KindStructure, "tek", record.Coords{}, "missing EOF record")
	}
	return nil
}

func (c Codec) ApplyRecords(records []hexfile.Record, _ hexfile.Options) (*memory.Memory, hexfile.Meta, error) {
	mem := memory.New()
	meta := Meta{}
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return nil, nil, record.Newf(record.KindStructure, "tek", record.Coords{}, "foreign record type in tek stream")
		}
		switch {
		case r.Tag.IsData():
			if err := mem.Write(r.Address, r.Data); err != nil {
				return nil, nil, err
			}
			meta.AddressLen = r.addressLen()
		case r.Tag.IsFileTermination():
			addr := r.Address
			meta.StartAddress = &addr
		}
	}
	return mem, meta, nil
}

func (c Codec) UpdateRecords(mem *memory.Memory, metaIn hexfile.Meta, opts hexfile.Options) ([]hexfile.Record, hexfile.Meta, error) {
	meta, _ := metaIn.(Meta)

	maxLen := opts.MaxDataLen
	if maxLen <= 0 {
		maxLen = DefaultMaxDataLen
	}
	addrLen := meta.AddressLen
	if addrLen == 0 {
		addrLen = DefaultAddressLen
	}

	var out []hexfile.Record
	for _, b := range mem.ToBlocks() {
		addr := b.Start
		end := b.Endex()
		for addr < end {
			chunkEnd := addr + uint64(maxLen)
			if chunkEnd > end {
				chunkEnd = end
			}
			rec, err := CreateData(addr, b.Data[addr-b.Start:chunkEnd-b.Start], addrLen)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, rec)
			addr = chunkEnd
		}
	}

	var start uint64
	if meta.StartAddress != nil {
		start = *meta.StartAddress
	}
	term, err := CreateEOF(start, addrLen)
	if err != nil {
		return nil, nil, err
	}
	out = append(out, term)

	return out, meta, nil
}
