package srec

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

// Meta carries Motorola S-Record's file-level fields that are not
// representable on a single data record (spec §4.5, §9 open question).
type Meta struct {
	Header       []byte
	StartAddress *uint64
	EmitCount    bool
}

// Codec implements hexfile.Codec for Motorola S-Record.
type Codec struct{}

func (Codec) Name() string { return "srec" }

func (Codec) Extensions() []string { return []string{"srec", "s19", "s28", "s37", "mot", "exo"} }

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
		return nil, record.Wrap(record.KindIO, "srec", err, "failed reading stream")
	}
	return out, nil
}

func (c Codec) SerializeRecords(w io.Writer, records []hexfile.Record, _ hexfile.Meta, opts hexfile.Options) error {
	end := opts.EndOfLine()
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "srec", record.Coords{}, "foreign record type in srec stream")
		}
		if _, err := w.Write(r.Bytes(end, opts.UpperCaseHex)); err != nil {
			return record.Wrap(record.KindIO, "srec", err, "failed writing record")
		}
	}
	return nil
}

func (c Codec) ValidateRecords(records []hexfile.Record, _ hexfile.Meta, _ hexfile.Options) error {
	var dataTag Tag
	haveDataTag := false
	termSeen := false

	for i, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "srec", record.Coords{}, "foreign record type in srec stream")
		}
		if err := r.Validate(true, true); err != nil {
			return err
		}
		if termSeen {
			return record.Newf(record.KindStructure, "srec", r.Coords, "record found after terminator at index %d", i)
		}
		if r.Tag.IsData() {
			if haveDataTag && r.Tag != dataTag {
				return record.Newf(record.KindConsistency, "srec", r.Coords, "mixed data widths %s and %s in one file", dataTag, r.Tag)
			}
			dataTag, haveDataTag = r.Tag, true
		}
		if r.Tag.IsFileTermination() {
			termSeen = true
			if haveDataTag && r.Tag.pairedDataTag() != dataTag {
				return record.Newf(record.KindConsistency, "srec", r.Coords, "terminator %s does not match data width %s", r.Tag, dataTag)
			}
			if i != len(records)-1 {
				return record.Newf(record.KindStructure, "srec", r.Coords, "terminator record is not the last record")
			}
		}
	}
	if !termSeen && len(records) > 0 {
		return record.Newf(record.KindStructure, "srec", record.Coords{}, "missing terminator record")
	}
	return nil
}

func (c Codec) ApplyRecords(records []hexfile.Record, _ hexfile.Options) (*memory.Memory, hexfile.Meta, error) {
	mem := memory.New()
	meta := Meta{}

	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return nil, nil, record.Newf(record.KindStructure, "srec", record.Coords{}, "foreign record type in srec stream")
		}
		switch {
		case r.Tag == TagHeader:
			meta.Header = append([]byte(nil), r.Data...)
		case r.Tag.IsData():
			if err := mem.Write(r.Address, r.Data); err != nil {
				return nil, nil, err
			}
		case r.Tag.IsCount():
			// record count is reconstructible from len(records); no meta needed.
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
	if maxLen <= 0 || maxLen > 250 {
		maxLen = DefaultMaxDataLen
	}

	blocks := mem.ToBlocks()
	var endex uint64
	if n := len(blocks); n > 0 {
		endex = blocks[n-1].Endex()
	}
	dataTag := FitDataTag(endex)

	var out []hexfile.Record
	if meta.Header != nil {
		out = append(out, CreateHeader(meta.Header))
	}

	var dataCount int
	for _, b := range blocks {
		addr := b.Start
		end := b.Endex()
		for addr < end {
			chunkEnd := addr + uint64(maxLen)
			if chunkEnd > end {
				chunkEnd = end
			}
			rec, err := CreateData(dataTag, addr, b.Data[addr-b.Start:chunkEnd-b.Start])
			if err != nil {
				return nil, nil, err
			}
			out = append(out, rec)
			dataCount++
			addr = chunkEnd
		}
	}

	if meta.EmitCount {
		countTag := TagCount16
		if dataCount > 0xFFFF {
			countTag = TagCount24
		}
		rec, err := CreateCount(countTag, dataCount)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, rec)
	}

	var start uint64
	if meta.StartAddress != nil {
		start = *meta.StartAddress
	} else if len(blocks) > 0 {
		start = blocks[0].Start
	}
	term, err := CreateTerminator(dataTag, start)
	if err != nil {
		return nil, nil, err
	}
	out = append(out, term)

	return out, meta, nil
}
