package ihex

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

// Meta carries Intel HEX's file-level fields that are not representable
// on a single record: the optional start-execution address, and the
// emission policy for extended addressing (spec §4.4, §9 open question).
type Meta struct {
	StartLinearAddress  *uint32
	StartSegmentCS      *uint16
	StartSegmentIP      *uint16
	AlwaysEmitInitialELA bool
	PreferSegment        bool
}

// Codec implements hexfile.Codec for Intel HEX.
type Codec struct{}

func (Codec) Name() string { return "ihex" }

func (Codec) Extensions() []string { return []string{"hex", "ihex", "mcs"} }

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
		return nil, record.Wrap(record.KindIO, "ihex", err, "failed reading stream")
	}
	return out, nil
}

func (c Codec) SerializeRecords(w io.Writer, records []hexfile.Record, _ hexfile.Meta, opts hexfile.Options) error {
	end := opts.EndOfLine()
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "ihex", record.Coords{}, "foreign record type in ihex stream")
		}
		if _, err := w.Write(r.Bytes(end, opts.UpperCaseHex)); err != nil {
			return record.Wrap(record.KindIO, "ihex", err, "failed writing record")
		}
	}
	return nil
}

func (c Codec) ValidateRecords(records []hexfile.Record, _ hexfile.Meta, _ hexfile.Options) error {
	eofSeen := false
	var base uint64
	var lastAddr uint64
	haveLastAddr := false
	for i, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "ihex", record.Coords{}, "foreign record type in ihex stream")
		}
		if err := r.Validate(true, true); err != nil {
			return err
		}
		if eofSeen {
			return record.Newf(record.KindStructure, "ihex", r.Coords, "record found after EOF at index %d", i)
		}
		if (r.Tag == TagExtendedSegmentAddress || r.Tag == TagExtendedLinearAddress) && len(r.Data) == 2 {
			seg := uint64(r.Data[0])<<8 | uint64(r.Data[1])
			if r.Tag == TagExtendedSegmentAddress {
				base = seg << 4
			} else {
				base = seg << 16
			}
		}
		if r.Tag == TagData {
			addr := base + r.Address
			if haveLastAddr && addr < lastAddr {
				return record.Newf(record.KindStructure, "ihex", r.Coords, "data record at 0x%X is out of order", addr)
			}
			lastAddr = addr + uint64(len(r.Data))
			haveLastAddr = true
		}
		if r.Tag.IsFileTermination() {
			eofSeen = true
			if i != len(records)-1 {
				return record.Newf(record.KindStructure, "ihex", r.Coords, "EOF record is not the last record")
			}
		}
	}
	if !eofSeen && len(records) > 0 {
		return record.Newf(record.KindStructure, "ihex", record.Coords{}, "missing EOF record")
	}
	return nil
}

func (c Codec) ApplyRecords(records []hexfile.Record, _ hexfile.Options) (*memory.Memory, hexfile.Meta, error) {
	mem := memory.New()
	meta := Meta{}
	var base uint64

	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return nil, nil, record.Newf(record.KindStructure, "ihex", record.Coords{}, "foreign record type in ihex stream")
		}
		switch r.Tag {
		case TagData:
			if err := mem.Write(base+r.Address, r.Data); err != nil {
				return nil, nil, err
			}
		case TagExtendedSegmentAddress:
			seg := uint16(r.Data[0])<<8 | uint16(r.Data[1])
			base = uint64(seg) << 4
		case TagExtendedLinearAddress:
			seg := uint16(r.Data[0])<<8 | uint16(r.Data[1])
			base = uint64(seg) << 16
		case TagStartSegmentAddress:
			cs := uint16(r.Data[0])<<8 | uint16(r.Data[1])
			ip := uint16(r.Data[2])<<8 | uint16(r.Data[3])
			meta.StartSegmentCS, meta.StartSegmentIP = &cs, &ip
		case TagStartLinearAddress:
			addr := uint32(r.Data[0])<<24 | uint32(r.Data[1])<<16 | uint32(r.Data[2])<<8 | uint32(r.Data[3])
			meta.StartLinearAddress = &addr
		case TagEOF:
			// terminator carries no data
		}
	}
	return mem, meta, nil
}

func (c Codec) UpdateRecords(mem *memory.Memory, metaIn hexfile.Meta, opts hexfile.Options) ([]hexfile.Record, hexfile.Meta, error) {
	meta, _ := metaIn.(Meta)

	maxLen := opts.MaxDataLen
	if maxLen <= 0 || maxLen > 255 {
		maxLen = DefaultMaxDataLen
	}

	var out []hexfile.Record
	curHigh := uint32(0)
	haveHigh := true

	if meta.AlwaysEmitInitialELA {
		out = append(out, CreateExtendedLinearAddress(0))
	}

	emitExtended := func(high uint32) {
		if meta.PreferSegment {
			out = append(out, CreateExtendedSegmentAddress(uint16(high<<12)))
		} else {
			out = append(out, CreateExtendedLinearAddress(uint16(high)))
		}
	}

	for _, b := range mem.ToBlocks() {
		addr := b.Start
		end := b.Endex()
		for addr < end {
			high := uint32(addr >> 16)
			if !haveHigh || high != curHigh {
				emitExtended(high)
				curHigh = high
				haveHigh = true
			}
			boundary := (uint64(high) + 1) << 16
			chunkEnd := addr + uint64(maxLen)
			if chunkEnd > boundary {
				chunkEnd = boundary
			}
			if chunkEnd > end {
				chunkEnd = end
			}
			data := b.Data[addr-b.Start : chunkEnd-b.Start]
			rec, err := CreateData(uint16(addr&0xFFFF), data)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, rec)
			addr = chunkEnd
		}
	}

	if meta.StartLinearAddress != nil {
		out = append(out, CreateExtendedLinearAddress(0))
		out = append(out, CreateStartLinearAddress(*meta.StartLinearAddress))
	}
	if meta.StartSegmentCS != nil && meta.StartSegmentIP != nil {
		out = append(out, CreateStartSegmentAddress(*meta.StartSegmentCS, *meta.StartSegmentIP))
	}
	out = append(out, CreateEOF())

	return out, meta, nil
}
