package raw

import (
	"io"

	"github.com/TexZK/hexrec/hexfile"
	"github.com/TexZK/hexrec/memory"
	"github.com/TexZK/hexrec/record"
)

// Meta carries raw binary's file-level fields: the base address the
// stream is anchored at (spec §4.10; raw has no address field of its
// own, so this is the only place it can live).
type Meta struct {
	Address uint64
}

// Codec implements hexfile.Codec for raw binary.
type Codec struct{}

func (Codec) Name() string { return "raw" }

func (Codec) Extensions() []string { return []string{"bin", "dat", "raw"} }

func (Codec) DefaultMeta() hexfile.Meta { return Meta{} }

func (c Codec) ParseRecords(r io.Reader, _ hexfile.Options) ([]hexfile.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, record.Wrap(record.KindIO, "raw", err, "failed reading stream")
	}
	if len(data) == 0 {
		return nil, nil
	}
	return []hexfile.Record{CreateData(0, data)}, nil
}

func (c Codec) SerializeRecords(w io.Writer, records []hexfile.Record, _ hexfile.Meta, _ hexfile.Options) error {
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return record.Newf(record.KindStructure, "raw", record.Coords{}, "foreign record type in raw stream")
		}
		if _, err := w.Write(r.Data); err != nil {
			return record.Wrap(record.KindIO, "raw", err, "failed writing record")
		}
	}
	return nil
}

func (c Codec) ValidateRecords(records []hexfile.Record, _ hexfile.Meta, _ hexfile.Options) error {
	if len(records) > 1 {
		return record.Newf(record.KindStructure, "raw", record.Coords{}, "raw binary must carry at most one record, got %d", len(records))
	}
	if len(records) > 0 {
		r := records[0].(*Record)
		if r.Address != 0 {
			return record.Newf(record.KindConsistency, "raw", record.Coords{}, "raw binary record must start at address 0, got 0x%X", r.Address)
		}
	}
	return nil
}

func (c Codec) ApplyRecords(records []hexfile.Record, _ hexfile.Options) (*memory.Memory, hexfile.Meta, error) {
	mem := memory.New()
	meta := Meta{}
	for _, rg := range records {
		r, ok := rg.(*Record)
		if !ok {
			return nil, nil, record.Newf(record.KindStructure, "raw", record.Coords{}, "foreign record type in raw stream")
		}
		if err := mem.Write(r.Address, r.Data); err != nil {
			return nil, nil, err
		}
		meta.Address = r.Address
	}
	return mem, meta, nil
}

func (c Codec) UpdateRecords(mem *memory.Memory, metaIn hexfile.Meta, _ hexfile.Options) ([]hexfile.Record, hexfile.Meta, error) {
	meta, _ := metaIn.(Meta)
	blocks := mem.ToBlocks()
	if len(blocks) == 0 {
		return nil, meta, nil
	}
	if len(blocks) > 1 {
		return nil, nil, record.Newf(record.KindConsistency, "raw", record.Coords{}, "raw binary requires contiguous memory, found %d disjoint blocks", len(blocks))
	}
	return []hexfile.Record{CreateData(blocks[0].Start, blocks[0].Data)}, meta, nil
}
