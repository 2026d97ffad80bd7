// Package hexfile implements the format-agnostic File abstraction of
// spec §4.11: a dual (records ⇄ memory) representation with lazy
// synchronization, load/save, and the shared editing operations that
// every concrete format (Intel HEX, Motorola S-Record, …) inherits by
// plugging in a Codec (spec §4.4–§4.10).
package hexfile

import (
	"io"
	"os"

	"github.com/TexZK/hexrec/memory"
	"github.com/TexZK/hexrec/record"
)

// State names which side(s) of the records/memory pair currently hold
// authoritative data (Design Notes / Dual representation).
type State int

const (
	StateNeither State = iota
	StateRecordsOnly
	StateMemoryOnly
	StateBoth
)

// File pairs a record sequence with a sparse memory image, both
// addressable through the same Codec. Apart from a freshly created empty
// file (StateNeither), at least one side is populated; reading the unset
// side triggers its computation from the other, which is then retained
// for introspection (spec §4.11).
type File struct {
	codec   Codec
	records []Record
	memory  *memory.Memory
	meta    Meta
	opts    Options
}

// NewFile returns an empty file of the given format, in StateNeither.
func NewFile(codec Codec, opts Options) *File {
	return &File{codec: codec, meta: codec.DefaultMeta(), opts: opts}
}

// Codec returns the format this file is bound to.
func (f *File) Codec() Codec { return f.codec }

// Options returns the parse/serialize options this file was built with.
func (f *File) Options() Options { return f.opts }

// Meta returns the format-specific metadata (start address, header
// bytes, …) currently attached to this file.
func (f *File) Meta() Meta { return f.meta }

// SetMeta replaces the format-specific metadata.
func (f *File) SetMeta(meta Meta) { f.meta = meta }

// State reports which side(s) currently hold data.
func (f *File) State() State {
	switch {
	case f.records != nil && f.memory != nil:
		return StateBoth
	case f.records != nil:
		return StateRecordsOnly
	case f.memory != nil:
		return StateMemoryOnly
	default:
		return StateNeither
	}
}

// FromBytes builds a file whose memory holds data starting at offset.
func FromBytes(codec Codec, data []byte, offset uint64, opts Options) *File {
	f := NewFile(codec, opts)
	f.memory = memory.FromBytes(data, offset)
	return f
}

// FromBlocks builds a file whose memory holds the given blocks.
func FromBlocks(codec Codec, blocks []memory.Block, opts Options) (*File, error) {
	mem, err := memory.FromBlocks(blocks)
	if err != nil {
		return nil, err
	}
	f := NewFile(codec, opts)
	f.memory = mem
	return f, nil
}

// FromMemory builds a file backed directly by mem (not copied).
func FromMemory(codec Codec, mem *memory.Memory, opts Options) *File {
	f := NewFile(codec, opts)
	f.memory = mem
	return f
}

// FromRecords builds a file backed directly by records and meta.
func FromRecords(codec Codec, records []Record, meta Meta, opts Options) *File {
	f := NewFile(codec, opts)
	f.records = records
	f.meta = meta
	return f
}

// Parse decodes records from r and returns a RecordsOnly file.
func Parse(codec Codec, r io.Reader, opts Options) (*File, error) {
	records, err := codec.ParseRecords(r, opts)
	if err != nil {
		return nil, err
	}
	if opts.Validate {
		if err := codec.ValidateRecords(records, codec.DefaultMeta(), opts); err != nil {
			return nil, err
		}
	}
	f := NewFile(codec, opts)
	f.records = records
	return f, nil
}

// Load reads path (or standard input when path is "" or "-") and parses
// it with codec.
func Load(codec Codec, path string, opts Options) (*File, error) {
	r, closeFn, err := openInput(path)
	if err != nil {
		return nil, record.Wrap(record.KindIO, codec.Name(), err, "failed to open %q", path)
	}
	defer closeFn()
	return Parse(codec, r, opts)
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path) // #nosec G304 -- caller-provided path
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// Serialize writes the file's records (computing them from memory first,
// if necessary) to w.
func (f *File) Serialize(w io.Writer) error {
	records, err := f.Records()
	if err != nil {
		return err
	}
	return f.codec.SerializeRecords(w, records, f.meta, f.opts)
}

// Save serializes the file to path (or standard output when path is ""
// or "-").
func (f *File) Save(path string) error {
	w, closeFn, err := openOutput(path)
	if err != nil {
		return record.Wrap(record.KindIO, f.codec.Name(), err, "failed to open %q", path)
	}
	defer closeFn()
	return f.Serialize(w)
}

// SaveFile serializes f to path, as a free-function counterpart to
// (*File).Save mirroring core.py's top-level save_file (spec §9
// supplemental features).
func SaveFile(f *File, path string) error {
	return f.Save(path)
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path) // #nosec G304 -- caller-provided path
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// Records returns the record sequence, computing it from memory via
// UpdateRecords if it is not already set. The memory side is retained.
func (f *File) Records() ([]Record, error) {
	if f.records == nil {
		if f.memory == nil {
			return nil, nil
		}
		if err := f.UpdateRecords(); err != nil {
			return nil, err
		}
	}
	return f.records, nil
}

// Memory returns the sparse memory, computing it from records via
// ApplyRecords if it is not already set. The records side is retained.
func (f *File) Memory() (*memory.Memory, error) {
	if f.memory == nil {
		if f.records == nil {
			return nil, nil
		}
		if err := f.ApplyRecords(); err != nil {
			return nil, err
		}
	}
	return f.memory, nil
}

// UpdateRecords rebuilds records from memory using the format-specific
// rules of the bound Codec. Memory must already be populated.
func (f *File) UpdateRecords() error {
	if f.memory == nil {
		return record.Newf(record.KindStructure, f.codec.Name(), record.Coords{}, "cannot update records: no memory side is populated")
	}
	records, meta, err := f.codec.UpdateRecords(f.memory, f.meta, f.opts)
	if err != nil {
		return err
	}
	f.records = records
	f.meta = meta
	return nil
}

// ApplyRecords rebuilds memory (and meta) from records using the
// format-specific rules of the bound Codec. Records must already be
// populated.
func (f *File) ApplyRecords() error {
	if f.records == nil {
		return record.Newf(record.KindStructure, f.codec.Name(), record.Coords{}, "cannot apply records: no records side is populated")
	}
	mem, meta, err := f.codec.ApplyRecords(f.records, f.opts)
	if err != nil {
		return err
	}
	f.memory = mem
	f.meta = meta
	return nil
}

// DiscardRecords drops the records side; memory remains authoritative.
func (f *File) DiscardRecords() {
	f.records = nil
}

// DiscardMemory drops the memory side; records remain authoritative.
func (f *File) DiscardMemory() {
	f.memory = nil
}

// ValidateRecords enforces the format's sequence-level invariants on the
// current records (computing them from memory first, if necessary).
// Always strict, per spec §7.
func (f *File) ValidateRecords() error {
	records, err := f.Records()
	if err != nil {
		return err
	}
	return f.codec.ValidateRecords(records, f.meta, f.opts)
}

// invalidateRecords drops the records side after a memory mutation, the
// way every File editing method "names which side it invalidates"
// (Design Notes / Dual representation).
func (f *File) invalidateRecords() {
	f.records = nil
}

// ensureMemory computes the memory side if needed, without discarding
// records (used internally before edits that then invalidate records).
// A file with neither side populated gets an empty memory.
func (f *File) ensureMemory() error {
	if f.memory != nil {
		return nil
	}
	if f.records == nil {
		f.memory = memory.New()
		return nil
	}
	_, err := f.Memory()
	return err
}

// Write replaces bytes at [address, address+len(data)) in the underlying
// memory.
func (f *File) Write(address uint64, data []byte) error {
	if err := f.ensureMemory(); err != nil {
		return err
	}
	if err := f.memory.Write(address, data); err != nil {
		return err
	}
	f.invalidateRecords()
	return nil
}

// Clear deletes bytes in [start, endex), leaving a hole.
func (f *File) Clear(start, endex uint64) error {
	if err := f.ensureMemory(); err != nil {
		return err
	}
	if err := f.memory.Clear(start, endex); err != nil {
		return err
	}
	f.invalidateRecords()
	return nil
}

// Crop removes all content outside [start, endex).
func (f *File) Crop(start, endex uint64) error {
	if err := f.ensureMemory(); err != nil {
		return err
	}
	if err := f.memory.Crop(start, endex); err != nil {
		return err
	}
	f.invalidateRecords()
	return nil
}

// Shift adds amount to every block's start address.
func (f *File) Shift(amount int64) error {
	if err := f.ensureMemory(); err != nil {
		return err
	}
	if err := f.memory.Shift(amount); err != nil {
		return err
	}
	f.invalidateRecords()
	return nil
}

// Fill writes pattern across [start, endex), overwriting existing
// content.
func (f *File) Fill(start, endex uint64, pattern []byte) error {
	if err := f.ensureMemory(); err != nil {
		return err
	}
	if err := f.memory.Fill(start, endex, pattern); err != nil {
		return err
	}
	f.invalidateRecords()
	return nil
}

// Flood writes pattern only into holes within [start, endex).
func (f *File) Flood(start, endex uint64, pattern []byte) error {
	if err := f.ensureMemory(); err != nil {
		return err
	}
	if err := f.memory.Flood(start, endex, pattern); err != nil {
		return err
	}
	f.invalidateRecords()
	return nil
}

// Read returns the bytes in [start, endex), using fill for holes.
func (f *File) Read(start, endex uint64, fill *byte) ([]byte, error) {
	if err := f.ensureMemory(); err != nil {
		return nil, err
	}
	return f.memory.Read(start, endex, fill)
}

// View acquires a scoped read-only borrow over [start, endex). Release
// must be called before any further mutation.
func (f *File) View(start, endex uint64) (*memory.View, error) {
	if err := f.ensureMemory(); err != nil {
		return nil, err
	}
	return f.memory.View(start, endex)
}

// Merge incorporates other's memory into f's, overwriting overlapping
// addresses.
func (f *File) Merge(other *File, clear bool) error {
	if err := f.ensureMemory(); err != nil {
		return err
	}
	otherMem, err := other.Memory()
	if err != nil {
		return err
	}
	if err := f.memory.Merge(otherMem, clear); err != nil {
		return err
	}
	f.invalidateRecords()
	return nil
}

// Convert produces a new file of targetCodec's format carrying the same
// memory image as f (spec §8 property 2: format conversion is identity
// on memory).
func Convert(f *File, targetCodec Codec) (*File, error) {
	mem, err := f.Memory()
	if err != nil {
		return nil, err
	}
	return FromMemory(targetCodec, mem, f.opts), nil
}

// MergeFiles overlays files in order, later files overwriting earlier
// ones, and returns a new file of the first file's format (spec §4.11
// merge, core.py's merge_files).
func MergeFiles(files ...*File) (*File, error) {
	if len(files) == 0 {
		return nil, record.Newf(record.KindStructure, "", record.Coords{}, "merge requires at least one file")
	}
	out := NewFile(files[0].codec, files[0].opts)
	out.memory = memory.New()
	for _, in := range files {
		mem, err := in.Memory()
		if err != nil {
			return nil, err
		}
		if err := out.memory.Merge(mem, false); err != nil {
			return nil, err
		}
	}
	return out, nil
}
