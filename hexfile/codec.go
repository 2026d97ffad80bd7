package hexfile

import (
	"io"

	"github.com/TexZK/hexrec/memory"
)

// Record is the minimal contract the generic File needs from a
// format-specific record in order to transfer it to and from sparse
// memory (spec §3's Record, reduced to the fields File itself touches).
// Each format's own Record type (ihex.Record, srec.Record, …) satisfies
// this interface directly; its richer, format-specific fields (tag,
// checksum, count, …) stay on the concrete type.
type Record interface {
	IsData() bool
	IsTerminator() bool
	RecordAddress() uint64
	RecordData() []byte
}

// Meta is opaque per-format metadata (Intel start-linear-address,
// S-Record header bytes, Tektronix start address and address width,
// MOS XOFF emission, …). The generic File only ever passes Meta through;
// each Codec implementation type-asserts it back to its own concrete
// type.
type Meta interface{}

// Codec is the closed-variant contract every record format implements
// (spec §4, Design Notes / Variant dispatch): parse, serialize, validate,
// and the update/apply pivot that couples records to sparse memory.
type Codec interface {
	// Name is the registry key, e.g. "ihex".
	Name() string
	// Extensions lists the file extensions associated with this format,
	// lowercase and without the leading dot.
	Extensions() []string

	// DefaultMeta returns the zero-value metadata for a freshly created
	// file of this format.
	DefaultMeta() Meta

	// ParseRecords decodes every record from r. Coupled with opts, this
	// implements spec §4.3's parse() over a whole stream plus
	// §7's error-propagation policy (IgnoreErrors,
	// IgnoreAfterTermination).
	ParseRecords(r io.Reader, opts Options) ([]Record, error)

	// SerializeRecords writes records to w in canonical form.
	SerializeRecords(w io.Writer, records []Record, meta Meta, opts Options) error

	// ValidateRecords enforces sequence-level invariants: ordering,
	// overlap, terminator presence/position, and any format-specific
	// rule (uniform data-tag width, matching record count, …). Always
	// strict, per spec §7.
	ValidateRecords(records []Record, meta Meta, opts Options) error

	// UpdateRecords rebuilds records (and meta) from memory, per the
	// format-specific chunking and addressing rules of spec §4.4–§4.10.
	UpdateRecords(mem *memory.Memory, meta Meta, opts Options) ([]Record, Meta, error)

	// ApplyRecords rebuilds memory (and meta, e.g. a start address) from
	// records.
	ApplyRecords(records []Record, opts Options) (*memory.Memory, Meta, error)
}
