package hexfile

// Options controls parsing, validation and serialization behavior shared
// across every codec (spec §4.11, §7).
type Options struct {
	// Validate controls whether Parse validates each record as it is
	// decoded (spec §4.3 parse(validate=True)).
	Validate bool

	// IgnoreErrors skips malformed records during Parse instead of
	// aborting at the first offending one (spec §7).
	IgnoreErrors bool

	// IgnoreAfterTermination accepts arbitrary trailing bytes after the
	// terminator record instead of treating them as a structure error.
	IgnoreAfterTermination bool

	// MaxDataLen bounds the payload length of a single record when
	// building records from memory (UpdateRecords); zero selects the
	// codec's own default.
	MaxDataLen int

	// LineEnding is appended after each serialized record; nil selects
	// CRLF, the default emitted line ending (spec §6).
	LineEnding []byte

	// UpperCaseHex selects uppercase hex digits on serialization (the
	// default); parsers always accept both cases.
	UpperCaseHex bool
}

// DefaultOptions returns the package defaults: validate eagerly, abort on
// the first malformed record, CRLF line endings, uppercase hex.
func DefaultOptions() Options {
	return Options{
		Validate:     true,
		LineEnding:   []byte("\r\n"),
		UpperCaseHex: true,
	}
}

// EndOfLine returns LineEnding, or CRLF when LineEnding is nil.
func (o Options) EndOfLine() []byte {
	if o.LineEnding == nil {
		return []byte("\r\n")
	}
	return o.LineEnding
}
