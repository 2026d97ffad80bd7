// Package record defines the structural contract shared by every hex-record
// format codec: the tag/record shape, the domain error taxonomy, and the
// token decomposition used for diagnostics and colorized printing.
package record

import (
	"fmt"
)

// Kind categorizes a domain error, mirroring the taxonomy in spec §7.
type Kind int

const (
	// KindSyntax covers regex/grammar failure, unrecognized framing,
	// invalid hex digits, or wrong field widths.
	KindSyntax Kind = iota
	// KindOverflow covers address, size, count, or checksum values
	// outside the range a format allows.
	KindOverflow
	// KindConsistency covers computed-vs-stored count/checksum mismatch,
	// mismatched data-tag width, or an unmatched terminator.
	KindConsistency
	// KindStructure covers unordered or overlapping records, a missing
	// or misplaced end-of-file, data at an unexpected address, or junk
	// around a record that violates the whitespace rule.
	KindStructure
	// KindMemory covers non-contiguous views, holes on a fill-less read,
	// or word misalignment.
	KindMemory
	// KindIO covers errors propagated from the underlying stream.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindOverflow:
		return "overflow"
	case KindConsistency:
		return "consistency"
	case KindStructure:
		return "structure"
	case KindMemory:
		return "memory"
	case KindIO:
		return "io"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Coords locates a record within a source stream for diagnostics.
type Coords struct {
	Line   int
	Offset int
}

func (c Coords) String() string {
	if c.Line == 0 {
		return ""
	}
	return fmt.Sprintf("line %d, offset %d", c.Line, c.Offset)
}

// Error is the exported error type for domain failures raised by the
// format codecs, hexfile and registry. Stream I/O failures are wrapped
// with KindIO rather than surfaced as raw *os.PathError et al. Errors
// from package memory (HoleError, NonContiguousError, plain errors) and
// package hexutil (plain errors) are not wrapped in an Error.
type Error struct {
	Kind    Kind
	Format  string // codec name, e.g. "ihex"; empty if format-agnostic
	Message string
	Coords  Coords
	Cause   error
}

func (e *Error) Error() string {
	prefix := e.Kind.String()
	if e.Format != "" {
		prefix = e.Format + " " + prefix
	}
	if c := e.Coords.String(); c != "" {
		return fmt.Sprintf("%s error at %s: %s", prefix, c, e.Message)
	}
	return fmt.Sprintf("%s error: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, coords Coords, msg string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Format:  format,
		Message: fmt.Sprintf(msg, args...),
		Coords:  coords,
	}
}

// Wrap builds an *Error that carries an underlying cause, typically an I/O
// failure propagated from a stream.
func Wrap(kind Kind, format string, cause error, msg string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Format:  format,
		Message: fmt.Sprintf(msg, args...),
		Cause:   cause,
	}
}
