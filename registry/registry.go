// Package registry implements the process-wide format table (spec
// §4.11, §6, Design Notes / Global registry): a read-only mapping from
// format name to Codec, built once at init time, with a secondary
// extension→name mapping used to infer a format from a file path.
package registry

import (
	"path/filepath"
	"strings"

	"github.com/TexZK/hexrec/format/avr"
	"github.com/TexZK/hexrec/format/ihex"
	"github.com/TexZK/hexrec/format/mos"
	"github.com/TexZK/hexrec/format/raw"
	"github.com/TexZK/hexrec/format/srec"
	"github.com/TexZK/hexrec/format/tek"
	"github.com/TexZK/hexrec/format/titxt"
	"github.com/TexZK/hexrec/hexfile"
	"github.com/TexZK/hexrec/record"
)

var (
	byName = make(map[string]hexfile.Codec)
	byExt  = make(map[string]string)
)

func register(codec hexfile.Codec) {
	byName[codec.Name()] = codec
	for _, ext := range codec.Extensions() {
		byExt[strings.ToLower(ext)] = codec.Name()
	}
}

func init() {
	register(ihex.Codec{})
	register(srec.Codec{})
	register(tek.Codec{})
	register(mos.Codec{})
	register(titxt.Codec{})
	register(avr.Codec{})
	register(raw.Codec{})
}

// Lookup returns the codec registered under name.
func Lookup(name string) (hexfile.Codec, error) {
	codec, ok := byName[name]
	if !ok {
		return nil, record.Newf(record.KindStructure, "registry", record.Coords{}, "unrecognized format %q", name)
	}
	return codec, nil
}

// Names lists every registered format name.
func Names() []string {
	out := make([]string, 0, len(byName))
	for name := range byName {
		out = append(out, name)
	}
	return out
}

// GuessFormat infers a format name from path's extension (ported from
// the original find_record_type). An unrecognized or missing extension
// is a structure error naming the offending path.
func GuessFormat(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	name, ok := byExt[ext]
	if !ok {
		return "", record.Newf(record.KindStructure, "registry", record.Coords{}, "cannot infer format from extension %q of path %q", ext, path)
	}
	return name, nil
}

// LookupByPath combines GuessFormat and Lookup for the common case of
// opening a file whose format is implied by its name.
func LookupByPath(path string) (hexfile.Codec, error) {
	name, err := GuessFormat(path)
	if err != nil {
		return nil, err
	}
	return Lookup(name)
}
