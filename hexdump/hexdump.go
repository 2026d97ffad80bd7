// Package hexdump implements the ancillary xxd-style byte dump used by
// the command-line front end to inspect a File's memory (out of the
// core library scope per the spec, but grounded on the same classic
// "offset: hex  ascii" layout as the canonical xxd tool).
package hexdump

import (
	"bufio"
	"fmt"
	"io"

	"github.com/TexZK/hexrec/hexutil"
)

// Options controls the dump layout.
type Options struct {
	// Width is the number of bytes per line. Zero selects 16.
	Width int
	// GroupSize inserts an extra space after this many bytes within a
	// line. Zero selects 2.
	GroupSize int
	// Upper selects uppercase hex digits.
	Upper bool
	// BaseAddress is added to each line's printed offset.
	BaseAddress uint64
}

func (o Options) width() int {
	if o.Width > 0 {
		return o.Width
	}
	return 16
}

func (o Options) groupSize() int {
	if o.GroupSize > 0 {
		return o.GroupSize
	}
	return 2
}

// Dump writes data as a sequence of offset/hex/ASCII lines to w.
func Dump(w io.Writer, data []byte, opts Options) error {
	bw := bufio.NewWriter(w)
	width := opts.width()
	group := opts.groupSize()

	for offset := 0; offset < len(data); offset += width {
		end := offset + width
		if end > len(data) {
			end = len(data)
		}
		line := data[offset:end]

		if _, err := fmt.Fprintf(bw, "%08X: ", opts.BaseAddress+uint64(offset)); err != nil {
			return err
		}
		for i := 0; i < width; i++ {
			if i < len(line) {
				bw.Write(hexutil.Hexlify(line[i:i+1], nil, opts.Upper))
			} else {
				bw.WriteString("  ")
			}
			if (i+1)%group == 0 {
				bw.WriteByte(' ')
			}
		}
		bw.WriteByte(' ')
		for _, b := range line {
			if b > 0x1F && b < 0x7F {
				bw.WriteByte(b)
			} else {
				bw.WriteByte('.')
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
