// Command hexrec is the CLI front end over the hexrec library: convert,
// merge, and edit hex-record files of any supported format, plus a raw
// byte dump of their memory contents (spec §6, out-of-core collaborator
// to the library itself).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/TexZK/hexrec/hexdump"
	"github.com/TexZK/hexrec/hexfile"
	"github.com/TexZK/hexrec/hexutil"
	"github.com/TexZK/hexrec/registry"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(os.Args[2:])
	case "merge":
		err = runMerge(os.Args[2:])
	case "clear":
		err = runRangeEdit(os.Args[2:], "clear")
	case "crop":
		err = runRangeEdit(os.Args[2:], "crop")
	case "delete":
		err = runRangeEdit(os.Args[2:], "delete")
	case "fill":
		err = runPatternEdit(os.Args[2:], "fill")
	case "flood":
		err = runPatternEdit(os.Args[2:], "flood")
	case "shift":
		err = runShift(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "xxd", "hexdump", "hd":
		err = runHexdump(os.Args[2:])
	case "version":
		fmt.Printf("hexrec %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "hexrec: unrecognized command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "hexrec: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: hexrec <command> [options]

Commands:
    convert    change a file's format
    merge      overlay several files into one
    clear      blank a byte range, leaving a hole
    crop       keep only a byte range
    delete     remove a byte range, shifting the suffix down
    fill       overwrite a byte range with a pattern
    flood      fill only the holes within a byte range
    shift      move every block's address by an offset
    validate   check a file's structural invariants
    xxd, hexdump, hd
               dump a file's memory as offset/hex/ASCII lines
    version    print version information`)
}

// ioFlags holds the explicit format overrides every command accepts,
// required when stdio ("-") is used since it carries no extension to
// infer a format from.
type ioFlags struct {
	inputFormat  *string
	outputFormat *string
}

func bindIOFormatFlags(fs *flag.FlagSet) *ioFlags {
	return &ioFlags{
		inputFormat:  fs.String("input-format", "", "format of the input file (required when input is '-')"),
		outputFormat: fs.String("output-format", "", "format of the output file (required when output is '-')"),
	}
}

func resolveCodec(path, explicit string) (hexfile.Codec, error) {
	if explicit != "" {
		return registry.Lookup(explicit)
	}
	if path == "" || path == "-" {
		return nil, fmt.Errorf("an explicit format is required for stdio")
	}
	return registry.LookupByPath(path)
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	io := bindIOFormatFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("convert: expected input_path output_path")
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)

	inCodec, err := resolveCodec(inPath, *io.inputFormat)
	if err != nil {
		return err
	}
	outCodec, err := resolveCodec(outPath, *io.outputFormat)
	if err != nil {
		return err
	}

	f, err := hexfile.Load(inCodec, inPath, hexfile.DefaultOptions())
	if err != nil {
		return err
	}
	out, err := hexfile.Convert(f, outCodec)
	if err != nil {
		return err
	}
	return out.Save(outPath)
}

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	io := bindIOFormatFlags(fs)
	output := fs.String("output", "", "output file path ('-' for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || *output == "" {
		return fmt.Errorf("merge: expected one or more input paths and -output")
	}

	var files []*hexfile.File
	for i := 0; i < fs.NArg(); i++ {
		path := fs.Arg(i)
		codec, err := resolveCodec(path, *io.inputFormat)
		if err != nil {
			return err
		}
		f, err := hexfile.Load(codec, path, hexfile.DefaultOptions())
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	merged, err := hexfile.MergeFiles(files...)
	if err != nil {
		return err
	}
	outCodec, err := resolveCodec(*output, *io.outputFormat)
	if err != nil {
		return err
	}
	converted, err := hexfile.Convert(merged, outCodec)
	if err != nil {
		return err
	}
	return converted.Save(*output)
}

func runRangeEdit(args []string, op string) error {
	fs := flag.NewFlagSet(op, flag.ExitOnError)
	io := bindIOFormatFlags(fs)
	start := fs.String("start", "0", "range start address")
	endex := fs.String("end", "", "range end address (exclusive)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%s: expected input_path output_path", op)
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)

	startAddr, endAddr, err := parseRange(*start, *endex)
	if err != nil {
		return err
	}

	inCodec, err := resolveCodec(inPath, *io.inputFormat)
	if err != nil {
		return err
	}
	f, err := hexfile.Load(inCodec, inPath, hexfile.DefaultOptions())
	if err != nil {
		return err
	}
	endAddr, err = resolveEndex(f, endAddr)
	if err != nil {
		return err
	}

	switch op {
	case "clear":
		err = f.Clear(startAddr, endAddr)
	case "crop":
		err = f.Crop(startAddr, endAddr)
	case "delete":
		mem, memErr := f.Memory()
		if memErr != nil {
			return memErr
		}
		err = mem.Delete(startAddr, endAddr)
		if err == nil {
			f.DiscardRecords()
		}
	}
	if err != nil {
		return err
	}

	outCodec, err := resolveCodec(outPath, *io.outputFormat)
	if err != nil {
		return err
	}
	out, err := hexfile.Convert(f, outCodec)
	if err != nil {
		return err
	}
	return out.Save(outPath)
}

func runPatternEdit(args []string, op string) error {
	fs := flag.NewFlagSet(op, flag.ExitOnError)
	io := bindIOFormatFlags(fs)
	start := fs.String("start", "0", "range start address")
	endex := fs.String("end", "", "range end address (exclusive)")
	pattern := fs.String("pattern", "00", "hex-encoded fill pattern, repeated across the range")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%s: expected input_path output_path", op)
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)

	startAddr, endAddr, err := parseRange(*start, *endex)
	if err != nil {
		return err
	}
	patternBytes, err := hexutil.Unhexlify([]byte(*pattern), true)
	if err != nil {
		return fmt.Errorf("%s: invalid -pattern: %w", op, err)
	}

	inCodec, err := resolveCodec(inPath, *io.inputFormat)
	if err != nil {
		return err
	}
	f, err := hexfile.Load(inCodec, inPath, hexfile.DefaultOptions())
	if err != nil {
		return err
	}
	endAddr, err = resolveEndex(f, endAddr)
	if err != nil {
		return err
	}

	if op == "fill" {
		err = f.Fill(startAddr, endAddr, patternBytes)
	} else {
		err = f.Flood(startAddr, endAddr, patternBytes)
	}
	if err != nil {
		return err
	}

	outCodec, err := resolveCodec(outPath, *io.outputFormat)
	if err != nil {
		return err
	}
	out, err := hexfile.Convert(f, outCodec)
	if err != nil {
		return err
	}
	return out.Save(outPath)
}

func runShift(args []string) error {
	fs := flag.NewFlagSet("shift", flag.ExitOnError)
	io := bindIOFormatFlags(fs)
	amount := fs.String("amount", "0", "signed byte offset to add to every block")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("shift: expected input_path output_path")
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)

	n, _, err := hexutil.ParseInt(amount)
	if err != nil {
		return fmt.Errorf("shift: invalid -amount: %w", err)
	}

	inCodec, err := resolveCodec(inPath, *io.inputFormat)
	if err != nil {
		return err
	}
	f, err := hexfile.Load(inCodec, inPath, hexfile.DefaultOptions())
	if err != nil {
		return err
	}
	if err := f.Shift(n); err != nil {
		return err
	}

	outCodec, err := resolveCodec(outPath, *io.outputFormat)
	if err != nil {
		return err
	}
	out, err := hexfile.Convert(f, outCodec)
	if err != nil {
		return err
	}
	return out.Save(outPath)
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	io := bindIOFormatFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("validate: expected input_path")
	}
	inPath := fs.Arg(0)

	inCodec, err := resolveCodec(inPath, *io.inputFormat)
	if err != nil {
		return err
	}
	opts := hexfile.DefaultOptions()
	opts.Validate = true
	f, err := hexfile.Load(inCodec, inPath, opts)
	if err != nil {
		return err
	}
	return f.ValidateRecords()
}

func runHexdump(args []string) error {
	fs := flag.NewFlagSet("hexdump", flag.ExitOnError)
	io := bindIOFormatFlags(fs)
	width := fs.Int("width", 16, "bytes per line")
	group := fs.Int("group", 2, "bytes per group")
	upper := fs.Bool("upper", false, "use uppercase hex digits")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("hexdump: expected input_path")
	}
	inPath := fs.Arg(0)

	inCodec, err := resolveCodec(inPath, *io.inputFormat)
	if err != nil {
		return err
	}
	f, err := hexfile.Load(inCodec, inPath, hexfile.DefaultOptions())
	if err != nil {
		return err
	}
	mem, err := f.Memory()
	if err != nil {
		return err
	}
	_, endex, ok := mem.Span()
	if !ok {
		return nil
	}
	fill := byte(0)
	data, err := mem.Read(0, endex, &fill)
	if err != nil {
		return err
	}
	return hexdump.Dump(os.Stdout, data, hexdump.Options{Width: *width, GroupSize: *group, Upper: *upper})
}

// openEndex marks an -end flag left unset; resolveEndex turns it into
// the file's actual memory span end.
const openEndex = ^uint64(0)

// parseRange resolves -start/-end into a concrete [start, endex) pair;
// an empty -end yields openEndex, resolved against a loaded file's
// actual span by resolveEndex.
func parseRange(startStr, endStr string) (uint64, uint64, error) {
	startVal, _, err := hexutil.ParseInt(&startStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -start: %w", err)
	}
	if strings.TrimSpace(endStr) == "" {
		return uint64(startVal), openEndex, nil
	}
	endVal, _, err := hexutil.ParseInt(&endStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -end: %w", err)
	}
	return uint64(startVal), uint64(endVal), nil
}

// resolveEndex replaces an openEndex sentinel with f's actual memory
// span end, so "-end" left unset means "to the end of the file".
func resolveEndex(f *hexfile.File, endex uint64) (uint64, error) {
	if endex != openEndex {
		return endex, nil
	}
	mem, err := f.Memory()
	if err != nil {
		return 0, err
	}
	_, span, ok := mem.Span()
	if !ok {
		return 0, nil
	}
	return span, nil
}
