package firmware

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/marcinbor85/gohex"
)

// MaxImageSize is the largest span an image may cover.
const MaxImageSize = 256 << 20

// Parse loads a firmware image from the given file path. The format is
// chosen from the extension, or from the content when the extension is
// not recognised.
//
// Example:
//
//	img, err := firmware.Parse("app.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes at 0x%08X\n", img.Size(), img.BaseAddress)
func Parse(path string) (*Image, error) {
	return ParseFile(path, FormatFromPath(path))
}

// ParseFile loads a firmware image from path in the given format.
func ParseFile(path string, format Format) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f, format)
}

// ParseReader loads a firmware image from any io.Reader.
//
// Example:
//
//	img, err := firmware.ParseReader(strings.NewReader(hexText), firmware.FormatIntelHex)
func ParseReader(r io.Reader, format Format) (*Image, error) {
	raw, err := io.ReadAll(io.LimitReader(r, 4*MaxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	if format == FormatAuto {
		format = sniff(raw)
	}

	switch format {
	case FormatBinary:
		if len(raw) > MaxImageSize {
			return nil, fmt.Errorf("image is %d bytes, maximum is %d", len(raw), MaxImageSize)
		}
		return &Image{Data: raw, Format: FormatBinary}, nil
	case FormatIntelHex:
		return parseIntelHex(raw)
	default:
		return nil, fmt.Errorf("unsupported image format %s", format)
	}
}

// sniff treats content starting with an Intel HEX record mark as HEX.
func sniff(raw []byte) Format {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == ':' && isText(trimmed) {
		return FormatIntelHex
	}
	return FormatBinary
}

func isText(b []byte) bool {
	if len(b) > 512 {
		b = b[:512]
	}
	for _, c := range b {
		if c != '\r' && c != '\n' && c != '\t' && (c < 0x20 || c > 0x7E) {
			return false
		}
	}
	return true
}

// parseIntelHex merges all data segments into one block filled with 0xFF
// between segments.
func parseIntelHex(raw []byte) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to parse intel hex: %w", err)
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, fmt.Errorf("no data records found in file")
	}

	base := segments[0].Address
	end := uint64(base)
	for _, s := range segments {
		if s.Address < base {
			base = s.Address
		}
		if e := uint64(s.Address) + uint64(len(s.Data)); e > end {
			end = e
		}
	}
	span := end - uint64(base)
	if span > MaxImageSize {
		return nil, fmt.Errorf("image spans %d bytes from 0x%08X, maximum is %d", span, base, MaxImageSize)
	}

	return &Image{
		Data:        mem.ToBinary(base, uint32(span), 0xFF),
		BaseAddress: base,
		Format:      FormatIntelHex,
		Segments:    len(segments),
	}, nil
}
