package firmware

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"

	"github.com/moffa90/go-t5flash/protocol"
)

// Format is the on-disk encoding of a firmware image.
type Format int

const (
	// FormatAuto selects the format from the content
	FormatAuto Format = iota

	// FormatBinary is a raw flash image
	FormatBinary

	// FormatIntelHex is an Intel HEX file
	FormatIntelHex
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatBinary:
		return "bin"
	case FormatIntelHex:
		return "hex"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat converts a format name ("auto", "bin", "hex") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return FormatAuto, nil
	case "bin", "binary", "raw":
		return FormatBinary, nil
	case "hex", "ihex", "intelhex":
		return FormatIntelHex, nil
	}
	return FormatAuto, fmt.Errorf("unknown image format %q", name)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex", ".ihx":
		return FormatIntelHex
	case ".bin", ".img":
		return FormatBinary
	}
	return FormatAuto
}

// Image is a contiguous block of flash content.
type Image struct {
	// Data is the content to write; gaps between HEX segments are 0xFF
	Data []byte

	// BaseAddress is the flash address of Data[0]. Zero for raw binaries
	// unless set with WithBase.
	BaseAddress uint32

	// Format is the encoding the image was loaded from
	Format Format

	// Segments is the number of HEX data segments merged into Data
	Segments int
}

// Size returns the image length in bytes.
func (img *Image) Size() int {
	return len(img.Data)
}

// End returns the first address after the image.
func (img *Image) End() uint64 {
	return uint64(img.BaseAddress) + uint64(len(img.Data))
}

// Sectors returns the number of 4 KiB flash sectors the image occupies.
func (img *Image) Sectors() int {
	return (len(img.Data) + protocol.SectorSize - 1) / protocol.SectorSize
}

// Aligned reports whether the image starts on a sector boundary.
func (img *Image) Aligned() bool {
	return img.BaseAddress%protocol.SectorSize == 0
}

// CRC32 returns the checksum the ROM reports for a correctly written image.
func (img *Image) CRC32() uint32 {
	return protocol.CRC32(img.Data)
}

// WithBase returns a copy of the image located at addr.
func (img *Image) WithBase(addr uint32) *Image {
	cp := *img
	cp.BaseAddress = addr
	return &cp
}

// WriteIntelHex encodes the image as Intel HEX with 16-byte records.
func (img *Image) WriteIntelHex(w io.Writer) error {
	mem := gohex.NewMemory()
	if err := mem.AddBinary(img.BaseAddress, img.Data); err != nil {
		return fmt.Errorf("add image data: %w", err)
	}
	if err := mem.DumpIntelHex(w, 16); err != nil {
		return fmt.Errorf("write intel hex: %w", err)
	}
	return nil
}

func (img *Image) String() string {
	return fmt.Sprintf("%s image, %d bytes at 0x%08X (%d sectors, crc 0x%08X)",
		img.Format, len(img.Data), img.BaseAddress, img.Sectors(), img.CRC32())
}
