package flashdb

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Table.Lookup for flash IDs the table does not know.
var ErrNotFound = errors.New("flash ID not found")

// Descriptor is the static description of one SPI flash part.
//
// Status register values are handled as one 16-bit word: the byte read with
// ReadSR[0] in the low byte and, for two-byte registers, the byte read with
// ReadSR[1] in the high byte.
type Descriptor struct {
	// ID is the JEDEC ID as MANUFACTURER | TYPE<<8 | CAPACITY<<16
	ID uint32

	// Name is the part number
	Name string

	// Manufacturer is the vendor name
	Manufacturer string

	// Size is the capacity in bytes
	Size uint32

	// StatusRegisterSize is the number of status register bytes (1 or 2)
	StatusRegisterSize int

	// ProtectMask selects the status register bits that control write protection
	ProtectMask uint16

	// ProtectBits is the value of the masked bits that protects the whole array
	ProtectBits uint16

	// UnprotectBits is the value of the masked bits that leaves the array writable
	UnprotectBits uint16

	// ReadSR holds the SPI opcode reading each status register byte
	ReadSR []byte

	// WriteSR holds either one SPI opcode writing all status register bytes at
	// once, or one opcode per byte on parts that need separate writes
	WriteSR []byte
}

// Validate checks that the descriptor is internally consistent.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("flash 0x%06X: name is empty", d.ID)
	}
	if d.Manufacturer == "" {
		return fmt.Errorf("flash %s: manufacturer is empty", d.Name)
	}
	if d.Size == 0 || d.Size&(d.Size-1) != 0 {
		return fmt.Errorf("flash %s: size %d is not a power of two", d.Name, d.Size)
	}
	if d.StatusRegisterSize != 1 && d.StatusRegisterSize != 2 {
		return fmt.Errorf("flash %s: status register size must be 1 or 2, got %d", d.Name, d.StatusRegisterSize)
	}
	if len(d.ReadSR) != d.StatusRegisterSize {
		return fmt.Errorf("flash %s: need %d status register read opcodes, got %d", d.Name, d.StatusRegisterSize, len(d.ReadSR))
	}
	if len(d.WriteSR) != 1 && len(d.WriteSR) != d.StatusRegisterSize {
		return fmt.Errorf("flash %s: need 1 or %d status register write opcodes, got %d", d.Name, d.StatusRegisterSize, len(d.WriteSR))
	}
	if d.StatusRegisterSize == 1 && d.ProtectMask > 0xFF {
		return fmt.Errorf("flash %s: protect mask 0x%04X exceeds a 1-byte status register", d.Name, d.ProtectMask)
	}
	if d.ProtectBits&^d.ProtectMask != 0 || d.UnprotectBits&^d.ProtectMask != 0 {
		return fmt.Errorf("flash %s: protect/unprotect bits outside protect mask 0x%04X", d.Name, d.ProtectMask)
	}
	return nil
}

// IsUnprotected reports whether a status register value leaves the array writable.
func (d Descriptor) IsUnprotected(sr uint16) bool {
	return sr&d.ProtectMask == d.UnprotectBits
}

// UnprotectedValue returns sr with the protection bits replaced by UnprotectBits.
// Bits outside ProtectMask are preserved.
func (d Descriptor) UnprotectedValue(sr uint16) uint16 {
	return sr&^d.ProtectMask | d.UnprotectBits
}

// ProtectedValue returns sr with the protection bits replaced by ProtectBits.
func (d Descriptor) ProtectedValue(sr uint16) uint16 {
	return sr&^d.ProtectMask | d.ProtectBits
}

// WritesSeparately reports whether each status register byte needs its own write opcode.
func (d Descriptor) WritesSeparately() bool {
	return d.StatusRegisterSize > 1 && len(d.WriteSR) == d.StatusRegisterSize
}

// Unknown reports whether the descriptor is a Fallback placeholder.
func (d Descriptor) Unknown() bool {
	return d.Name == unknownName
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s (0x%06X, %s)", d.Manufacturer, d.Name, d.ID, FormatSize(d.Size))
}

const unknownName = "Unknown"

// FallbackSize is the capacity assumed for flash parts missing from the table.
// No built-in part is smaller.
const FallbackSize = 512 * kib

// Fallback returns the conservative descriptor used when id is not in the table:
// the smallest capacity in the built-in table and the common single-byte
// BP0..BP4 protection layout.
func Fallback(id uint32) Descriptor {
	return Descriptor{
		ID:                 id,
		Name:               unknownName,
		Manufacturer:       unknownName,
		Size:               FallbackSize,
		StatusRegisterSize: 1,
		ProtectMask:        0x7C,
		ProtectBits:        0x1C,
		UnprotectBits:      0x00,
		ReadSR:             []byte{0x05},
		WriteSR:            []byte{0x01},
	}
}

// FormatSize renders a byte count using the largest whole binary unit.
func FormatSize(n uint32) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MiB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KiB", n>>10)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
