package protocol

import "fmt"

// ChipFamily groups ROM bootloaders that share identification and verification rules.
type ChipFamily struct {
	// Name is the marketing name of the family
	Name string

	// ChipIDs are the values read from ChipIDRegister that select this family
	ChipIDs []uint32

	// CRC is how written data is verified on this family
	CRC CRCPolicy
}

func (f ChipFamily) String() string {
	return fmt.Sprintf("%s (crc=%s)", f.Name, f.CRC)
}

// GenericFamily is used for chip IDs no known family claims.
var GenericFamily = ChipFamily{Name: "unknown", CRC: CRCPolicyDevice}

// KnownFamilies lists the chip families recognised by ChipFamilyByID.
var KnownFamilies = []ChipFamily{
	{Name: "BK7231N", ChipIDs: []uint32{0x7231C}, CRC: CRCPolicyDevice},
	{Name: "BK7231T", ChipIDs: []uint32{0x7231, 0x7231A}, CRC: CRCPolicyDevice},
	{Name: "BK7236", ChipIDs: []uint32{0x7236}, CRC: CRCPolicyDevice},
	{Name: "BK7252", ChipIDs: []uint32{0x7252}, CRC: CRCPolicyDevice},
	// T5 programs through a ROM loader that read-verifies each sector itself.
	{Name: "T5 (BK7258)", ChipIDs: []uint32{0x7258}, CRC: CRCPolicyImplicit},
}

// ChipFamilyByID returns the family owning chipID. The second result is
// false, and GenericFamily is returned, when no family claims the ID.
func ChipFamilyByID(chipID uint32) (ChipFamily, bool) {
	for _, f := range KnownFamilies {
		for _, id := range f.ChipIDs {
			if id == chipID {
				return f, true
			}
		}
	}
	return GenericFamily, false
}
