package protocol

import (
	"hash/crc32"
	"testing"
)

func TestCRC32(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint32
	}{
		{name: "check value", data: []byte("123456789"), expected: 0xCBF43926},
		{name: "empty", data: []byte{}, expected: 0x00000000},
		{name: "single zero", data: []byte{0x00}, expected: 0xD202EF8D},
		{name: "erased sector", data: fill(SectorSize, 0xFF), expected: crc32.ChecksumIEEE(fill(SectorSize, 0xFF))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CRC32(tt.data); got != tt.expected {
				t.Errorf("CRC32() = 0x%08X, want 0x%08X", got, tt.expected)
			}
		})
	}
}

func TestCRC32TableIsDeterministic(t *testing.T) {
	again := makeCRC32Table()
	if again != crc32Table {
		t.Fatal("table generation is not deterministic")
	}
	if crc32Table[1] != 0x77073096 || crc32Table[255] != 0x2D02EF8D {
		t.Errorf("unexpected table entries 0x%08X 0x%08X", crc32Table[1], crc32Table[255])
	}
}

func TestCRC32Update(t *testing.T) {
	data := []byte("123456789")
	crc := CRC32Update(0, data[:4])
	crc = CRC32Update(crc, data[4:])
	if crc != 0xCBF43926 {
		t.Errorf("incremental CRC32 = 0x%08X, want 0xCBF43926", crc)
	}
}

func TestChipFamilyByID(t *testing.T) {
	f, ok := ChipFamilyByID(0x7258)
	if !ok || f.CRC != CRCPolicyImplicit {
		t.Errorf("0x7258 = %v, %v; want implicit CRC family", f, ok)
	}

	f, ok = ChipFamilyByID(0x7231C)
	if !ok || f.CRC != CRCPolicyDevice {
		t.Errorf("0x7231C = %v, %v; want device CRC family", f, ok)
	}

	f, ok = ChipFamilyByID(0xDEAD)
	if ok || f.Name != GenericFamily.Name {
		t.Errorf("unknown chip = %v, %v; want generic family", f, ok)
	}
}

func fill(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
