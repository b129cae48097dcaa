package firmware

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseReaderIntelHex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantBase uint32
		wantData []byte
		wantSegs int
		wantErr  bool
	}{
		{
			name:     "single record",
			input:    ":0400000001020304F2\n:00000001FF\n",
			wantBase: 0,
			wantData: []byte{0x01, 0x02, 0x03, 0x04},
			wantSegs: 1,
		},
		{
			name:     "gap filled with 0xFF",
			input:    ":0400000001020304F2\n:02001000AABB89\n:00000001FF\n",
			wantBase: 0,
			wantData: append(append([]byte{0x01, 0x02, 0x03, 0x04}, bytes.Repeat([]byte{0xFF}, 12)...), 0xAA, 0xBB),
			wantSegs: 2,
		},
		{
			name:     "extended linear address",
			input:    ":020000040001F9\n:0400000001020304F2\n:00000001FF\n",
			wantBase: 0x10000,
			wantData: []byte{0x01, 0x02, 0x03, 0x04},
			wantSegs: 1,
		},
		{
			name:    "bad checksum",
			input:   ":0400000001020304F3\n:00000001FF\n",
			wantErr: true,
		},
		{
			name:    "no data",
			input:   ":00000001FF\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ParseReader(strings.NewReader(tt.input), FormatIntelHex)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if img.BaseAddress != tt.wantBase {
				t.Errorf("base = 0x%X, want 0x%X", img.BaseAddress, tt.wantBase)
			}
			if !bytes.Equal(img.Data, tt.wantData) {
				t.Errorf("data = % X, want % X", img.Data, tt.wantData)
			}
			if img.Segments != tt.wantSegs {
				t.Errorf("segments = %d, want %d", img.Segments, tt.wantSegs)
			}
		})
	}
}

func TestParseReaderBinary(t *testing.T) {
	raw := []byte{0x00, 0x3A, 0xFF, 0x10}

	img, err := ParseReader(bytes.NewReader(raw), FormatBinary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(img.Data, raw) || img.BaseAddress != 0 || img.Format != FormatBinary {
		t.Errorf("image = %+v", img)
	}

	if _, err := ParseReader(bytes.NewReader(nil), FormatBinary); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestAutoDetect(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  Format
	}{
		{name: "hex", input: []byte("\r\n:0400000001020304F2\n:00000001FF\n"), want: FormatIntelHex},
		{name: "binary", input: []byte{0x10, 0x00, 0x00, 0xEA}, want: FormatBinary},
		{name: "binary starting with colon", input: []byte{':', 0x00, 0x01, 0x02}, want: FormatBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ParseReader(bytes.NewReader(tt.input), FormatAuto)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.Format != tt.want {
				t.Errorf("format = %s, want %s", img.Format, tt.want)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	binPath := filepath.Join(dir, "app.bin")
	if err := os.WriteFile(binPath, []byte(":not hex"), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := Parse(binPath)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if img.Format != FormatBinary {
		t.Errorf(".bin parsed as %s", img.Format)
	}

	if _, err := Parse(filepath.Join(dir, "missing.hex")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteIntelHex(t *testing.T) {
	img := &Image{Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}, BaseAddress: 0x11000, Format: FormatBinary}

	var buf bytes.Buffer
	if err := img.WriteIntelHex(&buf); err != nil {
		t.Fatalf("WriteIntelHex: %v", err)
	}

	back, err := ParseReader(&buf, FormatAuto)
	if err != nil {
		t.Fatalf("parse written hex: %v", err)
	}
	if back.BaseAddress != img.BaseAddress || !bytes.Equal(back.Data, img.Data) {
		t.Errorf("got %d bytes at 0x%X", len(back.Data), back.BaseAddress)
	}
}

func TestImageGeometry(t *testing.T) {
	img := &Image{Data: make([]byte, 4097), BaseAddress: 0x1000}

	if img.Sectors() != 2 {
		t.Errorf("Sectors() = %d, want 2", img.Sectors())
	}
	if !img.Aligned() {
		t.Error("0x1000 should be aligned")
	}
	if img.End() != 0x1000+4097 {
		t.Errorf("End() = 0x%X", img.End())
	}

	moved := img.WithBase(0x1001)
	if moved.Aligned() || img.BaseAddress != 0x1000 {
		t.Error("WithBase must return a moved copy")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatAuto},
		{in: "BIN", want: FormatBinary},
		{in: "ihex", want: FormatIntelHex},
		{in: "elf", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, %v", tt.in, got, err)
		}
	}
}
