package config

import (
	"strings"
	"testing"
	"time"

	"github.com/moffa90/go-t5flash/bootloader"
)

// helper to build a flash part quickly
func part(id uint32, name string) FlashPart {
	return FlashPart{
		ID:                 id,
		Name:               name,
		Manufacturer:       "Test",
		SizeKiB:            4096,
		StatusRegisterSize: 1,
		ProtectMask:        0x7C,
		ProtectBits:        0x1C,
		ReadSR:             []byte{0x05},
		WriteSR:            []byte{0x01},
	}
}

func intPtr(v int) *int { return &v }

// ---- tests ----

func TestValidate_Empty(t *testing.T) {
	if err := Validate(&Config{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "negative baud", cfg: Config{BaudRate: -1}, want: "baud_rate"},
		{name: "negative timeout", cfg: Config{Timeouts: TimeoutConfig{EraseMs: -5}}, want: "timeouts.erase_ms"},
		{name: "speed delay too long", cfg: Config{Timeouts: TimeoutConfig{SpeedSwitchDelayMs: 300}}, want: "at most 255"},
		{name: "negative write retries", cfg: Config{Retries: RetryConfig{Write: intPtr(-1)}}, want: "retries.write"},
		{name: "log level", cfg: Config{Log: LogConfig{Level: "trace"}}, want: "log.level"},
		{name: "log format", cfg: Config{Log: LogConfig{Format: "xml"}}, want: "log.format"},
		{name: "zero flash id", cfg: Config{FlashParts: []FlashPart{part(0, "X")}}, want: "3-byte JEDEC ID"},
		{
			name: "duplicate flash id",
			cfg:  Config{FlashParts: []FlashPart{part(0x1840C8, "A"), part(0x1840C8, "B")}},
			want: "already defined",
		},
		{
			name: "bad descriptor",
			cfg: Config{FlashParts: []FlashPart{func() FlashPart {
				p := part(0x1840C8, "A")
				p.SizeKiB = 3000
				return p
			}()}},
			want: "power of two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := &Config{}
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.BaudRate != 0 || cfg.Retries.Write != nil || cfg.Log.Level != "" {
		t.Errorf("Validate mutated config: %+v", cfg)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{Retries: RetryConfig{Write: intPtr(0)}, BaudRate: 1500000}
	Normalize(cfg)

	def := bootloader.DefaultConfig()
	if cfg.BaudRate != 1500000 {
		t.Errorf("explicit baud_rate overwritten: %d", cfg.BaudRate)
	}
	if cfg.InitialBaudRate != def.InitialBaudRate {
		t.Errorf("initial_baud_rate = %d", cfg.InitialBaudRate)
	}
	if cfg.Timeouts.ControlMs != 500 || cfg.Timeouts.EraseMs != 30000 || cfg.Timeouts.ChipEraseMs != 120000 {
		t.Errorf("timeouts = %+v", cfg.Timeouts)
	}
	if cfg.Retries.LinkCheck != 10 {
		t.Errorf("link_check = %d", cfg.Retries.LinkCheck)
	}
	if *cfg.Retries.Write != 0 {
		t.Errorf("explicit write retries 0 overwritten: %d", *cfg.Retries.Write)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad(t *testing.T) {
	input := `
port: /dev/ttyUSB1
baud_rate: 1500000
timeouts:
  write_ms: 8000
retries:
  write: 5
flash_parts:
  - id: 0x1840C8
    name: GD25Q127C
    manufacturer: GigaDevice
    size_kib: 16384
    status_register_size: 2
    protect_mask: 0x407C
    protect_bits: 0x1C
    read_sr: [0x05, 0x35]
    write_sr: [0x01]
`
	cfg, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "/dev/ttyUSB1" || cfg.BaudRate != 1500000 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Timeouts.WriteMs != 8000 || cfg.Timeouts.ReadMs != 5000 {
		t.Errorf("timeouts = %+v", cfg.Timeouts)
	}

	table, err := cfg.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	d, err := table.Lookup(0x1840C8)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if d.Size != 16<<20 || d.ProtectMask != 0x407C || len(d.ReadSR) != 2 {
		t.Errorf("descriptor = %+v", d)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	var bc bootloader.Config
	for _, o := range opts {
		o(&bc)
	}
	if bc.WriteTimeout != 8*time.Second || bc.WriteRetries != 5 || bc.BaudRate != 1500000 {
		t.Errorf("bootloader config = %+v", bc)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	if _, err := Load(strings.NewReader("prot: /dev/ttyUSB0\n")); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InitialBaudRate == 0 {
		t.Error("empty config was not normalized")
	}
}
