package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            string        `yaml:"port"`
	BaudRate        int           `yaml:"baud_rate"`
	InitialBaudRate int           `yaml:"initial_baud_rate"`
	Timeouts        TimeoutConfig `yaml:"timeouts"`
	Retries         RetryConfig   `yaml:"retries"`
	Log             LogConfig     `yaml:"log"`
	FlashParts      []FlashPart   `yaml:"flash_parts"`
}

// ---- TIMEOUTS ----

type TimeoutConfig struct {
	ControlMs          int `yaml:"control_ms"`
	EraseMs            int `yaml:"erase_ms"`
	ChipEraseMs        int `yaml:"chip_erase_ms"`
	WriteMs            int `yaml:"write_ms"`
	ReadMs             int `yaml:"read_ms"`
	VerifyMs           int `yaml:"verify_ms"`
	SpeedSwitchDelayMs int `yaml:"speed_switch_delay_ms"`
}

// ---- RETRIES ----

type RetryConfig struct {
	LinkCheck        int `yaml:"link_check"`
	LinkCheckDelayMs int `yaml:"link_check_delay_ms"`

	// Write is a pointer so that an explicit 0 (no retries) survives Normalize
	Write *int `yaml:"write"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// ---- FLASH PARTS ----

// FlashPart adds or overrides an entry of the flash descriptor table.
type FlashPart struct {
	ID                 uint32 `yaml:"id"`
	Name               string `yaml:"name"`
	Manufacturer       string `yaml:"manufacturer"`
	SizeKiB            uint32 `yaml:"size_kib"`
	StatusRegisterSize int    `yaml:"status_register_size"`
	ProtectMask        uint16 `yaml:"protect_mask"`
	ProtectBits        uint16 `yaml:"protect_bits"`
	UnprotectBits      uint16 `yaml:"unprotect_bits"`
	ReadSR             []byte `yaml:"read_sr"`
	WriteSR            []byte `yaml:"write_sr"`
}

// LoadFile reads, validates and normalizes the YAML file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load decodes YAML from r, then validates and normalizes it.
// Unknown keys are rejected.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)
	return &cfg, nil
}
