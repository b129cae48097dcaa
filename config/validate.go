package config

import (
	"fmt"

	"github.com/moffa90/go-t5flash/flashdb"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.BaudRate < 0 {
		return fmt.Errorf("baud_rate must not be negative, got %d", cfg.BaudRate)
	}
	if cfg.InitialBaudRate < 0 {
		return fmt.Errorf("initial_baud_rate must not be negative, got %d", cfg.InitialBaudRate)
	}

	t := cfg.Timeouts
	for name, v := range map[string]int{
		"timeouts.control_ms":            t.ControlMs,
		"timeouts.erase_ms":              t.EraseMs,
		"timeouts.chip_erase_ms":         t.ChipEraseMs,
		"timeouts.write_ms":              t.WriteMs,
		"timeouts.read_ms":               t.ReadMs,
		"timeouts.verify_ms":             t.VerifyMs,
		"timeouts.speed_switch_delay_ms": t.SpeedSwitchDelayMs,
		"retries.link_check":             cfg.Retries.LinkCheck,
		"retries.link_check_delay_ms":    cfg.Retries.LinkCheckDelayMs,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	// the ROM receives the delay as one byte of milliseconds
	if t.SpeedSwitchDelayMs > 255 {
		return fmt.Errorf("timeouts.speed_switch_delay_ms must be at most 255, got %d", t.SpeedSwitchDelayMs)
	}
	if cfg.Retries.Write != nil && *cfg.Retries.Write < 0 {
		return fmt.Errorf("retries.write must not be negative, got %d", *cfg.Retries.Write)
	}

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format %q is not one of console, json", cfg.Log.Format)
	}

	seen := make(map[uint32]int, len(cfg.FlashParts))
	for i, p := range cfg.FlashParts {
		if p.ID == 0 || p.ID > 0xFFFFFF {
			return fmt.Errorf("flash_parts[%d]: id 0x%X is not a 3-byte JEDEC ID", i, p.ID)
		}
		if j, dup := seen[p.ID]; dup {
			return fmt.Errorf("flash_parts[%d]: id 0x%06X already defined by flash_parts[%d]", i, p.ID, j)
		}
		seen[p.ID] = i
		if err := p.Descriptor().Validate(); err != nil {
			return fmt.Errorf("flash_parts[%d]: %w", i, err)
		}
	}

	return nil
}

// Descriptor converts the entry to a flash descriptor.
func (p FlashPart) Descriptor() flashdb.Descriptor {
	return flashdb.Descriptor{
		ID:                 p.ID,
		Name:               p.Name,
		Manufacturer:       p.Manufacturer,
		Size:               p.SizeKiB * 1024,
		StatusRegisterSize: p.StatusRegisterSize,
		ProtectMask:        p.ProtectMask,
		ProtectBits:        p.ProtectBits,
		UnprotectBits:      p.UnprotectBits,
		ReadSR:             append([]byte(nil), p.ReadSR...),
		WriteSR:            append([]byte(nil), p.WriteSR...),
	}
}
