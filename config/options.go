package config

import (
	"time"

	"github.com/moffa90/go-t5flash/bootloader"
	"github.com/moffa90/go-t5flash/flashdb"
)

// Table returns the built-in flash table extended with flash_parts.
func (c *Config) Table() (*flashdb.Table, error) {
	parts := make([]flashdb.Descriptor, 0, len(c.FlashParts))
	for _, p := range c.FlashParts {
		parts = append(parts, p.Descriptor())
	}
	return flashdb.Default().With(parts...)
}

// Options maps a normalized configuration to programmer options.
func (c *Config) Options() ([]bootloader.Option, error) {
	table, err := c.Table()
	if err != nil {
		return nil, err
	}

	opts := []bootloader.Option{
		bootloader.WithInitialBaudRate(c.InitialBaudRate),
		bootloader.WithBaudRate(c.BaudRate),
		bootloader.WithControlTimeout(msDuration(c.Timeouts.ControlMs)),
		bootloader.WithEraseTimeout(msDuration(c.Timeouts.EraseMs)),
		bootloader.WithChipEraseTimeout(msDuration(c.Timeouts.ChipEraseMs)),
		bootloader.WithWriteTimeout(msDuration(c.Timeouts.WriteMs)),
		bootloader.WithReadTimeout(msDuration(c.Timeouts.ReadMs)),
		bootloader.WithVerifyTimeout(msDuration(c.Timeouts.VerifyMs)),
		bootloader.WithSpeedSwitchDelay(msDuration(c.Timeouts.SpeedSwitchDelayMs)),
		bootloader.WithLinkCheck(c.Retries.LinkCheck, msDuration(c.Retries.LinkCheckDelayMs)),
		bootloader.WithFlashTable(table),
	}
	if c.Retries.Write != nil {
		opts = append(opts, bootloader.WithWriteRetries(*c.Retries.Write))
	}
	return opts, nil
}

func msDuration(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
