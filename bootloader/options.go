package bootloader

import (
	"time"

	"github.com/moffa90/go-t5flash/flashdb"
	"github.com/moffa90/go-t5flash/protocol"
)

// DefaultBaudRate is the speed requested after the handshake.
const DefaultBaudRate = 921600

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during operations to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// InitialBaudRate is the speed the transport was opened at
	InitialBaudRate int

	// BaudRate is the speed to switch to once connected.
	// Equal to InitialBaudRate to skip the switch.
	BaudRate int

	// ControlTimeout bounds link, register, status register and speed exchanges
	ControlTimeout time.Duration

	// EraseTimeout bounds one sector or block erase
	EraseTimeout time.Duration

	// ChipEraseTimeout bounds a full chip erase
	ChipEraseTimeout time.Duration

	// WriteTimeout bounds one sector program
	WriteTimeout time.Duration

	// ReadTimeout bounds one sector read
	ReadTimeout time.Duration

	// VerifyTimeout bounds the device side CRC computation
	VerifyTimeout time.Duration

	// LinkCheckRetries is the number of link probes before giving up
	LinkCheckRetries int

	// LinkCheckDelay is the pause between link probes
	LinkCheckDelay time.Duration

	// WriteRetries is the number of extra attempts for a failed sector program
	WriteRetries int

	// SpeedSwitchDelay is how long the ROM waits before changing speed
	SpeedSwitchDelay time.Duration

	// FlashTable resolves flash IDs to descriptors
	FlashTable *flashdb.Table
}

// DefaultConfig returns the configuration New starts from before applying options.
func DefaultConfig() Config {
	return defaultConfig()
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		InitialBaudRate:  protocol.DefaultBaudRate,
		BaudRate:         DefaultBaudRate,
		ControlTimeout:   500 * time.Millisecond,
		EraseTimeout:     30 * time.Second,
		ChipEraseTimeout: 120 * time.Second,
		WriteTimeout:     5 * time.Second,
		ReadTimeout:      5 * time.Second,
		VerifyTimeout:    10 * time.Second,
		LinkCheckRetries: 10,
		LinkCheckDelay:   50 * time.Millisecond,
		WriteRetries:     3,
		SpeedSwitchDelay: 50 * time.Millisecond,
		FlashTable:       flashdb.Default(),
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track progress.
//
// Example:
//
//	prog := bootloader.New(port,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
//
// Example:
//
//	prog := bootloader.New(port, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithInitialBaudRate sets the speed the transport was opened at.
func WithInitialBaudRate(baudRate int) Option {
	return func(c *Config) {
		if baudRate > 0 {
			c.InitialBaudRate = baudRate
		}
	}
}

// WithBaudRate sets the speed to switch to after the handshake.
//
// Example:
//
//	prog := bootloader.New(port, bootloader.WithBaudRate(1500000))
func WithBaudRate(baudRate int) Option {
	return func(c *Config) {
		if baudRate > 0 {
			c.BaudRate = baudRate
		}
	}
}

// WithControlTimeout sets the deadline for short control exchanges.
func WithControlTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ControlTimeout = timeout
		}
	}
}

// WithEraseTimeout sets the deadline for one sector or block erase.
func WithEraseTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.EraseTimeout = timeout
		}
	}
}

// WithChipEraseTimeout sets the deadline for a full chip erase.
func WithChipEraseTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ChipEraseTimeout = timeout
		}
	}
}

// WithWriteTimeout sets the deadline for one sector program.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.WriteTimeout = timeout
		}
	}
}

// WithReadTimeout sets the deadline for one sector read.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ReadTimeout = timeout
		}
	}
}

// WithVerifyTimeout sets the deadline for the device side CRC.
func WithVerifyTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.VerifyTimeout = timeout
		}
	}
}

// WithLinkCheck sets the number of link probes and the pause between them.
//
// Example:
//
//	prog := bootloader.New(port, bootloader.WithLinkCheck(20, 100*time.Millisecond))
func WithLinkCheck(retries int, delay time.Duration) Option {
	return func(c *Config) {
		if retries > 0 {
			c.LinkCheckRetries = retries
		}
		if delay >= 0 {
			c.LinkCheckDelay = delay
		}
	}
}

// WithWriteRetries sets the number of extra attempts for a failed sector program.
func WithWriteRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.WriteRetries = retries
		}
	}
}

// WithSpeedSwitchDelay sets how long the ROM waits before changing speed.
// The value is sent to the ROM in milliseconds and must fit in a byte.
func WithSpeedSwitchDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 && delay <= 255*time.Millisecond {
			c.SpeedSwitchDelay = delay
		}
	}
}

// WithFlashTable replaces the flash descriptor table.
func WithFlashTable(table *flashdb.Table) Option {
	return func(c *Config) {
		if table != nil {
			c.FlashTable = table
		}
	}
}
