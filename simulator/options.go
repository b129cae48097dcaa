package simulator

// Option configures a Device.
type Option func(*Device)

// WithChipID sets the value of the chip ID register.
func WithChipID(id uint32) Option {
	return func(d *Device) {
		d.chipID = id
	}
}

// WithFlashID sets the JEDEC ID reported by the flash (MFR | TYPE<<8 | CAP<<16).
func WithFlashID(id uint32) Option {
	return func(d *Device) {
		d.flashID = id
	}
}

// WithFlashSize sets the addressable flash size. Storage is sparse, so large
// parts cost nothing until written.
func WithFlashSize(size uint32) Option {
	return func(d *Device) {
		d.flashSize = size
	}
}

// WithStatusRegister sets the initial status register content, SR1 in the low byte.
func WithStatusRegister(value uint16) Option {
	return func(d *Device) {
		d.sr[0] = byte(value)
		d.sr[1] = byte(value >> 8)
	}
}

// WithBaudRate sets the speed the ROM listens at after reset.
func WithBaudRate(baudRate int) Option {
	return func(d *Device) {
		d.initialBaud = baudRate
	}
}

// WithReplyChunk limits how many reply bytes a single Read returns.
func WithReplyChunk(n int) Option {
	return func(d *Device) {
		d.chunk = n
	}
}

// WithContents preloads flash content at addr.
func WithContents(addr uint32, data []byte) Option {
	return func(d *Device) {
		d.store(addr, data)
	}
}
