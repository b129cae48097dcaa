package simulator

import "github.com/moffa90/go-t5flash/protocol"

// IgnoreLinkChecks makes the device stay silent for the next n link checks.
func (d *Device) IgnoreLinkChecks(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ignoreLinkChecks = n
}

// FailSectorWrites makes the next n programs of the sector at addr report
// StatusProgramFailed.
func (d *Device) FailSectorWrites(addr uint32, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failWrites[addr] = n
}

// CorruptCRC makes CRC replies disagree with the stored content.
func (d *Device) CorruptCRC(corrupt bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.corruptCRC = corrupt
}

// IgnoreBaudChange makes the device acknowledge speed changes without switching.
func (d *Device) IgnoreBaudChange(ignore bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ignoreBaudChange = ignore
}

// LockStatusRegister makes status register writes acknowledged but ineffective.
func (d *Device) LockStatusRegister(locked bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.srLocked = locked
}

// Silence makes the device drop every command with the given opcode.
func (d *Device) Silence(op byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silent[op] = true
}

// Disconnect simulates the cable being pulled: every later transport call fails.
func (d *Device) Disconnect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disconnected = true
}

// Contents returns a copy of n bytes of flash starting at addr.
func (d *Device) Contents(addr, n uint32) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRange(addr, n)
}

// StatusRegister returns the current status register, SR1 in the low byte.
func (d *Device) StatusRegister() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return uint16(d.sr[0]) | uint16(d.sr[1])<<8
}

// BaudRate returns the speed the device currently listens at.
func (d *Device) BaudRate() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deviceBaud
}

// Rebooted reports whether a reboot command was received.
func (d *Device) Rebooted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rebooted
}

// Records returns the commands received so far.
func (d *Device) Records() []Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Record(nil), d.records...)
}

// Count returns how many commands with the given family name and opcode were received.
func (d *Device) Count(family string, op byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.records {
		if r.Family == family && r.Opcode == op {
			n++
		}
	}
	return n
}

// ResetRecords clears the command history.
func (d *Device) ResetRecords() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = nil
}

func (d *Device) store(addr uint32, data []byte) {
	for off := 0; off < len(data); {
		a := addr + uint32(off)
		base := a &^ (protocol.SectorSize - 1)
		sector, ok := d.sectors[base]
		if !ok {
			sector = blank(protocol.SectorSize)
			d.sectors[base] = sector
		}
		off += copy(sector[a-base:], data[off:])
	}
}
