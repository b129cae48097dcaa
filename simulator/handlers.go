package simulator

import (
	"encoding/binary"

	"github.com/moffa90/go-t5flash/protocol"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func (d *Device) handleControl(op byte, payload []byte) {
	switch op {
	case protocol.CmdLinkCheck:
		if d.ignoreLinkChecks > 0 {
			d.ignoreLinkChecks--
			return
		}
		d.reply(protocol.EncodeControlResponse(protocol.CmdLinkCheckReply, []byte{0x00}))

	case protocol.CmdReadReg:
		if len(payload) != 4 {
			return
		}
		addr := binary.LittleEndian.Uint32(payload)
		var value uint32
		if addr == protocol.ChipIDRegister {
			value = d.chipID
		}
		d.reply(protocol.EncodeControlResponse(op, append(le32(addr), le32(value)...)))

	case protocol.CmdWriteReg:
		if len(payload) != 8 {
			return
		}
		d.reply(protocol.EncodeControlResponse(op, payload))

	case protocol.CmdSetBaudRate:
		if len(payload) != 5 {
			return
		}
		d.reply(protocol.EncodeControlResponse(op, payload))
		if !d.ignoreBaudChange {
			d.deviceBaud = int(binary.LittleEndian.Uint32(payload[0:4]))
		}

	case protocol.CmdCheckCRC:
		if len(payload) != 8 {
			return
		}
		start := binary.LittleEndian.Uint32(payload[0:4])
		end := binary.LittleEndian.Uint32(payload[4:8])
		crc := protocol.CRC32(d.readRange(start, end-start+1))
		if d.corruptCRC {
			crc ^= 1
		}
		d.reply(protocol.EncodeControlResponse(op, le32(crc)))

	case protocol.CmdReboot:
		d.deviceBaud = d.initialBaud
		d.rebooted = true
	}
}

func (d *Device) handleFlash(op byte, payload []byte) {
	switch op {
	case protocol.CmdFlashGetMID:
		d.flashReply(protocol.StatusSuccess, op, []byte{byte(d.flashID), byte(d.flashID >> 8), byte(d.flashID >> 16), 0})

	case protocol.CmdFlashReadSR:
		if len(payload) != 1 {
			return
		}
		var v byte
		switch payload[0] {
		case 0x05:
			v = d.sr[0]
		case 0x35:
			v = d.sr[1]
		}
		d.flashReply(protocol.StatusSuccess, op, []byte{payload[0], v})

	case protocol.CmdFlashWriteSR:
		if len(payload) < 2 {
			return
		}
		if !d.srLocked {
			switch {
			case payload[0] == 0x31:
				d.sr[1] = payload[1]
			case len(payload) == 3:
				d.sr[0], d.sr[1] = payload[1], payload[2]
			default:
				d.sr[0] = payload[1]
			}
		}
		d.flashReply(protocol.StatusSuccess, op, payload)

	case protocol.CmdFlashErase4K:
		if len(payload) != 4 {
			return
		}
		addr := binary.LittleEndian.Uint32(payload)
		d.flashReply(d.erase(addr, protocol.SectorSize), op, payload)

	case protocol.CmdFlashErase:
		if len(payload) != 5 {
			return
		}
		size := uint32(protocol.SectorSize)
		switch payload[0] {
		case protocol.SPIErase32K:
			size = protocol.Block32KSize
		case protocol.SPIErase64K:
			size = protocol.Block64KSize
		}
		addr := binary.LittleEndian.Uint32(payload[1:5])
		d.flashReply(d.erase(addr&^(size-1), size), op, payload)

	case protocol.CmdFlashEraseAll:
		var status byte = protocol.StatusSuccess
		if d.protected() {
			status = protocol.StatusProtected
		} else {
			d.sectors = make(map[uint32][]byte)
		}
		d.flashReply(status, op, nil)

	case protocol.CmdFlashWrite4K:
		if len(payload) != 4+protocol.SectorSize {
			return
		}
		addr := binary.LittleEndian.Uint32(payload[0:4])
		if n := d.failWrites[addr]; n > 0 {
			d.failWrites[addr] = n - 1
			d.flashReply(protocol.StatusProgramFailed, op, nil)
			return
		}
		d.flashReply(d.program(addr, payload[4:]), op, payload[0:4])

	case protocol.CmdFlashRead4K, protocol.CmdFlashRead4KExt:
		if len(payload) != 4 {
			return
		}
		addr := binary.LittleEndian.Uint32(payload)
		if addr%protocol.SectorSize != 0 || addr >= d.flashSize {
			d.flashReply(protocol.StatusBadAddress, op, nil)
			return
		}
		data := append(le32(addr), d.readRange(addr, protocol.SectorSize)...)
		d.flashReply(protocol.StatusSuccess, op, data)
	}
}

func (d *Device) protected() bool {
	return d.sr[0]&protectBits != 0
}

func (d *Device) erase(addr, size uint32) byte {
	if addr%protocol.SectorSize != 0 || addr+size > d.flashSize {
		return protocol.StatusBadAddress
	}
	if d.protected() {
		return protocol.StatusProtected
	}
	for a := addr; a < addr+size; a += protocol.SectorSize {
		delete(d.sectors, a)
	}
	return protocol.StatusSuccess
}

// program ANDs data into an erased sector the way NOR flash does.
func (d *Device) program(addr uint32, data []byte) byte {
	if addr%protocol.SectorSize != 0 || addr+protocol.SectorSize > d.flashSize {
		return protocol.StatusBadAddress
	}
	if d.protected() {
		return protocol.StatusProtected
	}
	sector, ok := d.sectors[addr]
	if !ok {
		sector = blank(protocol.SectorSize)
		d.sectors[addr] = sector
	}
	for i, b := range data {
		sector[i] &= b
	}
	return protocol.StatusSuccess
}

func (d *Device) readRange(addr, n uint32) []byte {
	out := blank(int(n))
	for off := uint32(0); off < n; {
		a := addr + off
		base := a &^ (protocol.SectorSize - 1)
		inSector := base + protocol.SectorSize - a
		if inSector > n-off {
			inSector = n - off
		}
		if sector, ok := d.sectors[base]; ok {
			copy(out[off:off+inSector], sector[a-base:])
		}
		off += inSector
	}
	return out
}

func blank(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}
