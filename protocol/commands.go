package protocol

import (
	"encoding/binary"
	"fmt"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func control(name string, op, reply byte, payload []byte, respLen int) Command {
	return Command{
		Name:        name,
		Family:      Control,
		Opcode:      op,
		Frame:       Control.Encode(op, payload),
		ReplyOpcode: reply,
		ResponseLen: respLen,
	}
}

func flash(name string, op byte, payload []byte, respLen int) Command {
	return Command{
		Name:        name,
		Family:      Flash,
		Opcode:      op,
		Frame:       Flash.Encode(op, payload),
		ReplyOpcode: op,
		ResponseLen: respLen,
	}
}

// BuildLinkCheckCmd constructs the link probe.
//
//	[01 E0 FC][01][00]
func BuildLinkCheckCmd() Command {
	return control("link check", CmdLinkCheck, CmdLinkCheckReply, nil, LinkCheckResponseSize)
}

// BuildReadRegCmd constructs a register read.
//
//	[01 E0 FC][05][03][ADDR(4)]
func BuildReadRegCmd(addr uint32) Command {
	return control("read register", CmdReadReg, CmdReadReg, le32(addr), ReadRegResponseSize)
}

// BuildWriteRegCmd constructs a register write.
//
//	[01 E0 FC][09][01][ADDR(4)][VALUE(4)]
func BuildWriteRegCmd(addr, value uint32) Command {
	payload := append(le32(addr), le32(value)...)
	return control("write register", CmdWriteReg, CmdWriteReg, payload, WriteRegResponseSize)
}

// BuildSetBaudRateCmd constructs a speed change request. The ROM answers at
// the current speed and switches after delayMs milliseconds.
//
//	[01 E0 FC][06][0F][BAUD(4)][DELAY(1)]
func BuildSetBaudRateCmd(baudRate uint32, delayMs byte) Command {
	payload := append(le32(baudRate), delayMs)
	return control("set baud rate", CmdSetBaudRate, CmdSetBaudRate, payload, SetBaudRateResponseSize)
}

// BuildCheckCRCCmd asks for the CRC32 of the inclusive range [start, end].
//
//	[01 E0 FC][09][10][START(4)][END(4)]
func BuildCheckCRCCmd(start, end uint32) (Command, error) {
	if end < start {
		return Command{}, fmt.Errorf("CRC range end 0x%08X is before start 0x%08X", end, start)
	}
	payload := append(le32(start), le32(end)...)
	return control("check CRC", CmdCheckCRC, CmdCheckCRC, payload, CheckCRCResponseSize), nil
}

// BuildRebootCmd constructs the reboot request. The ROM does not reply.
//
//	[01 E0 FC][02][0E][A5]
func BuildRebootCmd() Command {
	return control("reboot", CmdReboot, CmdReboot, []byte{RebootMagic}, 0)
}

// BuildGetMIDCmd constructs the flash JEDEC ID read.
//
//	[01 E0 FC FF F4][05 00][0E][9F 00 00 00]
func BuildGetMIDCmd() Command {
	return flash("get flash ID", CmdFlashGetMID, []byte{SPIReadJEDECID, 0, 0, 0}, GetMIDResponseSize)
}

// BuildReadSRCmd reads one status register byte with the given SPI opcode.
//
//	[01 E0 FC FF F4][02 00][0C][SPI_OP]
func BuildReadSRCmd(spiOp byte) Command {
	return flash("read status register", CmdFlashReadSR, []byte{spiOp}, ReadSRResponseSize)
}

// BuildWriteSRCmd writes one or two status register bytes with the given SPI opcode.
//
//	[01 E0 FC FF F4][LEN][0D][SPI_OP][VALUE(1..2)]
func BuildWriteSRCmd(spiOp byte, value []byte) (Command, error) {
	if len(value) == 0 || len(value) > 2 {
		return Command{}, fmt.Errorf("status register write takes 1 or 2 bytes, got %d", len(value))
	}
	payload := append([]byte{spiOp}, value...)
	return flash("write status register", CmdFlashWriteSR, payload, WriteSRResponseSize(len(value))), nil
}

// BuildFlashWrite4KCmd programs one sector. data must be exactly SectorSize bytes.
//
//	[01 E0 FC FF F4][05 10][07][ADDR(4)][DATA(4096)]
func BuildFlashWrite4KCmd(addr uint32, data []byte) (Command, error) {
	if len(data) != SectorSize {
		return Command{}, fmt.Errorf("sector data must be exactly %d bytes, got %d", SectorSize, len(data))
	}
	if addr%SectorSize != 0 {
		return Command{}, fmt.Errorf("sector address 0x%08X is not %d-byte aligned", addr, SectorSize)
	}
	payload := make([]byte, 0, 4+SectorSize)
	payload = append(payload, le32(addr)...)
	payload = append(payload, data...)
	return flash("write sector", CmdFlashWrite4K, payload, FlashWriteResponseSize), nil
}

// BuildFlashRead4KCmd reads one sector. extended selects the 4-byte addressing
// variant required by parts of ExtendedAddressThreshold and above.
//
//	[01 E0 FC FF F4][05 00][09|19][ADDR(4)]
func BuildFlashRead4KCmd(addr uint32, extended bool) Command {
	op := byte(CmdFlashRead4K)
	if extended {
		op = CmdFlashRead4KExt
	}
	return flash("read sector", op, le32(addr), FlashReadResponseSize)
}

// BuildFlashErase4KCmd erases the sector containing addr.
//
//	[01 E0 FC FF F4][05 00][0B][ADDR(4)]
func BuildFlashErase4KCmd(addr uint32) Command {
	return flash("erase sector", CmdFlashErase4K, le32(addr), FlashErase4KResponseSize)
}

// BuildFlashEraseCmd erases a block whose size is chosen by spiOp
// (SPIErase4K, SPIErase32K or SPIErase64K).
//
//	[01 E0 FC FF F4][06 00][0F][SPI_OP][ADDR(4)]
func BuildFlashEraseCmd(spiOp byte, addr uint32) (Command, error) {
	switch spiOp {
	case SPIErase4K, SPIErase32K, SPIErase64K:
	default:
		return Command{}, fmt.Errorf("unsupported erase opcode 0x%02X", spiOp)
	}
	payload := append([]byte{spiOp}, le32(addr)...)
	return flash("erase block", CmdFlashErase, payload, FlashEraseResponseSize), nil
}

// BuildFlashEraseAllCmd erases the whole flash.
//
//	[01 E0 FC FF F4][01 00][0A]
func BuildFlashEraseAllCmd() Command {
	return flash("erase chip", CmdFlashEraseAll, nil, FlashEraseAllResponseSize)
}
