package protocol

import (
	"encoding/binary"
	"fmt"
)

// ParseLinkCheckResponse validates a link check reply.
//
// Frame: [04 0E][05][01 E0 FC][01][00]
func ParseLinkCheckResponse(resp []byte) error {
	cmd := BuildLinkCheckCmd()
	if err := cmd.Validate(resp); err != nil {
		return err
	}
	if resp[ControlResponseHeaderSize] != 0x00 {
		return frameErrorf(Control.Name(), "unexpected link check value 0x%02X", resp[ControlResponseHeaderSize])
	}
	return nil
}

// ParseReadRegResponse decodes a register read reply for the given address.
//
// Data: [ADDR(4)][VALUE(4)]
func ParseReadRegResponse(resp []byte, addr uint32) (Register, error) {
	return parseRegister(BuildReadRegCmd(addr), resp, addr)
}

// ParseWriteRegResponse decodes a register write reply for the given address.
//
// Data: [ADDR(4)][VALUE(4)]
func ParseWriteRegResponse(resp []byte, addr uint32) (Register, error) {
	return parseRegister(BuildWriteRegCmd(addr, 0), resp, addr)
}

func parseRegister(cmd Command, resp []byte, addr uint32) (Register, error) {
	if err := cmd.Validate(resp); err != nil {
		return Register{}, err
	}
	data := Control.Data(resp)
	reg := Register{
		Address: binary.LittleEndian.Uint32(data[0:4]),
		Value:   binary.LittleEndian.Uint32(data[4:8]),
	}
	if reg.Address != addr {
		return Register{}, frameErrorf(Control.Name(), "register echo 0x%08X, expected 0x%08X", reg.Address, addr)
	}
	return reg, nil
}

// ParseChipIDResponse decodes the chip identifier from a ChipIDRegister read reply.
// The ID is the 4-byte little-endian value at offset 11.
func ParseChipIDResponse(resp []byte) (uint32, error) {
	reg, err := ParseReadRegResponse(resp, ChipIDRegister)
	if err != nil {
		return 0, err
	}
	return reg.Value, nil
}

// ParseSetBaudRateResponse decodes the ROM's echo of a speed change.
//
// Data: [BAUD(4)][DELAY(1)]
func ParseSetBaudRateResponse(resp []byte) (BaudRateAck, error) {
	cmd := Command{Name: "set baud rate", Family: Control, ReplyOpcode: CmdSetBaudRate, ResponseLen: SetBaudRateResponseSize}
	if err := cmd.Validate(resp); err != nil {
		return BaudRateAck{}, err
	}
	data := Control.Data(resp)
	return BaudRateAck{
		BaudRate: binary.LittleEndian.Uint32(data[0:4]),
		DelayMs:  data[4],
	}, nil
}

// ParseCheckCRCResponse decodes the CRC32 computed by the ROM.
//
// Data: [CRC(4)]
func ParseCheckCRCResponse(resp []byte) (uint32, error) {
	cmd := Command{Name: "check CRC", Family: Control, ReplyOpcode: CmdCheckCRC, ResponseLen: CheckCRCResponseSize}
	if err := cmd.Validate(resp); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(Control.Data(resp)[0:4]), nil
}

// ParseGetMIDResponse decodes the 3-byte flash ID.
//
// Data: [MANUFACTURER][TYPE][CAPACITY][00]
//
// The ID is returned as MANUFACTURER | TYPE<<8 | CAPACITY<<16.
func ParseGetMIDResponse(resp []byte) (uint32, error) {
	if err := BuildGetMIDCmd().Validate(resp); err != nil {
		return 0, err
	}
	data := Flash.Data(resp)
	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16, nil
}

// ParseReadSRResponse decodes one status register byte.
//
// Data: [SPI_OP][VALUE]
func ParseReadSRResponse(resp []byte, spiOp byte) (StatusRegister, error) {
	if err := BuildReadSRCmd(spiOp).Validate(resp); err != nil {
		return StatusRegister{}, err
	}
	data := Flash.Data(resp)
	if data[0] != spiOp {
		return StatusRegister{}, frameErrorf(Flash.Name(), "status register opcode echo 0x%02X, expected 0x%02X", data[0], spiOp)
	}
	return StatusRegister{Opcode: data[0], Value: data[1]}, nil
}

// ParseWriteSRResponse validates a status register write reply and returns
// the bytes the ROM reports as written.
//
// Data: [SPI_OP][VALUE(1..2)]
func ParseWriteSRResponse(resp []byte, spiOp byte, n int) ([]byte, error) {
	cmd, err := BuildWriteSRCmd(spiOp, make([]byte, n))
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(resp); err != nil {
		return nil, err
	}
	data := Flash.Data(resp)
	if data[0] != spiOp {
		return nil, frameErrorf(Flash.Name(), "status register opcode echo 0x%02X, expected 0x%02X", data[0], spiOp)
	}
	return data[1:], nil
}

// ParseFlashWriteResponse validates a sector program reply for addr.
//
// Data: [ADDR(4)]
func ParseFlashWriteResponse(resp []byte, addr uint32) error {
	cmd := Command{Name: "write sector", Family: Flash, ReplyOpcode: CmdFlashWrite4K, ResponseLen: FlashWriteResponseSize}
	return parseAddressEcho(cmd, resp, addr)
}

// ParseFlashErase4KResponse validates a sector erase reply for addr.
//
// Data: [ADDR(4)]
func ParseFlashErase4KResponse(resp []byte, addr uint32) error {
	return parseAddressEcho(BuildFlashErase4KCmd(addr), resp, addr)
}

// ParseFlashEraseResponse validates a sized erase reply.
//
// Data: [SPI_OP][ADDR(4)]
func ParseFlashEraseResponse(resp []byte, spiOp byte, addr uint32) error {
	cmd, err := BuildFlashEraseCmd(spiOp, addr)
	if err != nil {
		return err
	}
	if err := cmd.Validate(resp); err != nil {
		return err
	}
	data := Flash.Data(resp)
	if data[0] != spiOp {
		return frameErrorf(Flash.Name(), "erase opcode echo 0x%02X, expected 0x%02X", data[0], spiOp)
	}
	if got := binary.LittleEndian.Uint32(data[1:5]); got != addr {
		return frameErrorf(Flash.Name(), "address echo 0x%08X, expected 0x%08X", got, addr)
	}
	return nil
}

// ParseFlashEraseAllResponse validates an erase-all reply.
func ParseFlashEraseAllResponse(resp []byte) error {
	return BuildFlashEraseAllCmd().Validate(resp)
}

// ParseFlashReadResponse decodes one sector read reply for addr.
//
// Data: [ADDR(4)][DATA(4096)]
func ParseFlashReadResponse(resp []byte, addr uint32, extended bool) (Sector, error) {
	cmd := BuildFlashRead4KCmd(addr, extended)
	if err := parseAddressEcho(cmd, resp, addr); err != nil {
		return Sector{}, err
	}
	data := Flash.Data(resp)[4:]
	if len(data) != SectorSize {
		return Sector{}, fmt.Errorf("sector read returned %d bytes, expected %d", len(data), SectorSize)
	}
	out := make([]byte, SectorSize)
	copy(out, data)
	return Sector{Address: addr, Data: out}, nil
}

func parseAddressEcho(cmd Command, resp []byte, addr uint32) error {
	if err := cmd.Validate(resp); err != nil {
		return err
	}
	data := cmd.Family.Data(resp)
	if got := binary.LittleEndian.Uint32(data[0:4]); got != addr {
		return frameErrorf(cmd.Family.Name(), "address echo 0x%08X, expected 0x%08X", got, addr)
	}
	return nil
}
