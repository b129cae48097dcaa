package protocol

// Control family frame layout.
//
//	Command:  [01 E0 FC][LEN][OP][PAYLOAD...]
//	Response: [04 0E][LEN][01 E0 FC][OP][DATA...]
const (
	// ControlHeaderSize is the size of a control command before the payload:
	// prefix(3) + LEN(1) + OP(1)
	ControlHeaderSize = 5

	// ControlResponseHeaderSize is the size of a control response before its data:
	// event(2) + LEN(1) + echo(3) + OP(1)
	ControlResponseHeaderSize = 7

	// ControlLengthOffset is the index of the declared length in a control response
	ControlLengthOffset = 2

	// ControlEchoOffset is the index of the echoed command prefix in a control response
	ControlEchoOffset = 3

	// ControlOpcodeOffset is the index of the echoed opcode in a control response
	ControlOpcodeOffset = 6
)

// Flash family frame layout.
//
//	Command:  [01 E0 FC FF F4][LEN_L LEN_H][OP][PAYLOAD...]
//	Response: [04 0E FF 01 E0 FC F4][LEN_L LEN_H][STATUS][OP][DATA...]
const (
	// FlashHeaderSize is the size of a flash command before the payload:
	// prefix(5) + LEN(2) + OP(1)
	FlashHeaderSize = 8

	// FlashResponseHeaderSize is the size of a flash response before its data:
	// prefix(7) + LEN(2) + STATUS(1) + OP(1)
	FlashResponseHeaderSize = 11

	// FlashLengthOffset is the index of the little-endian declared length in a flash response
	FlashLengthOffset = 7

	// FlashStatusOffset is the index of the status byte in a flash response
	FlashStatusOffset = 9

	// FlashOpcodeOffset is the index of the echoed opcode in a flash response
	FlashOpcodeOffset = 10

	// flashLengthBase is the part of a flash response not covered by LEN
	flashLengthBase = 9

	// controlLengthBase is the part of a control response not covered by LEN
	controlLengthBase = 3
)

var (
	controlCommandPrefix = [3]byte{0x01, 0xE0, 0xFC}
	controlEventPrefix   = [2]byte{0x04, 0x0E}
	flashCommandPrefix   = [5]byte{0x01, 0xE0, 0xFC, 0xFF, 0xF4}
	flashResponsePrefix  = [7]byte{0x04, 0x0E, 0xFF, 0x01, 0xE0, 0xFC, 0xF4}
)

// Control family opcodes.
const (
	// CmdLinkCheck probes the ROM; the reply carries opcode CmdLinkCheckReply
	CmdLinkCheck = 0x00

	// CmdLinkCheckReply is the opcode the ROM answers a link check with
	CmdLinkCheckReply = 0x01

	// CmdWriteReg writes a 32-bit register
	CmdWriteReg = 0x01

	// CmdReadReg reads a 32-bit register
	CmdReadReg = 0x03

	// CmdReboot resets the chip; there is no reply
	CmdReboot = 0x0E

	// CmdSetBaudRate switches the ROM UART to a new speed after a delay
	CmdSetBaudRate = 0x0F

	// CmdCheckCRC asks the ROM for the CRC32 of a flash range
	CmdCheckCRC = 0x10
)

// Flash family opcodes.
const (
	// CmdFlashWrite4K programs one 4 KiB sector
	CmdFlashWrite4K = 0x07

	// CmdFlashRead4K reads one 4 KiB sector
	CmdFlashRead4K = 0x09

	// CmdFlashEraseAll erases the whole flash
	CmdFlashEraseAll = 0x0A

	// CmdFlashErase4K erases one 4 KiB sector
	CmdFlashErase4K = 0x0B

	// CmdFlashReadSR reads one status register byte
	CmdFlashReadSR = 0x0C

	// CmdFlashWriteSR writes one or two status register bytes
	CmdFlashWriteSR = 0x0D

	// CmdFlashGetMID reads the JEDEC ID of the flash
	CmdFlashGetMID = 0x0E

	// CmdFlashErase erases a block whose size is selected by an SPI erase opcode
	CmdFlashErase = 0x0F

	// CmdFlashRead4KExt reads one 4 KiB sector using 4-byte SPI addressing
	CmdFlashRead4KExt = 0x19
)

// SPI erase opcodes carried by CmdFlashErase.
const (
	// SPIErase4K is the SPI sector erase opcode
	SPIErase4K = 0x20

	// SPIErase32K is the SPI 32 KiB block erase opcode
	SPIErase32K = 0x52

	// SPIErase64K is the SPI 64 KiB block erase opcode
	SPIErase64K = 0xD8

	// SPIReadJEDECID is the SPI opcode forwarded by CmdFlashGetMID
	SPIReadJEDECID = 0x9F
)

// Flash status codes carried at FlashStatusOffset.
const (
	// StatusSuccess indicates the flash command completed
	StatusSuccess = 0x00

	// StatusBusy indicates the flash was still busy
	StatusBusy = 0x01

	// StatusSPIOperationFailed indicates the SPI transaction failed
	StatusSPIOperationFailed = 0x02

	// StatusSPITimeout indicates the SPI controller timed out
	StatusSPITimeout = 0x03

	// StatusProgramFailed indicates the page program did not complete
	StatusProgramFailed = 0x04

	// StatusEraseFailed indicates the erase did not complete
	StatusEraseFailed = 0x05

	// StatusBadAddress indicates the address was rejected
	StatusBadAddress = 0x06

	// StatusProtected indicates the target area is write protected
	StatusProtected = 0x07
)

// Sizes shared by commands and the flash engine.
const (
	// SectorSize is the smallest erase/program unit addressed by the ROM
	SectorSize = 4096

	// Block32KSize is the size erased by SPIErase32K
	Block32KSize = 32 * 1024

	// Block64KSize is the size erased by SPIErase64K
	Block64KSize = 64 * 1024

	// ExtendedAddressThreshold is the capacity at which reads switch to CmdFlashRead4KExt
	ExtendedAddressThreshold = 256 * 1024 * 1024

	// ChipIDRegister is the register holding the chip identifier
	ChipIDRegister = 0x44010004

	// RebootMagic is the payload CmdReboot expects
	RebootMagic = 0xA5

	// DefaultBaudRate is the speed the ROM listens at after reset
	DefaultBaudRate = 115200
)

// Response sizes for fixed-length replies.
const (
	// LinkCheckResponseSize is the full size of a link check reply
	LinkCheckResponseSize = ControlResponseHeaderSize + 1

	// ReadRegResponseSize is the full size of a register read reply: addr(4) + value(4)
	ReadRegResponseSize = ControlResponseHeaderSize + 8

	// WriteRegResponseSize is the full size of a register write reply: addr(4) + value(4)
	WriteRegResponseSize = ControlResponseHeaderSize + 8

	// SetBaudRateResponseSize is the full size of a set-baud reply: baud(4) + delay(1)
	SetBaudRateResponseSize = ControlResponseHeaderSize + 5

	// CheckCRCResponseSize is the full size of a CRC reply: crc(4)
	CheckCRCResponseSize = ControlResponseHeaderSize + 4

	// GetMIDResponseSize is the full size of a flash ID reply: mid(4)
	GetMIDResponseSize = FlashResponseHeaderSize + 4

	// FlashWriteResponseSize is the full size of a sector program reply: addr(4)
	FlashWriteResponseSize = FlashResponseHeaderSize + 4

	// FlashReadResponseSize is the full size of a sector read reply: addr(4) + data
	FlashReadResponseSize = FlashResponseHeaderSize + 4 + SectorSize

	// FlashErase4KResponseSize is the full size of a sector erase reply: addr(4)
	FlashErase4KResponseSize = FlashResponseHeaderSize + 4

	// FlashEraseResponseSize is the full size of a sized erase reply: spi op(1) + addr(4)
	FlashEraseResponseSize = FlashResponseHeaderSize + 5

	// FlashEraseAllResponseSize is the full size of an erase-all reply
	FlashEraseAllResponseSize = FlashResponseHeaderSize

	// ReadSRResponseSize is the full size of a status register read reply: spi op(1) + value(1)
	ReadSRResponseSize = FlashResponseHeaderSize + 2
)

// WriteSRResponseSize returns the full size of a status register write reply
// carrying n value bytes.
func WriteSRResponseSize(n int) int {
	return FlashResponseHeaderSize + 1 + n
}
