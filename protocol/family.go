package protocol

import (
	"encoding/binary"
	"fmt"
)

// Family is one of the two frame layouts spoken by the ROM bootloader.
// A command is always encoded and validated by the same Family.
type Family interface {
	// Name identifies the family in errors and logs
	Name() string

	// Encode builds a complete command frame
	Encode(op byte, payload []byte) []byte

	// Validate checks a complete response frame for the given command opcode
	Validate(resp []byte, op byte) error

	// ResponseLen returns the full response size for dataLen bytes of reply data
	ResponseLen(dataLen int) int

	// Data returns the reply data following the response header
	Data(resp []byte) []byte

	// FrameLen returns the total length a partially received response
	// declares, or false while the length field has not arrived yet
	FrameLen(partial []byte) (int, bool)
}

// Control is the short-header family used for link, register, baud and CRC commands.
var Control Family = controlFamily{}

// Flash is the long-header family used for flash commands.
var Flash Family = flashFamily{}

type controlFamily struct{}

func (controlFamily) Name() string { return "control" }

// Encode builds [01 E0 FC][LEN][OP][PAYLOAD...] with LEN = 1 + len(payload).
func (controlFamily) Encode(op byte, payload []byte) []byte {
	frame := make([]byte, 0, ControlHeaderSize+len(payload))
	frame = append(frame, controlCommandPrefix[:]...)
	frame = append(frame, byte(1+len(payload)))
	frame = append(frame, op)
	frame = append(frame, payload...)
	return frame
}

func (f controlFamily) Validate(resp []byte, op byte) error {
	if len(resp) < ControlResponseHeaderSize {
		return frameErrorf(f.Name(), "too short: got %d bytes, minimum is %d", len(resp), ControlResponseHeaderSize)
	}
	if resp[0] != controlEventPrefix[0] || resp[1] != controlEventPrefix[1] {
		return frameErrorf(f.Name(), "bad event prefix % X", resp[0:2])
	}
	if int(resp[ControlLengthOffset]) != len(resp)-controlLengthBase {
		return frameErrorf(f.Name(), "length mismatch: declared %d, got %d", resp[ControlLengthOffset], len(resp)-controlLengthBase)
	}
	for i, b := range controlCommandPrefix {
		if resp[ControlEchoOffset+i] != b {
			return frameErrorf(f.Name(), "bad command echo % X", resp[ControlEchoOffset:ControlEchoOffset+3])
		}
	}
	if resp[ControlOpcodeOffset] != op {
		return frameErrorf(f.Name(), "opcode mismatch: got 0x%02X, expected 0x%02X", resp[ControlOpcodeOffset], op)
	}
	return nil
}

func (controlFamily) ResponseLen(dataLen int) int { return ControlResponseHeaderSize + dataLen }

func (controlFamily) Data(resp []byte) []byte {
	if len(resp) <= ControlResponseHeaderSize {
		return nil
	}
	return resp[ControlResponseHeaderSize:]
}

func (controlFamily) FrameLen(partial []byte) (int, bool) {
	if len(partial) <= ControlLengthOffset {
		return 0, false
	}
	return int(partial[ControlLengthOffset]) + controlLengthBase, true
}

type flashFamily struct{}

func (flashFamily) Name() string { return "flash" }

// Encode builds [01 E0 FC FF F4][LEN_L LEN_H][OP][PAYLOAD...] with LEN = 1 + len(payload).
func (flashFamily) Encode(op byte, payload []byte) []byte {
	frame := make([]byte, FlashHeaderSize, FlashHeaderSize+len(payload))
	copy(frame, flashCommandPrefix[:])
	binary.LittleEndian.PutUint16(frame[5:7], uint16(1+len(payload)))
	frame[7] = op
	return append(frame, payload...)
}

// Validate checks the prefix, length and opcode echo, then the status byte.
// A bad status is reported as a *ProtocolError, layout problems as a *FrameError.
func (f flashFamily) Validate(resp []byte, op byte) error {
	if len(resp) < FlashResponseHeaderSize {
		return frameErrorf(f.Name(), "too short: got %d bytes, minimum is %d", len(resp), FlashResponseHeaderSize)
	}
	for i, b := range flashResponsePrefix {
		if resp[i] != b {
			return frameErrorf(f.Name(), "bad prefix % X", resp[0:len(flashResponsePrefix)])
		}
	}
	declared := int(binary.LittleEndian.Uint16(resp[FlashLengthOffset : FlashLengthOffset+2]))
	if declared != len(resp)-flashLengthBase {
		return frameErrorf(f.Name(), "length mismatch: declared %d, got %d", declared, len(resp)-flashLengthBase)
	}
	if resp[FlashOpcodeOffset] != op {
		return frameErrorf(f.Name(), "opcode mismatch: got 0x%02X, expected 0x%02X", resp[FlashOpcodeOffset], op)
	}
	if resp[FlashStatusOffset] != StatusSuccess {
		return &ProtocolError{
			Operation:  fmt.Sprintf("flash command 0x%02X", op),
			StatusCode: resp[FlashStatusOffset],
		}
	}
	return nil
}

func (flashFamily) ResponseLen(dataLen int) int { return FlashResponseHeaderSize + dataLen }

func (flashFamily) Data(resp []byte) []byte {
	if len(resp) <= FlashResponseHeaderSize {
		return nil
	}
	return resp[FlashResponseHeaderSize:]
}

func (flashFamily) FrameLen(partial []byte) (int, bool) {
	if len(partial) < FlashLengthOffset+2 {
		return 0, false
	}
	return int(binary.LittleEndian.Uint16(partial[FlashLengthOffset:FlashLengthOffset+2])) + flashLengthBase, true
}
