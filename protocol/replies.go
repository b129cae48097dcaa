package protocol

import "encoding/binary"

// EncodeControlResponse builds a control family reply as the ROM sends it.
// Used by device-side code such as the simulator.
func EncodeControlResponse(op byte, data []byte) []byte {
	frame := make([]byte, 0, ControlResponseHeaderSize+len(data))
	frame = append(frame, controlEventPrefix[:]...)
	frame = append(frame, byte(ControlResponseHeaderSize+len(data)-controlLengthBase))
	frame = append(frame, controlCommandPrefix[:]...)
	frame = append(frame, op)
	return append(frame, data...)
}

// EncodeFlashResponse builds a flash family reply as the ROM sends it.
func EncodeFlashResponse(status, op byte, data []byte) []byte {
	frame := make([]byte, FlashResponseHeaderSize, FlashResponseHeaderSize+len(data))
	copy(frame, flashResponsePrefix[:])
	binary.LittleEndian.PutUint16(frame[FlashLengthOffset:], uint16(FlashResponseHeaderSize+len(data)-flashLengthBase))
	frame[FlashStatusOffset] = status
	frame[FlashOpcodeOffset] = op
	return append(frame, data...)
}

// DecodeCommand splits a received command frame into family, opcode and
// payload. ok is false when the bytes are not a complete command of either family.
func DecodeCommand(frame []byte) (family Family, op byte, payload []byte, ok bool) {
	if len(frame) >= FlashHeaderSize && hasPrefix(frame, flashCommandPrefix[:]) {
		n := int(binary.LittleEndian.Uint16(frame[5:7]))
		if n < 1 || len(frame) != FlashHeaderSize-1+n {
			return nil, 0, nil, false
		}
		return Flash, frame[7], frame[FlashHeaderSize:], true
	}
	if len(frame) >= ControlHeaderSize && hasPrefix(frame, controlCommandPrefix[:]) {
		n := int(frame[3])
		if n < 1 || len(frame) != ControlHeaderSize-1+n {
			return nil, 0, nil, false
		}
		return Control, frame[4], frame[ControlHeaderSize:], true
	}
	return nil, 0, nil, false
}

// CommandLen returns the total size a partially received command declares.
func CommandLen(partial []byte) (int, bool) {
	if len(partial) >= 5 && hasPrefix(partial, flashCommandPrefix[:]) {
		if len(partial) < 7 {
			return 0, false
		}
		return FlashHeaderSize - 1 + int(binary.LittleEndian.Uint16(partial[5:7])), true
	}
	if len(partial) >= 4 && hasPrefix(partial, controlCommandPrefix[:]) {
		if partial[3] == flashCommandPrefix[3] && len(partial) < 5 {
			// could still become a flash prefix
			return 0, false
		}
		return ControlHeaderSize - 1 + int(partial[3]), true
	}
	return 0, false
}

// MayStartCommand reports whether partial can still grow into a command,
// that is it begins with the command prefix or with a part of it. A buffer
// for which CommandLen fails and MayStartCommand is false starts with noise.
func MayStartCommand(partial []byte) bool {
	n := min(len(partial), len(controlCommandPrefix))
	return hasPrefix(partial[:n], controlCommandPrefix[:n])
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
