package protocol

import (
	"errors"
	"fmt"
)

// ProtocolError represents a flash command the ROM rejected.
// Contains the status byte from the flash family response.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// StatusCode is the status byte reported by the ROM
	StatusCode byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, StatusName(e.StatusCode), e.StatusCode)
}

// FrameError reports a response that does not match the expected layout.
type FrameError struct {
	// Family is the frame family the response was checked against
	Family string

	// Reason describes the first check that failed
	Reason string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("invalid %s frame: %s", e.Family, e.Reason)
}

func frameErrorf(family, format string, args ...interface{}) error {
	return &FrameError{Family: family, Reason: fmt.Sprintf(format, args...)}
}

// IsProtocolError returns true if the error is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsFrameError returns true if the error is, or wraps, a FrameError.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

// StatusName returns a human-readable name for a flash status code.
func StatusName(code byte) string {
	switch code {
	case StatusSuccess:
		return "success"
	case StatusBusy:
		return "flash busy"
	case StatusSPIOperationFailed:
		return "SPI operation failed"
	case StatusSPITimeout:
		return "SPI timeout"
	case StatusProgramFailed:
		return "program failed"
	case StatusEraseFailed:
		return "erase failed"
	case StatusBadAddress:
		return "bad address"
	case StatusProtected:
		return "write protected"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", code)
	}
}
