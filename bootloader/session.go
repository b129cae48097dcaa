package bootloader

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/moffa90/go-t5flash/flashdb"
	"github.com/moffa90/go-t5flash/protocol"
)

// State is the position of the programmer in the connection sequence.
type State int32

const (
	StateDisconnected State = iota
	StateLinkChecking
	StateChipIdentified
	StateFlashIdentified
	StateFlashUnprotected
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateLinkChecking:
		return "link-checking"
	case StateChipIdentified:
		return "chip-identified"
	case StateFlashIdentified:
		return "flash-identified"
	case StateFlashUnprotected:
		return "flash-unprotected"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Session describes the device found by Connect.
type Session struct {
	// ChipID is the value of the chip ID register
	ChipID uint32

	// Family is the chip family derived from ChipID
	Family protocol.ChipFamily

	// FlashID is the JEDEC ID reported by the flash
	FlashID uint32

	// Descriptor is the flash geometry and protection layout in use.
	// Descriptor.Unknown() is true when FlashID was not in the table.
	Descriptor flashdb.Descriptor

	// BaudRate is the speed negotiated with the ROM
	BaudRate int

	// closed is shared by every copy of the session
	closed *atomic.Bool
}

func newSession(baudRate int) *Session {
	return &Session{BaudRate: baudRate, closed: atomic.NewBool(false)}
}

// Connected reports whether the session is still open. Copies returned by
// Connect and Programmer.Session observe Disconnect, Reboot and transport
// loss alike.
func (s *Session) Connected() bool {
	return s.closed != nil && !s.closed.Load()
}

// Extended reports whether sector reads need 4-byte addressing.
func (s *Session) Extended() bool {
	return s.Descriptor.Size >= protocol.ExtendedAddressThreshold
}

func (s *Session) String() string {
	return fmt.Sprintf("chip 0x%X (%s), flash %s, %d baud", s.ChipID, s.Family.Name, s.Descriptor, s.BaudRate)
}
