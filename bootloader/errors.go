package bootloader

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-t5flash/transport"
)

var (
	// ErrCancelled is returned when an operation stopped because Cancel was
	// called or its context was done. It is not a failure.
	ErrCancelled = errors.New("operation cancelled by user")

	// ErrNotConnected is returned by flash operations before Connect succeeded.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected is returned by Connect on an open session.
	ErrAlreadyConnected = errors.New("already connected")
)

// StageError names the step of a connection or flash operation that failed.
type StageError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *StageError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("%s failed", e.Stage)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, msg, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// TransportError indicates the byte channel failed or the device went away.
// It is never retried.
type TransportError struct {
	Operation    string
	Disconnected bool
	Err          error
}

func (e *TransportError) Error() string {
	what := "I/O error"
	if e.Disconnected {
		what = "device disconnected"
	}
	return fmt.Sprintf("%s during %s: %v (check USB connection)", what, e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError indicates a reply did not complete within its deadline.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
	Received  int
	Expected  int
}

func (e *TimeoutError) Error() string {
	if e.Received == 0 {
		return fmt.Sprintf("%s: no reply within %v", e.Operation, e.Timeout)
	}
	return fmt.Sprintf("%s: got %d of %d reply bytes within %v", e.Operation, e.Received, e.Expected, e.Timeout)
}

// Unwrap lets errors.Is(err, transport.ErrTimeout) match.
func (e *TimeoutError) Unwrap() error { return transport.ErrTimeout }

// RangeError indicates an address range outside the flash.
type RangeError struct {
	Address  uint32
	Length   uint32
	Capacity uint32
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range 0x%08X+0x%X exceeds flash capacity 0x%X", e.Address, e.Length, e.Capacity)
}

// AlignmentError indicates a start address that is not sector aligned.
type AlignmentError struct {
	Address   uint32
	Alignment uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("address 0x%08X is not aligned to 0x%X", e.Address, e.Alignment)
}

// IsCancelled reports whether err is a user cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsTransportError reports whether err was caused by the transport.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsTimeout reports whether err was caused by a reply deadline.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

func stageErr(stage Stage, err error) error {
	if err == nil || IsCancelled(err) {
		return err
	}
	if se, ok := err.(*StageError); ok && se.Stage == stage {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}
