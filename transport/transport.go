// Package transport defines the byte channel the bootloader engine talks through
// and provides a serial port implementation of it.
//
// Access is split into a writer half and a reader half. Each half is acquired
// for one send or receive and released right after, so that consecutive
// protocol steps can never overlap on the wire:
//
//	w, err := t.AcquireWriter(ctx)
//	if err != nil {
//	    return err
//	}
//	_, err = w.Write(frame)
//	w.Release()
package transport

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned by Reader.Read when nothing arrived within maxWait.
	ErrTimeout = errors.New("read timeout")

	// ErrClosed is returned when the transport was closed or lost.
	ErrClosed = errors.New("transport closed")
)

// Transport is a duplex byte channel to the ROM bootloader.
type Transport interface {
	// AcquireWriter blocks until exclusive write access is available
	AcquireWriter(ctx context.Context) (Writer, error)

	// AcquireReader blocks until exclusive read access is available
	AcquireReader(ctx context.Context) (Reader, error)

	// Reconfigure closes the channel and reopens it at baudRate.
	// No other access may be held while it runs.
	Reconfigure(ctx context.Context, baudRate int) error

	// IsDisconnected classifies an error returned by this transport as loss
	// of the underlying device
	IsDisconnected(err error) bool
}

// Writer is exclusive write access to a Transport.
type Writer interface {
	// Write sends all of p
	Write(p []byte) (int, error)

	// Release gives write access back. It is safe to call more than once.
	Release()
}

// Reader is exclusive read access to a Transport.
type Reader interface {
	// Read returns the bytes that arrive within maxWait, or ErrTimeout
	Read(maxWait time.Duration) ([]byte, error)

	// Release gives read access back. It is safe to call more than once.
	Release()
}
