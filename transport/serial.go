package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

// readChunkSize bounds a single Read; a 4 KiB sector reply is slightly larger.
const readChunkSize = 8192

// openPort is replaced in tests.
var openPort = serial.Open

// Serial is a Transport over a local serial port.
type Serial struct {
	name string

	mu   sync.Mutex
	port serial.Port
	mode serial.Mode

	writeSem *semaphore.Weighted
	readSem  *semaphore.Weighted
}

// OpenSerial opens the named port at baudRate, 8N1.
func OpenSerial(name string, baudRate int) (*Serial, error) {
	mode := serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := openPort(name, &mode)
	if err != nil {
		return nil, fmt.Errorf("open %s at %d baud: %w", name, baudRate, err)
	}
	return &Serial{
		name:     name,
		port:     port,
		mode:     mode,
		writeSem: semaphore.NewWeighted(1),
		readSem:  semaphore.NewWeighted(1),
	}, nil
}

// Name returns the port name.
func (s *Serial) Name() string {
	return s.name
}

// BaudRate returns the speed the port is currently open at.
func (s *Serial) BaudRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode.BaudRate
}

func (s *Serial) current() (serial.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil, ErrClosed
	}
	return s.port, nil
}

// AcquireWriter takes the write half. Stale input is discarded so the reply
// to the next command is not preceded by leftovers of an earlier exchange.
func (s *Serial) AcquireWriter(ctx context.Context) (Writer, error) {
	if err := s.writeSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	port, err := s.current()
	if err != nil {
		s.writeSem.Release(1)
		return nil, err
	}
	if err := port.ResetInputBuffer(); err != nil {
		s.writeSem.Release(1)
		return nil, err
	}
	return &serialWriter{port: port, release: s.releaser(s.writeSem)}, nil
}

// AcquireReader takes the read half.
func (s *Serial) AcquireReader(ctx context.Context) (Reader, error) {
	if err := s.readSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	port, err := s.current()
	if err != nil {
		s.readSem.Release(1)
		return nil, err
	}
	return &serialReader{port: port, buf: make([]byte, readChunkSize), release: s.releaser(s.readSem)}, nil
}

func (s *Serial) releaser(sem *semaphore.Weighted) func() {
	var once sync.Once
	return func() {
		once.Do(func() { sem.Release(1) })
	}
}

// Reconfigure closes the port and reopens it at baudRate. Both halves are
// held for the duration so no exchange can run during the switch.
// The port is reopened even when closing it failed; the close error is
// still returned, combined with any reopen error.
func (s *Serial) Reconfigure(ctx context.Context, baudRate int) error {
	if err := s.writeSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.writeSem.Release(1)
	if err := s.readSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.readSem.Release(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.port != nil {
		if closeErr := s.port.Close(); closeErr != nil {
			err = fmt.Errorf("close %s: %w", s.name, closeErr)
		}
		s.port = nil
	}

	mode := s.mode
	mode.BaudRate = baudRate
	port, openErr := openPort(s.name, &mode)
	if openErr != nil {
		return multierr.Append(err, fmt.Errorf("reopen %s at %d baud: %w", s.name, baudRate, openErr))
	}
	s.port = port
	s.mode = mode
	return err
}

// Close releases the port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// IsDisconnected reports errors meaning the adapter went away or the port was closed.
func (s *Serial) IsDisconnected(err error) bool {
	return IsDisconnectError(err)
}

// IsDisconnectError is the classification used by Serial.IsDisconnected.
func IsDisconnectError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		return true
	}
	var pe *serial.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case serial.PortClosed, serial.PortNotFound, serial.InvalidSerialPort:
			return true
		}
	}
	return false
}

type serialWriter struct {
	port    serial.Port
	release func()
}

func (w *serialWriter) Write(p []byte) (int, error) {
	sent := 0
	for sent < len(p) {
		n, err := w.port.Write(p[sent:])
		if err != nil {
			return sent, err
		}
		sent += n
	}
	return sent, nil
}

func (w *serialWriter) Release() { w.release() }

type serialReader struct {
	port    serial.Port
	buf     []byte
	release func()
}

// Read waits up to maxWait for the first bytes. go.bug.st/serial reports a
// timeout as a zero-length read without error.
func (r *serialReader) Read(maxWait time.Duration) ([]byte, error) {
	if maxWait <= 0 {
		return nil, ErrTimeout
	}
	if err := r.port.SetReadTimeout(maxWait); err != nil {
		return nil, err
	}
	n, err := r.port.Read(r.buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrTimeout
	}
	out := make([]byte, n)
	copy(out, r.buf[:n])
	return out, nil
}

func (r *serialReader) Release() { r.release() }
