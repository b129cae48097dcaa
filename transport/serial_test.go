package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"go.bug.st/serial"
	"golang.org/x/sync/semaphore"
)

func TestIsDisconnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "closed", err: ErrClosed, want: true},
		{name: "wrapped closed", err: fmt.Errorf("write: %w", ErrClosed), want: true},
		{name: "eof", err: io.EOF, want: true},
		{name: "os closed", err: &os.PathError{Op: "read", Path: "/dev/ttyUSB0", Err: os.ErrClosed}, want: true},
		{name: "timeout", err: ErrTimeout, want: false},
		{name: "busy port", err: &serial.PortError{}, want: false},
		{name: "other", err: errors.New("parity error"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDisconnectError(tt.err); got != tt.want {
				t.Errorf("IsDisconnectError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestOpenSerialMissingPort(t *testing.T) {
	if _, err := OpenSerial("/dev/does-not-exist-t5flash", 115200); err == nil {
		t.Fatal("expected error opening a missing port")
	}
}

// fakePort stands in for an open serial port; only Close is used here.
type fakePort struct {
	serial.Port
	closeErr error
	closed   bool
}

func (p *fakePort) Close() error {
	p.closed = true
	return p.closeErr
}

func withOpenPort(t *testing.T, open func(string, *serial.Mode) (serial.Port, error)) {
	t.Helper()
	saved := openPort
	openPort = open
	t.Cleanup(func() { openPort = saved })
}

func TestReconfigure(t *testing.T) {
	errClose := errors.New("close failed")
	errOpen := errors.New("port busy")

	tests := []struct {
		name     string
		closeErr error
		openErr  error
		wantErrs []error
		wantBaud int
	}{
		{name: "clean switch", wantBaud: 921600},
		{name: "close fails", closeErr: errClose, wantErrs: []error{errClose}, wantBaud: 921600},
		{name: "reopen fails", openErr: errOpen, wantErrs: []error{errOpen}, wantBaud: 115200},
		{name: "both fail", closeErr: errClose, openErr: errOpen, wantErrs: []error{errClose, errOpen}, wantBaud: 115200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &fakePort{}
			withOpenPort(t, func(name string, mode *serial.Mode) (serial.Port, error) {
				if tt.openErr != nil {
					return nil, tt.openErr
				}
				return next, nil
			})

			old := &fakePort{closeErr: tt.closeErr}
			s := &Serial{
				name:     "/dev/ttyTEST",
				port:     old,
				mode:     serial.Mode{BaudRate: 115200, DataBits: 8},
				writeSem: semaphore.NewWeighted(1),
				readSem:  semaphore.NewWeighted(1),
			}

			err := s.Reconfigure(context.Background(), 921600)
			if len(tt.wantErrs) == 0 && err != nil {
				t.Fatalf("Reconfigure: %v", err)
			}
			for _, want := range tt.wantErrs {
				if !errors.Is(err, want) {
					t.Errorf("error = %v, want it to include %v", err, want)
				}
			}
			if !old.closed {
				t.Error("old port not closed")
			}
			if got := s.BaudRate(); got != tt.wantBaud {
				t.Errorf("BaudRate() = %d, want %d", got, tt.wantBaud)
			}
			if tt.openErr == nil {
				if _, err := s.current(); err != nil {
					t.Errorf("port not usable after switch: %v", err)
				}
			} else if _, err := s.current(); !errors.Is(err, ErrClosed) {
				t.Errorf("current() error = %v, want ErrClosed", err)
			}
		})
	}
}
