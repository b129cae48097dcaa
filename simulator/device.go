package simulator

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/moffa90/go-t5flash/protocol"
	"github.com/moffa90/go-t5flash/transport"
)

// ErrBusy is returned when a transport half is acquired while still held.
var ErrBusy = errors.New("simulator: transport half already acquired")

// protectBits are the status register bits that block erase and program.
const protectBits = 0x7C

// Record is one command the device received.
type Record struct {
	Family   string
	Opcode   byte
	Address  uint32
	BaudRate int
}

// Device is an in-memory ROM bootloader reachable through the transport.Transport interface.
// All fault injection setters may be called at any time.
type Device struct {
	mu sync.Mutex

	chipID    uint32
	flashID   uint32
	flashSize uint32
	sectors   map[uint32][]byte
	sr        [2]byte
	srLocked  bool

	initialBaud int
	deviceBaud  int
	hostBaud    int

	inbound  []byte
	outbound []byte
	chunk    int

	ignoreLinkChecks int
	failWrites       map[uint32]int
	corruptCRC       bool
	ignoreBaudChange bool
	disconnected     bool
	rebooted         bool
	silent           map[byte]bool

	records []Record

	writeSem *semaphore.Weighted
	readSem  *semaphore.Weighted
}

// New creates a device with a blank (erased) flash.
func New(opts ...Option) *Device {
	d := &Device{
		chipID:      0x7258,
		flashID:     0x1640C8,
		flashSize:   4 * 1024 * 1024,
		sectors:     make(map[uint32][]byte),
		initialBaud: protocol.DefaultBaudRate,
		failWrites:  make(map[uint32]int),
		silent:      make(map[byte]bool),
		writeSem:    semaphore.NewWeighted(1),
		readSem:     semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.deviceBaud = d.initialBaud
	d.hostBaud = d.initialBaud
	return d
}

// AcquireWriter implements transport.Transport. It never blocks: acquiring a
// half that is still held is reported as ErrBusy.
func (d *Device) AcquireWriter(ctx context.Context) (transport.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.writeSem.TryAcquire(1) {
		return nil, ErrBusy
	}
	return &writer{d: d, release: releaseOnce(d.writeSem)}, nil
}

// AcquireReader implements transport.Transport.
func (d *Device) AcquireReader(ctx context.Context) (transport.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.readSem.TryAcquire(1) {
		return nil, ErrBusy
	}
	return &reader{d: d, release: releaseOnce(d.readSem)}, nil
}

// Reconfigure implements transport.Transport by moving the host side to baudRate.
func (d *Device) Reconfigure(ctx context.Context, baudRate int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.writeSem.TryAcquire(1) {
		return ErrBusy
	}
	defer d.writeSem.Release(1)
	if !d.readSem.TryAcquire(1) {
		return ErrBusy
	}
	defer d.readSem.Release(1)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disconnected {
		return transport.ErrClosed
	}
	d.hostBaud = baudRate
	d.inbound = nil
	d.outbound = nil
	return nil
}

// IsDisconnected implements transport.Transport.
func (d *Device) IsDisconnected(err error) bool {
	return transport.IsDisconnectError(err)
}

func releaseOnce(sem *semaphore.Weighted) func() {
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }
}

type writer struct {
	d       *Device
	release func()
}

func (w *writer) Write(p []byte) (int, error) {
	return w.d.receive(p)
}

func (w *writer) Release() { w.release() }

type reader struct {
	d       *Device
	release func()
}

// Read returns queued reply bytes, at most the configured chunk size at a
// time. Simulated time does not pass: an empty queue is an immediate timeout.
func (r *reader) Read(maxWait time.Duration) ([]byte, error) {
	d := r.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disconnected {
		return nil, transport.ErrClosed
	}
	if len(d.outbound) == 0 || maxWait <= 0 {
		return nil, transport.ErrTimeout
	}
	n := len(d.outbound)
	if d.chunk > 0 && n > d.chunk {
		n = d.chunk
	}
	out := append([]byte(nil), d.outbound[:n]...)
	d.outbound = d.outbound[n:]
	return out, nil
}

func (r *reader) Release() { r.release() }

func (d *Device) receive(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disconnected {
		return 0, transport.ErrClosed
	}
	if d.hostBaud != d.deviceBaud {
		// Framing errors on the device side: the bytes are lost.
		return len(p), nil
	}
	d.inbound = append(d.inbound, p...)
	for {
		n, ok := protocol.CommandLen(d.inbound)
		if !ok {
			if protocol.MayStartCommand(d.inbound) {
				break
			}
			// resynchronise on garbage
			d.inbound = d.inbound[1:]
			continue
		}
		if len(d.inbound) < n {
			break
		}
		frame := d.inbound[:n]
		d.inbound = d.inbound[n:]
		d.handle(frame)
	}
	return len(p), nil
}

func (d *Device) handle(frame []byte) {
	family, op, payload, ok := protocol.DecodeCommand(frame)
	if !ok {
		return
	}
	rec := Record{Family: family.Name(), Opcode: op, BaudRate: d.deviceBaud}
	if len(payload) >= 4 {
		rec.Address = binary.LittleEndian.Uint32(payload[0:4])
	}
	if family == protocol.Flash && op == protocol.CmdFlashErase && len(payload) >= 5 {
		rec.Address = binary.LittleEndian.Uint32(payload[1:5])
	}
	d.records = append(d.records, rec)

	if d.silent[op] {
		return
	}
	if family == protocol.Control {
		d.handleControl(op, payload)
	} else {
		d.handleFlash(op, payload)
	}
}

func (d *Device) reply(resp []byte) {
	d.outbound = append(d.outbound, resp...)
}

func (d *Device) flashReply(status, op byte, data []byte) {
	d.reply(protocol.EncodeFlashResponse(status, op, data))
}
