package bootloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/moffa90/go-t5flash/transport"
)

// Programmer drives the ROM bootloader of a T5/BK chip over a transport:
// it connects and identifies the chip and its flash, then erases, writes,
// reads and verifies flash content.
//
// Programmer is safe for concurrent use. Operations are serialized; only
// Cancel, Session and State may be called while another operation runs.
type Programmer struct {
	transport transport.Transport
	config    Config

	mu      sync.Mutex
	session atomic.Pointer[Session]
	state   atomic.Int32
	cancel  atomic.Bool
}

// New creates a new Programmer talking through t with the given options.
// t must already be open at the configured initial baud rate.
//
// Example:
//
//	port, err := transport.OpenSerial("/dev/ttyUSB0", 115200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	prog := bootloader.New(port,
//	    bootloader.WithProgressCallback(progressFunc),
//	    bootloader.WithBaudRate(1500000),
//	)
func New(t transport.Transport, opts ...Option) *Programmer {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = cfg.InitialBaudRate
	}

	return &Programmer{
		transport: t,
		config:    cfg,
	}
}

// Config returns a copy of the configuration in use.
func (p *Programmer) Config() Config {
	return p.config
}

// Session returns the open session, or nil before Connect succeeded.
func (p *Programmer) Session() *Session {
	s := p.session.Load()
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// State returns the current connection state.
func (p *Programmer) State() State {
	return State(p.state.Load())
}

// Cancel asks the running operation to stop at the next sector or command
// boundary. The operation returns ErrCancelled. Cancel never blocks.
// A Cancel while no operation runs has no effect on the next one.
func (p *Programmer) Cancel() {
	p.cancel.Store(true)
	p.logInfo("cancel requested")
}

// begin takes the operation lock and drops any cancel request left from
// an idle Cancel. Callers release p.mu.
func (p *Programmer) begin() {
	p.mu.Lock()
	p.cancel.Store(false)
}

func (p *Programmer) setState(s State) {
	if old := State(p.state.Swap(int32(s))); old != s {
		p.logDebug("state change", "from", old.String(), "to", s.String())
	}
}

// checkCancel reports ErrCancelled when Cancel was called or ctx is done.
// The cancel flag is cleared once observed.
func (p *Programmer) checkCancel(ctx context.Context) error {
	if p.cancel.CompareAndSwap(true, false) {
		return ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// requireSession returns the open session or ErrNotConnected.
func (p *Programmer) requireSession() (*Session, error) {
	s := p.session.Load()
	if s == nil {
		return nil, ErrNotConnected
	}
	return s, nil
}

func (p *Programmer) closeSession(reason string) {
	if s := p.session.Swap(nil); s != nil {
		s.closed.Store(true)
		p.logInfo("session closed", "reason", reason)
	}
	p.setState(StateDisconnected)
}

// sleep waits for d, returning early when cancelled.
func (p *Programmer) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return p.checkCancel(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return p.checkCancel(ctx)
	case <-ctx.Done():
		return p.checkCancel(ctx)
	}
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// finish reports the outcome of an operation started at start.
func (p *Programmer) finish(start time.Time, bytesDone int, err error) {
	switch {
	case err == nil:
		p.reportProgress(Progress{
			Stage:       StageCompleted,
			Percentage:  100,
			BytesDone:   bytesDone,
			ElapsedTime: time.Since(start),
		})
	case IsCancelled(err):
		p.logInfo("operation cancelled", "elapsed", time.Since(start).String())
		p.reportProgress(Progress{
			Stage:       StageFailed,
			Message:     ErrCancelled.Error(),
			BytesDone:   bytesDone,
			ElapsedTime: time.Since(start),
		})
	default:
		p.logError("operation failed", "error", err)
		p.reportProgress(Progress{
			Stage:       StageFailed,
			Message:     err.Error(),
			BytesDone:   bytesDone,
			ElapsedTime: time.Since(start),
		})
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if a logger is configured.
func (p *Programmer) logWarn(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
