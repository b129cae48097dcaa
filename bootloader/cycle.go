package bootloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-t5flash/protocol"
	"github.com/moffa90/go-t5flash/transport"
)

// responseStart is the first byte of every ROM reply.
const responseStart = 0x04

// exchange runs one request/response cycle: write the command holding only
// the writer half, then collect the reply holding only the reader half, and
// validate it. Commands without a reply return after the write.
func (p *Programmer) exchange(ctx context.Context, cmd protocol.Command, timeout time.Duration) ([]byte, error) {
	if err := p.checkCancel(ctx); err != nil {
		return nil, err
	}
	if err := p.send(ctx, cmd); err != nil {
		return nil, err
	}
	if !cmd.ExpectsReply() {
		return nil, nil
	}
	resp, err := p.receive(ctx, cmd, timeout)
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(resp); err != nil {
		p.logDebug("invalid reply", "command", cmd.Name, "reply", resp)
		return nil, err
	}
	return resp, nil
}

func (p *Programmer) send(ctx context.Context, cmd protocol.Command) error {
	w, err := p.transport.AcquireWriter(ctx)
	if err != nil {
		return p.transportError(cmd.Name, err)
	}
	defer w.Release()

	if _, err := w.Write(cmd.Frame); err != nil {
		return p.transportError(cmd.Name, err)
	}
	return nil
}

// receive reads until the reply length declared in its header (at most the
// expected length) has arrived or the deadline passes.
func (p *Programmer) receive(ctx context.Context, cmd protocol.Command, timeout time.Duration) ([]byte, error) {
	r, err := p.transport.AcquireReader(ctx)
	if err != nil {
		return nil, p.transportError(cmd.Name, err)
	}
	defer r.Release()

	deadline := time.Now().Add(timeout)
	want := cmd.ResponseLen
	buf := make([]byte, 0, want)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, p.checkCancel(ctx)
		}

		chunk, err := r.Read(remaining)
		if errors.Is(err, transport.ErrTimeout) {
			break
		}
		if err != nil {
			return nil, p.transportError(cmd.Name, err)
		}

		buf = append(buf, chunk...)
		buf = skipToResponse(buf)
		if n, ok := cmd.Family.FrameLen(buf); ok && n < want {
			want = n
		}
		if len(buf) >= want {
			return buf[:want], nil
		}
	}

	return nil, &TimeoutError{
		Operation: cmd.Name,
		Timeout:   timeout,
		Received:  len(buf),
		Expected:  cmd.ResponseLen,
	}
}

// skipToResponse drops line noise received ahead of a reply.
func skipToResponse(buf []byte) []byte {
	for len(buf) > 0 && buf[0] != responseStart {
		buf = buf[1:]
	}
	return buf
}

func (p *Programmer) transportError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	te := &TransportError{
		Operation:    op,
		Disconnected: p.transport.IsDisconnected(err),
		Err:          err,
	}
	if te.Disconnected {
		p.closeSession("transport disconnected")
	}
	return te
}
