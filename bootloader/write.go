package bootloader

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-t5flash/protocol"
)

// Write programs data at addr one 4 KiB sector at a time. addr must be
// sector aligned and the sectors must have been erased. The final partial
// sector is padded with 0xFF.
//
// A sector whose program fails with a protocol error or timeout is retried
// up to WriteRetries times; transport failures abort at once.
//
// Example:
//
//	if err := prog.Erase(ctx, addr, uint32(len(image))); err != nil {
//	    return err
//	}
//	err := prog.Write(ctx, addr, image)
func (p *Programmer) Write(ctx context.Context, addr uint32, data []byte) error {
	p.begin()
	defer p.mu.Unlock()

	start := time.Now()
	n, err := p.write(ctx, start, addr, data)
	p.finish(start, n, err)
	return err
}

func (p *Programmer) write(ctx context.Context, start time.Time, addr uint32, data []byte) (int, error) {
	s, err := p.requireSession()
	if err != nil {
		return 0, err
	}
	if addr%protocol.SectorSize != 0 {
		return 0, stageErr(StageWrite, &AlignmentError{Address: addr, Alignment: protocol.SectorSize})
	}
	if err := checkRange(s, addr, roundUp(uint64(len(data)), protocol.SectorSize)); err != nil {
		return 0, stageErr(StageWrite, err)
	}

	sectors := SectorCount(len(data))
	p.logInfo("writing", "address", hex32(addr), "bytes", len(data), "sectors", sectors)

	written := 0
	for i := 0; i < sectors; i++ {
		if err := p.checkCancel(ctx); err != nil {
			return written, err
		}

		sectorAddr := addr + uint32(i*protocol.SectorSize)
		payload := sectorPayload(data, i)
		if err := p.writeSector(ctx, sectorAddr, payload); err != nil {
			return written, stageErr(StageWrite, err)
		}

		written += protocol.SectorSize
		if written > len(data) {
			written = len(data)
		}
		p.reportProgress(Progress{
			Stage:       StageWrite,
			Message:     hex32(sectorAddr),
			Current:     i + 1,
			Total:       sectors,
			Address:     sectorAddr,
			Percentage:  percent(i+1, sectors),
			BytesDone:   written,
			ElapsedTime: time.Since(start),
		})
	}
	return written, nil
}

// writeSector programs one sector, retrying protocol failures and timeouts.
func (p *Programmer) writeSector(ctx context.Context, addr uint32, payload []byte) error {
	cmd, err := protocol.BuildFlashWrite4KCmd(addr, payload)
	if err != nil {
		return err
	}

	attempts := 1 + p.config.WriteRetries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := p.checkCancel(ctx); err != nil {
				return err
			}
			p.logWarn("retrying sector write", "address", hex32(addr), "attempt", attempt, "error", lastErr)
		}

		resp, err := p.exchange(ctx, cmd, p.config.WriteTimeout)
		if err == nil {
			err = protocol.ParseFlashWriteResponse(resp, addr)
		}
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return fmt.Errorf("write sector %s: %w", hex32(addr), err)
		}
		lastErr = err
	}
	return fmt.Errorf("write sector %s failed after %d attempts: %w", hex32(addr), attempts, lastErr)
}

// retryable reports whether a failed sector command may be sent again.
func retryable(err error) bool {
	if IsCancelled(err) || IsTransportError(err) {
		return false
	}
	return protocol.IsProtocolError(err) || protocol.IsFrameError(err) || IsTimeout(err)
}

// SectorCount returns the number of 4 KiB sectors needed for n bytes.
func SectorCount(n int) int {
	return (n + protocol.SectorSize - 1) / protocol.SectorSize
}

// sectorPayload returns sector i of data, padded with 0xFF to a full sector.
func sectorPayload(data []byte, i int) []byte {
	from := i * protocol.SectorSize
	to := from + protocol.SectorSize
	if to <= len(data) {
		return data[from:to]
	}
	payload := make([]byte, protocol.SectorSize)
	n := copy(payload, data[from:])
	for j := n; j < len(payload); j++ {
		payload[j] = 0xFF
	}
	return payload
}
