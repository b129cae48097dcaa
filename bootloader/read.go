package bootloader

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-t5flash/protocol"
)

// Read returns length bytes of flash starting at addr. Every sector the
// range touches is read whole; addr needs no alignment.
//
// Example:
//
//	backup, err := prog.Read(ctx, 0, session.Descriptor.Size)
func (p *Programmer) Read(ctx context.Context, addr, length uint32) ([]byte, error) {
	p.begin()
	defer p.mu.Unlock()

	start := time.Now()
	out, err := p.read(ctx, start, addr, length)
	p.finish(start, len(out), err)
	return out, err
}

func (p *Programmer) read(ctx context.Context, start time.Time, addr, length uint32) ([]byte, error) {
	s, err := p.requireSession()
	if err != nil {
		return nil, err
	}
	if err := checkRange(s, addr, uint64(length)); err != nil {
		return nil, stageErr(StageRead, err)
	}
	if length == 0 {
		return []byte{}, nil
	}

	first := uint64(addr) &^ (protocol.SectorSize - 1)
	end := uint64(addr) + uint64(length)
	sectors := int((roundUp(end, protocol.SectorSize) - first) / protocol.SectorSize)
	extended := s.Extended()

	p.logInfo("reading", "address", hex32(addr), "length", length, "sectors", sectors, "extended", extended)

	out := make([]byte, 0, length)
	for i := 0; i < sectors; i++ {
		if err := p.checkCancel(ctx); err != nil {
			return out, err
		}

		sectorAddr := uint32(first) + uint32(i*protocol.SectorSize)
		resp, err := p.exchange(ctx, protocol.BuildFlashRead4KCmd(sectorAddr, extended), p.config.ReadTimeout)
		var sector protocol.Sector
		if err == nil {
			sector, err = protocol.ParseFlashReadResponse(resp, sectorAddr, extended)
		}
		if err != nil {
			return out, stageErr(StageRead, fmt.Errorf("read sector %s: %w", hex32(sectorAddr), err))
		}

		lo := uint64(sectorAddr)
		from, to := uint64(0), uint64(protocol.SectorSize)
		if uint64(addr) > lo {
			from = uint64(addr) - lo
		}
		if end < lo+protocol.SectorSize {
			to = end - lo
		}
		out = append(out, sector.Data[from:to]...)

		p.reportProgress(Progress{
			Stage:       StageRead,
			Message:     hex32(sectorAddr),
			Current:     i + 1,
			Total:       sectors,
			Address:     sectorAddr,
			Percentage:  percent(i+1, sectors),
			BytesDone:   len(out),
			ElapsedTime: time.Since(start),
		})
	}
	return out, nil
}
