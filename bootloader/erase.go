package bootloader

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-t5flash/protocol"
)

// EraseStep is one erase command of an erase plan.
type EraseStep struct {
	Address uint32
	Size    uint32
}

// Opcode returns the SPI erase opcode matching the step size.
func (s EraseStep) Opcode() byte {
	switch s.Size {
	case protocol.Block64KSize:
		return protocol.SPIErase64K
	case protocol.Block32KSize:
		return protocol.SPIErase32K
	default:
		return protocol.SPIErase4K
	}
}

// eraseSizes lists the erase granularities, largest first.
var eraseSizes = []uint64{protocol.Block64KSize, protocol.Block32KSize, protocol.SectorSize}

// PlanErase splits [addr, addr+length) into the fewest erase commands. addr
// must be sector aligned; the end is rounded up to a sector boundary. At each
// position the largest block that is aligned there and lies fully inside the
// range is used: 64 KiB, then 32 KiB, then a 4 KiB sector.
func PlanErase(addr, length uint32) ([]EraseStep, error) {
	if addr%protocol.SectorSize != 0 {
		return nil, &AlignmentError{Address: addr, Alignment: protocol.SectorSize}
	}
	if length == 0 {
		return nil, nil
	}

	end := uint64(addr) + roundUp(uint64(length), protocol.SectorSize)
	var steps []EraseStep
	for a := uint64(addr); a < end; {
		for _, size := range eraseSizes {
			if a%size == 0 && a+size <= end {
				steps = append(steps, EraseStep{Address: uint32(a), Size: uint32(size)})
				a += size
				break
			}
		}
	}
	return steps, nil
}

func roundUp(n, unit uint64) uint64 {
	return (n + unit - 1) / unit * unit
}

// Erase erases every sector touched by [addr, addr+length).
// addr must be sector aligned.
//
// Example:
//
//	err := prog.Erase(ctx, 0x11000, uint32(len(image)))
func (p *Programmer) Erase(ctx context.Context, addr, length uint32) error {
	p.begin()
	defer p.mu.Unlock()

	start := time.Now()
	err := p.erase(ctx, start, addr, length)
	p.finish(start, int(length), err)
	return err
}

func (p *Programmer) erase(ctx context.Context, start time.Time, addr, length uint32) error {
	s, err := p.requireSession()
	if err != nil {
		return err
	}
	if err := checkRange(s, addr, roundUp(uint64(length), protocol.SectorSize)); err != nil {
		return stageErr(StageErase, err)
	}
	steps, err := PlanErase(addr, length)
	if err != nil {
		return stageErr(StageErase, err)
	}

	p.logInfo("erasing", "address", hex32(addr), "length", length, "commands", len(steps))
	done := 0
	for i, step := range steps {
		if err := p.checkCancel(ctx); err != nil {
			return err
		}
		if err := p.eraseStep(ctx, step); err != nil {
			return stageErr(StageErase, fmt.Errorf("erase 0x%X bytes at %s: %w", step.Size, hex32(step.Address), err))
		}
		done += int(step.Size)
		p.reportProgress(Progress{
			Stage:       StageErase,
			Message:     hex32(step.Address),
			Current:     i + 1,
			Total:       len(steps),
			Address:     step.Address,
			Percentage:  percent(i+1, len(steps)),
			BytesDone:   done,
			ElapsedTime: time.Since(start),
		})
	}
	return nil
}

func (p *Programmer) eraseStep(ctx context.Context, step EraseStep) error {
	if step.Size == protocol.SectorSize {
		resp, err := p.exchange(ctx, protocol.BuildFlashErase4KCmd(step.Address), p.config.EraseTimeout)
		if err != nil {
			return err
		}
		return protocol.ParseFlashErase4KResponse(resp, step.Address)
	}

	cmd, err := protocol.BuildFlashEraseCmd(step.Opcode(), step.Address)
	if err != nil {
		return err
	}
	resp, err := p.exchange(ctx, cmd, p.config.EraseTimeout)
	if err != nil {
		return err
	}
	return protocol.ParseFlashEraseResponse(resp, step.Opcode(), step.Address)
}

// EraseAll erases the whole flash with a single command.
func (p *Programmer) EraseAll(ctx context.Context) error {
	p.begin()
	defer p.mu.Unlock()

	start := time.Now()
	err := p.eraseAll(ctx, start)
	size := 0
	if s := p.session.Load(); s != nil {
		size = int(s.Descriptor.Size)
	}
	p.finish(start, size, err)
	return err
}

func (p *Programmer) eraseAll(ctx context.Context, start time.Time) error {
	if _, err := p.requireSession(); err != nil {
		return err
	}

	p.logInfo("erasing chip")
	p.reportProgress(Progress{Stage: StageErase, Message: "chip", Total: 1, ElapsedTime: time.Since(start)})

	resp, err := p.exchange(ctx, protocol.BuildFlashEraseAllCmd(), p.config.ChipEraseTimeout)
	if err == nil {
		err = protocol.ParseFlashEraseAllResponse(resp)
	}
	if err != nil {
		return stageErr(StageErase, fmt.Errorf("erase chip: %w", err))
	}

	p.reportProgress(Progress{Stage: StageErase, Message: "chip", Current: 1, Total: 1, Percentage: 100, ElapsedTime: time.Since(start)})
	return nil
}

// checkRange rejects ranges that extend beyond the flash capacity.
func checkRange(s *Session, addr uint32, length uint64) error {
	if uint64(addr)+length > uint64(s.Descriptor.Size) {
		return &RangeError{Address: addr, Length: uint32(length), Capacity: s.Descriptor.Size}
	}
	return nil
}
