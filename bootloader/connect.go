package bootloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-t5flash/flashdb"
	"github.com/moffa90/go-t5flash/protocol"
)

// Connect performs the handshake with the ROM bootloader:
//  1. Link check, retried up to LinkCheckRetries times
//  2. Read the chip ID and select the chip family
//  3. Read the flash JEDEC ID and look up its descriptor
//  4. Clear the flash block protection bits
//  5. Switch to the configured baud rate and check the link again
//
// The device must already be in its ROM bootloader. Any failure leaves the
// programmer disconnected and is reported as a *StageError naming the step.
//
// Example:
//
//	session, err := prog.Connect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(session)
func (p *Programmer) Connect(ctx context.Context) (*Session, error) {
	p.begin()
	defer p.mu.Unlock()

	if p.session.Load() != nil {
		return nil, ErrAlreadyConnected
	}

	start := time.Now()
	s, err := p.connect(ctx, start)
	if err != nil {
		p.setState(StateDisconnected)
		p.finish(start, 0, err)
		return nil, err
	}

	p.session.Store(s)
	p.setState(StateConnected)
	p.logInfo("connected",
		"chip_id", fmt.Sprintf("0x%X", s.ChipID),
		"family", s.Family.Name,
		"flash", s.Descriptor.String(),
		"baud", s.BaudRate,
		"elapsed", time.Since(start).String(),
	)
	p.finish(start, 0, nil)
	return p.Session(), nil
}

func (p *Programmer) connect(ctx context.Context, start time.Time) (*Session, error) {
	s := newSession(p.config.InitialBaudRate)

	p.setState(StateLinkChecking)
	if err := p.linkCheck(ctx, start); err != nil {
		return nil, stageErr(StageLink, err)
	}

	p.reportStage(StageChipID, start, "reading chip ID")
	chipID, err := p.readChipID(ctx)
	if err != nil {
		return nil, stageErr(StageChipID, err)
	}
	family, known := protocol.ChipFamilyByID(chipID)
	if !known {
		p.logWarn("unknown chip ID, using generic family", "chip_id", fmt.Sprintf("0x%X", chipID))
	}
	s.ChipID = chipID
	s.Family = family
	p.setState(StateChipIdentified)
	p.logInfo("chip identified", "chip_id", fmt.Sprintf("0x%X", chipID), "family", family.Name, "crc", family.CRC.String())

	p.reportStage(StageFlashID, start, "reading flash ID")
	flashID, err := p.readFlashID(ctx)
	if err != nil {
		return nil, stageErr(StageFlashID, err)
	}
	desc, err := p.config.FlashTable.Lookup(flashID)
	if errors.Is(err, flashdb.ErrNotFound) {
		desc = flashdb.Fallback(flashID)
		p.logWarn("unknown flash ID, using fallback descriptor",
			"flash_id", fmt.Sprintf("0x%06X", flashID),
			"size", flashdb.FormatSize(desc.Size),
		)
	} else if err != nil {
		return nil, stageErr(StageFlashID, err)
	}
	s.FlashID = flashID
	s.Descriptor = desc
	p.setState(StateFlashIdentified)
	p.logInfo("flash identified", "flash_id", fmt.Sprintf("0x%06X", flashID), "part", desc.String())

	p.reportStage(StageUnprotect, start, "clearing write protection")
	if err := p.unprotect(ctx, desc); err != nil {
		return nil, stageErr(StageUnprotect, err)
	}
	p.setState(StateFlashUnprotected)

	if p.config.BaudRate != p.config.InitialBaudRate {
		p.reportStage(StageSpeed, start, fmt.Sprintf("switching to %d baud", p.config.BaudRate))
		if err := p.changeSpeed(ctx, start); err != nil {
			return nil, stageErr(StageSpeed, err)
		}
		s.BaudRate = p.config.BaudRate
	}

	return s, nil
}

func (p *Programmer) reportStage(stage Stage, start time.Time, msg string) {
	p.logDebug(msg)
	p.reportProgress(Progress{
		Stage:       stage,
		Message:     msg,
		ElapsedTime: time.Since(start),
	})
}

// linkCheck probes the ROM until it answers. Transport failures and
// cancellation end the loop at once; every other failure is retried.
func (p *Programmer) linkCheck(ctx context.Context, start time.Time) error {
	retries := p.config.LinkCheckRetries
	var lastErr error

	for attempt := 1; attempt <= retries; attempt++ {
		p.reportProgress(Progress{
			Stage:       StageLink,
			Message:     fmt.Sprintf("link check %d/%d", attempt, retries),
			Current:     attempt,
			Total:       retries,
			Percentage:  percent(attempt, retries),
			ElapsedTime: time.Since(start),
		})

		resp, err := p.exchange(ctx, protocol.BuildLinkCheckCmd(), p.config.ControlTimeout)
		if err == nil {
			err = protocol.ParseLinkCheckResponse(resp)
		}
		if err == nil {
			p.logDebug("link established", "attempt", attempt)
			return nil
		}
		if IsCancelled(err) || IsTransportError(err) {
			return err
		}

		lastErr = err
		p.logDebug("link check failed", "attempt", attempt, "error", err)
		if attempt < retries {
			if err := p.sleep(ctx, p.config.LinkCheckDelay); err != nil {
				return err
			}
		}
	}

	return &StageError{
		Stage:   StageLink,
		Message: fmt.Sprintf("link check failed after %d attempts, verify cabling/speed", retries),
		Err:     lastErr,
	}
}

func (p *Programmer) readChipID(ctx context.Context) (uint32, error) {
	resp, err := p.exchange(ctx, protocol.BuildReadRegCmd(protocol.ChipIDRegister), p.config.ControlTimeout)
	if err != nil {
		return 0, err
	}
	return protocol.ParseChipIDResponse(resp)
}

func (p *Programmer) readFlashID(ctx context.Context) (uint32, error) {
	resp, err := p.exchange(ctx, protocol.BuildGetMIDCmd(), p.config.ControlTimeout)
	if err != nil {
		return 0, err
	}
	return protocol.ParseGetMIDResponse(resp)
}

// readStatusRegister reads every status register byte of d, SR1 in the low byte.
func (p *Programmer) readStatusRegister(ctx context.Context, d flashdb.Descriptor) (uint16, error) {
	var sr uint16
	for i, op := range d.ReadSR {
		resp, err := p.exchange(ctx, protocol.BuildReadSRCmd(op), p.config.ControlTimeout)
		if err != nil {
			return 0, fmt.Errorf("read status register 0x%02X: %w", op, err)
		}
		reg, err := protocol.ParseReadSRResponse(resp, op)
		if err != nil {
			return 0, fmt.Errorf("read status register 0x%02X: %w", op, err)
		}
		sr |= uint16(reg.Value) << (8 * i)
	}
	return sr, nil
}

// writeStatusRegister writes value either with one opcode carrying all
// bytes, or with one opcode per byte.
func (p *Programmer) writeStatusRegister(ctx context.Context, d flashdb.Descriptor, value uint16) error {
	writes := make([][]byte, 0, 2)
	if d.WritesSeparately() {
		for i := range d.WriteSR {
			writes = append(writes, []byte{byte(value >> (8 * i))})
		}
	} else {
		b := []byte{byte(value)}
		if d.StatusRegisterSize > 1 {
			b = append(b, byte(value>>8))
		}
		writes = append(writes, b)
	}

	for i, b := range writes {
		op := d.WriteSR[i]
		cmd, err := protocol.BuildWriteSRCmd(op, b)
		if err != nil {
			return err
		}
		resp, err := p.exchange(ctx, cmd, p.config.ControlTimeout)
		if err != nil {
			return fmt.Errorf("write status register 0x%02X: %w", op, err)
		}
		if _, err := protocol.ParseWriteSRResponse(resp, op, len(b)); err != nil {
			return fmt.Errorf("write status register 0x%02X: %w", op, err)
		}
	}
	return nil
}

// unprotect clears the block protection bits of the flash and reads the
// status register back to confirm.
func (p *Programmer) unprotect(ctx context.Context, d flashdb.Descriptor) error {
	sr, err := p.readStatusRegister(ctx, d)
	if err != nil {
		return err
	}
	if d.IsUnprotected(sr) {
		p.logDebug("flash already unprotected", "status", fmt.Sprintf("0x%04X", sr))
		return nil
	}

	want := d.UnprotectedValue(sr)
	p.logDebug("clearing protection", "status", fmt.Sprintf("0x%04X", sr), "new", fmt.Sprintf("0x%04X", want))
	if err := p.writeStatusRegister(ctx, d, want); err != nil {
		return err
	}

	got, err := p.readStatusRegister(ctx, d)
	if err != nil {
		return err
	}
	if !d.IsUnprotected(got) {
		return fmt.Errorf("status register reads 0x%04X after writing 0x%04X", got, want)
	}
	p.logInfo("flash unprotected", "status", fmt.Sprintf("0x%04X", got))
	return nil
}

// changeSpeed asks the ROM to switch to the configured speed, follows it
// on the transport and checks the link again.
func (p *Programmer) changeSpeed(ctx context.Context, start time.Time) error {
	target := p.config.BaudRate
	delayMs := byte(p.config.SpeedSwitchDelay / time.Millisecond)

	resp, err := p.exchange(ctx, protocol.BuildSetBaudRateCmd(uint32(target), delayMs), p.config.ControlTimeout)
	if err != nil {
		return err
	}
	ack, err := protocol.ParseSetBaudRateResponse(resp)
	if err != nil {
		return err
	}
	if int(ack.BaudRate) != target {
		return fmt.Errorf("ROM acknowledged %d baud, requested %d", ack.BaudRate, target)
	}

	if err := p.sleep(ctx, p.config.SpeedSwitchDelay); err != nil {
		return err
	}
	if err := p.transport.Reconfigure(ctx, target); err != nil {
		return p.transportError("reconfigure", err)
	}
	p.logDebug("transport reconfigured", "baud", target)

	if err := p.linkCheck(ctx, start); err != nil {
		return fmt.Errorf("no link at %d baud: %w", target, err)
	}
	return nil
}

// Disconnect closes the session. The transport is left open and at its
// current speed; the caller owns it.
func (p *Programmer) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeSession("disconnect requested")
}

// Reboot restarts the chip out of the ROM bootloader and closes the
// session. The transport is set back to the initial baud rate so a later
// Connect can find the ROM again.
func (p *Programmer) Reboot(ctx context.Context) error {
	p.begin()
	defer p.mu.Unlock()

	s, err := p.requireSession()
	if err != nil {
		return err
	}

	start := time.Now()
	p.reportStage(StageReboot, start, "rebooting")
	if _, err := p.exchange(ctx, protocol.BuildRebootCmd(), 0); err != nil {
		err = stageErr(StageReboot, err)
		p.finish(start, 0, err)
		return err
	}
	p.closeSession("reboot")

	if s.BaudRate != p.config.InitialBaudRate {
		if err := p.transport.Reconfigure(ctx, p.config.InitialBaudRate); err != nil {
			err = stageErr(StageReboot, p.transportError("reconfigure", err))
			p.finish(start, 0, err)
			return err
		}
	}
	p.finish(start, 0, nil)
	return nil
}
