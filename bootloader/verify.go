package bootloader

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-t5flash/protocol"
)

// VerifyResult is the outcome of comparing flash content with an image.
// A mismatch is a result, not an error: the caller decides whether to
// write again.
type VerifyResult struct {
	// Address and Length describe the verified range
	Address uint32
	Length  uint32

	// Policy is the verification rule of the chip family
	Policy protocol.CRCPolicy

	// Expected is the CRC32 of the image
	Expected uint32

	// Actual is the CRC32 reported by the device. Equal to Expected when
	// the family verifies implicitly.
	Actual uint32

	// Match reports whether the flash holds the image
	Match bool
}

func (r *VerifyResult) String() string {
	if r.Policy == protocol.CRCPolicyImplicit {
		return fmt.Sprintf("verified by the ROM while writing (crc 0x%08X)", r.Expected)
	}
	if r.Match {
		return fmt.Sprintf("crc 0x%08X matches", r.Expected)
	}
	return fmt.Sprintf("crc mismatch: expected 0x%08X, device has 0x%08X", r.Expected, r.Actual)
}

// Verify compares the flash at addr with data using the CRC policy of the
// connected chip family.
//
// Example:
//
//	result, err := prog.Verify(ctx, addr, image)
//	if err != nil {
//	    return err
//	}
//	if !result.Match {
//	    // write again or give up
//	}
func (p *Programmer) Verify(ctx context.Context, addr uint32, data []byte) (*VerifyResult, error) {
	p.begin()
	defer p.mu.Unlock()

	start := time.Now()
	result, err := p.verify(ctx, start, addr, data)
	p.finish(start, len(data), err)
	return result, err
}

func (p *Programmer) verify(ctx context.Context, start time.Time, addr uint32, data []byte) (*VerifyResult, error) {
	s, err := p.requireSession()
	if err != nil {
		return nil, err
	}
	if err := checkRange(s, addr, uint64(len(data))); err != nil {
		return nil, stageErr(StageVerify, err)
	}
	if err := p.checkCancel(ctx); err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Address:  addr,
		Length:   uint32(len(data)),
		Policy:   s.Family.CRC,
		Expected: protocol.CRC32(data),
	}
	p.reportProgress(Progress{
		Stage:       StageVerify,
		Message:     hex32(addr),
		Total:       1,
		Address:     addr,
		ElapsedTime: time.Since(start),
	})

	if len(data) == 0 || s.Family.CRC == protocol.CRCPolicyImplicit {
		result.Actual = result.Expected
		result.Match = true
		p.logDebug("verification implicit", "family", s.Family.Name, "crc", hex32(result.Expected))
	} else {
		actual, err := p.deviceCRC(ctx, addr, uint32(len(data)))
		if err != nil {
			return nil, stageErr(StageVerify, err)
		}
		result.Actual = actual
		result.Match = actual == result.Expected
		if !result.Match {
			p.logWarn("crc mismatch", "address", hex32(addr), "expected", hex32(result.Expected), "actual", hex32(actual))
		}
	}

	p.reportProgress(Progress{
		Stage:       StageVerify,
		Message:     result.String(),
		Current:     1,
		Total:       1,
		Address:     addr,
		Percentage:  100,
		BytesDone:   len(data),
		ElapsedTime: time.Since(start),
	})
	return result, nil
}

func (p *Programmer) deviceCRC(ctx context.Context, addr, length uint32) (uint32, error) {
	cmd, err := protocol.BuildCheckCRCCmd(addr, addr+length-1)
	if err != nil {
		return 0, err
	}
	resp, err := p.exchange(ctx, cmd, p.config.VerifyTimeout)
	if err != nil {
		return 0, fmt.Errorf("check CRC: %w", err)
	}
	return protocol.ParseCheckCRCResponse(resp)
}

// Flash erases the range covered by data, writes data and verifies it.
// The result of the verification is returned; a mismatch is not an error.
//
// Example:
//
//	img, _ := firmware.Parse("app.bin")
//	result, err := prog.Flash(ctx, img.BaseAddress, img.Data)
func (p *Programmer) Flash(ctx context.Context, addr uint32, data []byte) (*VerifyResult, error) {
	p.begin()
	defer p.mu.Unlock()

	start := time.Now()
	result, err := p.flash(ctx, start, addr, data)
	p.finish(start, len(data), err)
	return result, err
}

func (p *Programmer) flash(ctx context.Context, start time.Time, addr uint32, data []byte) (*VerifyResult, error) {
	if err := p.erase(ctx, start, addr, uint32(len(data))); err != nil {
		return nil, err
	}
	if _, err := p.write(ctx, start, addr, data); err != nil {
		return nil, err
	}
	result, err := p.verify(ctx, start, addr, data)
	if err != nil {
		return nil, err
	}
	p.logInfo("flash complete",
		"address", hex32(addr),
		"bytes", len(data),
		"match", result.Match,
		"elapsed", time.Since(start).String(),
	)
	return result, nil
}
