package simulator

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moffa90/go-t5flash/protocol"
	"github.com/moffa90/go-t5flash/transport"
)

// exchange writes frame and collects whatever the device queued.
func exchange(t *testing.T, d *Device, frame []byte) []byte {
	t.Helper()
	ctx := context.Background()

	w, err := d.AcquireWriter(ctx)
	if err != nil {
		t.Fatalf("AcquireWriter: %v", err)
	}
	if _, err := w.Write(frame); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.Release()

	r, err := d.AcquireReader(ctx)
	if err != nil {
		t.Fatalf("AcquireReader: %v", err)
	}
	defer r.Release()

	var out []byte
	for {
		chunk, err := r.Read(time.Second)
		if errors.Is(err, transport.ErrTimeout) {
			return out
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		out = append(out, chunk...)
	}
}

func TestLinkCheck(t *testing.T) {
	d := New()
	resp := exchange(t, d, protocol.BuildLinkCheckCmd().Frame)
	if err := protocol.ParseLinkCheckResponse(resp); err != nil {
		t.Fatalf("ParseLinkCheckResponse: %v", err)
	}

	d.IgnoreLinkChecks(1)
	if resp := exchange(t, d, protocol.BuildLinkCheckCmd().Frame); len(resp) != 0 {
		t.Errorf("ignored link check produced % X", resp)
	}
	if resp := exchange(t, d, protocol.BuildLinkCheckCmd().Frame); len(resp) == 0 {
		t.Error("link check after the ignored one got no reply")
	}
}

func TestGarbageBeforeCommand(t *testing.T) {
	link := protocol.BuildLinkCheckCmd().Frame

	tests := []struct {
		name   string
		writes [][]byte
	}{
		{name: "long noise", writes: [][]byte{append([]byte{0x55, 0xAA, 0x00, 0x13, 0x37, 0x42, 0x99, 0x12, 0x34}, link...)}},
		{name: "short noise", writes: [][]byte{append([]byte{0x55, 0xAA}, link...)}},
		{name: "false prefix", writes: [][]byte{append([]byte{0x01, 0xE0, 0x55}, link...)}},
		{name: "noise then frame", writes: [][]byte{{0x13, 0x37}, link}},
		{name: "split frame", writes: [][]byte{append([]byte{0x42}, link[:2]...), link[2:]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			for _, w := range tt.writes[:len(tt.writes)-1] {
				if resp := exchange(t, d, w); len(resp) != 0 {
					t.Fatalf("partial input produced % X", resp)
				}
			}
			if err := protocol.ParseLinkCheckResponse(exchange(t, d, tt.writes[len(tt.writes)-1])); err != nil {
				t.Fatalf("device did not resynchronise: %v", err)
			}
		})
	}
}

func TestReplyChunking(t *testing.T) {
	d := New(WithReplyChunk(3))
	ctx := context.Background()

	w, _ := d.AcquireWriter(ctx)
	w.Write(protocol.BuildLinkCheckCmd().Frame)
	w.Release()

	r, _ := d.AcquireReader(ctx)
	defer r.Release()
	chunk, err := r.Read(time.Second)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(chunk) != 3 {
		t.Errorf("chunk length = %d, want 3", len(chunk))
	}
}

func TestHalvesAreExclusive(t *testing.T) {
	d := New()
	ctx := context.Background()

	w, err := d.AcquireWriter(ctx)
	if err != nil {
		t.Fatalf("AcquireWriter: %v", err)
	}
	if _, err := d.AcquireWriter(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("second AcquireWriter error = %v, want ErrBusy", err)
	}
	if err := d.Reconfigure(ctx, 921600); !errors.Is(err, ErrBusy) {
		t.Errorf("Reconfigure while writer held = %v, want ErrBusy", err)
	}
	w.Release()
	w.Release()

	if _, err := d.AcquireWriter(ctx); err != nil {
		t.Errorf("AcquireWriter after release: %v", err)
	}
}

func TestBaudMismatchDropsCommands(t *testing.T) {
	d := New()
	ctx := context.Background()

	ack := exchange(t, d, protocol.BuildSetBaudRateCmd(921600, 20).Frame)
	if _, err := protocol.ParseSetBaudRateResponse(ack); err != nil {
		t.Fatalf("ParseSetBaudRateResponse: %v", err)
	}
	if d.BaudRate() != 921600 {
		t.Fatalf("device baud = %d, want 921600", d.BaudRate())
	}

	if resp := exchange(t, d, protocol.BuildLinkCheckCmd().Frame); len(resp) != 0 {
		t.Error("device answered at the old speed")
	}
	if err := d.Reconfigure(ctx, 921600); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	if err := protocol.ParseLinkCheckResponse(exchange(t, d, protocol.BuildLinkCheckCmd().Frame)); err != nil {
		t.Errorf("link check at new speed: %v", err)
	}
}

func TestProgramAndRead(t *testing.T) {
	d := New()
	data := bytes.Repeat([]byte{0x5A}, protocol.SectorSize)

	cmd, _ := protocol.BuildFlashWrite4KCmd(0x3000, data)
	if err := protocol.ParseFlashWriteResponse(exchange(t, d, cmd.Frame), 0x3000); err != nil {
		t.Fatalf("write: %v", err)
	}

	sector, err := protocol.ParseFlashReadResponse(exchange(t, d, protocol.BuildFlashRead4KCmd(0x3000, false).Frame), 0x3000, false)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(sector.Data, data) {
		t.Error("read back differs from written data")
	}

	crcCmd, _ := protocol.BuildCheckCRCCmd(0x3000, 0x3FFF)
	crc, err := protocol.ParseCheckCRCResponse(exchange(t, d, crcCmd.Frame))
	if err != nil {
		t.Fatalf("crc: %v", err)
	}
	if crc != protocol.CRC32(data) {
		t.Errorf("crc = 0x%08X, want 0x%08X", crc, protocol.CRC32(data))
	}
}

func TestProgramWithoutEraseANDsBits(t *testing.T) {
	d := New(WithContents(0, bytes.Repeat([]byte{0x0F}, protocol.SectorSize)))
	cmd, _ := protocol.BuildFlashWrite4KCmd(0, bytes.Repeat([]byte{0xF1}, protocol.SectorSize))
	exchange(t, d, cmd.Frame)

	if got := d.Contents(0, 1)[0]; got != 0x01 {
		t.Errorf("byte = 0x%02X, want 0x01", got)
	}
}

func TestProtectedFlashRejectsErase(t *testing.T) {
	d := New(WithStatusRegister(0x1C))
	err := protocol.ParseFlashErase4KResponse(exchange(t, d, protocol.BuildFlashErase4KCmd(0).Frame), 0)

	var perr *protocol.ProtocolError
	if !errors.As(err, &perr) || perr.StatusCode != protocol.StatusProtected {
		t.Errorf("error = %v, want protected status", err)
	}
}

func TestDisconnect(t *testing.T) {
	d := New()
	d.Disconnect()

	w, err := d.AcquireWriter(context.Background())
	if err != nil {
		t.Fatalf("AcquireWriter: %v", err)
	}
	defer w.Release()
	_, err = w.Write(protocol.BuildLinkCheckCmd().Frame)
	if !d.IsDisconnected(err) {
		t.Errorf("IsDisconnected(%v) = false", err)
	}
}
