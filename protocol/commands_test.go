package protocol

import (
	"bytes"
	"testing"
)

func TestControlEncode(t *testing.T) {
	tests := []struct {
		name     string
		op       byte
		payload  []byte
		expected []byte
	}{
		{
			name:     "no payload",
			op:       CmdLinkCheck,
			payload:  nil,
			expected: []byte{0x01, 0xE0, 0xFC, 0x01, 0x00},
		},
		{
			name:     "register read",
			op:       CmdReadReg,
			payload:  []byte{0x04, 0x00, 0x01, 0x44},
			expected: []byte{0x01, 0xE0, 0xFC, 0x05, 0x03, 0x04, 0x00, 0x01, 0x44},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Control.Encode(tt.op, tt.payload)
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Encode() = % X, want % X", got, tt.expected)
			}
		})
	}
}

func TestFlashEncodeLengthIsLittleEndian(t *testing.T) {
	frame := Flash.Encode(0x42, []byte{1, 2, 3, 4, 5})

	if frame[5] != 0x06 || frame[6] != 0x00 {
		t.Errorf("length bytes = [0x%02X, 0x%02X], want [0x06, 0x00]", frame[5], frame[6])
	}
	if frame[7] != 0x42 {
		t.Errorf("opcode = 0x%02X, want 0x42", frame[7])
	}
	if len(frame) != FlashHeaderSize+5 {
		t.Errorf("frame length = %d, want %d", len(frame), FlashHeaderSize+5)
	}

	big := Flash.Encode(CmdFlashWrite4K, make([]byte, 4+SectorSize))
	if big[5] != 0x05 || big[6] != 0x10 {
		t.Errorf("sector write length bytes = [0x%02X, 0x%02X], want [0x05, 0x10]", big[5], big[6])
	}
}

func TestBuildLinkCheckCmd(t *testing.T) {
	cmd := BuildLinkCheckCmd()

	if cmd.Family != Control {
		t.Errorf("family = %s, want control", cmd.Family.Name())
	}
	if cmd.ReplyOpcode != CmdLinkCheckReply {
		t.Errorf("reply opcode = 0x%02X, want 0x%02X", cmd.ReplyOpcode, CmdLinkCheckReply)
	}
	if cmd.ResponseLen != 8 {
		t.Errorf("response length = %d, want 8", cmd.ResponseLen)
	}
}

func TestBuildSetBaudRateCmd(t *testing.T) {
	cmd := BuildSetBaudRateCmd(921600, 20)
	expected := []byte{0x01, 0xE0, 0xFC, 0x06, 0x0F, 0x00, 0x10, 0x0E, 0x00, 0x14}

	if !bytes.Equal(cmd.Frame, expected) {
		t.Errorf("frame = % X, want % X", cmd.Frame, expected)
	}
}

func TestBuildCheckCRCCmd(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		cmd, err := BuildCheckCRCCmd(0x1000, 0x1FFF)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := []byte{0x01, 0xE0, 0xFC, 0x09, 0x10, 0x00, 0x10, 0x00, 0x00, 0xFF, 0x1F, 0x00, 0x00}
		if !bytes.Equal(cmd.Frame, expected) {
			t.Errorf("frame = % X, want % X", cmd.Frame, expected)
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		if _, err := BuildCheckCRCCmd(0x2000, 0x1000); err == nil {
			t.Error("expected error for inverted range")
		}
	})
}

func TestBuildFlashWrite4KCmd(t *testing.T) {
	tests := []struct {
		name    string
		addr    uint32
		data    []byte
		wantErr bool
	}{
		{name: "full sector", addr: 0x11000, data: make([]byte, SectorSize)},
		{name: "short data", addr: 0x11000, data: make([]byte, 100), wantErr: true},
		{name: "unaligned address", addr: 0x11001, data: make([]byte, SectorSize), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := BuildFlashWrite4KCmd(tt.addr, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cmd.Frame[7] != CmdFlashWrite4K {
				t.Errorf("opcode = 0x%02X, want 0x%02X", cmd.Frame[7], CmdFlashWrite4K)
			}
			if !bytes.Equal(cmd.Frame[8:12], []byte{0x00, 0x10, 0x01, 0x00}) {
				t.Errorf("address bytes = % X", cmd.Frame[8:12])
			}
		})
	}
}

func TestBuildFlashRead4KCmdExtended(t *testing.T) {
	if op := BuildFlashRead4KCmd(0, false).Frame[7]; op != CmdFlashRead4K {
		t.Errorf("standard opcode = 0x%02X, want 0x%02X", op, CmdFlashRead4K)
	}
	if op := BuildFlashRead4KCmd(0, true).Frame[7]; op != CmdFlashRead4KExt {
		t.Errorf("extended opcode = 0x%02X, want 0x%02X", op, CmdFlashRead4KExt)
	}
}

func TestBuildFlashEraseCmd(t *testing.T) {
	cmd, err := BuildFlashEraseCmd(SPIErase64K, 0x10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []byte{0x01, 0xE0, 0xFC, 0xFF, 0xF4, 0x06, 0x00, 0x0F, 0xD8, 0x00, 0x00, 0x01, 0x00}
	if !bytes.Equal(cmd.Frame, expected) {
		t.Errorf("frame = % X, want % X", cmd.Frame, expected)
	}

	if _, err := BuildFlashEraseCmd(0x99, 0); err == nil {
		t.Error("expected error for unsupported erase opcode")
	}
}

func TestBuildWriteSRCmd(t *testing.T) {
	if _, err := BuildWriteSRCmd(0x01, nil); err == nil {
		t.Error("expected error for empty value")
	}
	if _, err := BuildWriteSRCmd(0x01, []byte{1, 2, 3}); err == nil {
		t.Error("expected error for 3-byte value")
	}

	cmd, err := BuildWriteSRCmd(0x01, []byte{0x00, 0x02})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.ResponseLen != FlashResponseHeaderSize+3 {
		t.Errorf("response length = %d, want %d", cmd.ResponseLen, FlashResponseHeaderSize+3)
	}
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name       string
		frame      []byte
		wantFamily Family
		wantOp     byte
		wantLen    int
		wantOK     bool
	}{
		{name: "control", frame: BuildReadRegCmd(ChipIDRegister).Frame, wantFamily: Control, wantOp: CmdReadReg, wantLen: 4, wantOK: true},
		{name: "flash", frame: BuildFlashErase4KCmd(0x1000).Frame, wantFamily: Flash, wantOp: CmdFlashErase4K, wantLen: 4, wantOK: true},
		{name: "truncated", frame: BuildFlashErase4KCmd(0x1000).Frame[:9], wantOK: false},
		{name: "garbage", frame: []byte{0x55, 0x55, 0x55, 0x55, 0x55}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			family, op, payload, ok := DecodeCommand(tt.frame)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if family != tt.wantFamily || op != tt.wantOp || len(payload) != tt.wantLen {
				t.Errorf("got (%s, 0x%02X, %d bytes), want (%s, 0x%02X, %d bytes)",
					family.Name(), op, len(payload), tt.wantFamily.Name(), tt.wantOp, tt.wantLen)
			}
		})
	}
}

func TestCommandLen(t *testing.T) {
	flashFrame := BuildFlashRead4KCmd(0, false).Frame
	controlFrame := BuildLinkCheckCmd().Frame

	if _, ok := CommandLen(flashFrame[:4]); ok {
		t.Error("4 bytes of a flash command must not be taken for a control command")
	}
	if n, ok := CommandLen(flashFrame[:7]); !ok || n != len(flashFrame) {
		t.Errorf("CommandLen(flash) = %d, %v, want %d", n, ok, len(flashFrame))
	}
	if n, ok := CommandLen(controlFrame[:4]); !ok || n != len(controlFrame) {
		t.Errorf("CommandLen(control) = %d, %v, want %d", n, ok, len(controlFrame))
	}
}

func TestMayStartCommand(t *testing.T) {
	tests := []struct {
		name    string
		partial []byte
		want    bool
	}{
		{name: "empty", partial: nil, want: true},
		{name: "first byte", partial: []byte{0x01}, want: true},
		{name: "two bytes", partial: []byte{0x01, 0xE0}, want: true},
		{name: "flash prefix", partial: []byte{0x01, 0xE0, 0xFC, 0xFF, 0xF4}, want: true},
		{name: "noise", partial: []byte{0x55}, want: false},
		{name: "broken prefix", partial: []byte{0x01, 0xE0, 0x55}, want: false},
		{name: "noise before frame", partial: append([]byte{0x55}, BuildLinkCheckCmd().Frame...), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MayStartCommand(tt.partial); got != tt.want {
				t.Errorf("MayStartCommand(% X) = %v, want %v", tt.partial, got, tt.want)
			}
		})
	}
}
