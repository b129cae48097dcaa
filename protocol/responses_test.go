package protocol

import (
	"encoding/binary"
	"testing"
)

func TestControlValidate(t *testing.T) {
	valid := EncodeControlResponse(CmdLinkCheckReply, []byte{0x00})

	t.Run("valid", func(t *testing.T) {
		if err := Control.Validate(valid, CmdLinkCheckReply); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("declared length", func(t *testing.T) {
		if valid[ControlLengthOffset] != byte(len(valid)-3) {
			t.Errorf("declared length = %d, want %d", valid[ControlLengthOffset], len(valid)-3)
		}
	})

	// Corrupting any single header byte must fail validation.
	for i := 0; i < ControlResponseHeaderSize; i++ {
		corrupted := append([]byte(nil), valid...)
		corrupted[i] ^= 0xFF
		if err := Control.Validate(corrupted, CmdLinkCheckReply); err == nil {
			t.Errorf("corrupting header byte %d was accepted", i)
		} else if !IsFrameError(err) {
			t.Errorf("corrupting header byte %d: got %T, want *FrameError", i, err)
		}
	}

	t.Run("too short", func(t *testing.T) {
		if err := Control.Validate(valid[:4], CmdLinkCheckReply); err == nil {
			t.Error("expected error for short frame")
		}
	})
}

func TestFlashValidate(t *testing.T) {
	valid := EncodeFlashResponse(StatusSuccess, CmdFlashGetMID, []byte{0xC8, 0x40, 0x16, 0x00})

	if err := Flash.Validate(valid, CmdFlashGetMID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	declared := binary.LittleEndian.Uint16(valid[FlashLengthOffset:])
	if int(declared) != len(valid)-9 {
		t.Errorf("declared length = %d, want %d", declared, len(valid)-9)
	}

	for i := 0; i < FlashResponseHeaderSize; i++ {
		if i == FlashStatusOffset {
			continue
		}
		corrupted := append([]byte(nil), valid...)
		corrupted[i] ^= 0xFF
		if err := Flash.Validate(corrupted, CmdFlashGetMID); err == nil {
			t.Errorf("corrupting header byte %d was accepted", i)
		}
	}

	t.Run("bad status", func(t *testing.T) {
		failed := EncodeFlashResponse(StatusProgramFailed, CmdFlashWrite4K, []byte{0, 0, 0, 0})
		err := Flash.Validate(failed, CmdFlashWrite4K)
		if !IsProtocolError(err) {
			t.Fatalf("got %v, want *ProtocolError", err)
		}
		if failed[9] != StatusProgramFailed {
			t.Errorf("status at index 9 = 0x%02X", failed[9])
		}
	})
}

func TestCommandValidateShortFailureReply(t *testing.T) {
	cmd, _ := BuildFlashWrite4KCmd(0x1000, make([]byte, SectorSize))
	short := EncodeFlashResponse(StatusProtected, CmdFlashWrite4K, nil)

	err := cmd.Validate(short)
	if !IsProtocolError(err) {
		t.Fatalf("got %v, want *ProtocolError", err)
	}
}

func TestParseLinkCheckResponse(t *testing.T) {
	tests := []struct {
		name    string
		resp    []byte
		wantErr bool
	}{
		{name: "valid", resp: []byte{0x04, 0x0E, 0x05, 0x01, 0xE0, 0xFC, 0x01, 0x00}},
		{name: "wrong value", resp: []byte{0x04, 0x0E, 0x05, 0x01, 0xE0, 0xFC, 0x01, 0x01}, wantErr: true},
		{name: "wrong opcode", resp: []byte{0x04, 0x0E, 0x05, 0x01, 0xE0, 0xFC, 0x00, 0x00}, wantErr: true},
		{name: "empty", resp: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseLinkCheckResponse(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseChipIDResponse(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], ChipIDRegister)
	binary.LittleEndian.PutUint32(data[4:8], 0x7258)
	resp := EncodeControlResponse(CmdReadReg, data)

	id, err := ParseChipIDResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0x7258 {
		t.Errorf("chip ID = 0x%X, want 0x7258", id)
	}
	if got := binary.LittleEndian.Uint32(resp[11:15]); got != id {
		t.Errorf("chip ID is not at offset 11")
	}

	binary.LittleEndian.PutUint32(data[0:4], 0x12345678)
	if _, err := ParseChipIDResponse(EncodeControlResponse(CmdReadReg, data)); err == nil {
		t.Error("expected error for wrong register echo")
	}
}

func TestParseGetMIDResponse(t *testing.T) {
	resp := EncodeFlashResponse(StatusSuccess, CmdFlashGetMID, []byte{0xC8, 0x40, 0x16, 0x00})

	id, err := ParseGetMIDResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0x1640C8 {
		t.Errorf("flash ID = 0x%06X, want 0x1640C8", id)
	}

	if _, err := ParseGetMIDResponse(resp[:len(resp)-1]); err == nil {
		t.Error("expected error for truncated reply")
	}
}

func TestParseFlashReadResponse(t *testing.T) {
	payload := make([]byte, 4+SectorSize)
	binary.LittleEndian.PutUint32(payload, 0x2000)
	for i := 4; i < len(payload); i++ {
		payload[i] = byte(i)
	}

	t.Run("standard", func(t *testing.T) {
		resp := EncodeFlashResponse(StatusSuccess, CmdFlashRead4K, payload)
		sector, err := ParseFlashReadResponse(resp, 0x2000, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sector.Data) != SectorSize || sector.Data[0] != 4 {
			t.Errorf("unexpected sector data")
		}
	})

	t.Run("extended opcode mismatch", func(t *testing.T) {
		resp := EncodeFlashResponse(StatusSuccess, CmdFlashRead4K, payload)
		if _, err := ParseFlashReadResponse(resp, 0x2000, true); err == nil {
			t.Error("expected error when the reply echoes the standard opcode")
		}
	})

	t.Run("address echo", func(t *testing.T) {
		resp := EncodeFlashResponse(StatusSuccess, CmdFlashRead4K, payload)
		if _, err := ParseFlashReadResponse(resp, 0x3000, false); err == nil {
			t.Error("expected error for wrong address echo")
		}
	})
}

func TestParseSetBaudRateResponse(t *testing.T) {
	resp := EncodeControlResponse(CmdSetBaudRate, []byte{0x00, 0x10, 0x0E, 0x00, 0x14})

	ack, err := ParseSetBaudRateResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ack.BaudRate != 921600 || ack.DelayMs != 20 {
		t.Errorf("ack = %+v", ack)
	}
}

func TestParseCheckCRCResponse(t *testing.T) {
	resp := EncodeControlResponse(CmdCheckCRC, []byte{0x26, 0x39, 0xF4, 0xCB})

	crc, err := ParseCheckCRCResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crc != 0xCBF43926 {
		t.Errorf("crc = 0x%08X, want 0xCBF43926", crc)
	}
}

func TestParseReadSRResponse(t *testing.T) {
	resp := EncodeFlashResponse(StatusSuccess, CmdFlashReadSR, []byte{0x35, 0x42})

	sr, err := ParseReadSRResponse(resp, 0x35)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sr.Value != 0x42 {
		t.Errorf("value = 0x%02X, want 0x42", sr.Value)
	}

	if _, err := ParseReadSRResponse(resp, 0x05); err == nil {
		t.Error("expected error for wrong opcode echo")
	}
}

func TestProtocolErrorMessage(t *testing.T) {
	err := &ProtocolError{Operation: "write sector", StatusCode: StatusProtected}
	want := "write sector failed: write protected (0x07)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
