package protocol

// Command is one encoded request together with what its reply must look like.
// Commands are values built per call by the Build* functions.
type Command struct {
	// Name is a short description used in errors and logs
	Name string

	// Family is the frame family the command and its reply use
	Family Family

	// Opcode is the command opcode
	Opcode byte

	// Frame is the complete encoded command
	Frame []byte

	// ReplyOpcode is the opcode echoed by a valid reply
	ReplyOpcode byte

	// ResponseLen is the full size of the reply; zero when the ROM does not answer
	ResponseLen int
}

// ExpectsReply reports whether the ROM answers this command.
func (c Command) ExpectsReply() bool {
	return c.ResponseLen > 0
}

// Validate checks a reply to this command. A flash reply carrying a failure
// status is reported as a *ProtocolError even when it is shorter than a
// successful reply.
func (c Command) Validate(resp []byte) error {
	if err := c.Family.Validate(resp, c.ReplyOpcode); err != nil {
		return err
	}
	if len(resp) != c.ResponseLen {
		return frameErrorf(c.Family.Name(), "%s reply has %d bytes, expected %d", c.Name, len(resp), c.ResponseLen)
	}
	return nil
}

// Register is a 32-bit register address/value pair.
type Register struct {
	Address uint32
	Value   uint32
}

// BaudRateAck is the ROM's echo of a speed change request.
type BaudRateAck struct {
	// BaudRate is the speed the ROM will switch to
	BaudRate uint32

	// DelayMs is the delay the ROM waits before switching
	DelayMs byte
}

// StatusRegister is one status register byte as reported by the flash.
type StatusRegister struct {
	// Opcode is the SPI opcode used to read or write the byte
	Opcode byte

	// Value is the register content
	Value byte
}

// Sector is one 4 KiB read reply.
type Sector struct {
	Address uint32
	Data    []byte
}
