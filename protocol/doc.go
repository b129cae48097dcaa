// Package protocol implements the wire format of the T5/BK ROM bootloader.
//
// The ROM speaks two incompatible frame families over one UART.
//
// # Control family
//
// Used for the link probe, register access, speed changes and CRC checks:
//
//	Command:  [01 E0 FC][LEN][OP][PAYLOAD...]          LEN = 1 + len(PAYLOAD)
//	Response: [04 0E][LEN][01 E0 FC][OP][DATA...]      LEN = total - 3
//
// # Flash family
//
// Used for every SPI flash operation:
//
//	Command:  [01 E0 FC FF F4][LEN_L LEN_H][OP][PAYLOAD...]              LEN = 1 + len(PAYLOAD)
//	Response: [04 0E FF 01 E0 FC F4][LEN_L LEN_H][STATUS][OP][DATA...]   LEN = total - 9
//
// STATUS sits at index 9 and is 0x00 on success.
//
// # Commands and replies
//
// Build* functions return a Command value holding the encoded frame, its
// family and the exact size of a successful reply:
//
//	cmd := protocol.BuildFlashRead4KCmd(0x11000, false)
//	// write cmd.Frame, read cmd.ResponseLen bytes
//	sector, err := protocol.ParseFlashReadResponse(resp, 0x11000, false)
//
// Parse* functions validate the whole reply before decoding and return an
// error value for any header, length, echo or status problem:
//   - *FrameError: the reply does not have the expected layout
//   - *ProtocolError: a flash reply carried a failure status
//
// # CRC
//
// CRC32 is the reflected IEEE 802.3 CRC used by the CRC check command.
// Whether a chip family needs the check at all is described by its CRCPolicy.
package protocol
