// Package bootloader provides a high-level API for flashing T5/BK chips through their ROM bootloader.
//
// # Overview
//
// This package drives the complete flashing sequence:
//   - Establishing the link with the ROM (bounded retries)
//   - Identifying the chip family and the external SPI flash
//   - Clearing the flash block protection bits
//   - Switching the UART to a faster speed
//   - Erasing, writing, reading and verifying flash sector by sector
//
// # Basic Usage
//
//	port, err := transport.OpenSerial("/dev/ttyUSB0", 115200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	img, err := firmware.Parse("app.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prog := bootloader.New(port)
//	if _, err := prog.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	result, err := prog.Flash(ctx, img.BaseAddress, img.Data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Match {
//	    log.Fatal(result)
//	}
//
// # Progress Tracking
//
//	prog := bootloader.New(port,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %d/%d %s\n", p.Stage, p.Current, p.Total, p.Message)
//	    }),
//	)
//
// # Cancellation
//
// Operations stop at the next sector or command boundary when Cancel is
// called from another goroutine or their context is done. They then
// return an error for which IsCancelled is true; it is never a
// *StageError.
//
// # Error Handling
//
// Fatal failures are reported as *StageError naming the failing step
// (link, chip-id, flash-id, unprotect, speed, erase, write, read, verify).
// The cause can be inspected with errors.As:
//   - TransportError: the device went away or the port failed
//   - TimeoutError: a reply did not arrive in time
//   - RangeError, AlignmentError: invalid address arguments
//   - protocol.ProtocolError: the ROM reported a failure status
//   - protocol.FrameError: the reply was malformed
//
// A CRC mismatch is not an error; Verify and Flash report it in VerifyResult.
//
// # Transport
//
// The programmer talks through a transport.Transport. transport.Serial
// covers real hardware; the simulator package provides an in-memory ROM
// for tests.
package bootloader
