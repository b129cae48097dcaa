// Package simulator provides an in-memory T5/BK ROM bootloader.
//
// A Device implements transport.Transport, so a bootloader.Programmer can be
// driven against it without hardware:
//
//	dev := simulator.New(simulator.WithFlashID(0x1640C8))
//	prog := bootloader.New(dev)
//	session, err := prog.Connect(ctx)
//
// The device decodes command frames as they are written, keeps a sparse
// model of the flash and its status register, and queues the ROM's replies
// for the reader half. Fault injection methods reproduce the failure modes
// seen on real hardware: lost link checks, failed sector programs, CRC
// mismatches, a speed change the ROM never applies, and a disconnected cable.
//
// Simulated time does not pass. A Read with nothing queued reports
// transport.ErrTimeout immediately.
package simulator
