// Package firmware loads flash images for the bootloader.
//
// Raw binaries are taken as they are and located at address zero unless
// the caller moves them with Image.WithBase. Intel HEX files are decoded
// with their own addresses; gaps between data segments are filled with
// 0xFF, the erased state of NOR flash, so the result can be written in
// one pass.
//
//	img, err := firmware.Parse("app.hex")
//	if err != nil {
//	    return err
//	}
//	result, err := prog.Flash(ctx, img.BaseAddress, img.Data)
package firmware
