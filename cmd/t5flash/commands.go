package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-t5flash/bootloader"
	"github.com/moffa90/go-t5flash/firmware"
	"github.com/moffa90/go-t5flash/flashdb"
)

// Command flags
var (
	address     string
	length      string
	outputPath  string
	imageFormat string
	eraseAll    bool
	noVerify    bool
	rebootAfter bool
)

// infoCmd implements the 'info' command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Identify the chip and its flash",
	Example: `  t5flash info -p /dev/ttyUSB0
  t5flash info --simulate -v`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	d, err := connect(cmd)
	if err != nil {
		return err
	}
	defer d.close()
	defer d.prog.Disconnect()

	s := d.session
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Chip ID:\t0x%X\n", s.ChipID)
	fmt.Fprintf(w, "Family:\t%s\n", s.Family)
	fmt.Fprintf(w, "Flash ID:\t0x%06X\n", s.FlashID)
	fmt.Fprintf(w, "Flash:\t%s %s\n", s.Descriptor.Manufacturer, s.Descriptor.Name)
	fmt.Fprintf(w, "Size:\t%s\n", flashdb.FormatSize(s.Descriptor.Size))
	if s.Descriptor.Unknown() {
		fmt.Fprintf(w, "Note:\tflash not in table, using conservative defaults\n")
	}
	fmt.Fprintf(w, "Baud rate:\t%d\n", s.BaudRate)
	return w.Flush()
}

// readCmd implements the 'read' command
var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read flash content to a file",
	Example: `  # Back up the whole flash
  t5flash read -p /dev/ttyUSB0 -o backup.bin

  # Read 64 KiB at 0x11000 as Intel HEX
  t5flash read -p /dev/ttyUSB0 --address 0x11000 --length 64K -o app.hex`,
	Args: cobra.NoArgs,
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringVar(&address, "address", "", "Start address (default: 0)")
	readCmd.Flags().StringVar(&length, "length", "", "Number of bytes (default: to the end of flash)")
	readCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (required)")
	readCmd.Flags().StringVar(&imageFormat, "format", "auto", "Output format: bin, hex or auto (from extension)")
	_ = readCmd.MarkFlagRequired("output")
}

func runRead(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	addr, err := startAddress()
	if err != nil {
		return err
	}
	format, err := outputFormat()
	if err != nil {
		return err
	}

	d, err := connect(cmd)
	if err != nil {
		return err
	}
	defer d.close()
	defer d.prog.Disconnect()

	n := d.session.Descriptor.Size - min(addr, d.session.Descriptor.Size)
	if length != "" {
		if n, err = parseUint32(length); err != nil {
			return fmt.Errorf("--length: %w", err)
		}
	}

	data, err := d.prog.Read(d.ctx, addr, n)
	if err != nil {
		return err
	}

	img := &firmware.Image{Data: data, BaseAddress: addr, Format: format}
	if err := writeImage(outputPath, img); err != nil {
		return err
	}
	fmt.Printf("Read %d bytes from 0x%08X to %s\n", len(data), addr, outputPath)
	return nil
}

// startAddress returns the --address flag, zero when it was not given.
// The flag variable is shared by several commands so its default is empty.
func startAddress() (uint32, error) {
	if address == "" {
		return 0, nil
	}
	addr, err := parseUint32(address)
	if err != nil {
		return 0, fmt.Errorf("--address: %w", err)
	}
	return addr, nil
}

func outputFormat() (firmware.Format, error) {
	format, err := firmware.ParseFormat(imageFormat)
	if err != nil {
		return 0, err
	}
	if format == firmware.FormatAuto {
		format = firmware.FormatFromPath(outputPath)
	}
	if format == firmware.FormatAuto {
		format = firmware.FormatBinary
	}
	return format, nil
}

func writeImage(path string, img *firmware.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if img.Format == firmware.FormatIntelHex {
		err = img.WriteIntelHex(f)
	} else {
		_, err = f.Write(img.Data)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// writeCmd implements the 'write' command
var writeCmd = &cobra.Command{
	Use:   "write <image>",
	Short: "Erase, write and verify a firmware image",
	Long: `Write a raw binary or Intel HEX image to flash.

The covered range is erased first, then written sector by sector and
verified with a CRC32 where the chip family supports it. Raw binaries are
written at --address; HEX files carry their own addresses unless
--address is given.`,
	Example: `  t5flash write -p /dev/ttyUSB0 --address 0x11000 app.bin
  t5flash write -p /dev/ttyUSB0 -b 1500000 --reboot app.hex`,
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().StringVar(&address, "address", "", "Flash address of the image (default: 0, or the HEX base address)")
	writeCmd.Flags().StringVar(&imageFormat, "format", "auto", "Image format: bin, hex or auto")
	writeCmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip the CRC verification")
	writeCmd.Flags().BoolVar(&rebootAfter, "reboot", false, "Reboot into the new firmware when done")
}

func loadImage(path string) (*firmware.Image, error) {
	format, err := firmware.ParseFormat(imageFormat)
	if err != nil {
		return nil, err
	}
	if format == firmware.FormatAuto {
		format = firmware.FormatFromPath(path)
	}
	img, err := firmware.ParseFile(path, format)
	if err != nil {
		return nil, err
	}
	if address != "" {
		addr, err := parseUint32(address)
		if err != nil {
			return nil, fmt.Errorf("--address: %w", err)
		}
		img = img.WithBase(addr)
	}
	return img, nil
}

func runWrite(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	img, err := loadImage(args[0])
	if err != nil {
		return err
	}
	if !img.Aligned() {
		return fmt.Errorf("image address 0x%08X is not 4 KiB aligned", img.BaseAddress)
	}
	fmt.Fprintf(os.Stderr, "Image: %s\n", img)

	d, err := connect(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	if noVerify {
		if err := d.prog.Erase(d.ctx, img.BaseAddress, uint32(img.Size())); err != nil {
			return err
		}
		if err := d.prog.Write(d.ctx, img.BaseAddress, img.Data); err != nil {
			return err
		}
	} else {
		result, err := d.prog.Flash(d.ctx, img.BaseAddress, img.Data)
		if bootloader.IsCancelled(err) {
			fmt.Fprintln(os.Stderr, "Interrupted: the flashed range is incomplete and must be rewritten")
		}
		if err != nil {
			return err
		}
		if !result.Match {
			return fmt.Errorf("verification failed: %s", result)
		}
	}
	fmt.Printf("Wrote %d bytes at 0x%08X\n", img.Size(), img.BaseAddress)

	if rebootAfter {
		return d.prog.Reboot(d.ctx)
	}
	d.prog.Disconnect()
	return nil
}

// eraseCmd implements the 'erase' command
var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase a flash range or the whole chip",
	Example: `  t5flash erase -p /dev/ttyUSB0 --address 0x11000 --length 256K
  t5flash erase -p /dev/ttyUSB0 --all`,
	Args: cobra.NoArgs,
	RunE: runErase,
}

func init() {
	eraseCmd.Flags().StringVar(&address, "address", "", "Start address, 4 KiB aligned (default: 0)")
	eraseCmd.Flags().StringVar(&length, "length", "", "Number of bytes, rounded up to 4 KiB")
	eraseCmd.Flags().BoolVar(&eraseAll, "all", false, "Erase the whole chip")
}

func runErase(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if !eraseAll && length == "" {
		return errors.New("either --length or --all is required")
	}
	addr, err := startAddress()
	if err != nil {
		return err
	}
	var n uint32
	if !eraseAll {
		if n, err = parseUint32(length); err != nil {
			return fmt.Errorf("--length: %w", err)
		}
	}

	d, err := connect(cmd)
	if err != nil {
		return err
	}
	defer d.close()
	defer d.prog.Disconnect()

	if eraseAll {
		return d.prog.EraseAll(d.ctx)
	}
	return d.prog.Erase(d.ctx, addr, n)
}

// verifyCmd implements the 'verify' command
var verifyCmd = &cobra.Command{
	Use:     "verify <image>",
	Short:   "Compare flash content with an image",
	Example: `  t5flash verify -p /dev/ttyUSB0 --address 0x11000 app.bin`,
	Args:    cobra.ExactArgs(1),
	RunE:    runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&address, "address", "", "Flash address of the image")
	verifyCmd.Flags().StringVar(&imageFormat, "format", "auto", "Image format: bin, hex or auto")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	d, err := connect(cmd)
	if err != nil {
		return err
	}
	defer d.close()
	defer d.prog.Disconnect()

	result, err := d.prog.Verify(d.ctx, img.BaseAddress, img.Data)
	if err != nil {
		return err
	}
	if !result.Match {
		return fmt.Errorf("verification failed: %s", result)
	}
	fmt.Printf("Verified %d bytes at 0x%08X: %s\n", img.Size(), img.BaseAddress, result)
	return nil
}

// rebootCmd implements the 'reboot' command
var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Leave the bootloader and start the application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		d, err := connect(cmd)
		if err != nil {
			return err
		}
		defer d.close()
		return d.prog.Reboot(d.ctx)
	},
}

// partsCmd implements the 'parts' command
var partsCmd = &cobra.Command{
	Use:   "parts",
	Short: "List the known SPI flash parts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		table, err := cfg.Table()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMANUFACTURER\tNAME\tSIZE\tSR BYTES")
		for _, p := range table.All() {
			fmt.Fprintf(w, "0x%06X\t%s\t%s\t%s\t%d\n", p.ID, p.Manufacturer, p.Name, flashdb.FormatSize(p.Size), p.StatusRegisterSize)
		}
		return w.Flush()
	},
}

// imageCmd implements the 'image' command
var imageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Describe a firmware image without touching a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := loadImage(args[0])
		if err != nil {
			return err
		}
		fmt.Println(img)
		if img.Segments > 1 {
			fmt.Printf("%d HEX segments merged, gaps filled with 0xFF\n", img.Segments)
		}
		return nil
	},
}

func init() {
	imageCmd.Flags().StringVar(&imageFormat, "format", "auto", "Image format: bin, hex or auto")
	imageCmd.Flags().StringVar(&address, "address", "", "Relocate the image to this address")
}
