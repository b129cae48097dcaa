// Command t5flash flashes T5/BK chips through their ROM bootloader.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags
var (
	configPath  string
	portName    string
	baudRate    int
	initialBaud int
	verbose     bool
	logFormat   string
	simulate    bool
)

var rootCmd = &cobra.Command{
	Use:   "t5flash",
	Short: "Flash T5/BK chips through the ROM bootloader",
	Long: `t5flash talks to the ROM bootloader of T5 and BK72xx chips over a
serial port. It identifies the chip and its SPI flash, clears the flash
write protection, switches to a faster baud rate and then erases, writes,
reads or verifies flash content.

Put the chip into its bootloader (hold it in reset, or power cycle it)
before running a command; the link check retries for a short while.`,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port (e.g. /dev/ttyUSB0, COM3)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 0, "Baud rate to switch to after the handshake")
	rootCmd.PersistentFlags().IntVar(&initialBaud, "initial-baud", 0, "Baud rate the ROM listens at")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false, "Use an in-memory simulated device instead of a serial port")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(eraseCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(partsCmd)
	rootCmd.AddCommand(imageCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
