/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"runtime"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/allbin/go-serialtty/internal/tui/styles"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [port]",
	Short: "Display detailed information about a serial port",
	Long: `Display what enumeration reports for a serial port and how it would be
opened.

Examples:
  serialtty info /dev/ttyUSB0
  serialtty info --device /dev/cu.usbserial-2110

For USB devices this shows the manufacturer, vendor/product IDs and serial
number. The open strategy is shown for this platform and for macOS, where
some USB bridges need a vendor workaround.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commandOptions(args)
		if err != nil {
			return err
		}

		desc, err := serialtty.Resolve(serialtty.SystemLister(), opts)
		if err != nil {
			return err
		}
		printInfo(cmd.OutOrStdout(), desc, runtime.GOOS)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printInfo(w io.Writer, desc serialtty.PortDescriptor, goos string) {
	fmt.Fprintf(w, "Port Information: %s\n\n", styles.InfoStyle.Render(desc.Name))
	fmt.Fprintf(w, "  Type:        %s\n", desc.Type)
	fmt.Fprintf(w, "  Description: %s\n", desc.Description())

	if desc.IsUSB() {
		fmt.Fprintln(w, "\nUSB Device Information:")
		fmt.Fprintf(w, "  Vendor ID:    %s\n", desc.VendorID)
		fmt.Fprintf(w, "  Product ID:   %s\n", desc.ProductID)
		if desc.SerialNumber != "" {
			fmt.Fprintf(w, "  Serial:       %s\n", desc.SerialNumber)
		}
		if desc.Manufacturer != "" {
			fmt.Fprintf(w, "  Manufacturer: %s\n", desc.Manufacturer)
		}
		if desc.Product != "" {
			fmt.Fprintf(w, "  Product:      %s\n", desc.Product)
		}
	}

	fmt.Fprintln(w, "\nOpen Strategy:")
	fmt.Fprintf(w, "  %-8s %s\n", goos+":", serialtty.Route(desc, goos))
	if goos != "darwin" {
		fmt.Fprintf(w, "  %-8s %s\n", "darwin:", serialtty.Route(desc, "darwin"))
	}
}
