/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/spf13/cobra"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait [port]",
	Short: "Wait until a serial port appears",
	Long: `Block until the configured serial port shows up in the device list,
e.g. after plugging in a USB adapter, then print it and exit.

Example usage:
  serialtty wait /dev/ttyUSB0 --timeout-wait 30s && serialtty connect /dev/ttyUSB0`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commandOptions(args)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetDuration("timeout-wait")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if limit > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, limit)
			defer cancel()
		}

		logger := newLogger(os.Stderr)
		logger.Info("waiting for device", "device", opts.Name)

		desc, err := serialtty.WaitForDevice(ctx, serialtty.SystemLister(), opts.Name)
		if err != nil {
			return fmt.Errorf("waiting for %s: %w", opts.Name, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), desc.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)

	waitCmd.Flags().Duration("timeout-wait", 0, "Give up after this long (0 waits forever)")
}
