/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/allbin/go-serialtty/eventloop"
	"github.com/spf13/cobra"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <output-file> [port]",
	Short: "Capture serial data to a file",
	Long: `Capture incoming serial data to a file for later parsing.

Bytes read by the event loop are appended to the output file as they
arrive. Runs until interrupted (Ctrl+C) or the device goes away.

Example usage:
  serialtty capture data.log /dev/ttyUSB0
  serialtty capture output.txt --baud 9600
  serialtty capture capture.log --console`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath := args[0]
		opts, err := commandOptions(args[1:])
		if err != nil {
			return err
		}

		bufferSize, _ := cmd.Flags().GetInt("buffer")
		showConsole, _ := cmd.Flags().GetBool("console")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var console io.Writer
		if showConsole {
			console = cmd.OutOrStdout()
		}
		return runCapture(ctx, opts, outputPath, bufferSize, console)
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().Int("buffer", 4096, "Read buffer size")
	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
}

func runCapture(ctx context.Context, opts serialtty.Options, outputPath string, bufferSize int, console io.Writer) error {
	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	logger := newLogger(os.Stderr)
	tty, err := dial(opts, logger)
	if err != nil {
		return fmt.Errorf("failed to open port: %w", err)
	}

	loop, err := eventloop.New(tty,
		eventloop.WithLogger(logger),
		eventloop.WithReadBufferSize(bufferSize),
	)
	if err != nil {
		tty.Close()
		return err
	}

	fmt.Fprintf(os.Stderr, "Capturing data from %s to %s\n", opts.Name, outputPath)
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	start := time.Now()
	done := loop.Spawn(ctx)
	bytesWritten, err := copyInbound(loop.Inbound(), file, console)
	if err != nil {
		loop.Shutdown()
		<-done
		return fmt.Errorf("write error: %w", err)
	}

	runErr := <-done
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n", bytesWritten, time.Since(start).Round(time.Millisecond))
	return runErr
}

// copyInbound writes every inbound chunk to dst, and to console when set,
// until the loop closes its inbound channel
func copyInbound(inbound <-chan []byte, dst io.Writer, console io.Writer) (int64, error) {
	var total int64
	for chunk := range inbound {
		n, err := dst.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if console != nil {
			console.Write(chunk)
		}
	}
	return total, nil
}
