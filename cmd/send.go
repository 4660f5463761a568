/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/allbin/go-serialtty/eventloop"
	"github.com/allbin/go-serialtty/internal/tui/components"
	"github.com/allbin/go-serialtty/internal/tui/styles"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] [port]",
	Short: "Send data to a serial port",
	Long: `Send data to a serial port through the event loop.

Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serialtty send
- Interactive mode: serialtty send (prompts for input)

The port defaults to --device. Replies arriving within --read are printed.

Example usage:
  serialtty send "AT+GMR" /dev/ttyUSB0 --newline --read 500ms
  serialtty send --hex "48 65 6C 6C 6F"
  echo "test" | serialtty send --device /dev/ttyACM0`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data string
		var portArgs []string

		switch len(args) {
		case 0:
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				data = promptForData()
			} else {
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("error reading from stdin: %w", err)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		case 1:
			data = args[0]
		default:
			data, portArgs = args[0], args[1:]
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		readFor, _ := cmd.Flags().GetDuration("read")
		flushTimeout, _ := cmd.Flags().GetDuration("flush-timeout")

		payload := []byte(data)
		if hexMode {
			b, err := components.ParseHex(data)
			if err != nil {
				return fmt.Errorf("invalid hex data: %w", err)
			}
			payload = b
		} else if addNewline {
			payload = append(payload, '\n')
		}

		opts, err := commandOptions(portArgs)
		if err != nil {
			return err
		}

		return sendData(cmd.Context(), cmd.OutOrStdout(), opts, payload, flushTimeout, readFor)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().Duration("read", 0, "Print replies received for this long after sending")
	sendCmd.Flags().Duration("flush-timeout", 5*time.Second, "Maximum time to wait for data to reach the wire")
}

func promptForData() string {
	fmt.Print(styles.InfoStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func sendData(ctx context.Context, out io.Writer, opts serialtty.Options, payload []byte, flushTimeout, readFor time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(os.Stderr)

	fmt.Fprintf(out, "%s Opening %s...\n", styles.InfoStyle.Render("⚡"), opts.Name)
	tty, err := dial(opts, logger)
	if err != nil {
		return fmt.Errorf("%s %w", styles.ErrorStyle.Render("✗"), err)
	}

	loop, err := eventloop.New(tty, eventloop.WithLogger(logger))
	if err != nil {
		tty.Close()
		return err
	}
	done := loop.Spawn(ctx)
	fmt.Fprintf(out, "%s Connected\n", styles.SuccessStyle.Render("✓"))

	replies := make(chan []byte, 1)
	go func() {
		var buf []byte
		for chunk := range loop.Inbound() {
			buf = append(buf, chunk...)
		}
		replies <- buf
	}()

	fmt.Fprintf(out, "%s Sending %d bytes...\n", styles.InfoStyle.Render("📤"), len(payload))
	if err := loop.Sender().Input(payload); err != nil {
		loop.Shutdown()
		<-done
		return err
	}

	if err := waitFlushed(ctx, loop, flushTimeout); err != nil {
		logger.Warn("output not flushed", "device", opts.Name, "buffered", loop.Buffered(), "error", err)
	}
	if readFor > 0 {
		select {
		case <-time.After(readFor):
		case <-ctx.Done():
		case <-loop.Done():
		}
	}

	loop.Shutdown()
	if err := <-done; err != nil {
		return fmt.Errorf("%s %w", styles.ErrorStyle.Render("✗"), err)
	}
	fmt.Fprintf(out, "%s Sent %d bytes\n", styles.SuccessStyle.Render("✓"), len(payload))

	if reply := <-replies; len(reply) > 0 {
		fmt.Fprintf(out, "%s %s\n", styles.InfoStyle.Render("📥"), components.NewDataFormatter(true, true).FormatPayload(reply))
	}
	return nil
}

// waitFlushed polls until the loop has written everything queued
func waitFlushed(ctx context.Context, loop *eventloop.Loop, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for loop.Buffered() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-loop.Done():
			return eventloop.ErrLoopClosed
		case <-ticker.C:
		}
	}
	return nil
}
