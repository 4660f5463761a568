// Package serialtty provides a serial-port transport that stands in for a
// local pseudo-terminal in a terminal emulator.
//
// The transport is opened in four steps: the configured device name is
// resolved against the devices the OS currently enumerates, the resolved
// descriptor is routed to an open strategy, the selected opener configures
// the line and forces non-blocking mode, and the resulting Tty is handed to
// an event loop (see package eventloop) that moves bytes between the wire
// and the emulator.
//
// # Basic Usage
//
// Open the platform's default device (115200 8N1, no flow control, DTR
// asserted):
//
//	tty, err := serialtty.New(serialtty.DefaultOptions(), serialtty.WindowSize{}, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tty.Close()
//
// # Configuration
//
// Options is a plain value. Each With* method returns an updated copy:
//
//	opts := serialtty.DefaultOptions().
//	    WithName("/dev/ttyACM0").
//	    WithBaudRate(9600).
//	    WithParity(serialtty.ParityEven).
//	    WithDTROnOpen(serialtty.DTRDeassert) // keep the board out of reset
//
// # Port Discovery
//
//	ports, err := serialtty.ListPorts()
//	for _, p := range ports {
//	    fmt.Printf("%s %s %s\n", p.Name, p.Type, p.Manufacturer)
//	}
//
// Resolution is exact: a name that is not enumerated fails with
// ErrDeviceNotFound and nothing is opened. WaitForDevice blocks until a
// hot-plugged device appears.
//
// # Vendor Workarounds
//
// Prolific USB bridges on macOS are opened through QuirkOpener, which sets
// the line speed with IOSSIOSPEED and drives DTR with TIOCSDTR/TIOCCDTR.
// Route decides which opener a descriptor gets.
//
// # Error Handling
//
// Failures are typed and match sentinel errors with errors.Is:
//
//	ErrEnumeration      // *EnumerationError, the OS listing failed
//	ErrDeviceNotFound   // *DeviceNotFoundError, no device with that name
//	ErrOpen             // *OpenError, standard open/configure failed
//	ErrQuirkOpen        // *QuirkOpenError, vendor workaround failed
//	ErrTransportIO      // *TransportIOError, read/write failed after open
//
// OpenError and QuirkOpenError also match ErrPermissionDenied,
// ErrDeviceInUse, ErrInvalidConfig and ErrDeviceGone according to the OS
// error code. ErrDeviceGone is a device that was enumerated but vanished
// before open; it never matches ErrDeviceNotFound.
//
// # Window Size
//
// Tty.OnResize does nothing. A serial line has no rows or columns to
// propagate; the hook exists so a Tty can replace a pty.
//
// # Platform Support
//
// Linux, macOS, FreeBSD, DragonFly, NetBSD, OpenBSD and Windows.
// Enumeration on Linux reads /dev and sysfs; other platforms use
// go.bug.st/serial's enumerator. On Windows the Tty wraps an overlapped comm
// handle whose comm timeouts make reads return at once, and Fd returns the
// handle for the event loop's comm poller.
package serialtty
