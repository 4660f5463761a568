package serialtty

import (
	"errors"
	"fmt"
	"syscall"
)

// Predefined error types for robust error handling
var (
	ErrEnumeration         = errors.New("serial device enumeration failed")
	ErrDeviceNotFound      = errors.New("serial device not found")
	ErrDeviceGone          = errors.New("serial device vanished before it could be opened")
	ErrOpen                = errors.New("failed to open serial device")
	ErrQuirkOpen           = errors.New("failed to open serial device with vendor workaround")
	ErrTransportIO         = errors.New("serial transport I/O failed")
	ErrPermissionDenied    = errors.New("permission denied accessing serial device")
	ErrDeviceInUse         = errors.New("serial device already in use")
	ErrInvalidBaudRate     = errors.New("invalid baud rate")
	ErrInvalidConfig       = errors.New("invalid serial configuration")
	ErrPortClosed          = errors.New("serial port is closed")
	ErrWouldBlock          = errors.New("serial port operation would block")
	ErrHangup              = errors.New("serial device hung up")
	ErrUnsupportedPlatform = errors.New("serial transport not supported on this platform")
)

// EnumerationError is returned when the OS device listing itself fails
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrEnumeration, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

func (e *EnumerationError) Is(target error) bool { return target == ErrEnumeration }

// DeviceNotFoundError is returned when no enumerated device has the configured name
type DeviceNotFoundError struct {
	Name string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDeviceNotFound, e.Name)
}

func (e *DeviceNotFoundError) Is(target error) bool { return target == ErrDeviceNotFound }

// OpenError is returned when the standard open/configure sequence fails.
// Op names the step that failed.
type OpenError struct {
	Device string
	Op     string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %s: %v", e.Device, e.Op, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

func (e *OpenError) Is(target error) bool {
	return target == ErrOpen || matchErrno(e.Err, target)
}

// Errno returns the underlying OS error code, or 0
func (e *OpenError) Errno() syscall.Errno { return errnoOf(e.Err) }

// QuirkOpenError is returned when the vendor-specific open path fails
type QuirkOpenError struct {
	Device string
	Op     string
	Err    error
}

func (e *QuirkOpenError) Error() string {
	return fmt.Sprintf("open %s (vendor workaround): %s: %v", e.Device, e.Op, e.Err)
}

func (e *QuirkOpenError) Unwrap() error { return e.Err }

func (e *QuirkOpenError) Is(target error) bool {
	return target == ErrQuirkOpen || matchErrno(e.Err, target)
}

// Errno returns the underlying OS error code, or 0
func (e *QuirkOpenError) Errno() syscall.Errno { return errnoOf(e.Err) }

// TransportIOError is a read or write failure on an open transport
type TransportIOError struct {
	Device string
	Op     string // "read" or "write"
	Err    error
}

func (e *TransportIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Device, e.Err)
}

func (e *TransportIOError) Unwrap() error { return e.Err }

func (e *TransportIOError) Is(target error) bool { return target == ErrTransportIO }

func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

// matchErrno maps OS error codes onto the package's sentinel errors
func matchErrno(err error, target error) bool {
	errno := errnoOf(err)
	if errno == 0 {
		return false
	}
	sentinel := errnoSentinel(errno)
	return sentinel != nil && sentinel == target
}
