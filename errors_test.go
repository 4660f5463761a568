//go:build !windows

package serialtty

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomy(t *testing.T) {
	sentinels := []error{
		ErrEnumeration, ErrDeviceNotFound, ErrDeviceGone, ErrOpen, ErrQuirkOpen,
		ErrTransportIO, ErrPermissionDenied, ErrDeviceInUse, ErrInvalidConfig,
	}

	tests := []struct {
		name    string
		err     error
		matches []error
		errno   syscall.Errno
	}{
		{
			name:    "enumeration",
			err:     &EnumerationError{Err: errors.New("sysfs unreadable")},
			matches: []error{ErrEnumeration},
		},
		{
			name:    "not found",
			err:     &DeviceNotFoundError{Name: "/dev/ttyUSB7"},
			matches: []error{ErrDeviceNotFound},
		},
		{
			name:    "open busy",
			err:     &OpenError{Device: "/dev/ttyUSB0", Op: "open", Err: syscall.EBUSY},
			matches: []error{ErrOpen, ErrDeviceInUse},
			errno:   syscall.EBUSY,
		},
		{
			name:    "open vanished",
			err:     &OpenError{Device: "/dev/ttyUSB0", Op: "open", Err: syscall.ENODEV},
			matches: []error{ErrOpen, ErrDeviceGone},
			errno:   syscall.ENODEV,
		},
		{
			name:    "quirk permission",
			err:     &QuirkOpenError{Device: "/dev/cu.usbserial-2110", Op: "open", Err: syscall.EACCES},
			matches: []error{ErrQuirkOpen, ErrPermissionDenied},
			errno:   syscall.EACCES,
		},
		{
			name:    "quirk speed rejected",
			err:     &QuirkOpenError{Device: "/dev/cu.usbserial-2110", Op: "set speed (IOSSIOSPEED)", Err: fmt.Errorf("ioctl: %w", syscall.EINVAL)},
			matches: []error{ErrQuirkOpen, ErrInvalidConfig},
			errno:   syscall.EINVAL,
		},
		{
			name:    "transport",
			err:     &TransportIOError{Device: "/dev/ttyUSB0", Op: "read", Err: syscall.EIO},
			matches: []error{ErrTransportIO},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, s := range sentinels {
				want := false
				for _, m := range tt.matches {
					want = want || m == s
				}
				require.Equal(t, want, errors.Is(tt.err, s), "errors.Is(%v, %v)", tt.err, s)
			}

			wrapped := fmt.Errorf("dial: %w", tt.err)
			require.ErrorIs(t, wrapped, tt.matches[0])

			switch e := tt.err.(type) {
			case *OpenError:
				var target *OpenError
				require.ErrorAs(t, wrapped, &target)
				require.Equal(t, tt.errno, target.Errno())
				var quirk *QuirkOpenError
				require.False(t, errors.As(wrapped, &quirk))
			case *QuirkOpenError:
				var target *QuirkOpenError
				require.ErrorAs(t, wrapped, &target)
				require.Equal(t, tt.errno, target.Errno())
				require.Equal(t, e.Op, target.Op)
				var open *OpenError
				require.False(t, errors.As(wrapped, &open))
			}
		})
	}
}

func TestErrnoOfWithoutErrno(t *testing.T) {
	err := &OpenError{Device: "/dev/ttyS0", Op: "validate", Err: ErrInvalidBaudRate}
	require.Zero(t, err.Errno())
	require.ErrorIs(t, err, ErrInvalidBaudRate)
	require.NotErrorIs(t, err, ErrInvalidConfig)
}
