//go:build !windows

package serialtty

import "syscall"

func errnoSentinel(errno syscall.Errno) error {
	switch errno {
	case syscall.EACCES, syscall.EPERM:
		return ErrPermissionDenied
	case syscall.EBUSY:
		return ErrDeviceInUse
	case syscall.EINVAL:
		return ErrInvalidConfig
	case syscall.ENOENT, syscall.ENXIO, syscall.ENODEV:
		// enumerated but gone at open time, distinct from ErrDeviceNotFound
		return ErrDeviceGone
	}
	return nil
}
