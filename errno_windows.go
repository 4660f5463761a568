package serialtty

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func errnoSentinel(errno syscall.Errno) error {
	switch errno {
	// Windows answers access denied for a COM port another process holds
	case windows.ERROR_ACCESS_DENIED, windows.ERROR_SHARING_VIOLATION:
		return ErrDeviceInUse
	case windows.ERROR_INVALID_PARAMETER:
		return ErrInvalidConfig
	case windows.ERROR_FILE_NOT_FOUND, windows.ERROR_PATH_NOT_FOUND:
		return ErrDeviceGone
	}
	return nil
}
