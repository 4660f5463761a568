//go:build openbsd || netbsd

package serialtty

import (
	"math"

	"golang.org/x/sys/unix"
)

const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)

func setSpeed(t *unix.Termios, rate uint32) error {
	if rate > math.MaxInt32 {
		return ErrInvalidBaudRate
	}
	t.Ispeed = int32(rate)
	t.Ospeed = int32(rate)
	return nil
}
