package serialtty

import "golang.org/x/sys/unix"

const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)

// setSpeed stores rate directly, BSD speeds are numeric
func setSpeed(t *unix.Termios, rate uint32) error {
	t.Ispeed = uint64(rate)
	t.Ospeed = uint64(rate)
	return nil
}
