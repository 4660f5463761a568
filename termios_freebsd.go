//go:build freebsd || dragonfly

package serialtty

import "golang.org/x/sys/unix"

const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)

func setSpeed(t *unix.Termios, rate uint32) error {
	t.Ispeed = rate
	t.Ospeed = rate
	return nil
}
