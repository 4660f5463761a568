package serialtty

import "golang.org/x/sys/unix"

// IOSSIOSPEED sets an arbitrary line speed on macOS serial drivers
const iossiospeed = 0x80045402

// Open opens a Prolific bridge on macOS. The vendor driver rejects speeds
// set through termios and drops modem-bit ioctls, so the speed goes through
// IOSSIOSPEED after a placeholder termios speed, and DTR is driven with
// TIOCSDTR/TIOCCDTR. Failures are reported as *QuirkOpenError.
func (o QuirkOpener) Open(opts Options) (*Tty, error) {
	log := loggerOrDiscard(o.Logger)
	fail := func(op string, err error) (*Tty, error) {
		return nil, &QuirkOpenError{Device: opts.Name, Op: op, Err: err}
	}

	if err := opts.Validate(); err != nil {
		return fail("validate", err)
	}

	fd, err := openDevice(opts.Name)
	if err != nil {
		return fail("open", err)
	}

	placeholder := func(t *unix.Termios, _ uint32) error {
		return setSpeed(t, 9600)
	}
	if op, err := configurePort(fd, opts, placeholder); err != nil {
		unix.Close(fd)
		return fail(op, err)
	}

	if err := unix.IoctlSetPointerInt(fd, iossiospeed, int(opts.BaudRate)); err != nil {
		unix.Close(fd)
		return fail("set speed (IOSSIOSPEED)", err)
	}

	if err := forceNonblock(fd); err != nil {
		unix.Close(fd)
		return fail("set nonblocking", err)
	}

	req := uint(unix.TIOCSDTR)
	if !opts.DTROnOpen.Resolve() {
		req = unix.TIOCCDTR
	}
	if err := unix.IoctlSetInt(fd, req, 0); err != nil {
		unix.Close(fd)
		return fail("set dtr", err)
	}

	log.Debug("serial port opened with vendor workaround",
		"device", opts.Name,
		"baud", opts.BaudRate,
	)
	return newTty(opts.Name, fd), nil
}
