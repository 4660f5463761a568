//go:build linux || darwin || freebsd || dragonfly || netbsd || openbsd

package serialtty

import "golang.org/x/sys/unix"

// Open opens opts.Name, applies the configuration, forces non-blocking mode
// and sets DTR. Any failure is reported as *OpenError and the descriptor is
// closed.
func (o StandardOpener) Open(opts Options) (*Tty, error) {
	log := loggerOrDiscard(o.Logger)
	fail := func(op string, err error) (*Tty, error) {
		return nil, &OpenError{Device: opts.Name, Op: op, Err: err}
	}

	if err := opts.Validate(); err != nil {
		return fail("validate", err)
	}

	fd, err := openDevice(opts.Name)
	if err != nil {
		return fail("open", err)
	}
	if op, err := configurePort(fd, opts, nil); err != nil {
		unix.Close(fd)
		return fail(op, err)
	}

	// Exclusive access is advisory, not every driver implements it
	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		log.Debug("exclusive mode not available", "device", opts.Name, "error", err)
	}

	if err := forceNonblock(fd); err != nil {
		unix.Close(fd)
		return fail("set nonblocking", err)
	}

	if err := setDTR(fd, opts.DTROnOpen.Resolve()); err != nil {
		if !isNoModemControl(err) {
			unix.Close(fd)
			return fail("set dtr", err)
		}
		log.Debug("device has no modem control lines", "device", opts.Name, "error", err)
	}

	log.Debug("serial port opened",
		"device", opts.Name,
		"baud", opts.BaudRate,
		"data_bits", opts.DataBits,
		"parity", opts.Parity,
		"stop_bits", opts.StopBits,
		"flow_control", opts.FlowControl,
	)
	return newTty(opts.Name, fd), nil
}

func openDevice(name string) (int, error) {
	for {
		fd, err := unix.Open(name, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err == unix.EINTR {
			continue
		}
		return fd, err
	}
}

// configurePort puts the line in raw mode with the requested framing. speed,
// when non-nil, replaces the platform's speed setter. It returns the name of
// the failing step.
func configurePort(fd int, opts Options, speed func(*unix.Termios, uint32) error) (string, error) {
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return "get termios", err
	}

	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY | unix.INPCK
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB | unix.CRTSCTS
	termios.Cflag |= unix.CREAD | unix.CLOCAL

	switch opts.DataBits {
	case DataBits5:
		termios.Cflag |= unix.CS5
	case DataBits6:
		termios.Cflag |= unix.CS6
	case DataBits7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	if opts.StopBits == StopBits2 {
		termios.Cflag |= unix.CSTOPB
	}

	switch opts.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
		termios.Iflag |= unix.INPCK
	case ParityEven:
		termios.Cflag |= unix.PARENB
		termios.Iflag |= unix.INPCK
	}

	switch opts.FlowControl {
	case FlowControlHardware:
		termios.Cflag |= unix.CRTSCTS
	case FlowControlSoftware:
		termios.Iflag |= unix.IXON | unix.IXOFF
	}

	// Reads return immediately in non-blocking mode, VTIME only records the
	// advisory timeout
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = opts.vtime()

	if speed == nil {
		speed = setSpeed
	}
	if err := speed(termios, opts.BaudRate); err != nil {
		return "set baud rate", err
	}

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, termios); err != nil {
		return "set termios", err
	}
	return "", nil
}

// forceNonblock sets O_NONBLOCK and checks that the driver kept it
func forceNonblock(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return err
	}
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return err
	}
	if flags&unix.O_NONBLOCK == 0 {
		return unix.EINVAL
	}
	return nil
}

// setDTR sets DTR signal state
func setDTR(fd int, state bool) error {
	if state {
		return unix.IoctlSetPointerInt(fd, unix.TIOCMBIS, unix.TIOCM_DTR)
	}
	return unix.IoctlSetPointerInt(fd, unix.TIOCMBIC, unix.TIOCM_DTR)
}

// isNoModemControl reports errors from devices without modem lines, such as
// ptys and some virtual ports
func isNoModemControl(err error) bool {
	return err == unix.ENOTTY || err == unix.EINVAL || err == unix.ENOTSUP
}
