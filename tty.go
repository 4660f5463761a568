//go:build linux || darwin || freebsd || dragonfly || netbsd || openbsd

package serialtty

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Tty owns one open, configured, non-blocking serial file descriptor. It is
// not safe for concurrent use; a single event loop goroutine is expected to
// be its only reader and writer.
type Tty struct {
	name   string
	fd     int
	once   sync.Once
	closed atomic.Bool
}

func newTty(name string, fd int) *Tty {
	return &Tty{name: name, fd: fd}
}

// Name returns the device the handle was opened on
func (t *Tty) Name() string {
	return t.name
}

// Fd returns the underlying file descriptor for readiness registration
func (t *Tty) Fd() int {
	return t.fd
}

// Read reads the bytes currently available. It never blocks: with nothing to
// read it returns ErrWouldBlock. A zero-byte read without error means no data
// right now, a serial line has no end of stream.
func (t *Tty) Read(buf []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrPortClosed
	}
	for {
		n, err := unix.Read(t.fd, buf)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// Write writes as much of data as the driver accepts. It never blocks: when
// the output buffer is full it returns ErrWouldBlock.
func (t *Tty) Write(data []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrPortClosed
	}
	for {
		n, err := unix.Write(t.fd, data)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// OnResize is a no-op. A serial line has no kernel-side window size to
// update, the hook only exists so Tty can stand in for a pty.
func (t *Tty) OnResize(WindowSize) {}

// IsNonblocking reports whether O_NONBLOCK is set on the descriptor
func (t *Tty) IsNonblocking() (bool, error) {
	if t.closed.Load() {
		return false, ErrPortClosed
	}
	flags, err := unix.FcntlInt(uintptr(t.fd), unix.F_GETFL, 0)
	if err != nil {
		return false, err
	}
	return flags&unix.O_NONBLOCK != 0, nil
}

// Close releases the descriptor. Only the first call closes it, later calls
// return ErrPortClosed.
func (t *Tty) Close() error {
	err := ErrPortClosed
	t.once.Do(func() {
		t.closed.Store(true)
		err = unix.Close(t.fd)
	})
	return err
}
