package serialtty

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/windows"
)

// Tty owns one open, configured serial handle. Reads return at once and
// writes wait at most writeTimeout for the driver. It is not safe for
// concurrent use; a single event loop goroutine is expected to be its only
// reader and writer.
type Tty struct {
	name   string
	h      windows.Handle
	rov    windows.Overlapped
	wov    windows.Overlapped
	once   sync.Once
	closed atomic.Bool
}

func newTty(name string, h windows.Handle) (*Tty, error) {
	rev, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return nil, err
	}
	wev, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		windows.CloseHandle(rev)
		return nil, err
	}
	return &Tty{
		name: name,
		h:    h,
		rov:  windows.Overlapped{HEvent: rev},
		wov:  windows.Overlapped{HEvent: wev},
	}, nil
}

// Name returns the device the handle was opened on
func (t *Tty) Name() string {
	return t.name
}

// Fd returns the comm handle for readiness registration
func (t *Tty) Fd() int {
	return int(t.h)
}

// Read reads the bytes in the driver's input queue. With nothing queued it
// returns ErrWouldBlock.
func (t *Tty) Read(buf []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrPortClosed
	}
	n, err := t.overlapped(&t.rov, func(done *uint32) error {
		return windows.ReadFile(t.h, buf, done, &t.rov)
	})
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, ErrWouldBlock
	}
	return n, nil
}

// Write writes as much of data as the driver accepts within writeTimeout.
// When it accepts nothing it returns ErrWouldBlock.
func (t *Tty) Write(data []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrPortClosed
	}
	n, err := t.overlapped(&t.wov, func(done *uint32) error {
		return windows.WriteFile(t.h, data, done, &t.wov)
	})
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, ErrWouldBlock
	}
	return n, nil
}

// overlapped issues one I/O on ov and waits for it. The comm timeouts make
// the wait short: reads complete at once, writes within writeTimeout.
func (t *Tty) overlapped(ov *windows.Overlapped, issue func(*uint32) error) (int, error) {
	if err := windows.ResetEvent(ov.HEvent); err != nil {
		return 0, err
	}
	var done uint32
	err := issue(&done)
	if err == windows.ERROR_IO_PENDING {
		err = windows.GetOverlappedResult(t.h, ov, &done, true)
	}
	return int(done), err
}

// OnResize is a no-op. A serial line has no window size to update.
func (t *Tty) OnResize(WindowSize) {}

// IsNonblocking reports whether the comm timeouts make reads return at once
func (t *Tty) IsNonblocking() (bool, error) {
	if t.closed.Load() {
		return false, ErrPortClosed
	}
	var ct windows.CommTimeouts
	if err := windows.GetCommTimeouts(t.h, &ct); err != nil {
		return false, err
	}
	return ct.ReadIntervalTimeout == 0xFFFFFFFF &&
		ct.ReadTotalTimeoutMultiplier == 0 &&
		ct.ReadTotalTimeoutConstant == 0, nil
}

// Close releases the handle. Only the first call closes it, later calls
// return ErrPortClosed.
func (t *Tty) Close() error {
	err := ErrPortClosed
	t.once.Do(func() {
		t.closed.Store(true)
		err = windows.CloseHandle(t.h)
		windows.CloseHandle(t.rov.HEvent)
		windows.CloseHandle(t.wov.HEvent)
	})
	return err
}
