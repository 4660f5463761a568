package poll

import (
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// commWatch is one registered comm handle. ov and mask stay put while a
// WaitCommEvent is outstanding.
type commWatch struct {
	fd       int
	h        windows.Handle
	interest Interest
	ov       windows.Overlapped
	mask     uint32
	pending  bool
}

// Poller watches serial comm handles. Readability comes from the driver's
// input queue and overlapped WaitCommEvent; a handle with writable interest
// is always reported writable since writes are bounded by the comm write
// timeout. Register, Reregister, Deregister and Wait belong to a single
// owner goroutine; Wake may be called from any goroutine.
type Poller struct {
	mu      sync.Mutex
	watches map[int]*commWatch
	wake    windows.Handle
	closed  bool
	order   []*commWatch
	handles []windows.Handle
}

// New creates a Poller and its wakeup event
func New() (*Poller, error) {
	wake, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return nil, err
	}
	return &Poller{
		watches: make(map[int]*commWatch),
		wake:    wake,
	}, nil
}

// Register starts watching the comm handle fd for the given interest
func (p *Poller) Register(fd int, interest Interest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if fd <= 0 {
		return ErrInvalidDescriptor
	}
	if _, ok := p.watches[fd]; ok {
		return ErrRegistered
	}

	h := windows.Handle(fd)
	ev, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return err
	}
	if err := windows.SetCommMask(h, windows.EV_RXCHAR|windows.EV_ERR); err != nil {
		windows.CloseHandle(ev)
		return err
	}
	p.watches[fd] = &commWatch{fd: fd, h: h, interest: interest, ov: windows.Overlapped{HEvent: ev}}
	return nil
}

// Reregister replaces the interest of a registered handle
func (p *Poller) Reregister(fd int, interest Interest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	w, ok := p.watches[fd]
	if !ok {
		return ErrNotRegistered
	}
	w.interest = interest
	return nil
}

// Deregister stops watching fd and completes any outstanding comm wait
func (p *Poller) Deregister(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	w, ok := p.watches[fd]
	if !ok {
		return ErrNotRegistered
	}
	delete(p.watches, fd)
	w.release()
	return nil
}

// release ends an outstanding WaitCommEvent and frees the event handle.
// Changing the comm mask completes the wait; cancelling covers drivers that
// ignore it.
func (w *commWatch) release() {
	if w.pending {
		if err := windows.SetCommMask(w.h, 0); err != nil {
			windows.CancelIoEx(w.h, &w.ov)
		}
		var n uint32
		windows.GetOverlappedResult(w.h, &w.ov, &n, true)
		w.pending = false
	}
	windows.CloseHandle(w.ov.HEvent)
}

// queued reports whether the driver holds unread input
func (w *commWatch) queued() (bool, error) {
	var errs uint32
	var stat windows.ComStat
	if err := windows.ClearCommError(w.h, &errs, &stat); err != nil {
		return false, err
	}
	return stat.CBInQue > 0, nil
}

// arm starts an overlapped WaitCommEvent unless one is outstanding. It
// reports true when the wait completed immediately.
func (w *commWatch) arm() (bool, error) {
	if w.pending {
		return false, nil
	}
	if err := windows.ResetEvent(w.ov.HEvent); err != nil {
		return false, err
	}
	err := windows.WaitCommEvent(w.h, &w.mask, &w.ov)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, windows.ERROR_IO_PENDING):
		w.pending = true
		return false, nil
	default:
		return false, err
	}
}

// Wait blocks until a registered handle is ready, Wake is called or the
// timeout expires. A negative timeout waits indefinitely. Ready handles are
// appended to events. A handle whose driver reports an error is returned
// with Error set so its owner reads and sees the failure.
func (p *Poller) Wait(events []Event, timeout time.Duration) ([]Event, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return events, ErrClosed
	}
	p.order = p.order[:0]
	for _, w := range p.watches {
		p.order = append(p.order, w)
	}
	sort.Slice(p.order, func(i, j int) bool { return p.order[i].fd < p.order[j].fd })
	order := p.order
	wake := p.wake
	p.mu.Unlock()

	start := len(events)
	for _, w := range order {
		ev := Event{Fd: w.fd, Writable: w.interest&Writable != 0}
		if w.interest&Readable != 0 {
			ready, err := w.queued()
			ev.Readable = ready
			ev.Error = err != nil
		}
		if ev.Readable || ev.Writable || ev.Error {
			events = append(events, ev)
		}
	}
	if len(events) > start {
		return events, nil
	}

	p.handles = append(p.handles[:0], wake)
	armed := order[:0:0]
	for _, w := range order {
		if w.interest&Readable == 0 {
			continue
		}
		done, err := w.arm()
		if err != nil {
			events = append(events, Event{Fd: w.fd, Error: true})
			continue
		}
		// input that arrived before the wait was armed raises no event
		if ready, _ := w.queued(); done || ready {
			events = append(events, Event{Fd: w.fd, Readable: true})
			continue
		}
		p.handles = append(p.handles, w.ov.HEvent)
		armed = append(armed, w)
	}
	if len(events) > start {
		return events, nil
	}

	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout / time.Millisecond)
	}
	r, err := windows.WaitForMultipleObjects(p.handles, false, ms)
	if err != nil {
		return events, err
	}
	if r == uint32(windows.WAIT_TIMEOUT) {
		return events, nil
	}

	idx := int(r - windows.WAIT_OBJECT_0)
	if idx == 0 {
		return events, windows.ResetEvent(wake)
	}
	if idx < 1 || idx > len(armed) {
		return events, nil
	}
	w := armed[idx-1]
	var n uint32
	err = windows.GetOverlappedResult(w.h, &w.ov, &n, false)
	w.pending = false
	if err != nil {
		return append(events, Event{Fd: w.fd, Error: true}), nil
	}
	return append(events, Event{Fd: w.fd, Readable: true}), nil
}

// Wake interrupts a Wait in progress, or makes the next one return
// immediately
func (p *Poller) Wake() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return windows.SetEvent(p.wake)
}

// Close releases the wakeup event and the per-handle state. Registered
// handles are not closed.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	for _, w := range p.watches {
		w.release()
	}
	p.watches = nil
	return windows.CloseHandle(p.wake)
}
