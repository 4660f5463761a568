//go:build linux || darwin || freebsd || dragonfly || netbsd || openbsd

package poll

import (
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Poller watches registered descriptors. Register, Reregister, Deregister
// and Wait belong to a single owner goroutine; Wake may be called from any
// goroutine.
type Poller struct {
	mu        sync.Mutex
	interests map[int]Interest
	wakeR     int
	wakeW     int
	closed    bool
	watches   []watch
	backend
}

// New creates a Poller and its wakeup pipe
func New() (*Poller, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, err
	}
	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return nil, err
		}
	}
	return &Poller{
		interests: make(map[int]Interest),
		wakeR:     fds[0],
		wakeW:     fds[1],
	}, nil
}

// Register starts watching fd for the given interest
func (p *Poller) Register(fd int, interest Interest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := checkFd(fd); err != nil {
		return err
	}
	if _, ok := p.interests[fd]; ok {
		return ErrRegistered
	}
	p.interests[fd] = interest
	return nil
}

// Reregister replaces the interest of a registered fd
func (p *Poller) Reregister(fd int, interest Interest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if _, ok := p.interests[fd]; !ok {
		return ErrNotRegistered
	}
	p.interests[fd] = interest
	return nil
}

// Deregister stops watching fd
func (p *Poller) Deregister(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if _, ok := p.interests[fd]; !ok {
		return ErrNotRegistered
	}
	delete(p.interests, fd)
	return nil
}

// watch is one descriptor and its interest, as snapshotted for a wait
type watch struct {
	fd       int
	interest Interest
}

// Wait blocks until a registered descriptor is ready, Wake is called or the
// timeout expires. A negative timeout waits indefinitely. Ready descriptors
// are appended to events. An interrupted wait returns no events and no error.
func (p *Poller) Wait(events []Event, timeout time.Duration) ([]Event, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return events, ErrClosed
	}
	p.watches = p.watches[:0]
	for fd, interest := range p.interests {
		p.watches = append(p.watches, watch{fd: fd, interest: interest})
	}
	sort.Slice(p.watches, func(i, j int) bool { return p.watches[i].fd < p.watches[j].fd })
	watches := p.watches
	p.mu.Unlock()

	woken, events, err := p.wait(watches, events, timeout)
	if errors.Is(err, unix.EINTR) {
		return events, nil
	}
	if woken {
		p.drainWake()
	}
	return events, err
}

// Wake interrupts a Wait in progress, or makes the next one return
// immediately
func (p *Poller) Wake() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	_, err := unix.Write(p.wakeW, []byte{1})
	if err == unix.EAGAIN {
		// pipe full, a wakeup is already pending
		return nil
	}
	return err
}

func (p *Poller) drainWake() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Close releases the wakeup pipe. Registered descriptors are not closed.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	p.interests = nil
	return errors.Join(unix.Close(p.wakeR), unix.Close(p.wakeW))
}
