//go:build linux || dragonfly || netbsd

package poll

import (
	"time"

	"golang.org/x/sys/unix"
)

type backend struct {
	pollfds []unix.PollFd
}

func checkFd(fd int) error {
	if fd < 0 {
		return ErrInvalidDescriptor
	}
	return nil
}

// wait runs poll(2) over the wake pipe and the watched descriptors
func (p *Poller) wait(watches []watch, events []Event, timeout time.Duration) (bool, []Event, error) {
	p.pollfds = p.pollfds[:0]
	p.pollfds = append(p.pollfds, unix.PollFd{Fd: int32(p.wakeR), Events: unix.POLLIN})
	for _, w := range watches {
		var mask int16
		if w.interest&Readable != 0 {
			mask |= unix.POLLIN
		}
		if w.interest&Writable != 0 {
			mask |= unix.POLLOUT
		}
		p.pollfds = append(p.pollfds, unix.PollFd{Fd: int32(w.fd), Events: mask})
	}

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	n, err := unix.Poll(p.pollfds, ms)
	if err != nil || n == 0 {
		return false, events, err
	}

	for _, pfd := range p.pollfds[1:] {
		if pfd.Revents == 0 {
			continue
		}
		events = append(events, Event{
			Fd:       int(pfd.Fd),
			Readable: pfd.Revents&unix.POLLIN != 0,
			Writable: pfd.Revents&unix.POLLOUT != 0,
			Hangup:   pfd.Revents&unix.POLLHUP != 0,
			Error:    pfd.Revents&(unix.POLLERR|unix.POLLNVAL) != 0,
		})
	}
	return p.pollfds[0].Revents&unix.POLLIN != 0, events, nil
}
