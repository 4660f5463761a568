//go:build darwin || freebsd || openbsd

package poll

import (
	"time"

	"go.bug.st/serial/unixutils"
)

// maxSelectFd is FD_SETSIZE on every platform built here
const maxSelectFd = 1024

// macOS poll(2) answers POLLNVAL for character devices, so ttys are watched
// with select(2) here. Hangup is never reported separately: a hung-up device
// selects readable and its read returns zero bytes or an error.
type backend struct{}

func checkFd(fd int) error {
	if fd < 0 || fd >= maxSelectFd {
		return ErrInvalidDescriptor
	}
	return nil
}

func (p *Poller) wait(watches []watch, events []Event, timeout time.Duration) (bool, []Event, error) {
	rd := unixutils.NewFDSet(p.wakeR)
	wr := unixutils.NewFDSet()
	for _, w := range watches {
		if w.interest&Readable != 0 {
			rd.Add(w.fd)
		}
		if w.interest&Writable != 0 {
			wr.Add(w.fd)
		}
	}

	res, err := unixutils.Select(rd, wr, nil, timeout)
	if err != nil {
		return false, events, err
	}

	for _, w := range watches {
		ev := Event{
			Fd:       w.fd,
			Readable: w.interest&Readable != 0 && res.IsReadable(w.fd),
			Writable: w.interest&Writable != 0 && res.IsWritable(w.fd),
		}
		if ev.Readable || ev.Writable {
			events = append(events, ev)
		}
	}
	return res.IsReadable(p.wakeR), events, nil
}
