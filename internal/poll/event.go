// Package poll is a small readiness multiplexer with a self-pipe for
// cross-goroutine wakeups. It waits with poll(2) on Linux, DragonFly and
// NetBSD, and with select(2) on macOS, FreeBSD and OpenBSD.
package poll

import "errors"

// Interest is the set of readiness conditions watched for a descriptor
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
)

// Event reports the readiness of one registered descriptor
type Event struct {
	Fd       int
	Readable bool
	Writable bool
	Hangup   bool // POLLHUP, poll(2) only
	Error    bool // POLLERR or POLLNVAL, poll(2) only
}

var (
	ErrClosed            = errors.New("poller is closed")
	ErrRegistered        = errors.New("descriptor already registered")
	ErrNotRegistered     = errors.New("descriptor not registered")
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)
