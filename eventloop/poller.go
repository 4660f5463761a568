//go:build linux || darwin || freebsd || dragonfly || netbsd || openbsd || windows

package eventloop

import "github.com/allbin/go-serialtty/internal/poll"

func newPoller() (Poller, error) {
	return poll.New()
}
