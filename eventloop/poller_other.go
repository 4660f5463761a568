//go:build !(linux || darwin || freebsd || dragonfly || netbsd || openbsd || windows)

package eventloop

import serialtty "github.com/allbin/go-serialtty"

func newPoller() (Poller, error) {
	return nil, serialtty.ErrUnsupportedPlatform
}
