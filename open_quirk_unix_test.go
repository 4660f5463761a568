//go:build linux || freebsd || dragonfly || netbsd || openbsd

package serialtty

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuirkOpenerUnavailable(t *testing.T) {
	_, err := QuirkOpener{}.Open(DefaultOptions().WithName("/dev/ttyUSB0"))

	var quirkErr *QuirkOpenError
	require.ErrorAs(t, err, &quirkErr)
	require.Equal(t, "/dev/ttyUSB0", quirkErr.Device)
	require.ErrorIs(t, err, ErrQuirkOpen)
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
	require.NotErrorIs(t, err, ErrOpen)
	require.Zero(t, quirkErr.Errno())
}
