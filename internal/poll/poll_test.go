//go:build linux || darwin || freebsd || dragonfly || netbsd || openbsd

package poll

import (
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	t.Cleanup(func() { unix.Close(fds[0]); unix.Close(fds[1]) })
	return fds[0], fds[1]
}

func newPoller(t *testing.T) *Poller {
	t.Helper()
	p, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestRegistration(t *testing.T) {
	p := newPoller(t)
	r, _ := newPipe(t)

	require.ErrorIs(t, p.Register(-1, Readable), ErrInvalidDescriptor)
	require.ErrorIs(t, p.Reregister(r, Readable), ErrNotRegistered)
	require.ErrorIs(t, p.Deregister(r), ErrNotRegistered)

	require.NoError(t, p.Register(r, Readable))
	require.ErrorIs(t, p.Register(r, Readable), ErrRegistered)
	require.NoError(t, p.Reregister(r, Readable|Writable))
	require.NoError(t, p.Deregister(r))
	require.ErrorIs(t, p.Deregister(r), ErrNotRegistered)
}

func TestWaitTimeout(t *testing.T) {
	p := newPoller(t)
	r, _ := newPipe(t)
	require.NoError(t, p.Register(r, Readable))

	start := time.Now()
	events, err := p.Wait(nil, 30*time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, events)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWaitReadable(t *testing.T) {
	p := newPoller(t)
	r, w := newPipe(t)
	require.NoError(t, p.Register(r, Readable))

	_, err := unix.Write(w, []byte("x"))
	require.NoError(t, err)

	events, err := p.Wait(nil, time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, r, events[0].Fd)
	require.True(t, events[0].Readable)
	require.False(t, events[0].Writable)
}

func TestWaitTerminal(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })
	fd := int(slave.Fd())
	require.NoError(t, unix.SetNonblock(fd, true))

	p := newPoller(t)
	require.NoError(t, p.Register(fd, Readable|Writable))

	events, err := p.Wait(nil, time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.True(t, events[0].Writable)
	require.False(t, events[0].Error)

	require.NoError(t, p.Reregister(fd, Readable))
	_, err = master.Write([]byte("at\r"))
	require.NoError(t, err)

	events, err = p.Wait(nil, time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, fd, events[0].Fd)
	require.True(t, events[0].Readable)
	require.False(t, events[0].Error)
}

func TestWaitWritableOnlyWhenAsked(t *testing.T) {
	p := newPoller(t)
	_, w := newPipe(t)
	require.NoError(t, p.Register(w, 0))

	events, err := p.Wait(nil, 10*time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, events)

	require.NoError(t, p.Reregister(w, Writable))
	events, err = p.Wait(nil, time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.True(t, events[0].Writable)
}

func TestWaitHangup(t *testing.T) {
	p := newPoller(t)
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	t.Cleanup(func() { unix.Close(fds[0]) })
	require.NoError(t, p.Register(fds[0], Readable))

	require.NoError(t, unix.Close(fds[1]))

	events, err := p.Wait(nil, time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.True(t, events[0].Hangup || events[0].Readable)
}

func TestWakeInterruptsWait(t *testing.T) {
	p := newPoller(t)
	r, _ := newPipe(t)
	require.NoError(t, p.Register(r, Readable))

	go func() {
		time.Sleep(20 * time.Millisecond)
		p.Wake()
	}()

	result := make(chan []Event, 1)
	go func() {
		events, _ := p.Wait(nil, -1)
		result <- events
	}()

	select {
	case events := <-result:
		require.Empty(t, events)
	case <-time.After(5 * time.Second):
		t.Fatal("Wake did not interrupt Wait")
	}
}

func TestWakeCoalesces(t *testing.T) {
	p := newPoller(t)
	for i := 0; i < 100000; i++ {
		require.NoError(t, p.Wake())
	}

	events, err := p.Wait(nil, time.Second)
	require.NoError(t, err)
	require.Empty(t, events)

	// The pipe was drained, so the next wait times out
	start := time.Now()
	_, err = p.Wait(nil, 20*time.Millisecond)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestClosed(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.Close())

	require.ErrorIs(t, p.Close(), ErrClosed)
	require.ErrorIs(t, p.Wake(), ErrClosed)
	require.ErrorIs(t, p.Register(0, Readable), ErrClosed)
	_, err = p.Wait(nil, 0)
	require.ErrorIs(t, err, ErrClosed)
}
