//go:build linux || darwin || freebsd || dragonfly || netbsd || openbsd

package eventloop

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/allbin/go-serialtty/internal/poll"
)

// sockHandle is one end of a socketpair behaving like a non-blocking Tty
type sockHandle struct {
	fd      int
	closes  atomic.Int32
	resizes atomic.Int32
	maxW    int // when > 0, accept at most maxW bytes per write
	readErr error
}

func (h *sockHandle) Fd() int { return h.fd }

func (h *sockHandle) Read(buf []byte) (int, error) {
	if h.readErr != nil {
		return 0, h.readErr
	}
	n, err := unix.Read(h.fd, buf)
	if err == unix.EAGAIN {
		return 0, serialtty.ErrWouldBlock
	}
	if n < 0 {
		n = 0
	}
	return n, err
}

func (h *sockHandle) Write(data []byte) (int, error) {
	if h.maxW > 0 && len(data) > h.maxW {
		data = data[:h.maxW]
	}
	n, err := unix.Write(h.fd, data)
	if err == unix.EAGAIN {
		return 0, serialtty.ErrWouldBlock
	}
	if n < 0 {
		n = 0
	}
	return n, err
}

func (h *sockHandle) OnResize(serialtty.WindowSize) { h.resizes.Add(1) }

func (h *sockHandle) Name() string { return "socketpair" }

func (h *sockHandle) Close() error {
	h.closes.Add(1)
	return unix.Close(h.fd)
}

// newSockPair returns the loop's handle and the peer descriptor standing in
// for the device
func newSockPair(t *testing.T) (*sockHandle, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.SetNonblock(fds[0], true))
	t.Cleanup(func() { unix.Close(fds[1]) })
	return &sockHandle{fd: fds[0]}, fds[1]
}

// readPeer reads exactly n bytes from the blocking peer descriptor
func readPeer(t *testing.T, fd, n int) []byte {
	t.Helper()
	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 0, n)
		chunk := make([]byte, 4096)
		for len(buf) < n {
			m, err := unix.Read(fd, chunk)
			if err != nil || m <= 0 {
				break
			}
			buf = append(buf, chunk[:m]...)
		}
		got <- buf
	}()
	select {
	case b := <-got:
		return b
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout reading %d bytes from peer", n)
		return nil
	}
}

// collectInbound concatenates inbound chunks until n bytes have arrived
func collectInbound(t *testing.T, l *Loop, n int) []byte {
	t.Helper()
	var buf []byte
	timeout := time.After(5 * time.Second)
	for len(buf) < n {
		select {
		case chunk, ok := <-l.Inbound():
			if !ok {
				t.Fatalf("inbound closed after %d of %d bytes", len(buf), n)
			}
			buf = append(buf, chunk...)
		case <-timeout:
			t.Fatalf("timeout after %d of %d inbound bytes", len(buf), n)
		}
	}
	return buf
}

func waitResult(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
		return nil
	}
}

func TestLoopDeliversInWireOrder(t *testing.T) {
	h, peer := newSockPair(t)
	l, err := New(h, WithReadBufferSize(3))
	require.NoError(t, err)
	done := l.Spawn(context.Background())

	var want []byte
	for _, chunk := range []string{"hello ", "serial ", "world", "\r\n", "0123456789"} {
		_, err := unix.Write(peer, []byte(chunk))
		require.NoError(t, err)
		want = append(want, chunk...)
	}

	require.Equal(t, want, collectInbound(t, l, len(want)))

	l.Sender().Shutdown()
	require.NoError(t, waitResult(t, done))
}

func TestLoopWritesInSendOrder(t *testing.T) {
	h, peer := newSockPair(t)
	h.maxW = 5
	l, err := New(h)
	require.NoError(t, err)
	done := l.Spawn(context.Background())

	sender := l.Sender()
	var want []byte
	for i := 0; i < 50; i++ {
		msg := []byte{byte('a' + i%26), byte('0' + i%10), ';'}
		require.NoError(t, sender.Input(msg))
		want = append(want, msg...)
	}

	require.Equal(t, want, readPeer(t, peer, len(want)))

	sender.Shutdown()
	require.NoError(t, waitResult(t, done))
}

func TestLoopWriteBackpressure(t *testing.T) {
	h, peer := newSockPair(t)
	l, err := New(h)
	require.NoError(t, err)
	done := l.Spawn(context.Background())

	// Larger than the socket buffer, forcing would-block and writable waits
	payload := bytes.Repeat([]byte("0123456789abcdef"), 1<<16)
	require.NoError(t, l.Sender().Input(payload))
	require.Positive(t, l.Buffered())

	got := readPeer(t, peer, len(payload))
	require.True(t, bytes.Equal(payload, got), "payload corrupted or reordered")
	require.Eventually(t, func() bool { return l.Buffered() == 0 }, time.Second, 5*time.Millisecond)

	l.Shutdown()
	require.NoError(t, waitResult(t, done))
}

func TestInputCopiesCallerBuffer(t *testing.T) {
	h, peer := newSockPair(t)
	l, err := New(h)
	require.NoError(t, err)

	buf := []byte("AB")
	require.NoError(t, l.Sender().Input(buf))
	buf[0], buf[1] = 'x', 'y'
	require.NoError(t, l.Sender().Input(nil))

	done := l.Spawn(context.Background())
	require.Equal(t, []byte{0x41, 0x42}, readPeer(t, peer, 2))

	l.Shutdown()
	require.NoError(t, waitResult(t, done))
}

func TestShutdownFlushesQueuedInput(t *testing.T) {
	h, peer := newSockPair(t)
	l, err := New(h)
	require.NoError(t, err)

	sender := l.Sender()
	require.NoError(t, sender.Input([]byte("bye")))
	sender.Shutdown()

	require.NoError(t, l.Run(context.Background()))
	require.Equal(t, []byte("bye"), readPeer(t, peer, 3))
}

func TestShutdownIsIdempotentAndTerminal(t *testing.T) {
	h, _ := newSockPair(t)
	l, err := New(h)
	require.NoError(t, err)
	require.Equal(t, Registered, l.State())

	done := l.Spawn(context.Background())
	sender := l.Sender()
	sender.Shutdown()
	sender.Shutdown()
	require.NoError(t, sender.Send(ShutdownMsg{}))
	l.Shutdown()

	require.NoError(t, waitResult(t, done))
	require.Equal(t, Closed, l.State())
	require.EqualValues(t, 1, h.closes.Load())

	select {
	case <-l.Done():
	default:
		t.Fatal("Done not closed")
	}
	_, ok := <-l.Inbound()
	require.False(t, ok, "inbound should be closed")

	require.ErrorIs(t, sender.Input([]byte("late")), ErrLoopClosed)
	require.ErrorIs(t, sender.Resize(serialtty.WindowSize{Rows: 1, Cols: 1}), ErrLoopClosed)
	require.ErrorIs(t, l.Run(context.Background()), ErrLoopClosed)
	sender.Shutdown()
	require.EqualValues(t, 1, h.closes.Load())
}

func TestContextCancelShutsDown(t *testing.T) {
	h, _ := newSockPair(t)
	l, err := New(h)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := l.Spawn(ctx)
	cancel()

	require.NoError(t, waitResult(t, done))
	require.Equal(t, Closed, l.State())
}

func TestShutdownWithUnreadInbound(t *testing.T) {
	h, peer := newSockPair(t)
	l, err := New(h, WithInboundCapacity(0))
	require.NoError(t, err)
	done := l.Spawn(context.Background())

	// Nobody reads Inbound while the loop runs and shuts down
	_, err = unix.Write(peer, []byte("unread"))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	l.Shutdown()
	require.NoError(t, waitResult(t, done))
	require.Equal(t, Closed, l.State())

	// Bytes read before the close are still handed over, then Inbound closes
	require.Equal(t, []byte("unread"), collectInbound(t, l, 6))
	_, ok := <-l.Inbound()
	require.False(t, ok)
}

func TestOutputFlowsWhileInboundUnread(t *testing.T) {
	h, peer := newSockPair(t)
	l, err := New(h, WithInboundCapacity(0))
	require.NoError(t, err)
	done := l.Spawn(context.Background())

	_, err = unix.Write(peer, []byte("x"))
	require.NoError(t, err)

	sender := l.Sender()
	require.NoError(t, sender.Input([]byte{0x41, 0x42}))
	require.Equal(t, []byte{0x41, 0x42}, readPeer(t, peer, 2))

	// Far more messages than the queue holds; none may block
	sent := make(chan error, 1)
	go func() {
		for i := 0; i < 4*defaultMessageCapacity; i++ {
			if err := sender.Input([]byte{'.'}); err != nil {
				sent <- err
				return
			}
		}
		sent <- nil
	}()
	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Input blocked while Inbound was unread")
	}
	require.Equal(t, bytes.Repeat([]byte{'.'}, 4*defaultMessageCapacity), readPeer(t, peer, 4*defaultMessageCapacity))

	l.Shutdown()
	require.NoError(t, waitResult(t, done))
	require.Equal(t, []byte("x"), collectInbound(t, l, 1))
}

func TestReadingPausesWhenBacklogFull(t *testing.T) {
	h, peer := newSockPair(t)
	l, err := New(h, WithInboundCapacity(0), WithInboundBacklog(4), WithReadBufferSize(2))
	require.NoError(t, err)
	done := l.Spawn(context.Background())

	want := []byte("0123456789")
	_, err = unix.Write(peer, want)
	require.NoError(t, err)

	backlog := func() int {
		l.inMu.Lock()
		defer l.inMu.Unlock()
		return l.backlogBytes
	}
	require.Eventually(t, func() bool { return backlog() == 4 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 4, backlog())

	require.Equal(t, want, collectInbound(t, l, len(want)))

	l.Shutdown()
	require.NoError(t, waitResult(t, done))
}

func TestSendRejectedOnceSealed(t *testing.T) {
	h, _ := newSockPair(t)
	t.Cleanup(func() { unix.Close(h.fd) })
	l, err := New(h)
	require.NoError(t, err)
	t.Cleanup(func() { l.poller.Close() })

	l.sendMu.Lock()
	l.sealed = true
	l.sendMu.Unlock()

	require.ErrorIs(t, l.Sender().Input([]byte("late")), ErrLoopClosed)
	require.Zero(t, l.Buffered())
	require.Empty(t, l.msgs)
}

func TestAcceptedInputIsWrittenAcrossShutdown(t *testing.T) {
	h, peer := newSockPair(t)
	l, err := New(h)
	require.NoError(t, err)
	done := l.Spawn(context.Background())

	var accepted atomic.Int64
	start := make(chan struct{})
	finished := make(chan struct{})
	const senders, perSender = 8, 50
	for i := 0; i < senders; i++ {
		go func() {
			defer func() { finished <- struct{}{} }()
			<-start
			for j := 0; j < perSender; j++ {
				if l.Sender().Input([]byte("abc")) == nil {
					accepted.Add(3)
				}
			}
		}()
	}
	close(start)
	time.Sleep(time.Millisecond)
	l.Shutdown()
	for i := 0; i < senders; i++ {
		<-finished
	}
	require.NoError(t, waitResult(t, done))

	// The loop closed its end, so the peer reads everything then EOF
	got := readPeer(t, peer, senders*perSender*3)
	require.Len(t, got, int(accepted.Load()))
}

func TestResizeIsForwarded(t *testing.T) {
	h, peer := newSockPair(t)
	l, err := New(h)
	require.NoError(t, err)

	sender := l.Sender()
	require.NoError(t, sender.Resize(serialtty.WindowSize{Rows: 24, Cols: 80}))
	require.NoError(t, sender.Resize(serialtty.WindowSize{Rows: 50, Cols: 132}))
	require.NoError(t, sender.Input([]byte("!")))

	done := l.Spawn(context.Background())
	require.Equal(t, []byte("!"), readPeer(t, peer, 1))
	l.Shutdown()
	require.NoError(t, waitResult(t, done))

	require.EqualValues(t, 2, h.resizes.Load())
}

func TestReadErrorClosesLoop(t *testing.T) {
	h, peer := newSockPair(t)
	cause := errors.New("framing error")
	h.readErr = cause
	l, err := New(h)
	require.NoError(t, err)
	done := l.Spawn(context.Background())

	_, err = unix.Write(peer, []byte("x"))
	require.NoError(t, err)

	err = waitResult(t, done)
	require.ErrorIs(t, err, serialtty.ErrTransportIO)
	require.ErrorIs(t, err, cause)

	var ioErr *serialtty.TransportIOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "read", ioErr.Op)
	require.Equal(t, "socketpair", ioErr.Device)

	require.Equal(t, Closed, l.State())
	require.EqualValues(t, 1, h.closes.Load())
	require.ErrorIs(t, l.Sender().Input([]byte("y")), ErrLoopClosed)
}

func TestPeerHangupClosesLoop(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("hangup reporting for sockets differs across platforms")
	}
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.SetNonblock(fds[0], true))
	h := &sockHandle{fd: fds[0]}

	l, err := New(h)
	require.NoError(t, err)
	done := l.Spawn(context.Background())

	require.NoError(t, unix.Close(fds[1]))

	err = waitResult(t, done)
	require.ErrorIs(t, err, serialtty.ErrTransportIO)
	require.ErrorIs(t, err, serialtty.ErrHangup)
}

// readyPoller reports its descriptor readable on every wait, the way select
// reports a hung-up tty
type readyPoller struct{ fd int }

func (p *readyPoller) Register(fd int, _ Interest) error { p.fd = fd; return nil }
func (p *readyPoller) Reregister(int, Interest) error { return nil }
func (p *readyPoller) Deregister(int) error { return nil }
func (p *readyPoller) Wake() error { return nil }
func (p *readyPoller) Close() error { return nil }

func (p *readyPoller) Wait(events []Event, _ time.Duration) ([]Event, error) {
	return append(events, Event{Fd: p.fd, Readable: true}), nil
}

// eofHandle reads zero bytes without error, as a tty does after carrier loss
type eofHandle struct{ closes int }

func (h *eofHandle) Fd() int { return 7 }
func (h *eofHandle) Read([]byte) (int, error) { return 0, nil }
func (h *eofHandle) Write(data []byte) (int, error) { return len(data), nil }
func (h *eofHandle) OnResize(serialtty.WindowSize) {}
func (h *eofHandle) Close() error { h.closes++; return nil }

func TestZeroByteReadableReadIsHangup(t *testing.T) {
	h := &eofHandle{}
	l, err := New(h, WithPoller(&readyPoller{}))
	require.NoError(t, err)

	err = l.Run(context.Background())
	require.ErrorIs(t, err, serialtty.ErrTransportIO)
	require.ErrorIs(t, err, serialtty.ErrHangup)
	require.Equal(t, Closed, l.State())
	require.Equal(t, 1, h.closes)
}

func TestWithPollerNotClosed(t *testing.T) {
	p, err := poll.New()
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	h, _ := newSockPair(t)
	l, err := New(h, WithPoller(p))
	require.NoError(t, err)

	l.Shutdown()
	require.NoError(t, l.Run(context.Background()))

	// The loop deregistered but left the shared poller open
	require.NoError(t, p.Wake())
	require.ErrorIs(t, p.Deregister(h.fd), poll.ErrNotRegistered)
}

func TestOptionValidation(t *testing.T) {
	h, _ := newSockPair(t)
	t.Cleanup(func() { unix.Close(h.fd) })

	_, err := New(h, WithReadBufferSize(0))
	require.Error(t, err)
	_, err = New(h, WithInboundCapacity(-1))
	require.Error(t, err)
	_, err = New(h, WithPoller(nil))
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "registered", Registered.String())
	require.Equal(t, "draining", Draining.String())
	require.Equal(t, "closed", Closed.String())
}

func TestLoopOverPty(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	tty, err := serialtty.StandardOpener{}.Open(serialtty.DefaultOptions().WithName(slave.Name()))
	require.NoError(t, err)

	l, err := New(tty)
	require.NoError(t, err)
	done := l.Spawn(context.Background())

	require.NoError(t, l.Sender().Input([]byte{0x41, 0x42}))
	buf := make([]byte, 2)
	readDone := make(chan error, 1)
	go func() {
		_, err := master.Read(buf)
		readDone <- err
	}()
	select {
	case err := <-readDone:
		require.NoError(t, err)
		require.Equal(t, []byte{0x41, 0x42}, buf)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for bytes on pty master")
	}

	_, err = master.Write([]byte("OK"))
	require.NoError(t, err)
	require.Equal(t, []byte("OK"), collectInbound(t, l, 2))

	l.Shutdown()
	require.NoError(t, waitResult(t, done))
	require.ErrorIs(t, tty.Close(), serialtty.ErrPortClosed)
}
