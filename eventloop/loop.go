package eventloop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/allbin/go-serialtty/internal/poll"
)

// Handle is the transport driven by the loop. *serialtty.Tty implements it.
// Read and Write must not block and report serialtty.ErrWouldBlock when
// there is nothing to do.
type Handle interface {
	Fd() int
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	OnResize(size serialtty.WindowSize)
	Close() error
}

// Interest and Event are the multiplexer's readiness types
type (
	Interest = poll.Interest
	Event    = poll.Event
)

const (
	Readable = poll.Readable
	Writable = poll.Writable
)

// Poller is the readiness multiplexer the loop waits on
type Poller interface {
	Register(fd int, interest Interest) error
	Reregister(fd int, interest Interest) error
	Deregister(fd int) error
	Wait(events []Event, timeout time.Duration) ([]Event, error)
	Wake() error
	Close() error
}

// State is the lifecycle state of a loop
type State int32

const (
	Registered State = iota
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Registered:
		return "registered"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

const (
	defaultReadBufferSize  = 4096
	defaultInboundCapacity = 64
	defaultMessageCapacity = 64
	defaultInboundBacklog  = 1 << 20
)

// Option configures a Loop
type Option func(*Loop) error

// WithPoller uses p instead of a poller created for the loop. The loop does
// not close a poller it did not create.
func WithPoller(p Poller) Option {
	return func(l *Loop) error {
		if p == nil {
			return errors.New("nil poller")
		}
		l.poller = p
		return nil
	}
}

// WithLogger sets the loop's logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) error {
		if logger != nil {
			l.log = logger
		}
		return nil
	}
}

// WithReadBufferSize sets the size of a single read from the transport
func WithReadBufferSize(n int) Option {
	return func(l *Loop) error {
		if n <= 0 {
			return fmt.Errorf("invalid read buffer size %d", n)
		}
		l.readBuf = make([]byte, n)
		return nil
	}
}

// WithInboundCapacity sets how many chunks Inbound buffers
func WithInboundCapacity(n int) Option {
	return func(l *Loop) error {
		if n < 0 {
			return fmt.Errorf("invalid inbound capacity %d", n)
		}
		l.inbound = make(chan []byte, n)
		return nil
	}
}

// WithInboundBacklog sets how many bytes read from the wire may wait for the
// emulator before the loop stops reading. Unread bytes then stay in the
// driver, where flow control can act on them.
func WithInboundBacklog(n int) Option {
	return func(l *Loop) error {
		if n <= 0 {
			return fmt.Errorf("invalid inbound backlog %d", n)
		}
		l.maxBacklog = n
		return nil
	}
}

// Loop moves bytes between a Handle and the emulator
type Loop struct {
	handle Handle
	poller Poller
	owned  bool
	log    *slog.Logger

	msgs    chan Msg
	inbound chan []byte
	done    chan struct{}
	stop    chan struct{}

	state    atomic.Int32
	running  atomic.Bool
	buffered atomic.Int64
	stopOnce sync.Once
	doneOnce sync.Once

	// sealed is set under sendMu once the final drain has started; no
	// message is accepted after that
	sendMu sync.RWMutex
	sealed bool

	// bytes read from the wire, waiting for deliverInbound
	inMu         sync.Mutex
	backlog      [][]byte
	backlogBytes int
	maxBacklog   int
	inReady      chan struct{}

	readBuf  []byte
	pending  []byte
	interest Interest
	events   []Event
}

// New registers h with the poller for readable and writable interest and
// returns a loop in the Registered state
func New(h Handle, opts ...Option) (*Loop, error) {
	l := &Loop{
		handle:  h,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		msgs:    make(chan Msg, defaultMessageCapacity),
		inbound: make(chan []byte, defaultInboundCapacity),
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
		readBuf: make([]byte, defaultReadBufferSize),
		inReady: make(chan struct{}, 1),

		maxBacklog: defaultInboundBacklog,
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if l.poller == nil {
		p, err := newPoller()
		if err != nil {
			return nil, fmt.Errorf("failed to create poller: %w", err)
		}
		l.poller = p
		l.owned = true
	}

	l.interest = Readable | Writable
	if err := l.poller.Register(h.Fd(), l.interest); err != nil {
		if l.owned {
			l.poller.Close()
		}
		return nil, fmt.Errorf("failed to register transport: %w", err)
	}
	l.state.Store(int32(Registered))
	return l, nil
}

// Sender returns the emulator side of the loop
func (l *Loop) Sender() *Sender {
	return &Sender{loop: l}
}

// Inbound delivers bytes read from the wire in arrival order. Delivery runs
// on its own goroutine, so a slow reader never stalls writes. Bytes read
// before the loop closed are still delivered, then the channel is closed;
// read it until it is closed.
func (l *Loop) Inbound() <-chan []byte {
	return l.inbound
}

// Done is closed once the loop reaches Closed
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Buffered returns the number of bytes accepted by Sender.Input that have
// not reached the transport yet
func (l *Loop) Buffered() int {
	return int(l.buffered.Load())
}

// State returns the current state
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Shutdown asks the loop to drain and close. It is idempotent.
func (l *Loop) Shutdown() {
	l.requestShutdown()
}

func (l *Loop) requestShutdown() {
	l.stopOnce.Do(func() {
		close(l.stop)
		if l.State() != Closed {
			l.poller.Wake()
		}
	})
}

// Spawn runs the loop on a new goroutine. The returned channel receives the
// result of Run and is then closed.
func (l *Loop) Spawn(ctx context.Context) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- l.Run(ctx)
	}()
	return ch
}

// Run drives the loop until shutdown or an I/O error. It returns nil after
// a requested shutdown and a *serialtty.TransportIOError after a failure.
// Cancelling ctx requests a shutdown.
func (l *Loop) Run(ctx context.Context) error {
	if l.State() == Closed || !l.running.CompareAndSwap(false, true) {
		return ErrLoopClosed
	}

	stopWake := context.AfterFunc(ctx, l.requestShutdown)
	defer stopWake()

	go l.deliverInbound()

	fd := l.handle.Fd()
	for {
		if l.stopping() {
			return l.drain()
		}

		if err := l.processMessages(); err != nil {
			return err
		}

		if err := l.updateInterest(fd); err != nil {
			return l.fail("register", err)
		}

		events, err := l.poller.Wait(l.events[:0], -1)
		if err != nil {
			return l.fail("poll", err)
		}
		l.events = events

		for _, ev := range events {
			if ev.Fd != fd || l.stopping() {
				continue
			}
			if ev.Readable || ev.Hangup || ev.Error {
				if err := l.readAvailable(ev); err != nil {
					return l.fail("read", err)
				}
			}
			if ev.Writable {
				if err := l.flush(); err != nil {
					return l.fail("write", err)
				}
			}
		}
	}
}

func (l *Loop) stopping() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

// processMessages handles every message queued so far without blocking
func (l *Loop) processMessages() error {
	for {
		select {
		case m := <-l.msgs:
			l.handleMessage(m)
		default:
			return nil
		}
	}
}

func (l *Loop) handleMessage(m Msg) {
	switch m := m.(type) {
	case InputMsg:
		l.pending = append(l.pending, m...)
	case ResizeMsg:
		l.handle.OnResize(serialtty.WindowSize(m))
	}
}

// updateInterest asks for readability while the inbound backlog has room
// and for writability only while output is queued
func (l *Loop) updateInterest(fd int) error {
	var want Interest
	if !l.backlogFull() {
		want |= Readable
	}
	if len(l.pending) > 0 {
		want |= Writable
	}
	if want == l.interest {
		return nil
	}
	if err := l.poller.Reregister(fd, want); err != nil {
		return err
	}
	l.interest = want
	return nil
}

// readAvailable reads until the transport would block or the inbound
// backlog is full, and queues every chunk in order. A zero-byte read is a
// hangup when the multiplexer reported one, or when it reported the
// descriptor readable and nothing could be read.
func (l *Loop) readAvailable(ev Event) error {
	hangup := ev.Hangup || ev.Error
	for first := true; ; first = false {
		if !hangup && l.backlogFull() {
			return nil
		}
		n, err := l.handle.Read(l.readBuf)
		if n > 0 {
			l.pushInbound(bytes.Clone(l.readBuf[:n]))
		}
		switch {
		case errors.Is(err, serialtty.ErrWouldBlock):
			if n == 0 && hangup && !ev.Readable {
				return serialtty.ErrHangup
			}
			return nil
		case err != nil:
			return err
		case n == 0:
			if hangup || (first && ev.Readable) {
				return serialtty.ErrHangup
			}
			return nil
		}
	}
}

func (l *Loop) backlogFull() bool {
	l.inMu.Lock()
	defer l.inMu.Unlock()
	return l.backlogBytes >= l.maxBacklog
}

func (l *Loop) pushInbound(chunk []byte) {
	l.inMu.Lock()
	l.backlog = append(l.backlog, chunk)
	l.backlogBytes += len(chunk)
	l.inMu.Unlock()

	select {
	case l.inReady <- struct{}{}:
	default:
	}
}

// popInbound takes the oldest chunk. When that makes room in a full backlog
// the loop is woken to resume reading.
func (l *Loop) popInbound() ([]byte, bool) {
	l.inMu.Lock()
	if len(l.backlog) == 0 {
		l.inMu.Unlock()
		return nil, false
	}
	chunk := l.backlog[0]
	l.backlog[0] = nil
	l.backlog = l.backlog[1:]
	wasFull := l.backlogBytes >= l.maxBacklog
	l.backlogBytes -= len(chunk)
	resumed := wasFull && l.backlogBytes < l.maxBacklog
	l.inMu.Unlock()

	if resumed && l.State() == Registered {
		l.poller.Wake()
	}
	return chunk, true
}

// deliverInbound hands queued chunks to the emulator. It is the only
// goroutine that blocks on Inbound, and it closes Inbound once the loop is
// closed and everything read before has been delivered.
func (l *Loop) deliverInbound() {
	defer close(l.inbound)
	for {
		if chunk, ok := l.popInbound(); ok {
			l.inbound <- chunk
			continue
		}
		select {
		case <-l.inReady:
		case <-l.done:
			if l.backlogEmpty() {
				return
			}
		}
	}
}

func (l *Loop) backlogEmpty() bool {
	l.inMu.Lock()
	defer l.inMu.Unlock()
	return len(l.backlog) == 0
}

// flush writes queued output until it is empty or the transport would block
func (l *Loop) flush() error {
	for len(l.pending) > 0 {
		n, err := l.handle.Write(l.pending)
		if n > 0 {
			l.pending = l.pending[n:]
			l.buffered.Add(int64(-n))
		}
		if errors.Is(err, serialtty.ErrWouldBlock) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
	l.pending = nil
	return nil
}

// drain performs the Draining transition: deregister, one best-effort flush
// of everything queued, then close
func (l *Loop) drain() error {
	l.state.Store(int32(Draining))
	if err := l.poller.Deregister(l.handle.Fd()); err != nil {
		l.log.Debug("deregister failed", "error", err)
	}

	// Senders blocked on a full queue give up once stop is closed, so the
	// lock is always granted. Everything queued before it is flushed below.
	l.sendMu.Lock()
	l.sealed = true
	l.sendMu.Unlock()

	l.processMessages()
	err := l.flush()
	if len(l.pending) > 0 {
		l.log.Warn("discarding unflushed output on shutdown", "bytes", len(l.pending))
		l.buffered.Add(int64(-len(l.pending)))
		l.pending = nil
	}
	l.close()

	if err != nil {
		return l.ioError("write", err)
	}
	return nil
}

// fail moves straight to Closed after an I/O error
func (l *Loop) fail(op string, err error) error {
	if derr := l.poller.Deregister(l.handle.Fd()); derr != nil {
		l.log.Debug("deregister failed", "error", derr)
	}
	l.close()
	ioErr := l.ioError(op, err)
	l.log.Error("serial transport failed", "error", ioErr)
	return ioErr
}

func (l *Loop) ioError(op string, err error) error {
	name := ""
	if n, ok := l.handle.(interface{ Name() string }); ok {
		name = n.Name()
	}
	return &serialtty.TransportIOError{Device: name, Op: op, Err: err}
}

func (l *Loop) close() {
	l.doneOnce.Do(func() {
		l.state.Store(int32(Closed))
		l.buffered.Store(0)
		if err := l.handle.Close(); err != nil {
			l.log.Debug("close transport", "error", err)
		}
		if l.owned {
			l.poller.Close()
		}
		close(l.done)
	})
}
