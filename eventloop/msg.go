package eventloop

import (
	"bytes"
	"errors"

	serialtty "github.com/allbin/go-serialtty"
)

// ErrLoopClosed is returned when sending to, or running, a closed loop
var ErrLoopClosed = errors.New("event loop is closed")

// Msg is a message from the emulator to the loop
type Msg interface {
	isMsg()
}

// InputMsg carries bytes to write to the wire
type InputMsg []byte

// ResizeMsg carries a new window size
type ResizeMsg serialtty.WindowSize

// ShutdownMsg asks the loop to drain and close
type ShutdownMsg struct{}

func (InputMsg) isMsg()    {}
func (ResizeMsg) isMsg()   {}
func (ShutdownMsg) isMsg() {}

// Sender queues messages for a loop and wakes it. It is safe for concurrent
// use; messages from one goroutine are processed in the order sent.
type Sender struct {
	loop *Loop
}

// Send queues m and wakes the loop. A nil error means the loop will process
// m: input accepted here is written, or counted as dropped, before the loop
// closes. Once a shutdown has been requested Send may return ErrLoopClosed.
func (s *Sender) Send(m Msg) error {
	l := s.loop
	if _, ok := m.(ShutdownMsg); ok {
		l.requestShutdown()
		return nil
	}

	l.sendMu.RLock()
	defer l.sendMu.RUnlock()
	if l.sealed {
		return ErrLoopClosed
	}
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}

	in, isInput := m.(InputMsg)
	if isInput {
		l.buffered.Add(int64(len(in)))
	}
	select {
	case l.msgs <- m:
	case <-l.stop:
		if isInput {
			l.buffered.Add(int64(-len(in)))
		}
		return ErrLoopClosed
	case <-l.done:
		if isInput {
			l.buffered.Add(int64(-len(in)))
		}
		return ErrLoopClosed
	}
	if err := l.poller.Wake(); err != nil {
		if l.State() == Closed {
			return ErrLoopClosed
		}
		return err
	}
	return nil
}

// Input queues a copy of data for writing
func (s *Sender) Input(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return s.Send(InputMsg(bytes.Clone(data)))
}

// Resize forwards a window size change to the transport
func (s *Sender) Resize(size serialtty.WindowSize) error {
	return s.Send(ResizeMsg(size))
}

// Shutdown asks the loop to drain and close. It may be called any number of
// times.
func (s *Sender) Shutdown() {
	s.loop.requestShutdown()
}
