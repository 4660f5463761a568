package models

import (
	"sync"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/allbin/go-serialtty/eventloop"
	"github.com/allbin/go-serialtty/internal/tui/components"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

// ConnectionStatusMsg reports the transport coming up or going down. Sender
// is set when Connected is true.
type ConnectionStatusMsg struct {
	Connected bool
	Sender    *eventloop.Sender
	Strategy  serialtty.Strategy
	Error     error
}

// SerialModel is the state shared by the TUI commands. The Sender is set
// from the connect goroutine and read from the bubbletea goroutine.
type SerialModel struct {
	opts serialtty.Options

	mu        sync.RWMutex
	sender    *eventloop.Sender
	connected bool
	err       error

	rawData   []components.DataReceivedMsg
	ready     bool
	inputMode InputMode
}

func NewSerialModel(opts serialtty.Options) *SerialModel {
	return &SerialModel{
		opts:      opts,
		inputMode: InputModeNormal,
	}
}

func (m *SerialModel) Options() serialtty.Options {
	return m.opts
}

func (m *SerialModel) PortPath() string {
	return m.opts.Name
}

// SetConnection records the outcome of a ConnectionStatusMsg
func (m *SerialModel) SetConnection(msg ConnectionStatusMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = msg.Connected
	m.err = msg.Error
	if msg.Connected {
		m.sender = msg.Sender
	} else {
		m.sender = nil
	}
}

// Sender returns the loop sender, or nil when not connected
func (m *SerialModel) Sender() *eventloop.Sender {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sender
}

func (m *SerialModel) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *SerialModel) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *SerialModel) IsReady() bool {
	return m.ready
}

func (m *SerialModel) SetReady(ready bool) {
	m.ready = ready
}

func (m *SerialModel) RawData() []components.DataReceivedMsg {
	return m.rawData
}

func (m *SerialModel) AddRawData(msg components.DataReceivedMsg) {
	m.rawData = append(m.rawData, msg)
}

func (m *SerialModel) ClearData() {
	m.rawData = nil
}

func (m *SerialModel) InputMode() InputMode {
	return m.inputMode
}

func (m *SerialModel) SetInputMode(mode InputMode) {
	m.inputMode = mode
}

func (m *SerialModel) IsInInsertMode() bool {
	return m.inputMode == InputModeInsert
}

// Send queues data on the transport. It fails with eventloop.ErrLoopClosed
// when the connection is down.
func (m *SerialModel) Send(data []byte) error {
	s := m.Sender()
	if s == nil {
		return eventloop.ErrLoopClosed
	}
	return s.Input(data)
}

// Resize forwards the host window size to the transport
func (m *SerialModel) Resize(size serialtty.WindowSize) {
	if s := m.Sender(); s != nil {
		s.Resize(size)
	}
}

// Shutdown asks the transport to drain and close
func (m *SerialModel) Shutdown() {
	if s := m.Sender(); s != nil {
		s.Shutdown()
	}
}
