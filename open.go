package serialtty

import (
	"io"
	"log/slog"
)

// Opener opens and configures the device named in Options
type Opener interface {
	Open(opts Options) (*Tty, error)
}

// OpenerFunc adapts a function to the Opener interface
type OpenerFunc func(opts Options) (*Tty, error)

func (f OpenerFunc) Open(opts Options) (*Tty, error) { return f(opts) }

// StandardOpener opens a device with the plain termios sequence
type StandardOpener struct {
	Logger *slog.Logger
}

// QuirkOpener opens USB bridges that need vendor-specific calls on the
// running platform
type QuirkOpener struct {
	Logger *slog.Logger
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
