//go:build !(linux || darwin || freebsd || dragonfly || netbsd || openbsd || windows)

package serialtty

// Tty is unavailable on this platform
type Tty struct {
	name string
}

func (t *Tty) Name() string { return t.name }
func (t *Tty) Fd() int { return -1 }
func (t *Tty) Read([]byte) (int, error) { return 0, ErrUnsupportedPlatform }
func (t *Tty) Write([]byte) (int, error) { return 0, ErrUnsupportedPlatform }
func (t *Tty) OnResize(WindowSize) {}
func (t *Tty) IsNonblocking() (bool, error) { return false, ErrUnsupportedPlatform }
func (t *Tty) Close() error { return ErrPortClosed }

func (o StandardOpener) Open(opts Options) (*Tty, error) {
	return nil, &OpenError{Device: opts.Name, Op: "open", Err: ErrUnsupportedPlatform}
}

func (o QuirkOpener) Open(opts Options) (*Tty, error) {
	return nil, &QuirkOpenError{Device: opts.Name, Op: "open", Err: ErrUnsupportedPlatform}
}
