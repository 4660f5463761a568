//go:build linux || freebsd || dragonfly || netbsd || openbsd

package serialtty

// Open fails: no vendor workaround is needed on this platform and Route
// never selects it here
func (o QuirkOpener) Open(opts Options) (*Tty, error) {
	return nil, &QuirkOpenError{Device: opts.Name, Op: "open", Err: ErrUnsupportedPlatform}
}
