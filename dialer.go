package serialtty

import (
	"log/slog"
	"runtime"
)

// Dialer resolves, routes and opens serial transports. The zero value is
// not usable, see NewDialer.
type Dialer struct {
	Lister   Lister
	Standard Opener
	Quirk    Opener
	GOOS     string
	Logger   *slog.Logger
}

// NewDialer returns a Dialer for the running platform
func NewDialer(logger *slog.Logger) *Dialer {
	return &Dialer{
		Lister:   SystemLister(),
		Standard: StandardOpener{Logger: logger},
		Quirk:    QuirkOpener{Logger: logger},
		GOOS:     runtime.GOOS,
		Logger:   logger,
	}
}

// Dial resolves opts.Name against the current enumeration, selects the open
// strategy for the device and opens it. Nothing is opened when the device is
// not enumerated.
func (d *Dialer) Dial(opts Options) (*Tty, error) {
	log := loggerOrDiscard(d.Logger)

	desc, err := Resolve(d.Lister, opts)
	if err != nil {
		return nil, err
	}
	if desc.IsUSB() {
		log.Info("resolved usb serial device",
			"device", desc.Name,
			"manufacturer", desc.Manufacturer,
			"vid", desc.VendorID,
			"pid", desc.ProductID,
		)
	}

	strategy := Route(desc, d.GOOS)
	log.Debug("open strategy selected", "device", desc.Name, "strategy", strategy, "os", d.GOOS)

	if strategy == StrategyQuirk {
		return d.Quirk.Open(opts)
	}
	return d.Standard.Open(opts)
}

// New opens a serial transport for the emulator. The window size and window
// ID are accepted for parity with the pty constructor and are not used.
func New(opts Options, _ WindowSize, _ uint64) (*Tty, error) {
	return NewDialer(nil).Dial(opts)
}
