package serialtty

import (
	"fmt"
	"strings"
	"time"
)

// DataBits is the character size of the link
type DataBits uint8

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone     FlowControl = iota
	FlowControlSoftware             // XON/XOFF
	FlowControlHardware             // RTS/CTS
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlSoftware:
		return "software"
	case FlowControlHardware:
		return "hardware"
	default:
		return fmt.Sprintf("FlowControl(%d)", int(f))
	}
}

// ParseFlowControl parses "none", "software" (or "xonxoff") and "hardware" (or "rtscts")
func ParseFlowControl(s string) (FlowControl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FlowControlNone, nil
	case "software", "xonxoff", "xon/xoff":
		return FlowControlSoftware, nil
	case "hardware", "rtscts", "rts/cts":
		return FlowControlHardware, nil
	}
	return FlowControlNone, fmt.Errorf("%w: flow control %q", ErrInvalidConfig, s)
}

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return fmt.Sprintf("Parity(%d)", int(p))
	}
}

// ParseParity parses "none", "odd" and "even" (or their first letter)
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "n":
		return ParityNone, nil
	case "odd", "o":
		return ParityOdd, nil
	case "even", "e":
		return ParityEven, nil
	}
	return ParityNone, fmt.Errorf("%w: parity %q", ErrInvalidConfig, s)
}

// StopBits is the number of stop bits
type StopBits uint8

const (
	StopBits1 StopBits = 1
	StopBits2 StopBits = 2
)

// DTR selects what happens to the DTR line when the port is opened
type DTR int

const (
	DTRUnspecified DTR = iota // treated as DTRAssert
	DTRAssert
	DTRDeassert
)

// Resolve reports whether DTR should be asserted on open
func (d DTR) Resolve() bool {
	return d != DTRDeassert
}

func (d DTR) String() string {
	switch d {
	case DTRUnspecified:
		return "unspecified"
	case DTRAssert:
		return "assert"
	case DTRDeassert:
		return "deassert"
	default:
		return fmt.Sprintf("DTR(%d)", int(d))
	}
}

// DefaultBaudRate is the baud rate used by DefaultOptions
const DefaultBaudRate uint32 = 115200

// Options describes the serial link to open. It is a plain value: the With*
// methods return an updated copy and never modify the receiver.
type Options struct {
	Name        string
	BaudRate    uint32
	DataBits    DataBits
	FlowControl FlowControl
	Parity      Parity
	StopBits    StopBits
	Timeout     time.Duration // advisory only, mapped to VTIME
	DTROnOpen   DTR
}

// DefaultOptions returns 115200 8N1, no flow control, DTR asserted, on the
// platform's default device
func DefaultOptions() Options {
	return Options{
		Name:        DefaultDevice(),
		BaudRate:    DefaultBaudRate,
		DataBits:    DataBits8,
		FlowControl: FlowControlNone,
		Parity:      ParityNone,
		StopBits:    StopBits1,
		Timeout:     0,
		DTROnOpen:   DTRAssert,
	}
}

// WithName returns a copy of o using the given device name
func (o Options) WithName(name string) Options {
	o.Name = name
	return o
}

// WithBaudRate returns a copy of o using the given baud rate
func (o Options) WithBaudRate(rate uint32) Options {
	o.BaudRate = rate
	return o
}

// WithDataBits returns a copy of o using the given data bits
func (o Options) WithDataBits(bits DataBits) Options {
	o.DataBits = bits
	return o
}

// WithFlowControl returns a copy of o using the given flow control mode
func (o Options) WithFlowControl(fc FlowControl) Options {
	o.FlowControl = fc
	return o
}

// WithParity returns a copy of o using the given parity mode
func (o Options) WithParity(p Parity) Options {
	o.Parity = p
	return o
}

// WithStopBits returns a copy of o using the given stop bits
func (o Options) WithStopBits(bits StopBits) Options {
	o.StopBits = bits
	return o
}

// WithTimeout returns a copy of o using the given advisory read timeout
func (o Options) WithTimeout(timeout time.Duration) Options {
	o.Timeout = timeout
	return o
}

// WithDTROnOpen returns a copy of o using the given DTR behaviour
func (o Options) WithDTROnOpen(dtr DTR) Options {
	o.DTROnOpen = dtr
	return o
}

// Validate checks that every field holds a supported value
func (o Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("%w: empty device name", ErrInvalidConfig)
	}
	if o.BaudRate == 0 {
		return fmt.Errorf("%w: baud rate must be positive", ErrInvalidBaudRate)
	}
	if o.DataBits < DataBits5 || o.DataBits > DataBits8 {
		return fmt.Errorf("%w: data bits %d", ErrInvalidConfig, o.DataBits)
	}
	if o.StopBits != StopBits1 && o.StopBits != StopBits2 {
		return fmt.Errorf("%w: stop bits %d", ErrInvalidConfig, o.StopBits)
	}
	switch o.Parity {
	case ParityNone, ParityOdd, ParityEven:
	default:
		return fmt.Errorf("%w: parity %d", ErrInvalidConfig, o.Parity)
	}
	switch o.FlowControl {
	case FlowControlNone, FlowControlSoftware, FlowControlHardware:
	default:
		return fmt.Errorf("%w: flow control %d", ErrInvalidConfig, o.FlowControl)
	}
	switch o.DTROnOpen {
	case DTRUnspecified, DTRAssert, DTRDeassert:
	default:
		return fmt.Errorf("%w: dtr %d", ErrInvalidConfig, o.DTROnOpen)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	return nil
}

// vtime converts the advisory timeout to VTIME tenths of a second
func (o Options) vtime() uint8 {
	tenths := o.Timeout / (100 * time.Millisecond)
	if tenths > 255 {
		return 255
	}
	return uint8(tenths)
}
