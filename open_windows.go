package serialtty

import (
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// DCB flag bits not exported by x/sys/windows
const (
	dcbBinary      uint32 = 0x00000001
	dcbParity      uint32 = 0x00000002
	dcbOutxCtsFlow uint32 = 0x00000004
	dcbOutxDsrFlow uint32 = 0x00000008
	dcbDtrMask     uint32 = 0x00000030
	dcbDsrSense    uint32 = 0x00000040
	dcbTxContinue  uint32 = 0x00000080
	dcbOutX        uint32 = 0x00000100
	dcbInX         uint32 = 0x00000200
	dcbErrorChar   uint32 = 0x00000400
	dcbNull        uint32 = 0x00000800
	dcbRtsMask     uint32 = 0x00003000
	dcbAbortOnErr  uint32 = 0x00004000
)

// writeTimeout bounds how long a single Write may wait for the driver
const writeTimeout = 10 * time.Millisecond

// Open opens opts.Name (COM3 or \\.\COM3) for overlapped I/O, applies the
// configuration through the DCB and sets comm timeouts so reads return
// immediately. Any failure is reported as *OpenError and the handle is
// closed.
func (o StandardOpener) Open(opts Options) (*Tty, error) {
	log := loggerOrDiscard(o.Logger)
	fail := func(op string, err error) (*Tty, error) {
		return nil, &OpenError{Device: opts.Name, Op: op, Err: err}
	}

	if err := opts.Validate(); err != nil {
		return fail("validate", err)
	}

	path, err := windows.UTF16PtrFromString(devicePath(opts.Name))
	if err != nil {
		return fail("open", err)
	}
	h, err := windows.CreateFile(path,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0, nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_OVERLAPPED,
		0)
	if err != nil {
		return fail("open", err)
	}

	if op, err := configureComm(h, opts); err != nil {
		windows.CloseHandle(h)
		return fail(op, err)
	}

	tty, err := newTty(opts.Name, h)
	if err != nil {
		windows.CloseHandle(h)
		return fail("create events", err)
	}

	log.Debug("serial port opened",
		"device", opts.Name,
		"baud", opts.BaudRate,
		"data_bits", opts.DataBits,
		"parity", opts.Parity,
		"stop_bits", opts.StopBits,
		"flow_control", opts.FlowControl,
	)
	return tty, nil
}

// Open fails: Route never selects the vendor workaround on Windows
func (o QuirkOpener) Open(opts Options) (*Tty, error) {
	return nil, &QuirkOpenError{Device: opts.Name, Op: "open", Err: ErrUnsupportedPlatform}
}

// devicePath adds the \\.\ prefix COM ports above COM9 require
func devicePath(name string) string {
	if strings.HasPrefix(name, `\\.\`) {
		return name
	}
	return `\\.\` + name
}

func configureComm(h windows.Handle, opts Options) (string, error) {
	var dcb windows.DCB
	dcb.DCBlength = uint32(unsafe.Sizeof(dcb))
	if err := windows.GetCommState(h, &dcb); err != nil {
		return "get comm state", err
	}
	applyOptions(&dcb, opts)
	if err := windows.SetCommState(h, &dcb); err != nil {
		return "set comm state", err
	}

	timeouts := windows.CommTimeouts{
		ReadIntervalTimeout:       0xFFFFFFFF, // MAXDWORD with zero totals: return at once
		WriteTotalTimeoutConstant: uint32(writeTimeout / time.Millisecond),
	}
	if err := windows.SetCommTimeouts(h, &timeouts); err != nil {
		return "set comm timeouts", err
	}

	if err := windows.PurgeComm(h, windows.PURGE_RXCLEAR|windows.PURGE_TXCLEAR); err != nil {
		return "purge", err
	}
	return "", nil
}

// applyOptions writes the framing, flow control and DTR state into dcb
func applyOptions(dcb *windows.DCB, opts Options) {
	dcb.BaudRate = opts.BaudRate
	dcb.ByteSize = uint8(opts.DataBits)

	switch opts.Parity {
	case ParityOdd:
		dcb.Parity = windows.ODDPARITY
	case ParityEven:
		dcb.Parity = windows.EVENPARITY
	default:
		dcb.Parity = windows.NOPARITY
	}
	switch opts.StopBits {
	case StopBits2:
		dcb.StopBits = windows.TWOSTOPBITS
	default:
		dcb.StopBits = windows.ONESTOPBIT
	}

	flags := dcb.Flags | dcbBinary | dcbTxContinue
	flags &^= dcbParity | dcbOutxCtsFlow | dcbOutxDsrFlow | dcbDsrSense |
		dcbOutX | dcbInX | dcbErrorChar | dcbNull | dcbAbortOnErr | dcbDtrMask | dcbRtsMask
	if opts.Parity != ParityNone {
		flags |= dcbParity
	}

	switch opts.FlowControl {
	case FlowControlHardware:
		flags |= dcbOutxCtsFlow | windows.RTS_CONTROL_HANDSHAKE
	case FlowControlSoftware:
		flags |= dcbOutX | dcbInX | windows.RTS_CONTROL_ENABLE
		dcb.XonChar = 0x11
		dcb.XoffChar = 0x13
		dcb.XonLim = 2048
		dcb.XoffLim = 512
	default:
		flags |= windows.RTS_CONTROL_ENABLE
	}

	if opts.DTROnOpen.Resolve() {
		flags |= windows.DTR_CONTROL_ENABLE
	} else {
		flags |= windows.DTR_CONTROL_DISABLE
	}
	dcb.Flags = flags
}
