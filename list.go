package serialtty

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PortType classifies an enumerated device
type PortType int

const (
	PortTypeGeneric PortType = iota
	PortTypeUSB
)

func (t PortType) String() string {
	if t == PortTypeUSB {
		return "usb"
	}
	return "generic"
}

// PortDescriptor describes a device as seen by the OS at enumeration time.
// It is recomputed on every open attempt and never cached.
type PortDescriptor struct {
	Name         string // path or logical port, e.g. /dev/ttyUSB0 or COM3
	Type         PortType
	Manufacturer string // USB only, may be empty
	Product      string
	VendorID     string // USB only, lower-case hex
	ProductID    string
	SerialNumber string
}

// IsUSB reports whether the device is USB attached
func (d PortDescriptor) IsUSB() bool {
	return d.Type == PortTypeUSB
}

// Description provides a human-readable description of the port
func (d PortDescriptor) Description() string {
	if d.IsUSB() && (d.Manufacturer != "" || d.Product != "") {
		return strings.TrimSpace(d.Manufacturer + " " + d.Product)
	}
	return getPortDescription(filepath.Base(d.Name))
}

func (d PortDescriptor) String() string {
	if d.IsUSB() {
		return fmt.Sprintf("%s (usb %s:%s %s)", d.Name, d.VendorID, d.ProductID, d.Manufacturer)
	}
	return d.Name
}

// Lister enumerates the serial devices currently visible to the OS
type Lister interface {
	ListPorts() ([]PortDescriptor, error)
}

// ListerFunc adapts a function to the Lister interface
type ListerFunc func() ([]PortDescriptor, error)

func (f ListerFunc) ListPorts() ([]PortDescriptor, error) { return f() }

// ListPorts lists the ports of the running system
func ListPorts() ([]PortDescriptor, error) {
	return SystemLister().ListPorts()
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	case strings.HasPrefix(name, "cu.usbserial"), strings.HasPrefix(name, "cu.usbmodem"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "COM"):
		return "COM Port"
	default:
		return "Serial Port"
	}
}

// usbVendors names common USB-serial bridge vendors by vendor ID, for
// platforms whose enumeration does not report a manufacturer string
var usbVendors = map[string]string{
	"067b": "Prolific Technology, Inc.",
	"0403": "FTDI",
	"10c4": "Silicon Labs",
	"1a86": "QinHeng Electronics",
	"2341": "Arduino SA",
	"239a": "Adafruit",
	"2e8a": "Raspberry Pi",
	"303a": "Espressif",
	"0483": "STMicroelectronics",
	"04d8": "Microchip Technology, Inc.",
}

// vendorName returns the vendor for a hex vendor ID, or ""
func vendorName(vid string) string {
	return usbVendors[strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(vid, "0x"), "0X"))]
}
