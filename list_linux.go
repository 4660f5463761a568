//go:build linux

package serialtty

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Regular expressions for different types of serial devices
var serialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
	regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
	regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
	regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
	regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
	regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
	regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
	regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
}

// Exclude patterns for virtual terminals and other non-serial devices
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^tty\d+$`),  // Virtual terminals (tty1, tty2, etc.)
	regexp.MustCompile(`^console$`), // Console
	regexp.MustCompile(`^ptmx$`),    // Pseudo-terminal multiplexer
	regexp.MustCompile(`^pty.*$`),   // Pseudo-terminals
	regexp.MustCompile(`^pts/.*$`),  // Pseudo-terminal slaves
}

// sysfsLister scans devDir for serial device nodes and classifies them
// through sysClassTTY
type sysfsLister struct {
	devDir      string
	sysClassTTY string
	isDevice    func(path string) bool
}

// SystemLister returns the Lister for the running platform
func SystemLister() Lister {
	return &sysfsLister{
		devDir:      "/dev",
		sysClassTTY: "/sys/class/tty",
		isDevice:    isCharacterDevice,
	}
}

// ListPorts returns the available serial ports sorted by name.
// Filters for communication-capable devices and excludes virtual terminals.
func (l *sysfsLister) ListPorts() ([]PortDescriptor, error) {
	entries, err := os.ReadDir(l.devDir)
	if err != nil {
		return nil, err
	}

	var ports []PortDescriptor
	for _, entry := range entries {
		name := entry.Name()
		if !isSerialName(name) {
			continue
		}

		fullPath := filepath.Join(l.devDir, name)
		if !l.isDevice(fullPath) {
			continue
		}

		desc := PortDescriptor{Name: fullPath, Type: PortTypeGeneric}
		l.enrichUSBInfo(&desc, name)
		ports = append(ports, desc)
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}

func isSerialName(name string) bool {
	for _, p := range excludePatterns {
		if p.MatchString(name) {
			return false
		}
	}
	for _, p := range serialPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// enrichUSBInfo follows /sys/class/tty/<name>/device and walks up to the USB
// device directory (the one holding idVendor)
func (l *sysfsLister) enrichUSBInfo(desc *PortDescriptor, name string) {
	resolved, err := filepath.EvalSymlinks(filepath.Join(l.sysClassTTY, name, "device"))
	if err != nil {
		return // no device link, platform UART or virtual
	}
	if !strings.Contains(resolved, "usb") {
		return
	}

	for dir := resolved; dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "idVendor")); err != nil {
			continue
		}
		desc.Type = PortTypeUSB
		desc.VendorID = strings.ToLower(readSysfsFile(filepath.Join(dir, "idVendor")))
		desc.ProductID = strings.ToLower(readSysfsFile(filepath.Join(dir, "idProduct")))
		desc.Manufacturer = readSysfsFile(filepath.Join(dir, "manufacturer"))
		desc.Product = readSysfsFile(filepath.Join(dir, "product"))
		desc.SerialNumber = readSysfsFile(filepath.Join(dir, "serial"))
		return
	}
}

// readSysfsFile returns the trimmed content of a sysfs attribute, or ""
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
