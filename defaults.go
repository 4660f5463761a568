package serialtty

import "runtime"

// defaultDevices maps GOOS to the device name used when none is configured
var defaultDevices = map[string]string{
	"darwin":  "/dev/cu.usbserial-2110",
	"linux":   "/dev/ttyUSB0",
	"freebsd": "/dev/cuaU0",
	"openbsd": "/dev/ttyU0",
	"windows": "COM3",
}

const fallbackDevice = "/dev/ttyS0"

var defaultDevice = DefaultDeviceFor(runtime.GOOS)

// DefaultDevice returns the default device name for the running platform
func DefaultDevice() string {
	return defaultDevice
}

// DefaultDeviceFor returns the default device name for goos
func DefaultDeviceFor(goos string) string {
	if name, ok := defaultDevices[goos]; ok {
		return name
	}
	return fallbackDevice
}
