package serialtty

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errOpened = errors.New("opener called")

type recordingOpener struct {
	calls []Options
}

func (r *recordingOpener) Open(opts Options) (*Tty, error) {
	r.calls = append(r.calls, opts)
	return nil, errOpened
}

func newTestDialer(goos string, ports ...PortDescriptor) (*Dialer, *recordingOpener, *recordingOpener) {
	standard, quirk := &recordingOpener{}, &recordingOpener{}
	return &Dialer{
		Lister:   ListerFunc(func() ([]PortDescriptor, error) { return ports, nil }),
		Standard: standard,
		Quirk:    quirk,
		GOOS:     goos,
	}, standard, quirk
}

func TestDialDeviceNotFound(t *testing.T) {
	d, standard, quirk := newTestDialer("darwin", PortDescriptor{Name: "/dev/cu.usbserial-1"})

	_, err := d.Dial(DefaultOptions().WithName("/dev/cu.usbserial-2110"))
	require.ErrorIs(t, err, ErrDeviceNotFound)
	require.Empty(t, standard.calls, "no open attempt for a missing device")
	require.Empty(t, quirk.calls, "no open attempt for a missing device")
}

func TestDialEnumerationError(t *testing.T) {
	standard := &recordingOpener{}
	d := &Dialer{
		Lister:   ListerFunc(func() ([]PortDescriptor, error) { return nil, errors.New("no /dev") }),
		Standard: standard,
		Quirk:    standard,
		GOOS:     "linux",
	}

	_, err := d.Dial(DefaultOptions())
	require.ErrorIs(t, err, ErrEnumeration)
	require.Empty(t, standard.calls)
}

func TestDialRouting(t *testing.T) {
	prolific := PortDescriptor{
		Name:         "/dev/cu.usbserial-2110",
		Type:         PortTypeUSB,
		Manufacturer: "Prolific Technology Inc.",
		VendorID:     "067b",
		ProductID:    "2303",
	}
	noManufacturer := PortDescriptor{Name: "/dev/cu.usbmodem1", Type: PortTypeUSB}
	generic := PortDescriptor{Name: "/dev/ttyS0"}

	tests := []struct {
		name      string
		goos      string
		desc      PortDescriptor
		wantQuirk bool
	}{
		{"prolific on darwin", "darwin", prolific, true},
		{"prolific on linux", "linux", prolific, false},
		{"usb without manufacturer", "darwin", noManufacturer, false},
		{"generic", "darwin", generic, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, standard, quirk := newTestDialer(tt.goos, generic, tt.desc)
			opts := DefaultOptions().WithName(tt.desc.Name).WithBaudRate(9600)

			_, err := d.Dial(opts)
			require.ErrorIs(t, err, errOpened)

			if tt.wantQuirk {
				require.Equal(t, []Options{opts}, quirk.calls)
				require.Empty(t, standard.calls)
			} else {
				require.Equal(t, []Options{opts}, standard.calls)
				require.Empty(t, quirk.calls)
			}
		})
	}
}
