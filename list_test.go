package serialtty

import "testing"

func TestGetPortDescription(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"ttyUSB0", "USB Serial Port"},
		{"ttyACM0", "USB CDC/ACM Device"},
		{"ttyS0", "Standard Serial Port"},
		{"ttyAMA0", "ARM Serial Port"},
		{"ttymxc0", "i.MX Serial Port"},
		{"ttyO0", "OMAP Serial Port"},
		{"ttySAC0", "Samsung Serial Port"},
		{"ttyTHS0", "Tegra Serial Port"},
		{"cu.usbserial-2110", "USB Serial Port"},
		{"COM3", "COM Port"},
		{"unknown", "Serial Port"},
	}

	for _, test := range tests {
		result := getPortDescription(test.name)
		if result != test.expected {
			t.Errorf("getPortDescription(%s) = %s, expected %s", test.name, result, test.expected)
		}
	}
}

func TestVendorName(t *testing.T) {
	tests := []struct {
		vid  string
		want string
	}{
		{"067B", "Prolific Technology, Inc."},
		{"067b", "Prolific Technology, Inc."},
		{"0x0403", "FTDI"},
		{"10C4", "Silicon Labs"},
		{"ffff", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := vendorName(tt.vid); got != tt.want {
			t.Errorf("vendorName(%q) = %q, want %q", tt.vid, got, tt.want)
		}
	}
}

func TestPortDescriptorDescription(t *testing.T) {
	tests := []struct {
		name string
		desc PortDescriptor
		want string
	}{
		{
			name: "generic",
			desc: PortDescriptor{Name: "/dev/ttyS0"},
			want: "Standard Serial Port",
		},
		{
			name: "usb without strings",
			desc: PortDescriptor{Name: "/dev/ttyUSB0", Type: PortTypeUSB},
			want: "USB Serial Port",
		},
		{
			name: "usb with strings",
			desc: PortDescriptor{Name: "/dev/ttyUSB0", Type: PortTypeUSB, Manufacturer: "FTDI", Product: "FT232R USB UART"},
			want: "FTDI FT232R USB UART",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.desc.Description(); got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListerFunc(t *testing.T) {
	want := []PortDescriptor{{Name: "/dev/ttyUSB0"}}
	var l Lister = ListerFunc(func() ([]PortDescriptor, error) { return want, nil })

	got, err := l.ListPorts()
	if err != nil {
		t.Fatalf("ListPorts failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "/dev/ttyUSB0" {
		t.Errorf("ListPorts() = %v, want %v", got, want)
	}
}
