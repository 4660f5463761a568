//go:build !linux

package serialtty

import (
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

type enumeratorLister struct {
	list func() ([]*enumerator.PortDetails, error)
}

// SystemLister returns the Lister for the running platform
func SystemLister() Lister {
	return &enumeratorLister{list: enumerator.GetDetailedPortsList}
}

// ListPorts returns the ports reported by the OS sorted by name. The
// manufacturer is derived from the vendor ID since the enumerator does not
// report one.
func (l *enumeratorLister) ListPorts() ([]PortDescriptor, error) {
	details, err := l.list()
	if err != nil {
		return nil, err
	}

	ports := make([]PortDescriptor, 0, len(details))
	for _, d := range details {
		desc := PortDescriptor{Name: d.Name, Type: PortTypeGeneric}
		if d.IsUSB {
			desc.Type = PortTypeUSB
			desc.VendorID = strings.ToLower(d.VID)
			desc.ProductID = strings.ToLower(d.PID)
			desc.SerialNumber = d.SerialNumber
			desc.Product = d.Product
			desc.Manufacturer = vendorName(d.VID)
		}
		ports = append(ports, desc)
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}
