package serialtty

import "strings"

// Strategy selects how a resolved device is opened
type Strategy int

const (
	StrategyStandard Strategy = iota
	StrategyQuirk
)

func (s Strategy) String() string {
	if s == StrategyQuirk {
		return "quirk"
	}
	return "standard"
}

// quirkVendors are lower-case manufacturer substrings of USB-serial bridges
// that need the vendor workaround on quirkPlatforms
var quirkVendors = []string{
	"prolific",
}

var quirkPlatforms = map[string]bool{
	"darwin": true,
	"ios":    true,
}

// Route picks the open strategy for d on goos. Only USB devices from a
// known vendor on an affected platform take the quirk path.
func Route(d PortDescriptor, goos string) Strategy {
	if !d.IsUSB() || !quirkPlatforms[goos] {
		return StrategyStandard
	}
	mfn := strings.ToLower(d.Manufacturer)
	for _, marker := range quirkVendors {
		if strings.Contains(mfn, marker) {
			return StrategyQuirk
		}
	}
	return StrategyStandard
}
