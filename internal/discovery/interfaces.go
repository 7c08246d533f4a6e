package discovery

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gopacket/pcap"
)

// ErrUnknownInterface is returned when a requested device does not exist.
var ErrUnknownInterface = errors.New("unknown interface")

// ListInterfaces returns the capture devices in libpcap order.
func ListInterfaces() ([]Interface, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("could not list interfaces: %w", err)
	}
	return fromPcap(devs), nil
}

func fromPcap(devs []pcap.Interface) []Interface {
	out := make([]Interface, 0, len(devs))
	for i, d := range devs {
		iface := Interface{
			Index:       i + 1,
			Name:        d.Name,
			Description: d.Description,
		}
		for _, a := range d.Addresses {
			if a.IP != nil {
				iface.Addresses = append(iface.Addresses, a.IP)
			}
		}
		out = append(out, iface)
	}
	return out
}

// Resolve maps a name or a tshark index ("5") to a device name.
func Resolve(want string, ifaces []Interface) (string, error) {
	want = strings.TrimSpace(want)
	if want == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownInterface)
	}
	for _, iface := range ifaces {
		if iface.Name == want {
			return iface.Name, nil
		}
	}
	if idx, err := strconv.Atoi(want); err == nil {
		if idx >= 1 && idx <= len(ifaces) {
			return ifaces[idx-1].Name, nil
		}
		return "", fmt.Errorf("%w: index %d out of range 1..%d", ErrUnknownInterface, idx, len(ifaces))
	}

	names := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		names = append(names, iface.Name)
	}
	return "", fmt.Errorf("%w: %q (have %s)", ErrUnknownInterface, want, strings.Join(names, ", "))
}

// ResolveInterface resolves want against the live device list. When libpcap
// cannot enumerate devices (no permission, no library) want is returned as
// is and tshark gets to decide.
func ResolveInterface(want string) (string, error) {
	ifaces, err := ListInterfaces()
	if err != nil || len(ifaces) == 0 {
		return want, nil
	}
	return Resolve(want, ifaces)
}
