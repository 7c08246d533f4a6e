package discovery

import (
	"net"
)

// Interface is a capture device as libpcap (and therefore tshark) sees it.
type Interface struct {
	// Index is the 1-based position tshark -D prints.
	Index       int
	Name        string
	Description string
	Addresses   []net.IP
}
