package models

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// PacketRecord is one parsed tshark line, oriented from the client's point of view.
type PacketRecord struct {
	Timestamp     time.Time
	ServerAddress netip.Addr
	ClientAddress netip.Addr
	ServerPort    int
	ClientPort    int
	StreamID      int

	// DirectedLength is the TCP payload length, positive when the packet
	// travelled client->server and negative for server->client.
	DirectedLength int

	// ServerName is the TLS SNI or HTTP Host seen on this packet, usually empty.
	ServerName string
}

// Identity is the human-readable tuple of a session. It labels sessions but
// never keys them; StreamID is the only grouping key.
type Identity struct {
	StreamID      int
	ClientPort    int
	ServerAddress netip.Addr
	ServerPort    int
}

// Identity returns the display tuple of the record.
func (r PacketRecord) Identity() Identity {
	return Identity{
		StreamID:      r.StreamID,
		ClientPort:    r.ClientPort,
		ServerAddress: r.ServerAddress,
		ServerPort:    r.ServerPort,
	}
}

// Outbound reports whether the packet travelled client->server.
func (r PacketRecord) Outbound() bool {
	return r.DirectedLength >= 0
}

// String renders the tuple the way the dashboard legend does, without a name.
func (id Identity) String() string {
	return fmt.Sprintf(":%d<->%s:%d", id.ClientPort, id.ServerAddress, id.ServerPort)
}

// Flows returns the identity as gopacket values: the server endpoint and
// the clientPort->serverPort transport flow. The endpoint is the zero value
// when the server address is unknown.
func (id Identity) Flows() (gopacket.Endpoint, gopacket.Flow) {
	var server gopacket.Endpoint
	if id.ServerAddress.IsValid() {
		server = layers.NewIPEndpoint(id.ServerAddress.AsSlice())
	}
	transport, _ := gopacket.FlowFromEndpoints(
		layers.NewTCPPortEndpoint(layers.TCPPort(id.ClientPort)),
		layers.NewTCPPortEndpoint(layers.TCPPort(id.ServerPort)),
	)
	return server, transport
}

// Hash is stable for the lifetime of a session and is used to pick colours.
func (id Identity) Hash() uint64 {
	server, transport := id.Flows()
	h := transport.FastHash()
	if id.ServerAddress.IsValid() {
		h ^= server.FastHash()
	}
	return h ^ uint64(id.StreamID)
}
