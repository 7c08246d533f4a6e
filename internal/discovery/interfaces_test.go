package discovery

import (
	"net"
	"testing"

	"github.com/google/gopacket/pcap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInterfaces() []Interface {
	return fromPcap([]pcap.Interface{
		{Name: "eth0", Addresses: []pcap.InterfaceAddress{{IP: net.ParseIP("10.0.0.5")}}},
		{Name: "wlan0", Description: "Wireless"},
		{Name: "lo"},
	})
}

func TestFromPcap(t *testing.T) {
	ifaces := testInterfaces()
	require.Len(t, ifaces, 3)
	assert.Equal(t, 1, ifaces[0].Index)
	assert.Equal(t, "10.0.0.5", ifaces[0].Addresses[0].String())
	assert.Equal(t, "Wireless", ifaces[1].Description)
	assert.Equal(t, 3, ifaces[2].Index)
}

func TestResolve(t *testing.T) {
	ifaces := testInterfaces()

	name, err := Resolve("wlan0", ifaces)
	require.NoError(t, err)
	assert.Equal(t, "wlan0", name)

	name, err = Resolve("3", ifaces)
	require.NoError(t, err)
	assert.Equal(t, "lo", name)

	_, err = Resolve("5", ifaces)
	assert.ErrorIs(t, err, ErrUnknownInterface)

	_, err = Resolve("eth9", ifaces)
	assert.ErrorIs(t, err, ErrUnknownInterface)
	assert.Contains(t, err.Error(), "eth0, wlan0, lo")

	_, err = Resolve(" ", ifaces)
	assert.ErrorIs(t, err, ErrUnknownInterface)
}
