package discovery

import (
	"net"

	"github.com/google/gopacket/layers"
)

// Device represents a capture device and the link type it delivers.
type Device struct {
	Name        string
	Description string
	Addresses   []net.IP
	LinkType    layers.LinkType
	Err         error // Set when the device could not be opened to read its link type
}

// MonitorReady reports whether the device delivers 802.11 frames the
// decoder understands, i.e. it is in monitor mode.
func (d Device) MonitorReady() bool {
	return d.Err == nil && (d.LinkType == layers.LinkTypeIEEE80211Radio || d.LinkType == layers.LinkTypeIEEE802_11)
}

// Status describes the device's capture readiness in a word.
func (d Device) Status() string {
	switch {
	case d.Err != nil:
		return "unavailable"
	case d.LinkType == layers.LinkTypeIEEE80211Radio:
		return "monitor (radiotap)"
	case d.LinkType == layers.LinkTypeIEEE802_11:
		return "monitor (802.11)"
	default:
		return "managed"
	}
}
