// Package discovery finds capture devices and reports whether they are in
// monitor mode.
package discovery

import (
	"fmt"
	"sort"
	"time"

	"deauthwatch/internal/log"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// probeSnaplen is enough to open a handle; nothing is read from it.
const probeSnaplen = 64

// ListConfig controls device discovery.
type ListConfig struct {
	// Probe opens each device to read its link type. Requires capture
	// privileges; without them every device reports an error.
	Probe bool
	// MonitorOnly drops devices that are not delivering 802.11 frames.
	// Implies Probe.
	MonitorOnly bool
}

// ListDevices enumerates the pcap devices on this host.
func ListDevices(cfg ListConfig) ([]Device, error) {
	ifs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	probe := cfg.Probe || cfg.MonitorOnly
	logger := log.WithComponent("discovery")

	devices := make([]Device, 0, len(ifs))
	for _, iface := range ifs {
		d := Device{Name: iface.Name, Description: iface.Description}
		for _, a := range iface.Addresses {
			d.Addresses = append(d.Addresses, a.IP)
		}
		if probe {
			d.LinkType, d.Err = linkType(iface.Name)
			if d.Err != nil {
				logger.WithError(d.Err).WithField("device", iface.Name).Debug("Could not open device")
			}
		}
		devices = append(devices, d)
	}

	return filterDevices(devices, cfg.MonitorOnly), nil
}

// filterDevices sorts devices so monitor-ready ones come first and, if
// monitorOnly is set, drops the rest.
func filterDevices(devices []Device, monitorOnly bool) []Device {
	out := devices[:0]
	for _, d := range devices {
		if monitorOnly && !d.MonitorReady() {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MonitorReady() != out[j].MonitorReady() {
			return out[i].MonitorReady()
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func linkType(name string) (layers.LinkType, error) {
	handle, err := pcap.OpenLive(name, probeSnaplen, false, 100*time.Millisecond)
	if err != nil {
		return 0, err
	}
	defer handle.Close()
	return handle.LinkType(), nil
}
