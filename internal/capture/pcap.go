package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deauthwatch/internal/log"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// readTimeout bounds how long a read blocks before the context is checked.
const readTimeout = 250 * time.Millisecond

// PcapSource captures from a network interface that is already in monitor
// mode. Switching the interface into monitor mode and hopping channels is
// left to the operating system.
type PcapSource struct {
	Interface string
	Snaplen   int
	Filter    string
}

// NewPcapSource creates a live capture source for iface.
func NewPcapSource(iface string, snaplen int, filter string) *PcapSource {
	return &PcapSource{Interface: iface, Snaplen: snaplen, Filter: filter}
}

// Run opens the interface and hands every frame to h until ctx is canceled.
func (s *PcapSource) Run(ctx context.Context, h Handler) error {
	inactive, err := pcap.NewInactiveHandle(s.Interface)
	if err != nil {
		return fmt.Errorf("could not create handle: %w", err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(s.Snaplen); err != nil {
		return fmt.Errorf("could not set snaplen: %w", err)
	}
	if err := inactive.SetPromisc(true); err != nil {
		return fmt.Errorf("could not enable promiscuous mode: %w", err)
	}
	if err := inactive.SetTimeout(readTimeout); err != nil {
		return fmt.Errorf("could not set timeout: %w", err)
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		return fmt.Errorf("could not set immediate mode: %w", err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return fmt.Errorf("could not open %s: %w", s.Interface, err)
	}
	defer handle.Close()

	linkType := handle.LinkType()
	if linkType != layers.LinkTypeIEEE80211Radio && linkType != layers.LinkTypeIEEE802_11 {
		return fmt.Errorf("%w: %s on %s (is the interface in monitor mode?)", ErrUnsupportedLinkType, linkType, s.Interface)
	}

	if s.Filter != "" {
		if err := handle.SetBPFFilter(s.Filter); err != nil {
			return fmt.Errorf("could not set BPF filter: %w", err)
		}
	}

	logger := log.WithComponent("capture").WithField("interface", s.Interface)
	logger.WithField("link_type", linkType).Info("Live capture started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, _, err := handle.ZeroCopyReadPacketData()
		if err != nil {
			if errors.Is(err, pcap.NextErrorTimeoutExpired) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrSourceClosed, err)
		}

		buf, err := frameBuffer(linkType, data)
		if err != nil {
			logger.WithError(err).Debug("Skipping undecodable packet")
			continue
		}
		h(buf)
	}
}
