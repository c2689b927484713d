package capture

import (
	"fmt"

	"deauthwatch/internal/models"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// frameBuffer wraps raw link-layer data in a CaptureBuffer, locating the
// 802.11 header for the link types a monitor-mode capture can produce.
func frameBuffer(linkType layers.LinkType, data []byte) (models.CaptureBuffer, error) {
	switch linkType {
	case layers.LinkTypeIEEE802_11:
		return models.CaptureBuffer{Data: data}, nil
	case layers.LinkTypeIEEE80211Radio:
		var rt layers.RadioTap
		if err := rt.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
			return models.CaptureBuffer{}, fmt.Errorf("radiotap: %w", err)
		}
		buf := models.CaptureBuffer{
			Data:         data,
			HeaderOffset: int(rt.Length),
		}
		if rt.Present.DBMAntennaSignal() {
			buf.Radio.RSSI = int(rt.DBMAntennaSignal)
		}
		if rt.Present.Channel() {
			buf.Radio.Channel = channelFromFrequency(int(rt.ChannelFrequency))
		}
		if rt.Present.Rate() {
			buf.Radio.Rate = int(rt.Rate)
		}
		return buf, nil
	}
	return models.CaptureBuffer{}, fmt.Errorf("%w: %s", ErrUnsupportedLinkType, linkType)
}

// channelFromFrequency converts a centre frequency in MHz to a channel number.
func channelFromFrequency(mhz int) int {
	switch {
	case mhz == 2484:
		return 14
	case mhz >= 2412 && mhz <= 2472:
		return (mhz - 2407) / 5
	case mhz >= 5000 && mhz <= 5895:
		return (mhz - 5000) / 5
	case mhz >= 5955 && mhz <= 7115:
		return (mhz - 5950) / 5
	}
	return 0
}
