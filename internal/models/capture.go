package models

// RadioInfo holds the receiver metadata that travels with a captured frame.
// It is informational only; nothing downstream validates it.
type RadioInfo struct {
	RSSI    int // Signal strength in dBm
	Channel int // 0 if the source does not report it
	Rate    int // Driver specific rate index
}

// CaptureBuffer is a single frame as handed over by a capture source.
// Data is owned by the source and is only valid for the duration of the
// handler call it is passed to.
type CaptureBuffer struct {
	Data []byte

	// HeaderOffset is where the 802.11 MAC header starts within Data.
	// ESP8266 sniffer buffers carry a 12 byte RxControl block in front of it,
	// radiotap captures carry a variable length radiotap header.
	HeaderOffset int

	Radio RadioInfo
}

// Header returns the bytes starting at the 802.11 MAC header, or nil if the
// offset lies outside Data.
func (b CaptureBuffer) Header() []byte {
	if b.HeaderOffset < 0 || b.HeaderOffset >= len(b.Data) {
		return nil
	}
	return b.Data[b.HeaderOffset:]
}
