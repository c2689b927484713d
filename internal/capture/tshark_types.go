package capture

// EkPacket represents the top-level structure of a Tshark -T ek output line.
type EkPacket struct {
	Timestamp string   `json:"timestamp"`
	Layers    EkLayers `json:"layers"`
}

// EkLayers holds the 802.11 fields we extract.
// When using -e flags with -T ek, tshark flattens the structure and replaces dots with underscores.
type EkLayers struct {
	FrameLen     []string `json:"frame_len,omitempty"`
	WlanFC       []string `json:"wlan_fc,omitempty"` // Frame control, octet 0 in the high byte
	AntSignal    []string `json:"radiotap_dbm_antsignal,omitempty"`
	RadioChannel []string `json:"wlan_radio_channel,omitempty"`
}
