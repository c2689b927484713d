package dot11

import "github.com/google/gopacket/layers"

// EventKind is what the monitor counts a frame as.
type EventKind uint8

const (
	Other EventKind = iota
	Deauthentication
	ProbeRequest
)

func (k EventKind) String() string {
	switch k {
	case Deauthentication:
		return "deauth"
	case ProbeRequest:
		return "probe-request"
	default:
		return "other"
	}
}

// Classify maps a decoded frame control to an EventKind. Every input maps to
// exactly one kind; reserved subtypes and the neutral descriptor are Other.
func Classify(fc FrameControl) EventKind {
	if !fc.Valid {
		return Other
	}
	switch fc.Dot11Type() {
	case layers.Dot11TypeMgmtDeauthentication:
		return Deauthentication
	case layers.Dot11TypeMgmtProbeReq:
		return ProbeRequest
	}
	return Other
}
