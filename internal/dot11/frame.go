// Package dot11 decodes the frame control field of captured 802.11 frames and
// classifies them into the events the monitor counts.
package dot11

import (
	"fmt"

	"deauthwatch/internal/models"

	"github.com/google/gopacket/layers"
)

// DefaultMinLength is the buffer length at or below which the header bytes are
// not guaranteed to be present. ESP8266 sniffer buffers start the MAC header
// right after a 12 byte RxControl block.
const DefaultMinLength = 12

// FrameType is the two bit type field of the frame control.
type FrameType uint8

const (
	FrameTypeManagement FrameType = iota
	FrameTypeControl
	FrameTypeData
	FrameTypeReserved
)

func (t FrameType) String() string {
	switch t {
	case FrameTypeManagement:
		return "Management"
	case FrameTypeControl:
		return "Control"
	case FrameTypeData:
		return "Data"
	default:
		return "Reserved"
	}
}

// Management subtypes the classifier cares about.
const (
	SubtypeProbeRequest     uint8 = 0x4
	SubtypeDeauthentication uint8 = 0xC
)

// FrameControl is the decoded form of the first two octets of an 802.11 MAC
// header. Flags reuses gopacket's bit layout, which matches octet 1 as is.
type FrameControl struct {
	Version uint8
	Type    FrameType
	Subtype uint8
	Flags   layers.Dot11Flags

	// Valid is false for the neutral descriptor produced from short buffers.
	Valid bool
}

// neutral is returned for buffers too short to carry a header.
var neutral = FrameControl{Type: FrameTypeReserved}

func (fc FrameControl) ToDS() bool            { return fc.Flags.ToDS() }
func (fc FrameControl) FromDS() bool          { return fc.Flags.FromDS() }
func (fc FrameControl) MoreFragments() bool   { return fc.Flags.MF() }
func (fc FrameControl) Retry() bool           { return fc.Flags.Retry() }
func (fc FrameControl) PowerManagement() bool { return fc.Flags.PowerManagement() }
func (fc FrameControl) MoreData() bool        { return fc.Flags.MD() }
func (fc FrameControl) Protected() bool       { return fc.Flags.WEP() }
func (fc FrameControl) Order() bool           { return fc.Flags.Order() }

// Dot11Type returns the combined type/subtype code in gopacket's encoding
// (type in bits 0-1, subtype in bits 2-5).
func (fc FrameControl) Dot11Type() layers.Dot11Type {
	return layers.Dot11Type(uint8(fc.Type)&0x03 | (fc.Subtype&0x0F)<<2)
}

func (fc FrameControl) String() string {
	if !fc.Valid {
		return "invalid"
	}
	return fmt.Sprintf("v%d %s/%s [%s]", fc.Version, fc.Type, SubtypeName(fc), fc.Flags)
}

// Decoder extracts FrameControl values from capture buffers.
type Decoder struct {
	// MinLength is a policy threshold: buffers of this length or shorter
	// decode to the neutral descriptor.
	MinLength int
}

// NewDecoder returns a Decoder. A negative minLength falls back to
// DefaultMinLength.
func NewDecoder(minLength int) Decoder {
	if minLength < 0 {
		minLength = DefaultMinLength
	}
	return Decoder{MinLength: minLength}
}

// Decode reads the frame control octets of buf. It never fails; buffers that
// cannot hold a header yield the neutral descriptor.
func (d Decoder) Decode(buf models.CaptureBuffer) FrameControl {
	if len(buf.Data) <= d.MinLength {
		return neutral
	}
	off := buf.HeaderOffset
	if off < 0 || off+2 > len(buf.Data) {
		return neutral
	}
	return DecodeFrameControl(buf.Data[off], buf.Data[off+1])
}

// DecodeFrameControl expands the two frame control octets.
func DecodeFrameControl(b0, b1 byte) FrameControl {
	return FrameControl{
		Version: b0 & 0x03,
		Type:    FrameType((b0 & 0x0C) >> 2),
		Subtype: (b0 & 0xF0) >> 4,
		Flags:   layers.Dot11Flags(b1),
		Valid:   true,
	}
}
