package dot11

import "strconv"

var managementSubtypes = map[uint8]string{
	0x0: "AssocReq",
	0x1: "AssocResp",
	0x2: "ReassocReq",
	0x3: "ReassocResp",
	0x4: "ProbeReq",
	0x5: "ProbeResp",
	0x8: "Beacon",
	0x9: "ATIM",
	0xA: "Disassoc",
	0xB: "Auth",
	0xC: "Deauth",
	0xD: "Action",
}

var controlSubtypes = map[uint8]string{
	0x8: "BlockAckReq",
	0x9: "BlockAck",
	0xA: "PS-Poll",
	0xB: "RTS",
	0xC: "CTS",
	0xD: "ACK",
	0xE: "CF-End",
	0xF: "CF-End+CF-Ack",
}

var dataSubtypes = map[uint8]string{
	0x0: "Data",
	0x1: "Data+CF-Ack",
	0x2: "Data+CF-Poll",
	0x3: "Data+CF-Ack+CF-Poll",
	0x4: "Null",
	0x5: "CF-Ack",
	0x6: "CF-Poll",
	0x7: "CF-Ack+CF-Poll",
	0x8: "QoSData",
	0x9: "QoSData+CF-Ack",
	0xA: "QoSData+CF-Poll",
	0xB: "QoSData+CF-Ack+CF-Poll",
	0xC: "QoSNull",
	0xE: "QoSCF-Poll",
	0xF: "QoSCF-Ack+CF-Poll",
}

// SubtypeName returns the common name for the frame's subtype, or the subtype
// number as a string for reserved values.
func SubtypeName(fc FrameControl) string {
	var names map[uint8]string
	switch fc.Type {
	case FrameTypeManagement:
		names = managementSubtypes
	case FrameTypeControl:
		names = controlSubtypes
	case FrameTypeData:
		names = dataSubtypes
	}
	if name, ok := names[fc.Subtype]; ok {
		return name
	}
	return strconv.Itoa(int(fc.Subtype))
}
